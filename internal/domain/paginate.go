package domain

// PageSize is the fixed number of records shown per listing page.
const PageSize = 10

// TotalPages returns ceil(n / PageSize), or 0 for an empty sequence.
func TotalPages(n int) int {
	if n <= 0 {
		return 0
	}
	return (n + PageSize - 1) / PageSize
}

// Paginate returns the records of the 1-indexed page. Pages outside the
// sequence yield an empty slice. The result shares memory with records.
func Paginate(records []CaseRecord, page int) []CaseRecord {
	if page < 1 {
		return []CaseRecord{}
	}
	start := (page - 1) * PageSize
	if start >= len(records) {
		return []CaseRecord{}
	}
	end := min(start+PageSize, len(records))
	return records[start:end]
}
