package domain

import "strings"

// Filter returns the records whose location or region contains term as a
// case-insensitive substring. An empty term returns records unchanged.
// The input slice is never modified.
func Filter(records []CaseRecord, term string) []CaseRecord {
	if term == "" {
		return records
	}

	needle := strings.ToLower(term)
	out := make([]CaseRecord, 0, len(records))
	for _, r := range records {
		if strings.Contains(strings.ToLower(r.Location), needle) ||
			strings.Contains(strings.ToLower(r.Region), needle) {
			out = append(out, r)
		}
	}
	return out
}
