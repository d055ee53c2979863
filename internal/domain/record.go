package domain

import (
	"strconv"
	"time"
)

// CaseRecord is one reported tally of dengue cases and deaths for a location.
// JSON field names follow the document layout used by the original collection
// ("loc", "Region", "date"), so exported records can be re-imported unchanged.
type CaseRecord struct {
	ID         string `json:"id"`
	Location   string `json:"loc"`
	Region     string `json:"Region"`
	Cases      int    `json:"cases"`
	Deaths     int    `json:"deaths"`
	ReportDate string `json:"date"` // ISO-8601 calendar date, e.g. "2024-07-01"
}

// RecordInput is the untyped shape of a record as entered in a form or read
// from a spreadsheet row. Every field is a string until ParseInput coerces it.
type RecordInput struct {
	Location   string `json:"loc"`
	Region     string `json:"Region"`
	Cases      string `json:"cases"`
	Deaths     string `json:"deaths"`
	ReportDate string `json:"date"`
}

// Input converts a stored record back into editable form fields.
func (r CaseRecord) Input() RecordInput {
	return RecordInput{
		Location:   r.Location,
		Region:     r.Region,
		Cases:      strconv.Itoa(r.Cases),
		Deaths:     strconv.Itoa(r.Deaths),
		ReportDate: r.ReportDate,
	}
}

// Validate checks the invariants a record must hold before it is persisted.
// Stores call it on create and update; ParseInput guarantees it for form input.
func (r CaseRecord) Validate() error {
	switch {
	case r.Location == "":
		return rejectField("loc", "is required")
	case r.Region == "":
		return rejectField("Region", "is required")
	case r.Cases < 0:
		return rejectField("cases", "must be non-negative")
	case r.Deaths < 0:
		return rejectField("deaths", "must be non-negative")
	case r.Cases > MaxCount:
		return rejectField("cases", "is too large")
	case r.Deaths > MaxCount:
		return rejectField("deaths", "is too large")
	case r.ReportDate == "":
		return rejectField("date", "is required")
	}
	if _, err := time.Parse(time.DateOnly, r.ReportDate); err != nil {
		return rejectField("date", "must be an ISO-8601 date (YYYY-MM-DD)")
	}
	return nil
}
