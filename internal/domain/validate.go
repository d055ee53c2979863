package domain

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// MaxCount bounds case and death counts so they fit a 32-bit store column and
// regional sums cannot overflow.
const MaxCount = math.MaxInt32

// ParseInput trims and coerces raw form fields into a CaseRecord. Every field
// is required; cases and deaths must be non-negative whole numbers and the
// report date must be an ISO-8601 calendar date. The returned record has no ID.
func ParseInput(in RecordInput) (CaseRecord, error) {
	location := strings.TrimSpace(in.Location)
	if location == "" {
		return CaseRecord{}, rejectField("loc", "is required")
	}

	cases, err := parseCount("cases", in.Cases)
	if err != nil {
		return CaseRecord{}, err
	}

	deaths, err := parseCount("deaths", in.Deaths)
	if err != nil {
		return CaseRecord{}, err
	}

	date, err := parseReportDate(in.ReportDate)
	if err != nil {
		return CaseRecord{}, err
	}

	region := strings.TrimSpace(in.Region)
	if region == "" {
		return CaseRecord{}, rejectField("Region", "is required")
	}

	return CaseRecord{
		Location:   location,
		Region:     region,
		Cases:      cases,
		Deaths:     deaths,
		ReportDate: date,
	}, nil
}

// parseCount accepts integers and integral decimals ("12", "12.0"), since
// spreadsheet exports often render whole numbers with a trailing fraction.
func parseCount(field, raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, rejectField(field, "is required")
	}

	n, err := strconv.Atoi(raw)
	if err != nil {
		f, ferr := strconv.ParseFloat(raw, 64)
		if ferr != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, rejectField(field, "must be a number")
		}
		if f != math.Trunc(f) {
			return 0, rejectField(field, "must be a whole number")
		}
		if f > MaxCount {
			return 0, rejectField(field, "is too large")
		}
		if f < 0 {
			return 0, rejectField(field, "must be non-negative")
		}
		n = int(f)
	}

	if n < 0 {
		return 0, rejectField(field, "must be non-negative")
	}
	if n > MaxCount {
		return 0, rejectField(field, "is too large")
	}
	return n, nil
}

func parseReportDate(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", rejectField("date", "is required")
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return "", rejectField("date", "must be an ISO-8601 date (YYYY-MM-DD)")
	}
	return t.Format(time.DateOnly), nil
}
