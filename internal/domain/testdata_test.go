package domain

import (
	"fmt"
	"testing"
)

const (
	testRegionNCR = "NCR"
	testRegionVII = "Region VII"
)

func scenarioRecords() []CaseRecord {
	return []CaseRecord{
		{ID: "rec-1", Location: "Manila", Region: testRegionNCR, Cases: 120, Deaths: 2, ReportDate: "2024-07-01"},
		{ID: "rec-2", Location: "Cebu City", Region: testRegionVII, Cases: 30, Deaths: 0, ReportDate: "2024-07-02"},
	}
}

func makeRecords(t *testing.T, n int) []CaseRecord {
	t.Helper()
	regions := []string{"NCR", "Region VII", "CAR", "BARMM"}
	out := make([]CaseRecord, n)
	for i := range out {
		out[i] = CaseRecord{
			ID:         fmt.Sprintf("rec-%d", i),
			Location:   fmt.Sprintf("Town %d", i),
			Region:     regions[i%len(regions)],
			Cases:      i * 3,
			Deaths:     i % 2,
			ReportDate: "2024-07-01",
		}
	}
	return out
}
