package domain

import (
	"sort"
	"strings"
)

// RegionAggregate holds case and death totals for one normalized region.
type RegionAggregate struct {
	Region      string `json:"region"`
	TotalCases  int    `json:"cases"`
	TotalDeaths int    `json:"deaths"`
}

// NormalizeRegion produces the grouping key for a region name: upper-cased
// with surrounding whitespace removed, so "Luzon" and " luzon " share a bucket.
func NormalizeRegion(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}

// Aggregate sums cases and deaths per normalized region over the full record
// set. Regions without records are absent; records with a blank region are
// skipped. The result is sorted by region so output is independent of input order.
func Aggregate(records []CaseRecord) []RegionAggregate {
	buckets := make(map[string]*RegionAggregate)
	for _, r := range records {
		key := NormalizeRegion(r.Region)
		if key == "" {
			continue
		}
		b, ok := buckets[key]
		if !ok {
			b = &RegionAggregate{Region: key}
			buckets[key] = b
		}
		b.TotalCases += r.Cases
		b.TotalDeaths += r.Deaths
	}

	out := make([]RegionAggregate, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Region < out[j].Region })
	return out
}

// FillRegions cross-references aggregates against an external region list
// (e.g. boundary names) and returns one entry per distinct normalized name, in
// list order. Names with no aggregate default to zero cases and deaths.
func FillRegions(aggs []RegionAggregate, names []string) []RegionAggregate {
	index := make(map[string]RegionAggregate, len(aggs))
	for _, a := range aggs {
		index[NormalizeRegion(a.Region)] = a
	}

	seen := make(map[string]bool, len(names))
	out := make([]RegionAggregate, 0, len(names))
	for _, name := range names {
		key := NormalizeRegion(name)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		a, ok := index[key]
		if !ok {
			a = RegionAggregate{Region: key}
		}
		out = append(out, a)
	}
	return out
}

// ClassifyRegions maps each aggregate's region to its severity band, the
// shape consumed by choropleth renderers.
func ClassifyRegions(aggs []RegionAggregate) map[string]SeverityBand {
	bands := make(map[string]SeverityBand, len(aggs))
	for _, a := range aggs {
		bands[NormalizeRegion(a.Region)] = Classify(a.TotalCases)
	}
	return bands
}
