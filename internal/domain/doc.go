// Package domain models dengue case reports and the pure transformations the
// listing and map views are derived from.
//
// # Records
//
// A case record carries a free-text location, a free-text region, case and
// death counts, and an ISO-8601 report date:
//
//	{"loc": "Manila", "Region": "NCR", "cases": 120, "deaths": 2, "date": "2024-07-01"}
//
// Identifiers are opaque strings assigned by the backing store. Form and
// spreadsheet input arrives as strings and goes through [ParseInput], which
// rejects missing fields and coerces counts to non-negative integers.
//
// # Listing
//
// [Filter] matches a search term against location and region as a
// case-insensitive substring. [Paginate] and [TotalPages] slice the filtered
// sequence into pages of [PageSize] records.
//
// # Regions and severity
//
// [Aggregate] always runs over the complete record set, never the filtered
// one. Region names are grouping keys after [NormalizeRegion] (upper-case,
// trimmed), so spelling variants that differ only in case or surrounding
// whitespace merge into one bucket. [FillRegions] defaults regions from an
// external boundary list to zero.
//
// [Classify] places a regional case total on an eight-step scale:
//
//	>5000 | >1000 | >500 | >100 | >50 | >10 | >0 | no-data
//
// Thresholds are exclusive: a total of exactly 1000 belongs to ">500".
package domain
