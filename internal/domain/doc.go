// Package domain holds the data cleaning and aggregation rules behind the
// hunting permit dashboards.
//
// # Source data
//
// Each page reads one CSV export of an online form. Headers are matched
// exactly, trailing spaces and accents included (see columns.go). Cells that
// hold a spreadsheet "no value" token such as "", "NA" or "nan" are treated as
// missing and have no key in the [Record].
//
// # Pipeline
//
// A page render runs these steps in order on an immutable [Table]:
//
//	RecordFilter.Apply  -> drop unparseable or excluded rows
//	Calendar.Enrich     -> month, year, week-of-month and display labels
//	NormalizeText       -> grouping keys for guides and locations
//	Classifier.Classify -> numeric (histogram) or categorical (counts)
//	CountBy / GroupAndCount -> ordered result tables
//
// Map sections then resolve the most frequent locations through a
// [LocationResolver], which caches every answer for the process lifetime.
//
// # Ordering
//
// Count tables are sorted by count descending with ties broken by category in
// byte order. Top-N is a slice of the sorted table. Mode returns the first
// entry holding the maximum in the table's current order.
//
// # Dates
//
// Permit issue dates are day-first ("d/m/yyyy"). Rows from November 1964 and
// March 1970 are placeholder values and are always dropped. Week of month is
// (day-1)/7+1, so days 29 to 31 fall in week 5.
package domain
