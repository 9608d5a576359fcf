package domain

import (
	"strings"
	"time"
)

// IssueDateLayout is the day-first layout of permit issue dates. Day and month
// may be one or two digits ("1/11/1964" and "01/11/1964" both parse).
const IssueDateLayout = "2/1/2006"

// DateRange is a calendar interval with both bounds inclusive.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// MonthRange returns the inclusive range covering one calendar month.
func MonthRange(year int, month time.Month) DateRange {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return DateRange{Start: start, End: start.AddDate(0, 1, -1)}
}

// Contains reports whether d falls on or between the range bounds.
func (r DateRange) Contains(d time.Time) bool {
	return !d.Before(r.Start) && !d.After(r.End)
}

// RecordFilter removes rows that must not reach any analysis. Each rule only
// prunes; no row is ever repaired. Rules whose column is absent are skipped.
type RecordFilter struct {
	DateColumn     string
	DateLayout     string
	ExcludedRanges []DateRange

	AreaColumn    string
	ExcludedAreas []string // compared after lowercasing and trimming

	GuideColumn    string
	ExcludedGuides []string // already in NormalizeText form

	LocationColumn string
}

// FilterStats counts the rows each rule removed.
type FilterStats struct {
	Input           int `json:"input"`
	UnparseableDate int `json:"unparseable_date"`
	ExcludedRange   int `json:"excluded_range"`
	ExcludedArea    int `json:"excluded_area"`
	ExcludedGuide   int `json:"excluded_guide"`
	EmptyLocation   int `json:"empty_location"`
	Output          int `json:"output"`
}

// Dropped returns the number of rows removed by all rules.
func (s FilterStats) Dropped() int { return s.Input - s.Output }

// Filter rule names, used for stats and metrics labels.
const (
	RuleUnparseableDate = "unparseable_date"
	RuleExcludedRange   = "excluded_range"
	RuleExcludedArea    = "excluded_area"
	RuleExcludedGuide   = "excluded_guide"
	RuleEmptyLocation   = "empty_location"
)

// ByRule returns the dropped counts keyed by rule name.
func (s FilterStats) ByRule() map[string]int {
	return map[string]int{
		RuleUnparseableDate: s.UnparseableDate,
		RuleExcludedRange:   s.ExcludedRange,
		RuleExcludedArea:    s.ExcludedArea,
		RuleExcludedGuide:   s.ExcludedGuide,
		RuleEmptyLocation:   s.EmptyLocation,
	}
}

// DefaultPermitFilter returns the cleaning rules for the hunting permit export.
// November 1964 and March 1970 hold placeholder dates from a bad migration.
func DefaultPermitFilter() RecordFilter {
	return RecordFilter{
		DateColumn: ColIssueDate,
		DateLayout: IssueDateLayout,
		ExcludedRanges: []DateRange{
			MonthRange(1964, time.November),
			MonthRange(1970, time.March),
		},
		AreaColumn:     ColACM,
		ExcludedAreas:  []string{"04342341992025242amccc3agar4algar"},
		GuideColumn:    ColGuide,
		ExcludedGuides: []string{"0-132432432243432", "fila0", "fila1", "fila2", ""},
		LocationColumn: ColCityProvince,
	}
}

// Apply runs the rules in order and returns the surviving rows. It never adds
// rows, and applying it to its own output changes nothing. The returned
// errors are MissingColumnError warnings for rules that were skipped.
func (f RecordFilter) Apply(t Table) (Table, FilterStats, []error) {
	stats := FilterStats{Input: t.Len()}
	var warnings []error

	if f.DateColumn != "" {
		if t.Has(f.DateColumn) {
			before := t.Len()
			t = t.Where(func(r Record) bool {
				_, ok := ParseDate(r.Value(f.DateColumn), f.layout())
				return ok
			})
			stats.UnparseableDate = before - t.Len()

			before = t.Len()
			t = t.Where(func(r Record) bool {
				d, _ := ParseDate(r.Value(f.DateColumn), f.layout())
				return !f.inExcludedRange(d)
			})
			stats.ExcludedRange = before - t.Len()
		} else {
			warnings = append(warnings, &MissingColumnError{Section: "date filter", Column: f.DateColumn})
		}
	}

	if f.AreaColumn != "" {
		if t.Has(f.AreaColumn) {
			excluded := toSet(f.ExcludedAreas, LowerTrim)
			before := t.Len()
			t = t.Where(func(r Record) bool {
				v, ok := r.Get(f.AreaColumn)
				if !ok {
					return true
				}
				_, drop := excluded[LowerTrim(v)]
				return !drop
			})
			stats.ExcludedArea = before - t.Len()
		} else {
			warnings = append(warnings, &MissingColumnError{Section: "area filter", Column: f.AreaColumn})
		}
	}

	if f.GuideColumn != "" {
		if t.Has(f.GuideColumn) {
			excluded := toSet(f.ExcludedGuides, nil)
			before := t.Len()
			t = t.Where(func(r Record) bool {
				_, drop := excluded[r.Normalized(f.GuideColumn)]
				return !drop
			})
			stats.ExcludedGuide = before - t.Len()
		} else {
			warnings = append(warnings, &MissingColumnError{Section: "guide filter", Column: f.GuideColumn})
		}
	}

	if f.LocationColumn != "" {
		if t.Has(f.LocationColumn) {
			before := t.Len()
			t = t.Where(func(r Record) bool {
				return r.Normalized(f.LocationColumn) != ""
			})
			stats.EmptyLocation = before - t.Len()
		} else {
			warnings = append(warnings, &MissingColumnError{Section: "location filter", Column: f.LocationColumn})
		}
	}

	stats.Output = t.Len()
	return t, stats, warnings
}

func (f RecordFilter) layout() string {
	if f.DateLayout == "" {
		return IssueDateLayout
	}
	return f.DateLayout
}

func (f RecordFilter) inExcludedRange(d time.Time) bool {
	for _, r := range f.ExcludedRanges {
		if r.Contains(d) {
			return true
		}
	}
	return false
}

// ParseDate parses a trimmed date cell with layout, in UTC.
func ParseDate(s, layout string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	d, err := time.Parse(layout, s)
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}

func toSet(values []string, transform func(string) string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		if transform != nil {
			v = transform(v)
		}
		set[v] = struct{}{}
	}
	return set
}
