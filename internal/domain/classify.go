package domain

import (
	"math"
	"strconv"
	"strings"
)

// ColumnKind is the chart family chosen for a column.
type ColumnKind string

const (
	KindSkipped      ColumnKind = "skipped"
	KindNumeric      ColumnKind = "numeric"
	KindCategorical  ColumnKind = "categorical"
	KindUnclassified ColumnKind = "unclassified"
)

// Classifier decides how each column of a table is charted.
type Classifier struct {
	// ExcludeSubstrings skip any column whose upper-cased name contains one of them.
	ExcludeSubstrings []string
	// Exclude skips columns by exact header.
	Exclude []string
	// NumericRatio is the share of rows that must parse as numbers, exclusive.
	NumericRatio float64
	// MaxDistinct is the exclusive upper bound of distinct values for
	// all-numeric columns to still be charted as categories.
	MaxDistinct int
}

// DefaultClassifier returns the thresholds used by the automatic charts.
func DefaultClassifier(exclude ...string) Classifier {
	return Classifier{
		ExcludeSubstrings: []string{"ID", "FECHA"},
		Exclude:           exclude,
		NumericRatio:      0.8,
		MaxDistinct:       50,
	}
}

// ColumnProfile is the classification of one column and the figures behind it.
type ColumnProfile struct {
	Column       string     `json:"column"`
	Kind         ColumnKind `json:"kind"`
	NumericRatio float64    `json:"numeric_ratio"`
	Distinct     int        `json:"distinct"`
	TextTyped    bool       `json:"text_typed"`
}

// Skips reports whether col is excluded from automatic classification.
func (c Classifier) Skips(col string) bool {
	upper := strings.ToUpper(col)
	for _, s := range c.ExcludeSubstrings {
		if strings.Contains(upper, s) {
			return true
		}
	}
	for _, e := range c.Exclude {
		if e == col {
			return true
		}
	}
	return false
}

// Classify profiles col. The numeric ratio is measured against the total row
// count, so missing cells count against it. A column is text-typed when any
// present value fails to parse as a number.
func (c Classifier) Classify(t Table, col string) ColumnProfile {
	p := ColumnProfile{Column: col}
	if c.Skips(col) {
		p.Kind = KindSkipped
		return p
	}

	distinct := make(map[string]struct{})
	numeric, present := 0, 0
	for _, r := range t.Rows {
		v, ok := r.Get(col)
		if !ok {
			continue
		}
		present++
		distinct[v] = struct{}{}
		if _, ok := ParseNumber(v); ok {
			numeric++
		} else {
			p.TextTyped = true
		}
	}
	p.Distinct = len(distinct)
	if t.Len() > 0 {
		p.NumericRatio = float64(numeric) / float64(t.Len())
	}

	switch {
	case t.Len() > 0 && p.NumericRatio > c.NumericRatio:
		p.Kind = KindNumeric
	case present > 0 && (p.TextTyped || p.Distinct < c.MaxDistinct):
		p.Kind = KindCategorical
	default:
		p.Kind = KindUnclassified
	}
	return p
}

// ClassifyAll profiles every column in header order.
func (c Classifier) ClassifyAll(t Table) []ColumnProfile {
	out := make([]ColumnProfile, 0, len(t.Columns))
	for _, col := range t.Columns {
		out = append(out, c.Classify(t, col))
	}
	return out
}

// ParseNumber parses a trimmed cell as a float. NaN and infinities are rejected.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// NumericValues returns the parseable values of col in row order.
func NumericValues(t Table, col string) []float64 {
	var out []float64
	for _, v := range t.Values(col) {
		if f, ok := ParseNumber(v); ok {
			out = append(out, f)
		}
	}
	return out
}

// MultiValueSeparator splits multi-select survey answers.
const MultiValueSeparator = ", "

// Explode splits multi-select cells into one title-cased, trimmed token per
// selection. Empty tokens are dropped, so "Ciervo, Jabalí, Puma" yields three
// tokens and "" yields none.
func Explode(values []string, sep string) []string {
	var out []string
	for _, v := range values {
		v = strings.TrimSpace(v)
		if IsMissingToken(v) {
			continue
		}
		for _, tok := range strings.Split(v, sep) {
			tok = TitleCase(tok)
			if tok == "" {
				continue
			}
			out = append(out, tok)
		}
	}
	return out
}
