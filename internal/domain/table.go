package domain

import (
	"maps"
	"slices"
	"strings"
)

// Record is one CSV row keyed by exact header text. A missing cell has no key.
type Record map[string]string

// Get returns the raw cell value and whether the cell is present.
func (r Record) Get(col string) (string, bool) {
	v, ok := r[col]
	return v, ok
}

// Value returns the raw cell value, or "" when the cell is missing.
func (r Record) Value(col string) string {
	return r[col]
}

// Normalized returns the normalized form of a cell. Missing cells normalize to "".
func (r Record) Normalized(col string) string {
	return NormalizeText(r[col])
}

// Table is an immutable, ordered set of records loaded from one CSV source.
// Operations that derive data return a new Table and leave the receiver untouched.
type Table struct {
	Columns []string
	Rows    []Record
}

// NewTable builds a Table. Columns are copied; records are used as given.
func NewTable(columns []string, rows []Record) Table {
	return Table{Columns: slices.Clone(columns), Rows: rows}
}

// Len returns the number of rows.
func (t Table) Len() int { return len(t.Rows) }

// Empty reports whether the table has no rows.
func (t Table) Empty() bool { return len(t.Rows) == 0 }

// Has reports whether the exact header is present.
func (t Table) Has(col string) bool {
	return slices.Contains(t.Columns, col)
}

// Values returns the present values of a column in row order.
func (t Table) Values(col string) []string {
	out := make([]string, 0, len(t.Rows))
	for _, r := range t.Rows {
		if v, ok := r.Get(col); ok {
			out = append(out, v)
		}
	}
	return out
}

// Where returns the rows for which keep reports true. Records are shared,
// which is safe because records are never mutated after load.
func (t Table) Where(keep func(Record) bool) Table {
	rows := make([]Record, 0, len(t.Rows))
	for _, r := range t.Rows {
		if keep(r) {
			rows = append(rows, r)
		}
	}
	return Table{Columns: t.Columns, Rows: rows}
}

// WithColumns returns a copy of the table with derived columns appended.
// derive is called once per row and returns the derived cells; a cell left
// out of the returned map stays missing.
func (t Table) WithColumns(names []string, derive func(Record) map[string]string) Table {
	cols := slices.Clone(t.Columns)
	for _, n := range names {
		if !slices.Contains(cols, n) {
			cols = append(cols, n)
		}
	}

	rows := make([]Record, len(t.Rows))
	for i, r := range t.Rows {
		next := maps.Clone(r)
		if next == nil {
			next = Record{}
		}
		for _, n := range names {
			delete(next, n)
		}
		for k, v := range derive(r) {
			next[k] = v
		}
		rows[i] = next
	}
	return Table{Columns: cols, Rows: rows}
}

// Missing returns the columns from want that the table lacks.
func (t Table) Missing(want ...string) []string {
	var out []string
	for _, c := range want {
		if !t.Has(c) {
			out = append(out, c)
		}
	}
	return out
}

// naTokens mirrors the tokens spreadsheet exports use for "no value".
var naTokens = map[string]struct{}{
	"": {}, "#N/A": {}, "#N/A N/A": {}, "#NA": {}, "-1.#IND": {}, "-1.#QNAN": {},
	"-NaN": {}, "-nan": {}, "1.#IND": {}, "1.#QNAN": {}, "<NA>": {}, "N/A": {},
	"NA": {}, "NULL": {}, "NaN": {}, "None": {}, "n/a": {}, "nan": {}, "null": {},
}

// IsMissingToken reports whether a raw CSV cell stands for a missing value.
func IsMissingToken(s string) bool {
	_, ok := naTokens[s]
	return ok
}

// UniqueValues returns the distinct trimmed present values of col, sorted.
// A non-nil transform is applied after trimming.
func UniqueValues(t Table, col string, transform func(string) string) []string {
	seen := make(map[string]struct{})
	for _, v := range t.Values(col) {
		v = strings.TrimSpace(v)
		if transform != nil {
			v = transform(v)
		}
		seen[v] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	slices.Sort(out)
	return out
}
