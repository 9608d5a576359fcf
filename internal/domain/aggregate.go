package domain

import (
	"cmp"
	"slices"
	"strconv"
	"strings"
)

// DefaultCountLabel is the header of the count column in count tables.
const DefaultCountLabel = "Cantidad"

// Count is one category and its number of occurrences.
type Count struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// CountTable is a frequency table sorted by count descending. Ties are broken
// by category in ascending byte order so output is deterministic.
type CountTable struct {
	Label      string  `json:"label"`
	CountLabel string  `json:"count_label"`
	Rows       []Count `json:"rows"`
}

// CountValues builds a CountTable from raw values. Empty values count as a
// category of their own; callers drop missing cells before calling.
func CountValues(label string, values []string) CountTable {
	counts := make(map[string]int)
	for _, v := range values {
		counts[v]++
	}
	rows := make([]Count, 0, len(counts))
	for k, n := range counts {
		rows = append(rows, Count{Category: k, Count: n})
	}
	slices.SortFunc(rows, func(a, b Count) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return strings.Compare(a.Category, b.Category)
	})
	return CountTable{Label: label, CountLabel: DefaultCountLabel, Rows: rows}
}

// KeyFunc extracts a grouping key from a record. ok=false leaves the row out.
type KeyFunc func(Record) (key string, ok bool)

// ColumnValue keys by the raw value of col; missing cells are left out.
func ColumnValue(col string) KeyFunc {
	return func(r Record) (string, bool) { return r.Get(col) }
}

// ColumnTitle keys by the title-cased value of col; missing cells are left out.
func ColumnTitle(col string) KeyFunc {
	return func(r Record) (string, bool) {
		v, ok := r.Get(col)
		if !ok {
			return "", false
		}
		return TitleCase(v), true
	}
}

// CountBy counts rows of t by key.
func CountBy(t Table, label string, key KeyFunc) CountTable {
	values := make([]string, 0, t.Len())
	for _, r := range t.Rows {
		if k, ok := key(r); ok {
			values = append(values, k)
		}
	}
	return CountValues(label, values)
}

// TopN returns the first n rows in the existing order. n <= 0 keeps all rows.
func (c CountTable) TopN(n int) CountTable {
	if n <= 0 || n >= len(c.Rows) {
		return c
	}
	c.Rows = slices.Clone(c.Rows[:n])
	return c
}

// Mode returns the first row holding the maximum count.
func (c CountTable) Mode() (Count, bool) {
	if len(c.Rows) == 0 {
		return Count{}, false
	}
	best := c.Rows[0]
	for _, r := range c.Rows[1:] {
		if r.Count > best.Count {
			best = r
		}
	}
	return best, true
}

// Total returns the sum of all counts.
func (c CountTable) Total() int {
	total := 0
	for _, r := range c.Rows {
		total += r.Count
	}
	return total
}

// Sheet renders the table as a two-column export sheet.
func (c CountTable) Sheet(name string) Sheet {
	label := c.Label
	if label == "" {
		label = "Categoria"
	}
	countLabel := c.CountLabel
	if countLabel == "" {
		countLabel = DefaultCountLabel
	}
	rows := make([][]any, len(c.Rows))
	for i, r := range c.Rows {
		rows[i] = []any{r.Category, r.Count}
	}
	return Sheet{Name: name, Header: []string{label, countLabel}, Rows: rows}
}

// Key names one grouping dimension.
type Key struct {
	Name string
	Fn   KeyFunc
}

// ColumnKey groups by the raw value of col.
func ColumnKey(col string) Key {
	return Key{Name: col, Fn: ColumnValue(col)}
}

// Group is one distinct key tuple and its row count.
type Group struct {
	Keys  []string `json:"keys"`
	Count int      `json:"count"`
}

// GroupTable is a multi-key frequency table ordered by key tuple.
type GroupTable struct {
	KeyNames []string `json:"key_names"`
	Groups   []Group  `json:"groups"`
}

// GroupAndCount counts rows by the tuple of keys. Rows with any key missing
// are left out. Groups are ordered by key tuple, comparing integer keys
// numerically so month 10 sorts after month 9.
func GroupAndCount(t Table, keys ...Key) GroupTable {
	names := make([]string, len(keys))
	for i, k := range keys {
		names[i] = k.Name
	}

	index := make(map[string]int)
	var groups []Group
	for _, r := range t.Rows {
		tuple := make([]string, len(keys))
		complete := true
		for i, k := range keys {
			v, ok := k.Fn(r)
			if !ok {
				complete = false
				break
			}
			tuple[i] = v
		}
		if !complete {
			continue
		}
		id := strings.Join(tuple, "\x00")
		if i, ok := index[id]; ok {
			groups[i].Count++
			continue
		}
		index[id] = len(groups)
		groups = append(groups, Group{Keys: tuple, Count: 1})
	}

	slices.SortStableFunc(groups, func(a, b Group) int {
		for i := range a.Keys {
			if c := compareKey(a.Keys[i], b.Keys[i]); c != 0 {
				return c
			}
		}
		return 0
	})
	return GroupTable{KeyNames: names, Groups: groups}
}

func compareKey(a, b string) int {
	ai, aerr := strconv.Atoi(a)
	bi, berr := strconv.Atoi(b)
	if aerr == nil && berr == nil {
		return cmp.Compare(ai, bi)
	}
	return strings.Compare(a, b)
}

// Mode returns the first group holding the maximum count.
func (g GroupTable) Mode() (Group, bool) {
	if len(g.Groups) == 0 {
		return Group{}, false
	}
	best := g.Groups[0]
	for _, grp := range g.Groups[1:] {
		if grp.Count > best.Count {
			best = grp
		}
	}
	return best, true
}

// Total returns the sum of all group counts.
func (g GroupTable) Total() int {
	total := 0
	for _, grp := range g.Groups {
		total += grp.Count
	}
	return total
}

// Sheet renders the table with one column per key plus the count column.
func (g GroupTable) Sheet(name string) Sheet {
	header := append(slices.Clone(g.KeyNames), DefaultCountLabel)
	rows := make([][]any, len(g.Groups))
	for i, grp := range g.Groups {
		row := make([]any, 0, len(grp.Keys)+1)
		for _, k := range grp.Keys {
			row = append(row, k)
		}
		rows[i] = append(row, grp.Count)
	}
	return Sheet{Name: name, Header: header, Rows: rows}
}
