package domain

import (
	"slices"
	"time"
)

// PageID names a dashboard page.
type PageID string

const (
	PagePermits        PageID = "permisos"
	PageTransfers      PageID = "traslados"
	PageEstablishments PageID = "establecimientos"
)

// Pages lists every page in menu order.
var Pages = []PageID{PagePermits, PageTransfers, PageEstablishments}

var pageTitles = map[PageID]string{
	PagePermits:        "Tablero de Análisis de Permisos de Caza",
	PageTransfers:      "Análisis de Guías de Traslado",
	PageEstablishments: "Análisis Inscripción de Establecimientos",
}

// Title returns the display title of the page.
func (id PageID) Title() string {
	return pageTitles[id]
}

// ParsePageID validates a page id from user input.
func ParsePageID(s string) (PageID, error) {
	id := PageID(s)
	if !slices.Contains(Pages, id) {
		return "", ErrUnknownPage
	}
	return id, nil
}

// SectionKind tells which payload field of a Section is set.
type SectionKind string

const (
	SectionUnique    SectionKind = "unique_list"
	SectionCounts    SectionKind = "count_table"
	SectionGroups    SectionKind = "group_table"
	SectionHistogram SectionKind = "histogram"
	SectionMap       SectionKind = "map"
)

// ChartKind is the chart the UI draws for a section.
type ChartKind string

const (
	ChartNone      ChartKind = "none"
	ChartBar       ChartKind = "bar"
	ChartPie       ChartKind = "pie"
	ChartLine      ChartKind = "line"
	ChartHistogram ChartKind = "histogram"
	ChartMap       ChartKind = "map"
)

// UniqueList is a sorted list of distinct values.
type UniqueList struct {
	Label  string   `json:"label"`
	Values []string `json:"values"`
}

// Section is one analysis block of a page: a result table plus how to chart it.
type Section struct {
	Key     string      `json:"key"`
	Title   string      `json:"title"`
	Column  string      `json:"column,omitempty"`
	Kind    SectionKind `json:"kind"`
	Chart   ChartKind   `json:"chart"`
	Summary string      `json:"summary,omitempty"`

	// ChartTopN is how many leading rows the chart shows; 0 means all.
	ChartTopN int `json:"chart_top_n,omitempty"`
	// ShowDetail is false when the full table is too long to list.
	ShowDetail bool `json:"show_detail"`

	Unique  *UniqueList `json:"unique,omitempty"`
	Counts  *CountTable `json:"counts,omitempty"`
	Groups  *GroupTable `json:"groups,omitempty"`
	Buckets []Bucket    `json:"buckets,omitempty"`
	Points  []GeoPoint  `json:"points,omitempty"`
}

// Sheet renders the section's full result table for export.
func (s Section) Sheet() Sheet {
	switch {
	case s.Unique != nil:
		rows := make([][]any, len(s.Unique.Values))
		for i, v := range s.Unique.Values {
			rows[i] = []any{v}
		}
		return Sheet{Name: s.Key, Header: []string{s.Unique.Label}, Rows: rows}
	case s.Counts != nil:
		return s.Counts.Sheet(s.Key)
	case s.Groups != nil:
		return s.Groups.Sheet(s.Key)
	case s.Kind == SectionMap:
		return GeoPointsSheet(s.Key, s.Points)
	default:
		rows := make([][]any, len(s.Buckets))
		for i, b := range s.Buckets {
			rows[i] = []any{b.Lower, b.Upper, b.Count}
		}
		return Sheet{Name: s.Key, Header: []string{"Desde", "Hasta", DefaultCountLabel}, Rows: rows}
	}
}

// PageReport is everything a page render produced.
type PageReport struct {
	Page         PageID       `json:"page"`
	Title        string       `json:"title"`
	Source       string       `json:"source"`
	RowsLoaded   int          `json:"rows_loaded"`
	RowsAnalyzed int          `json:"rows_analyzed"`
	Filter       *FilterStats `json:"filter,omitempty"`
	Warnings     []string     `json:"warnings"`
	GeneratedAt  time.Time    `json:"generated_at"`
	Sections     []Section    `json:"sections"`
}

// Section returns the section with the given key.
func (r PageReport) Section(key string) (Section, bool) {
	for _, s := range r.Sections {
		if s.Key == key {
			return s, true
		}
	}
	return Section{}, false
}

// Sheet is a single-sheet tabular export: a header row then data rows.
type Sheet struct {
	Name   string
	Header []string
	Rows   [][]any
}

// TableSheet renders every column of t. Missing cells are left empty.
func TableSheet(name string, t Table) Sheet {
	rows := make([][]any, len(t.Rows))
	for i, r := range t.Rows {
		row := make([]any, len(t.Columns))
		for j, c := range t.Columns {
			if v, ok := r.Get(c); ok {
				row[j] = v
			}
		}
		rows[i] = row
	}
	return Sheet{Name: name, Header: slices.Clone(t.Columns), Rows: rows}
}
