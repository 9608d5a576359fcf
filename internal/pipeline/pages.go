package pipeline

import (
	"context"

	"github.com/couchcryptid/hunting-permits-dashboard/internal/domain"
)

// page describes how one dashboard page is cleaned and analyzed. prepare may
// be nil for pages analyzed as loaded; a non-nil FilterStats marks a filtered
// page, which fails with ErrEmptyAfterFilter when no rows survive.
type page struct {
	id      domain.PageID
	prepare func(d *Dashboard, t domain.Table) (domain.Table, *domain.FilterStats, []error)
	build   func(d *Dashboard, ctx context.Context, t domain.Table) ([]domain.Section, []error, error)
}

var pages = map[domain.PageID]page{
	domain.PagePermits: {
		id:      domain.PagePermits,
		prepare: (*Dashboard).preparePermits,
		build:   (*Dashboard).buildPermits,
	},
	domain.PageTransfers: {
		id:    domain.PageTransfers,
		build: (*Dashboard).buildTransfers,
	},
	domain.PageEstablishments: {
		id:    domain.PageEstablishments,
		build: (*Dashboard).buildEstablishments,
	},
}

// countSection wraps a count table. Pies show every row; other charts show
// the first topN.
func countSection(key, title, col string, chart domain.ChartKind, counts domain.CountTable, topN int) domain.Section {
	if chart == domain.ChartPie {
		topN = 0
	}
	return domain.Section{
		Key:        key,
		Title:      title,
		Column:     col,
		Kind:       domain.SectionCounts,
		Chart:      chart,
		ChartTopN:  topN,
		ShowDetail: true,
		Counts:     &counts,
	}
}

func groupSection(key, title string, chart domain.ChartKind, groups domain.GroupTable) domain.Section {
	return domain.Section{
		Key:        key,
		Title:      title,
		Kind:       domain.SectionGroups,
		Chart:      chart,
		ShowDetail: true,
		Groups:     &groups,
	}
}
