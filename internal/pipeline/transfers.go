package pipeline

import (
	"context"

	"github.com/couchcryptid/hunting-permits-dashboard/internal/domain"
)

// Transfer guide page section keys.
const (
	SectionGuidesPerACM  = "guias_por_acm"
	SectionAreaTypes     = "tipos_area"
	SectionExoticSpecies = "especies_exoticas"
)

func (d *Dashboard) buildTransfers(_ context.Context, t domain.Table) ([]domain.Section, []error, error) {
	var (
		sections []domain.Section
		warnings []error
	)

	charts := []struct {
		key, title, col, countLabel string
		chart                       domain.ChartKind
	}{
		{SectionGuidesPerACM, "Cantidad de Guías por Área de Caza Mayor (ACM)", domain.ColTransferACM, "Cantidad de Guías", domain.ChartBar},
		{SectionAreaTypes, "Cantidad por Tipo de Área de Caza Mayor", domain.ColAreaType, domain.DefaultCountLabel, domain.ChartPie},
		{SectionExoticSpecies, "Especies Exóticas Posibles de Ser Cazadas Legalmente", domain.ColExoticSpecies, domain.DefaultCountLabel, domain.ChartBar},
	}
	for _, c := range charts {
		if missing := domain.MissingColumns(t, c.key, c.col); len(missing) > 0 {
			warnings = append(warnings, missing...)
			continue
		}
		counts := domain.CountBy(t, c.col, domain.ColumnTitle(c.col))
		counts.CountLabel = c.countLabel
		sections = append(sections, countSection(c.key, c.title, c.col, c.chart, counts, d.opts.ChartTopN))
	}

	return sections, warnings, nil
}
