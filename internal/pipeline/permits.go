package pipeline

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/couchcryptid/hunting-permits-dashboard/internal/domain"
)

// Permit page section keys.
const (
	SectionACMs       = "acms"
	SectionGuides     = "guias"
	SectionCountries  = "paises"
	SectionMap        = "mapa"
	SectionCategories = "categorias"
	SectionMonths     = "meses"
	SectionWeeks      = "semanas"
)

// preparePermits filters the permit rows, derives the date columns and adds
// the normalized guide, location and country columns.
func (d *Dashboard) preparePermits(t domain.Table) (domain.Table, *domain.FilterStats, []error) {
	filtered, stats, warnings := domain.DefaultPermitFilter().Apply(t)

	enriched := filtered
	if filtered.Has(domain.ColIssueDate) {
		enriched = d.opts.Calendar.Enrich(filtered, domain.ColIssueDate, domain.IssueDateLayout)
	}

	normalized := []string{domain.ColGuideNormalized, domain.ColLocationNormalized, domain.ColCountryTitle}
	enriched = enriched.WithColumns(normalized, func(r domain.Record) map[string]string {
		out := make(map[string]string, len(normalized))
		if v, ok := r.Get(domain.ColGuide); ok {
			out[domain.ColGuideNormalized] = domain.NormalizeText(v)
		}
		if v, ok := r.Get(domain.ColCityProvince); ok {
			out[domain.ColLocationNormalized] = domain.NormalizeText(v)
		}
		// Countries are charted by raw value; the title-cased form is kept for the data export.
		if v, ok := r.Get(domain.ColCountry); ok {
			out[domain.ColCountryTitle] = domain.TitleCase(v)
		}
		return out
	})
	return enriched, &stats, warnings
}

func (d *Dashboard) buildPermits(ctx context.Context, t domain.Table) ([]domain.Section, []error, error) {
	var (
		sections []domain.Section
		warnings []error
	)
	has := func(section string, cols ...string) bool {
		missing := domain.MissingColumns(t, section, cols...)
		warnings = append(warnings, missing...)
		return len(missing) == 0
	}

	if has(SectionACMs, domain.ColACM) {
		acms := domain.UniqueList{Label: domain.ColACM, Values: domain.UniqueValues(t, domain.ColACM, nil)}
		sections = append(sections, domain.Section{
			Key:        SectionACMs,
			Title:      "Áreas de Caza Mayor (ACMs) Únicas",
			Column:     domain.ColACM,
			Kind:       domain.SectionUnique,
			Chart:      domain.ChartNone,
			Summary:    fmt.Sprintf("Hay %d áreas de caza mayor únicas.", len(acms.Values)),
			ShowDetail: true,
			Unique:     &acms,
		})
	}

	if has(SectionGuides, domain.ColGuide) {
		guides := domain.UniqueList{Label: "Guía Normalizado", Values: domain.UniqueValues(t, domain.ColGuideNormalized, nil)}
		sections = append(sections, domain.Section{
			Key:        SectionGuides,
			Title:      "Responsables/Guías de Caza Únicos",
			Column:     domain.ColGuide,
			Kind:       domain.SectionUnique,
			Chart:      domain.ChartNone,
			Summary:    fmt.Sprintf("Hay %d responsables/guías de caza únicos (normalizados).", len(guides.Values)),
			ShowDetail: true,
			Unique:     &guides,
		})
	}

	if has(SectionCountries, domain.ColCountry) {
		countries := domain.CountBy(t, "País", domain.ColumnValue(domain.ColCountry))
		sections = append(sections, countSection(SectionCountries, "Permisos por País",
			domain.ColCountry, domain.ChartBar, countries, d.opts.ChartTopN))

		if d.resolver != nil {
			points, err := domain.BuildGeoPoints(ctx, d.resolver, countries, d.opts.MapTopN, d.logger)
			if err != nil {
				return sections, warnings, fmt.Errorf("geocode countries: %w", err)
			}
			sections = append(sections, domain.Section{
				Key:        SectionMap,
				Title:      fmt.Sprintf("Mapa de Distribución de Permisos por País (Top %d)", d.opts.MapTopN),
				Column:     domain.ColCountry,
				Kind:       domain.SectionMap,
				Chart:      domain.ChartMap,
				ShowDetail: true,
				Points:     points,
			})
		}
	}

	if has(SectionCategories, domain.ColCategory) {
		categories := domain.CountBy(t, "Categoria", domain.ColumnValue(domain.ColCategory))
		sections = append(sections, countSection(SectionCategories, "Análisis por Categoría",
			domain.ColCategory, domain.ChartPie, categories, 0))
	}

	if has(SectionMonths, domain.ColIssueDate) {
		months := domain.GroupAndCount(t,
			domain.ColumnKey(domain.ColYear),
			domain.ColumnKey(domain.ColMonthNumber),
			domain.ColumnKey(domain.ColMonthYear),
		)
		s := groupSection(SectionMonths, "Permisos de Caza por Mes y Año", domain.ChartBar, months)
		if best, ok := months.Mode(); ok {
			s.Summary = fmt.Sprintf("El mes con más permisos es %s con %d permisos.", best.Keys[2], best.Count)
		}
		sections = append(sections, s)
	}

	if has(SectionWeeks, domain.ColIssueDate) {
		firstHalf := t.Where(func(r domain.Record) bool {
			m, err := strconv.Atoi(r.Value(domain.ColMonthNumber))
			return err == nil && m >= int(time.January) && m <= int(time.June)
		})
		weeks := domain.GroupAndCount(firstHalf,
			domain.ColumnKey(domain.ColYear),
			domain.ColumnKey(domain.ColMonthNumber),
			domain.ColumnKey(domain.ColMonthName),
			domain.ColumnKey(domain.ColWeekOfMonth),
			domain.ColumnKey(domain.ColMonthWeek),
		)
		sections = append(sections, groupSection(SectionWeeks,
			"Permisos de Caza por Semana dentro de cada Mes (Enero - Junio)", domain.ChartBar, weeks))
	}

	return sections, warnings, nil
}
