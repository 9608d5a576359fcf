package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/couchcryptid/hunting-permits-dashboard/internal/domain"
)

// Establishment page section keys. Automatic sections are keyed by column:
// "columna:<header>" and "tendencia:<header>".
const (
	SectionBreeder        = "inscripcion_criadero"
	SectionBigGameSpecies = "especies_caza_mayor"
	SectionDeerFiveYears  = "ciervos_cinco_anios"
	SectionDeerOnProperty = "manejo_ciervos"
	SectionBoarThreeYears = "jabali_tres_anios"
	SectionPumaThreeYears = "pumas_tres_anios"
	SectionGuanacos       = "guanacos"

	autoSectionPrefix  = "columna:"
	trendSectionPrefix = "tendencia:"
)

// maxDetailCategories is the exclusive limit of categories listed in full.
const maxDetailCategories = 100

// establishmentsExcluded are charted by a dedicated section or are free text.
var establishmentsExcluded = []string{
	domain.ColEstablishmentName,
	domain.ColACMLocation,
	domain.ColCoordinates,
	domain.ColGuanacosThreeYrs,
	domain.ColCompletedBy,
	domain.ColBreederRegistered,
	domain.ColDeerFiveYears,
	domain.ColBoarThreeYears,
	domain.ColPumaThreeYears,
	domain.ColGuanacosLive,
	domain.ColBigGameSpecies,
	domain.ColDeerLandShare,
}

type pieChart struct {
	key, title, col, label string
}

var establishmentsPies = []pieChart{
	{SectionDeerFiveYears, "Tendencia de Ciervos en los Últimos Cinco Años", domain.ColDeerFiveYears, "Tendencia de Ciervos"},
	{SectionDeerOnProperty, "Manejo o Aprovechamiento de Ciervos Colorados", domain.ColDeerOnProperty, "Tipo de Manejo"},
	{SectionBoarThreeYears, "Tendencia de Población de Jabalí Europeo", domain.ColBoarThreeYears, "Tendencia de Población"},
	{SectionPumaThreeYears, "Tendencia de Población de Pumas", domain.ColPumaThreeYears, "Tendencia de Población"},
	{SectionGuanacos, "Poblaciones de Guanacos en Establecimientos", domain.ColGuanacosLive, "Presencia de Guanacos"},
}

func (d *Dashboard) buildEstablishments(_ context.Context, t domain.Table) ([]domain.Section, []error, error) {
	var (
		sections []domain.Section
		warnings []error
	)

	sections = append(sections, d.autoSections(t)...)
	sections = append(sections, trendSections(t)...)

	breeder := pieChart{SectionBreeder, "Inscripción y Habilitación de Criaderos", domain.ColBreederRegistered, "Estado de Inscripción"}
	if s, missing := pieSection(t, breeder); missing != nil {
		warnings = append(warnings, missing...)
	} else {
		sections = append(sections, s)
	}

	if missing := domain.MissingColumns(t, SectionBigGameSpecies, domain.ColBigGameSpecies); len(missing) > 0 {
		warnings = append(warnings, missing...)
	} else {
		species := domain.CountValues("Especie", domain.Explode(t.Values(domain.ColBigGameSpecies), domain.MultiValueSeparator))
		species.CountLabel = "Cantidad de Solicitudes"
		sections = append(sections, countSection(SectionBigGameSpecies,
			"Especies Solicitadas para Caza Mayor en Establecimientos",
			domain.ColBigGameSpecies, domain.ChartBar, species, d.opts.ChartTopN))
	}

	for _, pie := range establishmentsPies {
		s, missing := pieSection(t, pie)
		if missing != nil {
			warnings = append(warnings, missing...)
			continue
		}
		sections = append(sections, s)
	}

	return sections, warnings, nil
}

// autoSections charts every classifiable column: a histogram for numeric
// columns and a title-cased count table for categorical ones.
func (d *Dashboard) autoSections(t domain.Table) []domain.Section {
	var sections []domain.Section
	for _, p := range domain.DefaultClassifier(establishmentsExcluded...).ClassifyAll(t) {
		key := autoSectionPrefix + p.Column
		switch p.Kind {
		case domain.KindNumeric:
			sections = append(sections, domain.Section{
				Key:        key,
				Title:      "Distribución de: " + p.Column,
				Column:     p.Column,
				Kind:       domain.SectionHistogram,
				Chart:      domain.ChartHistogram,
				ShowDetail: true,
				Buckets:    domain.Histogram(domain.NumericValues(t, p.Column), domain.DefaultHistogramBins),
			})
		case domain.KindCategorical:
			counts := domain.CountBy(t, p.Column, domain.ColumnTitle(p.Column))
			s := countSection(key, "Conteo por: "+p.Column, p.Column, domain.ChartBar, counts, d.opts.ChartTopN)
			s.ShowDetail = len(counts.Rows) < maxDetailCategories
			sections = append(sections, s)
		default:
			d.logger.Debug("column not charted", "column", p.Column, "kind", p.Kind)
		}
	}
	return sections
}

// trendSections counts records per month for every date column, parsing
// dates day-first. Rows whose date does not parse are left out.
func trendSections(t domain.Table) []domain.Section {
	var sections []domain.Section
	for _, col := range t.Columns {
		if !strings.Contains(strings.ToUpper(col), "FECHA") {
			continue
		}
		month := domain.Key{Name: "Anio_Mes", Fn: func(r domain.Record) (string, bool) {
			d, ok := domain.ParseDayFirst(r.Value(col))
			if !ok {
				return "", false
			}
			return d.Format("2006-01"), true
		}}
		trend := domain.GroupAndCount(t, month)
		s := groupSection(trendSectionPrefix+col, fmt.Sprintf("Tendencia de Registros por Mes y Año (%s)", col), domain.ChartLine, trend)
		s.Column = col
		sections = append(sections, s)
	}
	return sections
}

func pieSection(t domain.Table, p pieChart) (domain.Section, []error) {
	if missing := domain.MissingColumns(t, p.key, p.col); len(missing) > 0 {
		return domain.Section{}, missing
	}
	counts := domain.CountBy(t, p.label, domain.ColumnTitle(p.col))
	counts.CountLabel = "Cantidad de Establecimientos"
	return countSection(p.key, p.title, p.col, domain.ChartPie, counts, 0), nil
}
