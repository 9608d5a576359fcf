package pipeline_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/couchcryptid/hunting-permits-dashboard/internal/domain"
	"github.com/couchcryptid/hunting-permits-dashboard/internal/observability"
	"github.com/couchcryptid/hunting-permits-dashboard/internal/pipeline"
	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- fakes ---

type fakeResolver struct {
	results map[string]domain.GeoResult
	err     error
	calls   []string
}

func (f *fakeResolver) Resolve(_ context.Context, name string) (domain.GeoResult, error) {
	f.calls = append(f.calls, name)
	if f.err != nil {
		return domain.GeoResult{}, f.err
	}
	if r, ok := f.results[name]; ok {
		return r, nil
	}
	return domain.UnknownLocation, nil
}

type recordingPublisher struct {
	failures int
	calls    int
	reports  []domain.PageReport
}

func (p *recordingPublisher) Publish(_ context.Context, report domain.PageReport) error {
	p.calls++
	if p.calls <= p.failures {
		return errors.New("broker unavailable")
	}
	p.reports = append(p.reports, report)
	return nil
}

var renderTime = time.Date(2025, time.July, 1, 12, 0, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testSources() map[domain.PageID]string {
	return map[domain.PageID]string{
		domain.PagePermits:        filepath.Join("testdata", "permisos.csv"),
		domain.PageTransfers:      filepath.Join("testdata", "traslados.csv"),
		domain.PageEstablishments: filepath.Join("testdata", "establecimientos.csv"),
	}
}

func newTestDashboard(opts pipeline.Options, resolver domain.LocationResolver) (*pipeline.Dashboard, *observability.Metrics) {
	if opts.Sources == nil {
		opts.Sources = testSources()
	}
	metrics := observability.NewMetricsForTesting()
	clock := clockwork.NewFakeClockAt(renderTime)
	return pipeline.New(opts, resolver, clock, metrics, discardLogger()), metrics
}

func geoResolver() *fakeResolver {
	return &fakeResolver{results: map[string]domain.GeoResult{
		"Argentina": {Lat: -38.4, Lon: -63.6, Country: "Argentina", Found: true},
		"Chile":     {Lat: -35.7, Lon: -71.5, Country: "Chile", Found: true},
	}}
}

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "datos.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func sectionKeys(r domain.PageReport) []string {
	keys := make([]string, len(r.Sections))
	for i, s := range r.Sections {
		keys[i] = s.Key
	}
	return keys
}

// --- dashboard tests ---

func TestRender_UnknownPage(t *testing.T) {
	d, _ := newTestDashboard(pipeline.Options{}, nil)

	_, err := d.Render(context.Background(), "inexistente")
	assert.ErrorIs(t, err, domain.ErrUnknownPage)
}

func TestRender_FileNotFound(t *testing.T) {
	sources := testSources()
	sources[domain.PageTransfers] = filepath.Join("testdata", "no-existe.csv")
	d, metrics := newTestDashboard(pipeline.Options{Sources: sources}, nil)

	_, err := d.Render(context.Background(), domain.PageTransfers)
	require.ErrorIs(t, err, domain.ErrFileNotFound)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.PageRenders.WithLabelValues("traslados", "error")), 0)
}

func TestRender_MalformedCSV(t *testing.T) {
	sources := testSources()
	sources[domain.PageTransfers] = writeCSV(t, "a,b\n1,2,3\n")
	d, _ := newTestDashboard(pipeline.Options{Sources: sources}, nil)

	_, err := d.Render(context.Background(), domain.PageTransfers)
	assert.ErrorIs(t, err, domain.ErrMalformedCSV)
}

func TestRender_EmptyAfterFilter(t *testing.T) {
	sources := testSources()
	sources[domain.PagePermits] = writeCSV(t,
		"ACM-(Área de caza mayor),Responsable Guía de Caza,\"Ciudad, Estado o Provincia\",Categoria ,Fecha ,País\n"+
			"Sur,fila1,Bariloche,Mayor,02/01/2020,Argentina\n"+
			"Sur,Juan,Bariloche,Mayor,15/11/1964,Argentina\n")
	d, metrics := newTestDashboard(pipeline.Options{Sources: sources}, nil)

	report, err := d.Render(context.Background(), domain.PagePermits)
	require.ErrorIs(t, err, domain.ErrEmptyAfterFilter)
	assert.Equal(t, 2, report.RowsLoaded)
	require.NotNil(t, report.Filter)
	assert.Equal(t, 1, report.Filter.ExcludedGuide)
	assert.Equal(t, 1, report.Filter.ExcludedRange)
	assert.Empty(t, report.Sections)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.PageRenders.WithLabelValues("permisos", "empty")), 0)
}

func TestRender_GeneratedAtFromClock(t *testing.T) {
	d, _ := newTestDashboard(pipeline.Options{}, nil)

	report, err := d.Render(context.Background(), domain.PageTransfers)
	require.NoError(t, err)
	assert.Equal(t, renderTime, report.GeneratedAt)
	assert.Equal(t, "traslados.csv", report.Source)
	assert.Equal(t, domain.PageTransfers.Title(), report.Title)
}

func TestRender_PublishesReport(t *testing.T) {
	pub := &recordingPublisher{}
	d, _ := newTestDashboard(pipeline.Options{Publisher: pub}, nil)

	report, err := d.Render(context.Background(), domain.PageTransfers)
	require.NoError(t, err)
	require.Len(t, pub.reports, 1)
	assert.Equal(t, report.Page, pub.reports[0].Page)
}

func TestRender_PublishRetries(t *testing.T) {
	pub := &recordingPublisher{failures: 2}
	d, _ := newTestDashboard(pipeline.Options{Publisher: pub, PublishAttempts: 3, PublishBackoff: time.Millisecond}, nil)

	_, err := d.Render(context.Background(), domain.PageTransfers)
	require.NoError(t, err)
	assert.Equal(t, 3, pub.calls)
	assert.Len(t, pub.reports, 1)
}

func TestRender_PublishFailureDoesNotFailRender(t *testing.T) {
	pub := &recordingPublisher{failures: 10}
	d, metrics := newTestDashboard(pipeline.Options{Publisher: pub, PublishAttempts: 2, PublishBackoff: time.Millisecond}, nil)

	_, err := d.Render(context.Background(), domain.PageTransfers)
	require.NoError(t, err)
	assert.Equal(t, 2, pub.calls)
	assert.Empty(t, pub.reports)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.PageRenders.WithLabelValues("traslados", "success")), 0)
}

func TestRender_NotPublishedOnError(t *testing.T) {
	pub := &recordingPublisher{}
	sources := testSources()
	sources[domain.PageTransfers] = filepath.Join("testdata", "no-existe.csv")
	d, _ := newTestDashboard(pipeline.Options{Sources: sources, Publisher: pub}, nil)

	_, err := d.Render(context.Background(), domain.PageTransfers)
	require.Error(t, err)
	assert.Zero(t, pub.calls)
}

func TestNew_GeocodeEnabledGauge(t *testing.T) {
	_, disabled := newTestDashboard(pipeline.Options{}, nil)
	assert.InDelta(t, 0, testutil.ToFloat64(disabled.GeocodeEnabled), 0)

	_, enabled := newTestDashboard(pipeline.Options{}, geoResolver())
	assert.InDelta(t, 1, testutil.ToFloat64(enabled.GeocodeEnabled), 0)
}

func TestCheckReadiness(t *testing.T) {
	d, _ := newTestDashboard(pipeline.Options{}, nil)
	require.NoError(t, d.CheckReadiness(context.Background()))

	sources := testSources()
	sources[domain.PageEstablishments] = filepath.Join("testdata", "no-existe.csv")
	d, _ = newTestDashboard(pipeline.Options{Sources: sources}, nil)
	err := d.CheckReadiness(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "establecimientos")

	delete(sources, domain.PageTransfers)
	d, _ = newTestDashboard(pipeline.Options{Sources: sources}, nil)
	assert.ErrorContains(t, d.CheckReadiness(context.Background()), "traslados: no source configured")
}

func TestExport_PermitsIsCleaned(t *testing.T) {
	d, _ := newTestDashboard(pipeline.Options{}, nil)

	sheet, err := d.Export(context.Background(), domain.PagePermits)
	require.NoError(t, err)
	assert.Equal(t, "datos_permisos", sheet.Name)
	assert.Len(t, sheet.Rows, 5)
	assert.Contains(t, sheet.Header, domain.ColMonthYear)
	assert.Contains(t, sheet.Header, domain.ColGuideNormalized)
	assert.Contains(t, sheet.Header, domain.ColCountryTitle)
}

func TestExport_EmptyAfterFilter(t *testing.T) {
	sources := testSources()
	sources[domain.PagePermits] = writeCSV(t,
		"ACM-(Área de caza mayor),Responsable Guía de Caza,\"Ciudad, Estado o Provincia\",Categoria ,Fecha ,País\n"+
			"Sur,fila1,Bariloche,Mayor,02/01/2020,Argentina\n"+
			"Sur,Juan,Bariloche,Mayor,15/11/1964,Argentina\n")
	d, _ := newTestDashboard(pipeline.Options{Sources: sources}, nil)

	_, err := d.Export(context.Background(), domain.PagePermits)
	assert.ErrorIs(t, err, domain.ErrEmptyAfterFilter)
}

func TestExport_TransfersAsLoaded(t *testing.T) {
	d, _ := newTestDashboard(pipeline.Options{}, nil)

	sheet, err := d.Export(context.Background(), domain.PageTransfers)
	require.NoError(t, err)
	assert.Equal(t, "datos_traslados", sheet.Name)
	assert.Len(t, sheet.Rows, 4)
	assert.Nil(t, sheet.Rows[3][0], "missing ACM exported as an empty cell")
}

func TestExport_UnknownPage(t *testing.T) {
	d, _ := newTestDashboard(pipeline.Options{}, nil)

	_, err := d.Export(context.Background(), "inexistente")
	assert.ErrorIs(t, err, domain.ErrUnknownPage)
}

func countRows(t *testing.T, s domain.Section) []domain.Count {
	t.Helper()
	require.NotNil(t, s.Counts, "section %s has no count table", s.Key)
	return s.Counts.Rows
}

func assertCounts(t *testing.T, want []domain.Count, s domain.Section) {
	t.Helper()
	if diff := cmp.Diff(want, countRows(t, s)); diff != "" {
		t.Errorf("%s counts mismatch (-want +got):\n%s", s.Key, diff)
	}
}
