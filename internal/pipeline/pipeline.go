package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/couchcryptid/hunting-permits-dashboard/internal/adapter/csvsource"
	"github.com/couchcryptid/hunting-permits-dashboard/internal/domain"
	"github.com/couchcryptid/hunting-permits-dashboard/internal/observability"
	"github.com/jonboulle/clockwork"
)

// ReportPublisher forwards rendered page reports downstream.
type ReportPublisher interface {
	Publish(ctx context.Context, report domain.PageReport) error
}

// Options configures a Dashboard. Zero values fall back to the defaults.
type Options struct {
	// Sources maps each page to its CSV file.
	Sources   map[domain.PageID]string
	ChartTopN int
	MapTopN   int
	Calendar  domain.Calendar

	// Publisher is optional; reports are published after a successful render.
	Publisher       ReportPublisher
	PublishAttempts int
	PublishBackoff  time.Duration
}

const (
	defaultChartTopN       = 15
	defaultPublishAttempts = 3
	defaultPublishBackoff  = 200 * time.Millisecond
	maxPublishBackoff      = 5 * time.Second
)

// Dashboard renders the dashboard pages from their CSV sources.
type Dashboard struct {
	mu       sync.Mutex
	opts     Options
	resolver domain.LocationResolver
	clock    clockwork.Clock
	metrics  *observability.Metrics
	logger   *slog.Logger
}

// New creates a Dashboard. Pass a nil resolver to leave map sections out.
func New(opts Options, resolver domain.LocationResolver, clock clockwork.Clock, metrics *observability.Metrics, logger *slog.Logger) *Dashboard {
	if opts.ChartTopN <= 0 {
		opts.ChartTopN = defaultChartTopN
	}
	if opts.MapTopN <= 0 {
		opts.MapTopN = domain.DefaultMapTopN
	}
	if opts.Calendar.WeekLabel == "" {
		opts.Calendar = domain.SpanishCalendar
	}
	if opts.PublishAttempts <= 0 {
		opts.PublishAttempts = defaultPublishAttempts
	}
	if opts.PublishBackoff <= 0 {
		opts.PublishBackoff = defaultPublishBackoff
	}
	if resolver == nil {
		metrics.GeocodeEnabled.Set(0)
	} else {
		metrics.GeocodeEnabled.Set(1)
	}
	return &Dashboard{
		opts:     opts,
		resolver: resolver,
		clock:    clock,
		metrics:  metrics,
		logger:   logger,
	}
}

// CheckReadiness returns nil when every page source file exists.
func (d *Dashboard) CheckReadiness(_ context.Context) error {
	var errs []error
	for _, id := range domain.Pages {
		path, ok := d.opts.Sources[id]
		if !ok {
			errs = append(errs, fmt.Errorf("%s: no source configured", id))
			continue
		}
		if _, err := os.Stat(path); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", id, err))
		}
	}
	return errors.Join(errs...)
}

// Render loads a page source and builds its report. Only one render runs at a
// time. Missing columns degrade to report warnings; a missing or malformed
// source and an empty filtered table are returned as errors.
func (d *Dashboard) Render(ctx context.Context, id domain.PageID) (domain.PageReport, error) {
	p, ok := pages[id]
	if !ok {
		return domain.PageReport{}, domain.ErrUnknownPage
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	start := d.clock.Now()
	report, err := d.render(ctx, p)
	d.metrics.PageRenderDuration.WithLabelValues(string(id)).Observe(d.clock.Since(start).Seconds())

	switch {
	case errors.Is(err, domain.ErrEmptyAfterFilter):
		d.metrics.PageRenders.WithLabelValues(string(id), "empty").Inc()
		d.logger.Warn("no rows left after filtering", "page", id, "rows_loaded", report.RowsLoaded)
		return report, err
	case err != nil:
		d.metrics.PageRenders.WithLabelValues(string(id), "error").Inc()
		d.logger.Error("page render failed", "page", id, "error", err)
		return report, err
	}

	d.metrics.PageRenders.WithLabelValues(string(id), "success").Inc()
	d.logger.Info("page rendered",
		"page", id,
		"rows_loaded", report.RowsLoaded,
		"rows_analyzed", report.RowsAnalyzed,
		"sections", len(report.Sections),
		"warnings", len(report.Warnings),
	)
	d.publish(ctx, report)
	return report, nil
}

// Export returns the cleaned page table as a single sheet: the permit page is
// filtered and enriched, the other pages are exported as loaded.
func (d *Dashboard) Export(_ context.Context, id domain.PageID) (domain.Sheet, error) {
	p, ok := pages[id]
	if !ok {
		return domain.Sheet{}, domain.ErrUnknownPage
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	path := d.opts.Sources[id]
	t, err := csvsource.Load(path)
	if err != nil {
		return domain.Sheet{}, fmt.Errorf("load %s: %w", id, err)
	}
	if p.prepare != nil {
		prepared, stats, warnings := p.prepare(d, t)
		for _, w := range warnings {
			d.logger.Warn("export degraded", "page", id, "error", w)
		}
		if stats != nil && prepared.Empty() {
			return domain.Sheet{}, domain.ErrEmptyAfterFilter
		}
		t = prepared
	}
	name := "datos_" + strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return domain.TableSheet(name, t), nil
}

func (d *Dashboard) render(ctx context.Context, p page) (domain.PageReport, error) {
	path := d.opts.Sources[p.id]
	report := domain.PageReport{
		Page:        p.id,
		Title:       p.id.Title(),
		Source:      filepath.Base(path),
		Warnings:    []string{},
		GeneratedAt: d.clock.Now().UTC(),
	}

	t, err := csvsource.Load(path)
	if err != nil {
		return report, fmt.Errorf("load %s: %w", p.id, err)
	}
	report.RowsLoaded = t.Len()
	d.metrics.RowsLoaded.WithLabelValues(string(p.id)).Add(float64(t.Len()))

	if p.prepare != nil {
		prepared, stats, warnings := p.prepare(d, t)
		d.warn(&report, warnings)
		if stats != nil {
			report.Filter = stats
			for rule, n := range stats.ByRule() {
				if n > 0 {
					d.metrics.RowsDropped.WithLabelValues(rule).Add(float64(n))
				}
			}
			if prepared.Empty() {
				return report, domain.ErrEmptyAfterFilter
			}
		}
		t = prepared
	}
	report.RowsAnalyzed = t.Len()

	sections, warnings, err := p.build(d, ctx, t)
	report.Sections = sections
	d.warn(&report, warnings)
	if err != nil {
		return report, fmt.Errorf("build %s: %w", p.id, err)
	}
	return report, nil
}

func (d *Dashboard) warn(report *domain.PageReport, errs []error) {
	for _, err := range errs {
		d.logger.Warn("section degraded", "page", report.Page, "error", err)
		report.Warnings = append(report.Warnings, err.Error())
	}
}

// publish hands the report to the publisher, retrying with exponential
// backoff. Failures are logged and never fail the render.
func (d *Dashboard) publish(ctx context.Context, report domain.PageReport) {
	if d.opts.Publisher == nil {
		return
	}

	backoff := d.opts.PublishBackoff
	for attempt := 1; ; attempt++ {
		err := d.opts.Publisher.Publish(ctx, report)
		if err == nil {
			return
		}
		if attempt >= d.opts.PublishAttempts || ctx.Err() != nil {
			d.logger.Error("publish report failed", "page", report.Page, "attempts", attempt, "error", err)
			return
		}
		d.logger.Warn("publish report failed, retrying", "page", report.Page, "attempt", attempt, "error", err)
		if !sleepWithContext(ctx, backoff) {
			return
		}
		backoff = nextBackoff(backoff, maxPublishBackoff)
	}
}

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
