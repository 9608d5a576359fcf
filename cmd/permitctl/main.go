// Command permitctl renders dashboard pages offline, printing the JSON report
// or writing every section as a spreadsheet.
//
// Usage:
//
//	permitctl render permisos
//	permitctl export establecimientos --out ./exports
//	permitctl render traslados --no-geocode
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/couchcryptid/hunting-permits-dashboard/internal/adapter/nominatim"
	"github.com/couchcryptid/hunting-permits-dashboard/internal/adapter/xlsx"
	"github.com/couchcryptid/hunting-permits-dashboard/internal/config"
	"github.com/couchcryptid/hunting-permits-dashboard/internal/domain"
	"github.com/couchcryptid/hunting-permits-dashboard/internal/observability"
	"github.com/couchcryptid/hunting-permits-dashboard/internal/pipeline"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(os.Stdout, observability.NewMetrics()).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

type options struct {
	noGeocode bool
	outDir    string
	metrics   *observability.Metrics
}

func newRootCmd(out io.Writer, metrics *observability.Metrics) *cobra.Command {
	opts := &options{metrics: metrics}

	root := &cobra.Command{
		Use:          "permitctl",
		Short:        "Render hunting permit dashboard pages from CSV sources",
		SilenceUsage: true,
	}
	root.PersistentFlags().BoolVar(&opts.noGeocode, "no-geocode", false, "skip map sections even when GEOCODE_ENABLED is set")

	render := &cobra.Command{
		Use:   "render <page>",
		Short: "Print the JSON report of a page",
		Long: `Render loads the page's CSV source, cleans it and prints every
analysis section as JSON.

Pages: permisos, traslados, establecimientos`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd.Context(), out, opts, args[0])
		},
	}

	export := &cobra.Command{
		Use:   "export <page>",
		Short: "Write one spreadsheet per section plus the full data",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd.Context(), out, opts, args[0])
		},
	}
	export.Flags().StringVar(&opts.outDir, "out", ".", "output directory for xlsx files")

	root.AddCommand(render, export)
	return root
}

// newDashboard wires the dashboard from the environment the same way the
// service does, without a report publisher.
func newDashboard(opts *options) (*pipeline.Dashboard, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	// Logs go to stderr so stdout stays a clean report.
	logger := observability.NewLoggerTo(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	metrics := opts.metrics
	clock := clockwork.NewRealClock()

	var resolver domain.LocationResolver
	if cfg.GeocodeEnabled && !opts.noGeocode {
		client := nominatim.NewClient(cfg.NominatimURL, cfg.NominatimUserAgent, cfg.NominatimLanguage, cfg.NominatimTimeout, metrics, logger)
		resolver = nominatim.NewCachedGeocoder(client, cfg.GeocodeDelay, clock, metrics, logger)
	}

	return pipeline.New(pipeline.Options{
		Sources: map[domain.PageID]string{
			domain.PagePermits:        cfg.PermitsCSV,
			domain.PageTransfers:      cfg.TransferGuidesCSV,
			domain.PageEstablishments: cfg.EstablishmentsCSV,
		},
		ChartTopN: cfg.ChartTopN,
		MapTopN:   cfg.GeocodeTopN,
	}, resolver, clock, metrics, logger), logger, nil
}

func runRender(ctx context.Context, out io.Writer, opts *options, page string) error {
	id, err := domain.ParsePageID(page)
	if err != nil {
		return fmt.Errorf("%w: %s", err, page)
	}
	d, _, err := newDashboard(opts)
	if err != nil {
		return err
	}

	report, err := d.Render(ctx, id)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func runExport(ctx context.Context, out io.Writer, opts *options, page string) error {
	id, err := domain.ParsePageID(page)
	if err != nil {
		return fmt.Errorf("%w: %s", err, page)
	}
	d, logger, err := newDashboard(opts)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(opts.outDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	report, err := d.Render(ctx, id)
	if err != nil {
		return err
	}
	for _, w := range report.Warnings {
		logger.Warn("section skipped", "page", id, "warning", w)
	}
	for _, s := range report.Sections {
		path := filepath.Join(opts.outDir, xlsx.FileName(string(id), s.Key))
		if err := writeSheet(path, s.Sheet()); err != nil {
			return err
		}
		fmt.Fprintln(out, path)
	}

	sheet, err := d.Export(ctx, id)
	if err != nil {
		return err
	}
	path := filepath.Join(opts.outDir, xlsx.FileName(sheet.Name))
	if err := writeSheet(path, sheet); err != nil {
		return err
	}
	fmt.Fprintln(out, path)
	return nil
}

func writeSheet(path string, sheet domain.Sheet) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()
	if err := xlsx.Write(f, sheet); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
