package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/hunting-permits-dashboard/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/hunting-permits-dashboard/internal/adapter/kafka"
	"github.com/couchcryptid/hunting-permits-dashboard/internal/adapter/nominatim"
	"github.com/couchcryptid/hunting-permits-dashboard/internal/config"
	"github.com/couchcryptid/hunting-permits-dashboard/internal/domain"
	"github.com/couchcryptid/hunting-permits-dashboard/internal/observability"
	"github.com/couchcryptid/hunting-permits-dashboard/internal/pipeline"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
)

func main() {
	// A missing .env is fine; the environment alone is enough.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()

	// Initialize geocoder (feature-flagged via GEOCODE_ENABLED).
	var resolver domain.LocationResolver
	if cfg.GeocodeEnabled {
		client := nominatim.NewClient(cfg.NominatimURL, cfg.NominatimUserAgent, cfg.NominatimLanguage, cfg.NominatimTimeout, metrics, logger)
		resolver = nominatim.NewCachedGeocoder(client, cfg.GeocodeDelay, clock, metrics, logger)
		logger.Info("nominatim geocoding enabled", "url", cfg.NominatimURL, "delay", cfg.GeocodeDelay, "timeout", cfg.NominatimTimeout)
	} else {
		logger.Info("nominatim geocoding disabled")
	}

	opts := pipeline.Options{
		Sources: map[domain.PageID]string{
			domain.PagePermits:        cfg.PermitsCSV,
			domain.PageTransfers:      cfg.TransferGuidesCSV,
			domain.PageEstablishments: cfg.EstablishmentsCSV,
		},
		ChartTopN: cfg.ChartTopN,
		MapTopN:   cfg.GeocodeTopN,
	}

	var writer *kafkaadapter.Writer
	if cfg.ReportsKafkaEnabled {
		writer = kafkaadapter.NewWriter(cfg, metrics, logger)
		opts.Publisher = writer
		logger.Info("report publishing enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaReportTopic)
	}

	dashboard := pipeline.New(opts, resolver, clock, metrics, logger)
	srv := httpadapter.NewServer(cfg.HTTPAddr, dashboard, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
