package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// CSV sources, one per dashboard page.
	PermitsCSV        string
	TransferGuidesCSV string
	EstablishmentsCSV string

	// Geocoding for map sections.
	GeocodeEnabled     bool
	NominatimURL       string
	NominatimUserAgent string
	NominatimLanguage  string
	NominatimTimeout   time.Duration
	GeocodeDelay       time.Duration
	GeocodeTopN        int

	ChartTopN int

	// Optional publishing of rendered page reports.
	ReportsKafkaEnabled bool
	KafkaBrokers        []string
	KafkaReportTopic    string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	nominatimTimeout, err := parseDuration("NOMINATIM_TIMEOUT", "10s", false)
	if err != nil {
		return nil, err
	}
	geocodeDelay, err := parseDuration("GEOCODE_DELAY", "1.2s", true)
	if err != nil {
		return nil, err
	}
	geocodeTopN, err := parsePositiveInt("GEOCODE_TOP_N", 20)
	if err != nil {
		return nil, err
	}
	chartTopN, err := parsePositiveInt("CHART_TOP_N", 15)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		PermitsCSV:        sharedcfg.EnvOrDefault("PERMITS_CSV", "mis_datos_maestros_final_v1.csv"),
		TransferGuidesCSV: sharedcfg.EnvOrDefault("TRANSFER_GUIDES_CSV", "guia_traslado_2.csv"),
		EstablishmentsCSV: sharedcfg.EnvOrDefault("ESTABLISHMENTS_CSV", "planilla-de-inscripción-de-establecimiento-particulares-2025-07-01.csv"),

		GeocodeEnabled:     os.Getenv("GEOCODE_ENABLED") != "false",
		NominatimURL:       sharedcfg.EnvOrDefault("NOMINATIM_URL", "https://nominatim.openstreetmap.org"),
		NominatimUserAgent: sharedcfg.EnvOrDefault("NOMINATIM_USER_AGENT", "hunting-permits-dashboard"),
		NominatimLanguage:  sharedcfg.EnvOrDefault("NOMINATIM_LANGUAGE", "es"),
		NominatimTimeout:   nominatimTimeout,
		GeocodeDelay:       geocodeDelay,
		GeocodeTopN:        geocodeTopN,

		ChartTopN: chartTopN,

		ReportsKafkaEnabled: os.Getenv("REPORTS_KAFKA_ENABLED") == "true",
		KafkaBrokers:        sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaReportTopic:    sharedcfg.EnvOrDefault("KAFKA_REPORT_TOPIC", "hunting-permit-reports"),
	}

	if cfg.GeocodeEnabled && cfg.NominatimUserAgent == "" {
		return nil, errors.New("GEOCODE_ENABLED is true but NOMINATIM_USER_AGENT is empty")
	}
	if cfg.ReportsKafkaEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_BROKERS is required when REPORTS_KAFKA_ENABLED is true")
		}
		if cfg.KafkaReportTopic == "" {
			return nil, errors.New("KAFKA_REPORT_TOPIC is required when REPORTS_KAFKA_ENABLED is true")
		}
	}

	return cfg, nil
}

func parseDuration(key, def string, allowZero bool) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d < 0 || (d == 0 && !allowZero) {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parsePositiveInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s: must be a positive integer", key)
	}
	return n, nil
}
