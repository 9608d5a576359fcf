package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/hunting-permits-dashboard/internal/config"
	"github.com/couchcryptid/hunting-permits-dashboard/internal/domain"
	"github.com/couchcryptid/hunting-permits-dashboard/internal/observability"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer publishes rendered page reports to a Kafka topic.
// It implements pipeline.ReportPublisher.
type Writer struct {
	writer  *kafkago.Writer
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewWriter creates a Kafka producer for the configured report topic.
func NewWriter(cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaReportTopic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Writer{writer: w, metrics: metrics, logger: logger}
}

// Publish serializes a page report and writes it keyed by page id, so every
// report of one page lands on the same partition.
func (w *Writer) Publish(ctx context.Context, report domain.PageReport) error {
	msg, err := serializeToMessage(report)
	if err != nil {
		return err
	}
	if err := w.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish %s report: %w", report.Page, err)
	}
	w.metrics.ReportsPublished.Inc()
	w.logger.Debug("page report published", "page", report.Page, "topic", w.writer.Topic)
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a PageReport into a Kafka message.
func serializeToMessage(report domain.PageReport) (kafkago.Message, error) {
	data, err := json.Marshal(report)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize page report: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(report.Page),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "page", Value: []byte(report.Page)},
			{Key: "generated_at", Value: []byte(report.GeneratedAt.Format(time.RFC3339))},
		},
	}, nil
}
