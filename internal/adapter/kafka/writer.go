package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/hydroviz/hydro-data-prep/internal/config"
	"github.com/hydroviz/hydro-data-prep/internal/domain"
)

// Writer publishes cleaned plant records to a Kafka topic, one message per
// row. It implements pipeline.Sink.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// Publish serializes every row of the table and writes them in a single
// WriteMessages call. Messages are keyed by plant ID so a compacted topic
// converges on the latest refresh.
func (w *Writer) Publish(ctx context.Context, table domain.Table) error {
	if len(table.Rows) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(table.Rows))
	for i := range table.Rows {
		msg, err := serializeToMessage(table, table.Rows[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write messages: %w", err)
	}
	w.logger.Info("published plant records", "count", len(msgs), "refresh_id", table.RefreshID)
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals one plant row into a Kafka message stamped
// with the refresh it came from.
func serializeToMessage(table domain.Table, p domain.Plant) (kafkago.Message, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize plant record: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(p.ID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "refresh_id", Value: []byte(table.RefreshID)},
			{Key: "loaded_at", Value: []byte(table.LoadedAt.Format(time.RFC3339))},
		},
	}, nil
}
