package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/swell-alert-etl/internal/domain"
)

// Writer publishes matched alerts to a Kafka topic.
// It implements pipeline.AlertPublisher.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the alert topic.
func NewWriter(brokers []string, topic string, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
		BatchTimeout: 50 * time.Millisecond,
	}
	return &Writer{writer: w, logger: logger}
}

// PublishAlert serializes and publishes one alert. Events for the same
// station and rule share a key and therefore a partition.
func (w *Writer) PublishAlert(ctx context.Context, event domain.AlertEvent) error {
	msg, err := serializeToMessage(event)
	if err != nil {
		return err
	}
	if err := w.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish %s alert for %s: %w", event.Rule, event.Station, err)
	}
	w.logger.Debug("alert published", "station", event.Station, "rule", event.Rule, "topic", w.writer.Topic)
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals an AlertEvent into a Kafka message.
func serializeToMessage(event domain.AlertEvent) (kafkago.Message, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize alert event: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(event.Key()),
		Value: data,
		Time:  event.LoggedAt,
		Headers: []kafkago.Header{
			{Key: "rule", Value: []byte(event.Rule)},
			{Key: "station_id", Value: []byte(event.Station)},
			{Key: "logged_at", Value: []byte(event.LoggedAt.UTC().Format(time.RFC3339))},
		},
	}, nil
}
