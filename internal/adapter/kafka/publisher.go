package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/couchcryptid/nuclide-data-etl/internal/config"
	"github.com/couchcryptid/nuclide-data-etl/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// messageWriter is the subset of *kafkago.Writer the publisher needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Publisher produces one message per atomic-weight row to a Kafka topic.
// It implements pipeline.Publisher.
type Publisher struct {
	writer messageWriter
	logger *slog.Logger
}

// NewPublisher creates a Kafka producer for the configured topic.
func NewPublisher(cfg *config.Config, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaTopic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Publisher{writer: w, logger: logger}
}

// Publish serializes records and writes them in a single WriteMessages call.
// Keys are display names, so a compacted topic keeps the latest row per nuclide.
func (p *Publisher) Publish(ctx context.Context, records []domain.AtomicWeightRecord, builtAt time.Time) error {
	if len(records) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(records))
	for i := range records {
		msg, err := serializeToMessage(records[i], builtAt)
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write %d messages: %w", len(msgs), err)
	}
	p.logger.Debug("published messages", "count", len(msgs))
	return nil
}

// Close flushes pending messages and closes the underlying writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}

// serializeToMessage marshals an AtomicWeightRecord into a Kafka message.
func serializeToMessage(record domain.AtomicWeightRecord, builtAt time.Time) (kafkago.Message, error) {
	data, err := json.Marshal(record)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize atomic weight %s: %w", record.Name, err)
	}
	return kafkago.Message{
		Key:   []byte(record.Name),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "nuclide_id", Value: []byte(strconv.Itoa(int(record.ID)))},
			{Key: "built_at", Value: []byte(builtAt.UTC().Format(time.RFC3339))},
		},
	}, nil
}
