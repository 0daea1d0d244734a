package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/bikeshare-analytics-service/internal/analysis"
	"github.com/couchcryptid/bikeshare-analytics-service/internal/config"
)

// messageWriter is the subset of *kafkago.Writer used by Publisher.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Publisher sends view summaries to a Kafka topic.
// It implements analysis.ViewSink.
type Publisher struct {
	writer messageWriter
	logger *slog.Logger
}

// NewPublisher creates an asynchronous Kafka producer for the configured view
// topic. Delivery failures surface through the writer's completion callback
// and are logged.
func NewPublisher(cfg *config.Config, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaViewTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireOne,
		Async:        true,
		BatchTimeout: 50 * time.Millisecond,
		Completion: func(msgs []kafkago.Message, err error) {
			if err != nil {
				logger.Error("view delivery failed", "messages", len(msgs), "error", err)
			}
		},
	}
	return &Publisher{writer: w, logger: logger}
}

// NewSyncPublisher creates a Kafka producer that waits for broker
// acknowledgement on every publish.
func NewSyncPublisher(cfg *config.Config, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaViewTopic,
		Balancer:               &kafkago.LeastBytes{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Publisher{writer: w, logger: logger}
}

// Publish serializes the view summary, without its records, and writes it to
// the view topic.
func (p *Publisher) Publish(ctx context.Context, v analysis.View) error {
	msg, err := serializeToMessage(v, uuid.NewString())
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish %s view: %w", v.Granularity, err)
	}
	p.logger.Debug("view published", "granularity", v.Granularity.String(), "key", string(msg.Key))
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// serializeToMessage marshals a View summary into a Kafka message.
func serializeToMessage(v analysis.View, key string) (kafkago.Message, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize view: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(key),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "granularity", Value: []byte(v.Granularity.String())},
			{Key: "generated_at", Value: []byte(v.GeneratedAt.Format(time.RFC3339))},
		},
	}, nil
}
