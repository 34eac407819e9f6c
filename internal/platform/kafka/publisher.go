// Package kafka publishes domain events to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/account-api/internal/events"
	"github.com/segmentio/kafka-go"
)

// batchTimeout bounds how long a synchronous write waits for its batch to
// fill. Events are written one at a time from the request path, so the
// writer's 1s default would be added to every balance operation.
const batchTimeout = 10 * time.Millisecond

// messageWriter is the subset of *kafka.Writer used by the publisher.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher writes events to a single topic. The event key (the account
// number for transaction events) is the message key, so events of one
// account land on one partition in order. It implements events.EventHandler.
type Publisher struct {
	writer messageWriter
	topic  string
	logger *slog.Logger
}

var _ events.EventHandler = (*Publisher)(nil)

// NewPublisher creates a publisher for the given brokers and topic.
func NewPublisher(brokers []string, topic string, logger *slog.Logger) *Publisher {
	return newPublisher(&kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: batchTimeout,
		RequiredAcks: kafka.RequireOne,
	}, topic, logger)
}

func newPublisher(w messageWriter, topic string, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		writer: w,
		topic:  topic,
		logger: logger.With(slog.String("component", "kafka_publisher")),
	}
}

// HandleEvent writes the event as a JSON message.
func (p *Publisher) HandleEvent(ctx context.Context, event *events.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(event.Key),
		Value: data,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
			{Key: "event_id", Value: []byte(event.ID.String())},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write event %s to topic %s: %w", event.ID, p.topic, err)
	}

	p.logger.DebugContext(ctx, "event published",
		slog.String("event_id", event.ID.String()),
		slog.String("event_type", event.Type),
		slog.String("topic", p.topic))
	return nil
}

// Close flushes pending messages and closes the writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
