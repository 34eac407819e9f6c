// Package rabbitmq publishes domain events to a RabbitMQ topic exchange.
package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/phrazzld/account-api/internal/events"
	"github.com/rabbitmq/amqp091-go"
)

const dialTimeout = 10 * time.Second

// channel is the subset of *amqp091.Channel used by the publisher.
type channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp091.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
	Close() error
}

// connection is the subset of *amqp091.Connection used by the publisher.
type connection interface {
	openChannel() (channel, error)
	IsClosed() bool
	Close() error
}

type amqpConnection struct {
	*amqp091.Connection
}

func (c amqpConnection) openChannel() (channel, error) {
	ch, err := c.Channel()
	if err != nil {
		return nil, err
	}
	return ch, nil
}

// Publisher forwards events to a durable topic exchange, using the event
// type as routing key. It implements events.EventHandler.
type Publisher struct {
	mu       sync.Mutex
	dial     func() (connection, error)
	conn     connection
	ch       channel
	exchange string
	logger   *slog.Logger
}

var _ events.EventHandler = (*Publisher)(nil)

// NewPublisher dials RabbitMQ and declares the exchange.
func NewPublisher(amqpURL, exchange string, logger *slog.Logger) (*Publisher, error) {
	cleanURL, err := sanitizeAMQPURL(amqpURL)
	if err != nil {
		return nil, fmt.Errorf("invalid rabbitmq url: %w", err)
	}

	p := newPublisher(func() (connection, error) {
		// Bounded dial timeout so startup does not hang
		conn, err := amqp091.DialConfig(cleanURL, amqp091.Config{Dial: amqp091.DefaultDial(dialTimeout)})
		if err != nil {
			return nil, err
		}
		return amqpConnection{Connection: conn}, nil
	}, exchange, logger)

	if err := p.init(); err != nil {
		_ = p.Close()
		return nil, err
	}
	return p, nil
}

func newPublisher(dial func() (connection, error), exchange string, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		dial:     dial,
		exchange: exchange,
		logger:   logger.With(slog.String("component", "rabbitmq_publisher")),
	}
}

func (p *Publisher) init() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.reopenLocked()
}

// connectLocked dials when there is no connection or the broker closed it.
func (p *Publisher) connectLocked() error {
	if p.conn != nil && !p.conn.IsClosed() {
		return nil
	}
	if p.conn != nil {
		p.logger.Warn("rabbitmq connection closed; redialing", slog.String("exchange", p.exchange))
		_ = p.conn.Close()
		p.conn = nil
		p.ch = nil
	}

	conn, err := p.dial()
	if err != nil {
		return fmt.Errorf("failed to connect to rabbitmq: %w", err)
	}
	p.conn = conn
	return nil
}

// reopenLocked opens a fresh channel and declares the exchange on it,
// redialing first if the connection is gone.
func (p *Publisher) reopenLocked() error {
	if err := p.connectLocked(); err != nil {
		return err
	}
	ch, err := p.conn.openChannel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(p.exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		return fmt.Errorf("failed to declare exchange %q: %w", p.exchange, err)
	}
	if p.ch != nil {
		_ = p.ch.Close()
	}
	p.ch = ch
	return nil
}

// HandleEvent publishes the event as JSON. A failed publish reopens the
// channel, redialing if the connection dropped, and is retried once.
func (p *Publisher) HandleEvent(ctx context.Context, event *events.Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		MessageId:    event.ID.String(),
		Type:         event.Type,
		Timestamp:    event.CreatedAt,
		Body:         body,
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ch == nil || p.conn == nil || p.conn.IsClosed() {
		if err := p.reopenLocked(); err != nil {
			return err
		}
	}

	err = p.ch.PublishWithContext(ctx, p.exchange, event.Type, false, false, msg)
	if err == nil {
		return nil
	}

	p.logger.WarnContext(ctx, "publish failed; reopening channel",
		slog.String("exchange", p.exchange),
		slog.String("routing_key", event.Type),
		slog.String("error", err.Error()))

	if reopenErr := p.reopenLocked(); reopenErr != nil {
		return errors.Join(err, reopenErr)
	}
	if err := p.ch.PublishWithContext(ctx, p.exchange, event.Type, false, false, msg); err != nil {
		return fmt.Errorf("failed to publish event %s: %w", event.ID, err)
	}
	return nil
}

// Close closes the channel and the connection.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var errs []error
	if p.ch != nil {
		errs = append(errs, p.ch.Close())
		p.ch = nil
	}
	if p.conn != nil {
		errs = append(errs, p.conn.Close())
		p.conn = nil
	}
	return errors.Join(errs...)
}

// sanitizeAMQPURL trims quotes, whitespace and stray leading characters from
// a configured URL and checks the scheme.
func sanitizeAMQPURL(raw string) (string, error) {
	clean := strings.TrimSpace(raw)
	clean = strings.Trim(clean, "\"'")
	if idx := strings.Index(strings.ToLower(clean), "amqp"); idx > 0 {
		clean = clean[idx:]
	}
	u, err := url.Parse(clean)
	if err != nil {
		return "", err
	}
	if u.Scheme != "amqp" && u.Scheme != "amqps" {
		return "", errors.New("AMQP scheme must be either 'amqp://' or 'amqps://'")
	}
	return clean, nil
}
