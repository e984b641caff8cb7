// Package broker publishes domain events (orders, staff calls, machine status,
// ended sessions) to NATS or RabbitMQ.
package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Kind selects the broker implementation.
const (
	KindNone = "none"
	KindNATS = "nats"
	KindAMQP = "amqp"
)

// Config holds the connection settings for every supported broker.
type Config struct {
	Kind         string
	NATSURL      string
	AMQPURL      string
	AMQPExchange string
}

// Publisher is the union of what the services and the readiness probe need.
type Publisher interface {
	Publish(ctx context.Context, subject string, payload any) error
	Ping() error
	Close() error
}

// Envelope wraps every published payload.
type Envelope struct {
	ID         string    `json:"id"`
	Subject    string    `json:"subject"`
	OccurredAt time.Time `json:"occurredAt"`
	Payload    any       `json:"payload"`
}

// New connects the broker named by cfg.Kind. An empty kind means no broker.
func New(cfg Config, log zerolog.Logger) (Publisher, error) {
	switch cfg.Kind {
	case "", KindNone:
		return Noop{}, nil
	case KindNATS:
		return NewNATSPublisher(cfg.NATSURL, log)
	case KindAMQP:
		return NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange, log)
	default:
		return nil, fmt.Errorf("unknown broker %q", cfg.Kind)
	}
}

func encode(subject string, payload any) ([]byte, error) {
	body, err := json.Marshal(Envelope{
		ID:         uuid.NewString(),
		Subject:    subject,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	})
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", subject, err)
	}
	return body, nil
}

// Noop drops every event.
type Noop struct{}

func (Noop) Publish(context.Context, string, any) error { return nil }
func (Noop) Ping() error                                { return nil }
func (Noop) Close() error                               { return nil }
