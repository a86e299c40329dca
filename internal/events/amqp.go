// Package events provides sinks for the domain events emitted by the
// application services: an AMQP publisher for deployments with a broker and
// a log sink for deployments without one.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	// ExchangeName is the topic exchange all reservation and room events
	// are published to. Routing keys are the event names, so consumers can
	// bind patterns such as "reservation.*".
	ExchangeName = "reservations"
	exchangeKind = "topic"
)

// AMQPPublisher publishes domain events to a RabbitMQ topic exchange.
type AMQPPublisher struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	logger  *slog.Logger
}

// NewAMQPPublisher dials the broker, opens a channel, and declares the
// durable topic exchange.
func NewAMQPPublisher(url string, logger *slog.Logger) (*AMQPPublisher, error) {
	if logger == nil {
		logger = slog.Default()
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("amqp dial: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("amqp channel: %w", err)
	}

	if err := ch.ExchangeDeclare(ExchangeName, exchangeKind, true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("amqp exchange declare: %w", err)
	}

	return &AMQPPublisher{conn: conn, channel: ch, logger: logger}, nil
}

// Publish marshals the payload as JSON and publishes it with the event name
// as routing key. Messages are persistent so they survive broker restarts.
func (p *AMQPPublisher) Publish(ctx context.Context, name string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal event payload: %w", err)
	}

	err = p.channel.PublishWithContext(ctx,
		ExchangeName,
		name,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish event %s: %w", name, err)
	}

	p.logger.DebugContext(ctx, "event published", "exchange", ExchangeName, "event", name)
	return nil
}

// Close releases the channel and connection.
func (p *AMQPPublisher) Close() error {
	if p.channel != nil {
		if err := p.channel.Close(); err != nil {
			return fmt.Errorf("close channel: %w", err)
		}
	}
	if p.conn != nil {
		if err := p.conn.Close(); err != nil {
			return fmt.Errorf("close connection: %w", err)
		}
	}
	return nil
}
