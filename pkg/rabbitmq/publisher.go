// Package rabbitmq publishes JSON events to a durable queue over one
// long-lived connection, reconnecting on the next publish after a failure.
package rabbitmq

import (
	"context"
	"fmt"
	"staybook/pkg/logger"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
	IsClosed() bool
}

// dialFunc opens a connection and a channel with the queue declared.
type dialFunc func(url, queue string) (closer func() error, ch channel, err error)

type Publisher struct {
	url   string
	queue string
	dial  dialFunc
	log   *logger.Logger

	mu        sync.Mutex
	ch        channel
	closeConn func() error
	closed    bool
}

func NewPublisher(url, queue string, log *logger.Logger) *Publisher {
	return &Publisher{
		url:   url,
		queue: queue,
		dial:  dialAMQP,
		log:   log.With("queue", queue),
	}
}

func dialAMQP(url, queue string) (func() error, channel, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("rabbitmq dial: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("rabbitmq channel open: %w", err)
	}

	if _, err := ch.QueueDeclare(
		queue,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,
	); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, nil, fmt.Errorf("rabbitmq queue declare: %w", err)
	}

	return conn.Close, ch, nil
}

// Publish sends body as a persistent message routed to the queue through the
// default exchange.
func (p *Publisher) Publish(ctx context.Context, eventType, messageID string, body []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return fmt.Errorf("rabbitmq publisher is closed")
	}

	if p.ch == nil || p.ch.IsClosed() {
		p.resetLocked()
		closeConn, ch, err := p.dial(p.url, p.queue)
		if err != nil {
			return err
		}
		p.ch, p.closeConn = ch, closeConn
		p.log.Info("Connected to RabbitMQ")
	}

	err := p.ch.PublishWithContext(ctx,
		"",      // default exchange
		p.queue, // routing key = queue name
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    messageID,
			Type:         eventType,
			Timestamp:    time.Now().UTC(),
			Body:         body,
		},
	)
	if err != nil {
		p.resetLocked()
		return fmt.Errorf("rabbitmq publish: %w", err)
	}
	return nil
}

func (p *Publisher) resetLocked() {
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.closeConn != nil {
		_ = p.closeConn()
		p.closeConn = nil
	}
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.closed = true
	p.resetLocked()
	return nil
}
