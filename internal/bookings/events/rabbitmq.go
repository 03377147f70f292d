package events

import (
	"context"
	"encoding/json"
	kafka_middleware "staybook/pkg/kafka/middleware"
	"time"
)

type amqpPublisher interface {
	Publish(ctx context.Context, eventType, messageID string, body []byte) error
	Close() error
}

type RabbitMQPublisher struct {
	publisher amqpPublisher
	metrics   *kafka_middleware.Metrics
}

func NewRabbitMQPublisher(publisher amqpPublisher, metrics *kafka_middleware.Metrics) *RabbitMQPublisher {
	return &RabbitMQPublisher{publisher: publisher, metrics: metrics}
}

func (p *RabbitMQPublisher) Publish(ctx context.Context, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}

	start := time.Now()
	err = p.publisher.Publish(ctx, event.Type, event.ID, body)
	if p.metrics != nil {
		p.metrics.RecordPublish(time.Since(start), err)
	}
	return err
}

func (p *RabbitMQPublisher) Close() error {
	return p.publisher.Close()
}
