package events

import (
	"context"
	"staybook/pkg/kafka"
)

type kafkaProducer interface {
	Publish(ctx context.Context, msg kafka.Message) error
	Close() error
}

// KafkaPublisher keys every event by booking id so one booking's events stay
// ordered on a single partition.
type KafkaPublisher struct {
	producer kafkaProducer
	source   string
}

func NewKafkaPublisher(producer kafkaProducer, source string) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, source: source}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event Event) error {
	msg, err := kafka.NewMessage().
		WithKey(event.BookingID).
		WithValue(event).
		WithEventID(event.ID).
		WithEventType(event.Type).
		WithCorrelationID(event.CorrelationID).
		WithSchemaVersion(SchemaVersion).
		WithSource(p.source).
		Build()
	if err != nil {
		return err
	}
	return p.producer.Publish(ctx, msg)
}

func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}
