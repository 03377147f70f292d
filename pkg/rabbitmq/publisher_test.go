package rabbitmq

import (
	"context"
	"errors"
	"staybook/pkg/logger"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
)

type fakeChannel struct {
	published []amqp.Publishing
	keys      []string
	err       error
	closed    bool
}

func (c *fakeChannel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	if c.err != nil {
		return c.err
	}
	c.keys = append(c.keys, key)
	c.published = append(c.published, msg)
	return nil
}

func (c *fakeChannel) Close() error {
	c.closed = true
	return nil
}

func (c *fakeChannel) IsClosed() bool { return c.closed }

func newTestPublisher(channels ...*fakeChannel) (*Publisher, *int) {
	dials := 0
	p := NewPublisher("amqp://test", "bookings.events", logger.Discard())
	p.dial = func(url, queue string) (func() error, channel, error) {
		if dials >= len(channels) {
			return nil, nil, errors.New("broker down")
		}
		ch := channels[dials]
		dials++
		return func() error { return nil }, ch, nil
	}
	return p, &dials
}

func TestPublisher_Publish(t *testing.T) {
	ch := &fakeChannel{}
	p, dials := newTestPublisher(ch)

	for i := 0; i < 3; i++ {
		if err := p.Publish(context.Background(), "booking.created", "evt", []byte(`{}`)); err != nil {
			t.Fatalf("Publish failed: %v", err)
		}
	}

	if *dials != 1 {
		t.Errorf("connection should be reused, dialed %d times", *dials)
	}
	if len(ch.published) != 3 || ch.keys[0] != "bookings.events" {
		t.Fatalf("unexpected publishes %v to %v", len(ch.published), ch.keys)
	}
	msg := ch.published[0]
	if msg.DeliveryMode != amqp.Persistent || msg.ContentType != "application/json" || msg.Type != "booking.created" {
		t.Errorf("unexpected publishing %+v", msg)
	}
}

func TestPublisher_ReconnectsAfterFailure(t *testing.T) {
	broken := &fakeChannel{err: errors.New("channel/connection is not open")}
	healthy := &fakeChannel{}
	p, dials := newTestPublisher(broken, healthy)

	if err := p.Publish(context.Background(), "booking.created", "1", []byte(`{}`)); err == nil {
		t.Fatal("expected first publish to fail")
	}
	if !broken.closed {
		t.Error("failed channel should be closed")
	}

	if err := p.Publish(context.Background(), "booking.created", "2", []byte(`{}`)); err != nil {
		t.Fatalf("publish after reconnect failed: %v", err)
	}
	if *dials != 2 || len(healthy.published) != 1 {
		t.Errorf("expected a second dial and one publish, got dials=%d publishes=%d", *dials, len(healthy.published))
	}
}

func TestPublisher_DialFailure(t *testing.T) {
	p, _ := newTestPublisher()
	if err := p.Publish(context.Background(), "booking.created", "1", []byte(`{}`)); err == nil {
		t.Fatal("expected dial failure to surface")
	}
}

func TestPublisher_Closed(t *testing.T) {
	ch := &fakeChannel{}
	p, _ := newTestPublisher(ch)
	p.Publish(context.Background(), "booking.created", "1", []byte(`{}`))
	p.Close()

	if !ch.closed {
		t.Error("Close should close the channel")
	}
	if err := p.Publish(context.Background(), "booking.created", "2", []byte(`{}`)); err == nil {
		t.Error("publish after Close should fail")
	}
}
