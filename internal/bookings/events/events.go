// Package events hands booking lifecycle changes to the notification side
// and applies payment outcomes coming back from it.
package events

import (
	"context"
	"staybook/pkg/model"
	"time"

	"github.com/google/uuid"
)

const (
	TypeBookingCreated       = "booking.created"
	TypeBookingStatusChanged = "booking.status_changed"

	SchemaVersion = "1"
)

type Event struct {
	ID             string              `json:"event_id"`
	Type           string              `json:"event_type"`
	BookingID      string              `json:"booking_id"`
	Reference      string              `json:"reference"`
	RoomID         string              `json:"room_id"`
	RequesterID    string              `json:"requester_id"`
	Status         model.BookingStatus `json:"status"`
	PreviousStatus model.BookingStatus `json:"previous_status,omitempty"`
	CheckIn        string              `json:"check_in"`
	CheckOut       string              `json:"check_out"`
	Guests         int                 `json:"guests"`
	Total          int64               `json:"total"`
	OccurredAt     time.Time           `json:"occurred_at"`
	CorrelationID  string              `json:"-"`
}

// Publisher delivers events. Callers treat delivery as best effort.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

func BookingCreated(b *model.Booking) Event {
	return newEvent(TypeBookingCreated, b, "")
}

func StatusChanged(b *model.Booking, previous model.BookingStatus) Event {
	return newEvent(TypeBookingStatusChanged, b, previous)
}

func newEvent(eventType string, b *model.Booking, previous model.BookingStatus) Event {
	return Event{
		ID:             uuid.NewString(),
		Type:           eventType,
		BookingID:      b.ID,
		Reference:      b.Reference,
		RoomID:         b.RoomID,
		RequesterID:    b.RequesterID,
		Status:         b.Status,
		PreviousStatus: previous,
		CheckIn:        b.CheckIn.Format(time.DateOnly),
		CheckOut:       b.CheckOut.Format(time.DateOnly),
		Guests:         b.Guests,
		Total:          b.Total,
		OccurredAt:     time.Now().UTC(),
	}
}

type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }

func (NopPublisher) Close() error { return nil }
