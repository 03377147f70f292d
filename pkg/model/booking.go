package model

import (
	"time"
)

type BookingStatus string

const (
	StatusPendingPayment BookingStatus = "pending_payment"
	StatusConfirmed      BookingStatus = "confirmed"
	StatusCancelled      BookingStatus = "cancelled"
)

// BlockingStatuses are the states that hold a room's nights.
var BlockingStatuses = []BookingStatus{StatusPendingPayment, StatusConfirmed}

// IsBlocking reports whether a booking in this status counts toward overlap conflicts.
func (s BookingStatus) IsBlocking() bool {
	return s == StatusPendingPayment || s == StatusConfirmed
}

func (s BookingStatus) IsValid() bool {
	switch s {
	case StatusPendingPayment, StatusConfirmed, StatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo encodes the booking lifecycle. Cancelled is terminal.
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	switch s {
	case StatusPendingPayment:
		return next == StatusConfirmed || next == StatusCancelled
	case StatusConfirmed:
		return next == StatusCancelled
	}
	return false
}

type RequesterDetails struct {
	Name  string `json:"name,omitempty" bson:"name,omitempty" validate:"omitempty,max=100"`
	Email string `json:"email,omitempty" bson:"email,omitempty" validate:"omitempty,email"`
	Phone string `json:"phone,omitempty" bson:"phone,omitempty" validate:"omitempty,e164"`
}

type Booking struct {
	ID               string            `json:"id" bson:"_id"`
	Reference        string            `json:"reference" bson:"reference"`
	RoomID           string            `json:"room_id" bson:"room_id"`
	RequesterID      string            `json:"requester_id" bson:"requester_id"`
	CheckIn          time.Time         `json:"check_in" bson:"check_in"`
	CheckOut         time.Time         `json:"check_out" bson:"check_out"`
	Guests           int               `json:"guests" bson:"guests"`
	Nights           int               `json:"nights" bson:"nights"`
	PricePerNight    int64             `json:"price_per_night" bson:"price_per_night"`
	Total            int64             `json:"total" bson:"total"`
	Status           BookingStatus     `json:"status" bson:"status"`
	RequesterDetails *RequesterDetails `json:"requester_details,omitempty" bson:"requester_details,omitempty"`
	CreatedAt        time.Time         `json:"created_at" bson:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at" bson:"updated_at"`
}

// BookingWithContext is the read model: the booking plus a snapshot of the
// room it belongs to. Room is nil when the catalog no longer has the room.
type BookingWithContext struct {
	*Booking
	Room *RoomSnapshot `json:"room,omitempty"`
}

// Overlaps is the half-open interval test [aStart, aEnd) ∩ [bStart, bEnd) ≠ ∅.
// Touching endpoints do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}

// CreateBookingInput is the create request. Guests is a pointer so an absent
// value can be told apart from zero.
type CreateBookingInput struct {
	RoomID           string            `json:"room_id" validate:"required"`
	CheckIn          string            `json:"check_in" validate:"required"`
	CheckOut         string            `json:"check_out" validate:"required"`
	Guests           *int              `json:"guests" validate:"required,min=1,max=20"`
	RequesterID      string            `json:"requester_id" validate:"required"`
	RequesterDetails *RequesterDetails `json:"requester_details,omitempty"`
}

type BookingStatusUpdate struct {
	Status BookingStatus `json:"status" validate:"required,oneof=pending_payment confirmed cancelled"`
}
