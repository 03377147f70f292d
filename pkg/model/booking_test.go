package model

import (
	"testing"
	"time"
)

func day(s string) time.Time {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestOverlaps(t *testing.T) {
	tests := []struct {
		name                 string
		aIn, aOut, bIn, bOut string
		want                 bool
	}{
		{"identical", "2030-01-10", "2030-01-12", "2030-01-10", "2030-01-12", true},
		{"partial head", "2030-01-09", "2030-01-11", "2030-01-10", "2030-01-12", true},
		{"partial tail", "2030-01-11", "2030-01-13", "2030-01-10", "2030-01-12", true},
		{"contained", "2030-01-10", "2030-01-20", "2030-01-12", "2030-01-13", true},
		{"checkout equals checkin", "2030-01-08", "2030-01-10", "2030-01-10", "2030-01-12", false},
		{"checkin equals checkout", "2030-01-12", "2030-01-14", "2030-01-10", "2030-01-12", false},
		{"disjoint", "2030-02-01", "2030-02-03", "2030-01-10", "2030-01-12", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Overlaps(day(tt.aIn), day(tt.aOut), day(tt.bIn), day(tt.bOut))
			if got != tt.want {
				t.Errorf("Overlaps() = %v, want %v", got, tt.want)
			}
			if rev := Overlaps(day(tt.bIn), day(tt.bOut), day(tt.aIn), day(tt.aOut)); rev != got {
				t.Errorf("Overlaps is not symmetric for %s", tt.name)
			}
		})
	}
}

func TestBookingStatus_Lifecycle(t *testing.T) {
	tests := []struct {
		from, to BookingStatus
		want     bool
	}{
		{StatusPendingPayment, StatusConfirmed, true},
		{StatusPendingPayment, StatusCancelled, true},
		{StatusConfirmed, StatusCancelled, true},
		{StatusConfirmed, StatusPendingPayment, false},
		{StatusCancelled, StatusConfirmed, false},
		{StatusCancelled, StatusPendingPayment, false},
		{StatusPendingPayment, StatusPendingPayment, false},
		{StatusConfirmed, "refunded", false},
	}

	for _, tt := range tests {
		if got := tt.from.CanTransitionTo(tt.to); got != tt.want {
			t.Errorf("%s -> %s: got %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestBookingStatus_IsBlocking(t *testing.T) {
	if !StatusPendingPayment.IsBlocking() || !StatusConfirmed.IsBlocking() {
		t.Error("pending_payment and confirmed must block")
	}
	if StatusCancelled.IsBlocking() {
		t.Error("cancelled must not block")
	}
	for _, s := range BlockingStatuses {
		if !s.IsBlocking() {
			t.Errorf("%s listed as blocking but IsBlocking is false", s)
		}
	}
}

func TestRoom_Snapshot(t *testing.T) {
	var nilRoom *Room
	if nilRoom.Snapshot() != nil {
		t.Error("nil room should snapshot to nil")
	}

	r := &Room{ID: "R1", Name: "Deluxe", HotelName: "Harbor", City: "Haifa", PricePerNight: 2500, IsActive: true}
	s := r.Snapshot()
	if s.ID != "R1" || s.HotelName != "Harbor" || !s.IsActive {
		t.Errorf("unexpected snapshot %+v", s)
	}
}
