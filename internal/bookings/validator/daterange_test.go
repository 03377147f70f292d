package validator

import (
	"errors"
	bookingserrors "staybook/internal/bookings/errors"
	"testing"
	"time"
)

func TestValidateDateRange(t *testing.T) {
	today := time.Date(2030, 6, 1, 15, 30, 0, 0, time.UTC)

	tests := []struct {
		name       string
		checkIn    string
		checkOut   string
		wantErr    error
		wantNights int
	}{
		{
			name:       "one night",
			checkIn:    "2030-06-01",
			checkOut:   "2030-06-02",
			wantNights: 1,
		},
		{
			name:       "check-in today ignores time of day",
			checkIn:    "2030-06-01",
			checkOut:   "2030-06-04",
			wantNights: 3,
		},
		{
			name:       "across month boundary",
			checkIn:    "2030-06-29",
			checkOut:   "2030-07-02",
			wantNights: 3,
		},
		{
			name:     "same day",
			checkIn:  "2030-06-05",
			checkOut: "2030-06-05",
			wantErr:  bookingserrors.ErrInvalidOrder,
		},
		{
			name:     "reversed",
			checkIn:  "2030-06-06",
			checkOut: "2030-06-05",
			wantErr:  bookingserrors.ErrInvalidOrder,
		},
		{
			name:     "yesterday",
			checkIn:  "2030-05-31",
			checkOut: "2030-06-02",
			wantErr:  bookingserrors.ErrPastCheckIn,
		},
		{
			name:     "not a date",
			checkIn:  "not-a-date",
			checkOut: "2030-06-02",
			wantErr:  bookingserrors.ErrInvalidFormat,
		},
		{
			name:     "bad check-out",
			checkIn:  "2030-06-02",
			checkOut: "2030/06/03",
			wantErr:  bookingserrors.ErrInvalidFormat,
		},
		{
			name:     "timestamp rejected",
			checkIn:  "2030-06-02T00:00:00Z",
			checkOut: "2030-06-03",
			wantErr:  bookingserrors.ErrInvalidFormat,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := ValidateDateRange(tt.checkIn, tt.checkOut, today)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := r.Nights(); got != tt.wantNights {
				t.Errorf("Nights() = %d, want %d", got, tt.wantNights)
			}
			if r.CheckIn.Location() != time.UTC || r.CheckIn.Hour() != 0 {
				t.Errorf("check-in should be a UTC midnight, got %v", r.CheckIn)
			}
		})
	}
}

func TestValidateDateRange_FormatCheckedBeforeOrder(t *testing.T) {
	_, err := ValidateDateRange("garbage", "garbage", Today())
	if !errors.Is(err, bookingserrors.ErrInvalidFormat) {
		t.Fatalf("expected ErrInvalidFormat, got %v", err)
	}
}

func TestToday(t *testing.T) {
	d := Today()
	if d.Hour() != 0 || d.Minute() != 0 || d.Second() != 0 || d.Nanosecond() != 0 {
		t.Errorf("Today() should be midnight, got %v", d)
	}
	if d.Location() != time.UTC {
		t.Errorf("Today() should be UTC, got %v", d.Location())
	}
}
