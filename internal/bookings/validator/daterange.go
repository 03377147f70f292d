package validator

import (
	"fmt"
	bookingserrors "staybook/internal/bookings/errors"
	"strings"
	"time"

	"github.com/jinzhu/now"
)

// DateRange is a validated stay: CheckIn and CheckOut are UTC midnights and
// CheckOut is strictly after CheckIn.
type DateRange struct {
	CheckIn  time.Time
	CheckOut time.Time
}

func (r DateRange) Nights() int {
	return int(r.CheckOut.Sub(r.CheckIn).Hours() / 24)
}

// Today is the current UTC date at midnight.
func Today() time.Time {
	return now.With(time.Now().UTC()).BeginningOfDay()
}

// ValidateDateRange parses YYYY-MM-DD check-in and check-out dates and checks
// their order and that check-in is not before today. Only the date part of
// today is compared.
func ValidateDateRange(checkIn, checkOut string, today time.Time) (DateRange, error) {
	in, err := parseDate(checkIn)
	if err != nil {
		return DateRange{}, fmt.Errorf("%w: check_in %q", bookingserrors.ErrInvalidFormat, checkIn)
	}
	out, err := parseDate(checkOut)
	if err != nil {
		return DateRange{}, fmt.Errorf("%w: check_out %q", bookingserrors.ErrInvalidFormat, checkOut)
	}

	if !out.After(in) {
		return DateRange{}, bookingserrors.ErrInvalidOrder
	}

	day := now.With(today.UTC()).BeginningOfDay()
	if in.Before(day) {
		return DateRange{}, bookingserrors.ErrPastCheckIn
	}

	return DateRange{CheckIn: in, CheckOut: out}, nil
}

func parseDate(s string) (time.Time, error) {
	return time.ParseInLocation(time.DateOnly, strings.TrimSpace(s), time.UTC)
}
