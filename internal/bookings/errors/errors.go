package errors

import "errors"

var (
	ErrMissingFields = errors.New("missing required fields")

	ErrInvalidGuestCount = errors.New("guests must be between 1 and 20")

	ErrInvalidFormat = errors.New("dates must be in YYYY-MM-DD format")

	ErrInvalidOrder = errors.New("check_out must be after check_in")

	ErrPastCheckIn = errors.New("check_in cannot be in the past")

	ErrRoomNotFound = errors.New("room not found")

	ErrRoomUnavailable = errors.New("room is not available for the selected dates")

	ErrLockTimeout = errors.New("timed out waiting for room lock")

	ErrReferenceCollision = errors.New("booking reference already exists")

	ErrBookingCreationFailed = errors.New("failed to create booking")

	ErrBookingNotFound = errors.New("booking not found")

	ErrInvalidID = errors.New("invalid booking ID format")

	ErrDataStoreUnavailable = errors.New("data store unavailable")

	ErrInvalidStatusTransition = errors.New("invalid booking status transition")
)
