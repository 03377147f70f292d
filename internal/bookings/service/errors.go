package service

import (
	"context"
	"errors"
	"net/http"
	bookingserrors "staybook/internal/bookings/errors"
	"staybook/internal/bookings/validator"
	apperrors "staybook/pkg/errors"
)

type errorMapping struct {
	sentinel error
	code     string
	status   int
	message  string
}

// Order matters only where one error could match several sentinels.
var errorMappings = []errorMapping{
	{bookingserrors.ErrMissingFields, apperrors.CodeMissingFields, http.StatusBadRequest, "Missing required fields"},
	{bookingserrors.ErrInvalidGuestCount, apperrors.CodeInvalidGuestCount, http.StatusBadRequest, "Guests must be between 1 and 20"},
	{bookingserrors.ErrInvalidFormat, apperrors.CodeInvalidDateFormat, http.StatusBadRequest, "Dates must use the YYYY-MM-DD format"},
	{bookingserrors.ErrInvalidOrder, apperrors.CodeInvalidDateOrder, http.StatusBadRequest, "check_out must be after check_in"},
	{bookingserrors.ErrPastCheckIn, apperrors.CodePastCheckIn, http.StatusBadRequest, "check_in cannot be in the past"},
	{bookingserrors.ErrRoomNotFound, apperrors.CodeRoomNotFound, http.StatusNotFound, "Room not found"},
	{bookingserrors.ErrRoomUnavailable, apperrors.CodeRoomUnavailable, http.StatusConflict, "Room is not available for the selected dates"},
	{bookingserrors.ErrLockTimeout, apperrors.CodeLockTimeout, http.StatusServiceUnavailable, "Room is busy, please retry"},
	{bookingserrors.ErrBookingCreationFailed, apperrors.CodeBookingCreationFailed, http.StatusInternalServerError, "Failed to create booking"},
	{bookingserrors.ErrReferenceCollision, apperrors.CodeBookingCreationFailed, http.StatusInternalServerError, "Failed to create booking"},
	{bookingserrors.ErrBookingNotFound, apperrors.CodeBookingNotFound, http.StatusNotFound, "Booking not found"},
	{bookingserrors.ErrInvalidID, apperrors.CodeBookingNotFound, http.StatusNotFound, "Booking not found"},
	{bookingserrors.ErrInvalidStatusTransition, apperrors.CodeInvalidStatusTransition, http.StatusConflict, "Booking status cannot change this way"},
	{bookingserrors.ErrDataStoreUnavailable, apperrors.CodeDataStoreUnavailable, http.StatusServiceUnavailable, "Data store is temporarily unavailable"},
}

// toAppError maps domain failures to stable API codes. The domain error stays
// reachable through errors.Is on the result.
func toAppError(err error) error {
	if err == nil {
		return nil
	}
	if apperrors.IsAppError(err) {
		return err
	}

	for _, m := range errorMappings {
		if errors.Is(err, m.sentinel) {
			return apperrors.Wrap(err, m.code, m.message, m.status)
		}
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		details := make(map[string]any, len(verrs))
		for _, v := range verrs {
			details[v.Field] = v.Message
		}
		return apperrors.Validation("Invalid booking input", details)
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return apperrors.Wrap(err, apperrors.CodeTimeout, "Request timed out", http.StatusGatewayTimeout)
	}

	return apperrors.Internal("An unexpected error occurred", err)
}
