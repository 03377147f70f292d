package events

import (
	"context"
	"errors"
	bookingserrors "staybook/internal/bookings/errors"
	apperrors "staybook/pkg/errors"
	"staybook/pkg/kafka"
	"staybook/pkg/logger"
	"staybook/pkg/model"
	"strings"
)

// PaymentUpdate is emitted by the payment process once a booking is paid for
// or abandoned.
type PaymentUpdate struct {
	BookingID string              `json:"booking_id"`
	Status    model.BookingStatus `json:"status"`
}

type StatusUpdater interface {
	UpdateStatus(ctx context.Context, id string, status model.BookingStatus) (*model.Booking, error)
}

// PaymentHandler applies payment updates. Malformed payloads and rejected
// transitions are permanent; store, lock and timeout failures are retried.
func PaymentHandler(updater StatusUpdater, log *logger.Logger) kafka.MessageHandler {
	return func(ctx context.Context, msg kafka.Message) error {
		var update PaymentUpdate
		if err := msg.DecodeValue(&update); err != nil {
			return kafka.NewPermanentError("invalid payment update payload", err)
		}
		update.BookingID = strings.TrimSpace(update.BookingID)
		if update.BookingID == "" || !update.Status.IsValid() {
			return kafka.NewPermanentError("payment update needs booking_id and a known status", nil)
		}

		booking, err := updater.UpdateStatus(ctx, update.BookingID, update.Status)
		if err != nil {
			if retryable(err) {
				return kafka.NewTransientError("payment update not applied", err)
			}
			return kafka.NewPermanentError("payment update rejected", err)
		}

		log.Info("Applied payment update",
			"booking_id", booking.ID,
			"reference", booking.Reference,
			"status", booking.Status,
		)
		return nil
	}
}

func retryable(err error) bool {
	if errors.Is(err, bookingserrors.ErrDataStoreUnavailable) ||
		errors.Is(err, bookingserrors.ErrLockTimeout) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) {
		return true
	}
	var appErr *apperrors.AppError
	return errors.As(err, &appErr) && appErr.Code == apperrors.CodeTimeout
}
