package validator

import (
	"errors"
	"fmt"
	bookingserrors "staybook/internal/bookings/errors"
	"staybook/pkg/logger"
	"staybook/pkg/model"
	"strings"

	"github.com/go-playground/validator/v10"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var messages []string
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

type BookingValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewBookingValidator(log *logger.Logger) *BookingValidator {
	v := validator.New()

	log.Info("Booking validator initialized successfully")

	return &BookingValidator{
		validate: v,
		logger:   log,
	}
}

// ValidateCreate checks presence first, then the guest range, then the
// optional requester details. Dates are checked by ValidateDateRange.
func (v *BookingValidator) ValidateCreate(in *model.CreateBookingInput) error {
	if in == nil {
		return bookingserrors.ErrMissingFields
	}

	err := v.validate.Struct(in)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	var missing []string
	guestsOutOfRange := false
	for _, fe := range validationErrs {
		switch {
		case fe.Tag() == "required":
			missing = append(missing, jsonName(fe.Field()))
		case fe.Field() == "Guests":
			guestsOutOfRange = true
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", bookingserrors.ErrMissingFields, strings.Join(missing, ", "))
	}
	if guestsOutOfRange {
		return fmt.Errorf("%w: got %d", bookingserrors.ErrInvalidGuestCount, *in.Guests)
	}
	return v.translateValidationErrors(validationErrs)
}

func (v *BookingValidator) ValidateStatusUpdate(update *model.BookingStatusUpdate) error {
	if err := v.validate.Struct(update); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}
	return nil
}

func (v *BookingValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "min":
			message = fmt.Sprintf("%s must be at least %s", err.Field(), err.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s", err.Field(), err.Param())
		case "email":
			message = fmt.Sprintf("%s must be a valid email address", err.Field())
		case "e164":
			message = fmt.Sprintf("%s must be in E.164 format (e.g., +12125551234)", err.Field())
		case "oneof":
			message = fmt.Sprintf("%s must be one of: %s", err.Field(), err.Param())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   jsonName(err.Field()),
			Message: message,
		})
	}

	return validationErrors
}

var jsonNames = map[string]string{
	"RoomID":      "room_id",
	"CheckIn":     "check_in",
	"CheckOut":    "check_out",
	"Guests":      "guests",
	"RequesterID": "requester_id",
	"Name":        "name",
	"Email":       "email",
	"Phone":       "phone",
	"Status":      "status",
}

func jsonName(field string) string {
	if n, ok := jsonNames[field]; ok {
		return n
	}
	return field
}
