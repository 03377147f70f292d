package service

import (
	"context"
	"errors"
	"fmt"
	"staybook/internal/bookings/availability"
	bookingserrors "staybook/internal/bookings/errors"
	"staybook/internal/bookings/events"
	"staybook/internal/bookings/lock"
	"staybook/internal/bookings/reference"
	"staybook/internal/bookings/repository"
	"staybook/internal/bookings/validator"
	"staybook/pkg/config"
	"staybook/pkg/middleware"
	"staybook/pkg/model"
	"staybook/pkg/sanitizer"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	maxReferenceAttempts = 3
	publishTimeout       = 3 * time.Second
)

type BookingService interface {
	Create(ctx context.Context, in *model.CreateBookingInput) (*model.Booking, error)
	GetByID(ctx context.Context, id string) (*model.BookingWithContext, error)
	CheckAvailability(ctx context.Context, roomID, checkIn, checkOut string) (bool, error)
	CheckAvailabilityBatch(ctx context.Context, roomIDs []string, checkIn, checkOut string) (map[string]bool, error)
	UpdateStatus(ctx context.Context, id string, status model.BookingStatus) (*model.Booking, error)
}

// RoomLocker hands out per-room leases; *lock.Coordinator is the implementation.
type RoomLocker interface {
	Acquire(ctx context.Context, roomID string) (*lock.Lease, error)
}

type bookingService struct {
	repo      repository.BookingRepository
	rooms     repository.RoomCatalog
	locks     RoomLocker
	detector  *availability.Detector
	validator *validator.BookingValidator
	publisher events.Publisher
	cfg       *config.Config

	newReference reference.Generator
	today        func() time.Time
}

func NewBookingService(
	repo repository.BookingRepository,
	rooms repository.RoomCatalog,
	locks RoomLocker,
	v *validator.BookingValidator,
	publisher events.Publisher,
	cfg *config.Config,
) BookingService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &bookingService{
		repo:         repo,
		rooms:        rooms,
		locks:        locks,
		detector:     availability.NewDetector(repo, cfg.AvailabilityWorkers, cfg.Log),
		validator:    v,
		publisher:    publisher,
		cfg:          cfg,
		newReference: reference.New,
		today:        validator.Today,
	}
}

// Create admits a booking: input checks first, then under the room's lease an
// authoritative overlap check and the insert. No state is written on failure.
func (s *bookingService) Create(ctx context.Context, in *model.CreateBookingInput) (*model.Booking, error) {
	in = s.sanitize(in)
	if err := s.validator.ValidateCreate(in); err != nil {
		s.cfg.Log.Warn("Booking input rejected", "room_id", in.RoomID, "error", err)
		return nil, toAppError(err)
	}

	dates, err := validator.ValidateDateRange(in.CheckIn, in.CheckOut, s.today())
	if err != nil {
		s.cfg.Log.Warn("Booking dates rejected",
			"room_id", in.RoomID,
			"check_in", in.CheckIn,
			"check_out", in.CheckOut,
			"error", err,
		)
		return nil, toAppError(err)
	}

	room, err := s.activeRoom(ctx, in.RoomID)
	if err != nil {
		return nil, toAppError(err)
	}

	booking, err := s.reserve(ctx, room, in, dates)
	if err != nil {
		s.logCreateFailure(room.ID, dates, err)
		return nil, toAppError(err)
	}

	s.cfg.Log.Info("Booking created successfully",
		"id", booking.ID,
		"reference", booking.Reference,
		"room_id", booking.RoomID,
		"check_in", in.CheckIn,
		"check_out", in.CheckOut,
		"total", booking.Total,
	)
	s.publish(ctx, events.BookingCreated(booking))
	return booking, nil
}

func (s *bookingService) activeRoom(ctx context.Context, roomID string) (*model.Room, error) {
	room, err := s.rooms.GetRoom(ctx, roomID)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrDataStoreUnavailable) {
			s.cfg.Log.Error("Room catalog lookup failed", "room_id", roomID, "error", err)
		}
		return nil, err
	}
	if !room.IsActive {
		return nil, fmt.Errorf("%w: %s is inactive", bookingserrors.ErrRoomNotFound, roomID)
	}
	return room, nil
}

// reserve runs the locked section. The lease is released on every return path
// and the deferred release completes before Create returns.
func (s *bookingService) reserve(ctx context.Context, room *model.Room, in *model.CreateBookingInput, dates validator.DateRange) (*model.Booking, error) {
	lease, err := s.locks.Acquire(ctx, room.ID)
	if err != nil {
		return nil, err
	}
	defer func() {
		if releaseErr := lease.Release(ctx); releaseErr != nil {
			s.cfg.Log.Warn("Failed to release room lock", "room_id", room.ID, "lock_id", lease.Key, "error", releaseErr)
		}
	}()

	held, cancel := lease.Bound(ctx)
	defer cancel()

	conflicts, err := s.detector.CountConflicts(held, room.ID, dates)
	if err != nil {
		return nil, leaseError(ctx, held, lease, err)
	}
	if conflicts > 0 {
		return nil, fmt.Errorf("%w: %d overlapping booking(s)", bookingserrors.ErrRoomUnavailable, conflicts)
	}

	nights := dates.Nights()
	for attempt := 1; attempt <= maxReferenceAttempts; attempt++ {
		if !lease.Held() {
			return nil, leaseExpired(lease)
		}

		booking := &model.Booking{
			ID:               uuid.NewString(),
			Reference:        s.newReference(),
			RoomID:           room.ID,
			RequesterID:      in.RequesterID,
			CheckIn:          dates.CheckIn,
			CheckOut:         dates.CheckOut,
			Guests:           *in.Guests,
			Nights:           nights,
			PricePerNight:    room.PricePerNight,
			Total:            int64(nights) * room.PricePerNight,
			Status:           model.StatusPendingPayment,
			RequesterDetails: in.RequesterDetails,
		}

		err := s.repo.Create(held, booking)
		if err == nil {
			return booking, nil
		}
		if !errors.Is(err, bookingserrors.ErrReferenceCollision) {
			return nil, leaseError(ctx, held, lease, err)
		}
		s.cfg.Log.Warn("Booking reference collision, regenerating",
			"reference", booking.Reference,
			"attempt", attempt,
		)
	}

	return nil, fmt.Errorf("%w: reference collided %d times", bookingserrors.ErrBookingCreationFailed, maxReferenceAttempts)
}

// leaseError reports err as a lock timeout when the lease deadline, not the
// caller, ended the locked work.
func leaseError(ctx, held context.Context, lease *lock.Lease, err error) error {
	if ctx.Err() == nil && held.Err() != nil {
		return leaseExpired(lease)
	}
	return err
}

func leaseExpired(lease *lock.Lease) error {
	return fmt.Errorf("%w: lease on %s expired before commit", bookingserrors.ErrLockTimeout, lease.RoomID)
}

func (s *bookingService) logCreateFailure(roomID string, dates validator.DateRange, err error) {
	attrs := []any{
		"room_id", roomID,
		"check_in", dates.CheckIn.Format(time.DateOnly),
		"check_out", dates.CheckOut.Format(time.DateOnly),
		"error", err,
	}
	switch {
	case errors.Is(err, bookingserrors.ErrRoomUnavailable), errors.Is(err, bookingserrors.ErrLockTimeout):
		s.cfg.Log.Warn("Booking not admitted", attrs...)
	default:
		s.cfg.Log.Error("Failed to create booking", attrs...)
	}
}

func (s *bookingService) GetByID(ctx context.Context, id string) (*model.BookingWithContext, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, toAppError(bookingserrors.ErrBookingNotFound)
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, toAppError(fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id))
	}

	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrDataStoreUnavailable) {
			s.cfg.Log.Error("Failed to retrieve booking", "id", id, "error", err)
		}
		return nil, toAppError(err)
	}

	out := &model.BookingWithContext{Booking: booking}

	room, err := s.rooms.GetRoom(ctx, booking.RoomID)
	switch {
	case err == nil:
		out.Room = room.Snapshot()
	case errors.Is(err, bookingserrors.ErrRoomNotFound):
		s.cfg.Log.Warn("Booking refers to a room missing from the catalog", "id", id, "room_id", booking.RoomID)
	default:
		s.cfg.Log.Error("Failed to load room for booking", "id", id, "room_id", booking.RoomID, "error", err)
		return nil, toAppError(err)
	}

	return out, nil
}

// CheckAvailability is advisory: it takes no lock, so a later Create may still
// be refused.
func (s *bookingService) CheckAvailability(ctx context.Context, roomID, checkIn, checkOut string) (bool, error) {
	roomID = sanitizer.NormalizeID(roomID)
	if roomID == "" || strings.TrimSpace(checkIn) == "" || strings.TrimSpace(checkOut) == "" {
		return false, toAppError(fmt.Errorf("%w: room_id, check_in and check_out are required", bookingserrors.ErrMissingFields))
	}

	dates, err := validator.ValidateDateRange(checkIn, checkOut, s.today())
	if err != nil {
		return false, toAppError(err)
	}

	ok, err := s.detector.IsAvailable(ctx, roomID, dates)
	if err != nil {
		s.cfg.Log.Error("Availability check failed", "room_id", roomID, "error", err)
		return false, toAppError(err)
	}
	return ok, nil
}

func (s *bookingService) CheckAvailabilityBatch(ctx context.Context, roomIDs []string, checkIn, checkOut string) (map[string]bool, error) {
	roomIDs = sanitizer.NormalizeRoomIDs(roomIDs)
	if len(roomIDs) == 0 || strings.TrimSpace(checkIn) == "" || strings.TrimSpace(checkOut) == "" {
		return nil, toAppError(fmt.Errorf("%w: room_ids, check_in and check_out are required", bookingserrors.ErrMissingFields))
	}

	dates, err := validator.ValidateDateRange(checkIn, checkOut, s.today())
	if err != nil {
		return nil, toAppError(err)
	}

	result := s.detector.CheckBatch(ctx, roomIDs, dates)
	s.cfg.Log.Debug("Batch availability checked", "rooms", len(roomIDs))
	return result, nil
}

// UpdateStatus applies one lifecycle step. The write is conditional on the
// status read here, so of two racing transitions only one wins.
func (s *bookingService) UpdateStatus(ctx context.Context, id string, status model.BookingStatus) (*model.Booking, error) {
	id = strings.TrimSpace(id)
	if err := s.validator.ValidateStatusUpdate(&model.BookingStatusUpdate{Status: status}); err != nil {
		return nil, toAppError(err)
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, toAppError(fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id))
	}

	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, toAppError(err)
	}

	if !current.Status.CanTransitionTo(status) {
		s.cfg.Log.Warn("Booking status transition rejected", "id", id, "from", current.Status, "to", status)
		return nil, toAppError(fmt.Errorf("%w: %s to %s", bookingserrors.ErrInvalidStatusTransition, current.Status, status))
	}

	updated, err := s.repo.UpdateStatus(ctx, id, current.Status, status)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrDataStoreUnavailable) {
			s.cfg.Log.Error("Failed to update booking status", "id", id, "error", err)
		} else {
			s.cfg.Log.Warn("Booking status changed concurrently", "id", id, "error", err)
		}
		return nil, toAppError(err)
	}

	s.cfg.Log.Info("Booking status updated",
		"id", id,
		"reference", updated.Reference,
		"from", current.Status,
		"to", updated.Status,
	)
	s.publish(ctx, events.StatusChanged(updated, current.Status))
	return updated, nil
}

// --- Helpers ---

func (s *bookingService) sanitize(in *model.CreateBookingInput) *model.CreateBookingInput {
	if in == nil {
		return &model.CreateBookingInput{}
	}
	out := *in
	out.RoomID = sanitizer.NormalizeID(in.RoomID)
	out.RequesterID = sanitizer.NormalizeID(in.RequesterID)
	out.CheckIn = strings.TrimSpace(in.CheckIn)
	out.CheckOut = strings.TrimSpace(in.CheckOut)
	out.RequesterDetails = sanitizer.NormalizeRequesterDetails(in.RequesterDetails)
	return &out
}

// publish never fails the caller; the outcome is only logged.
func (s *bookingService) publish(ctx context.Context, event events.Event) {
	if requestID := middleware.RequestIDFromContext(ctx); requestID != "" {
		event.CorrelationID = requestID
	}

	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := s.publisher.Publish(pubCtx, event); err != nil {
		s.cfg.Log.Warn("Failed to publish booking event",
			"event_type", event.Type,
			"booking_id", event.BookingID,
			"error", err,
		)
	}
}
