package repository

import (
	"context"
	"errors"
	"fmt"
	bookingserrors "staybook/internal/bookings/errors"
	"staybook/pkg/config"
	"staybook/pkg/model"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Bookings"
)

type mongoBookingRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

type BookingRepository interface {
	Create(ctx context.Context, booking *model.Booking) error
	FindByID(ctx context.Context, id string) (*model.Booking, error)
	CountOverlapping(ctx context.Context, roomID string, checkIn, checkOut time.Time) (int64, error)
	UpdateStatus(ctx context.Context, id string, from, to model.BookingStatus) (*model.Booking, error)
}

func NewMongoBookingRepository(cfg *config.Config) BookingRepository {
	return newMongoBookingRepository(cfg, cfg.Client.Mongo.Database(cfg.MongoDatabaseName).Collection(CollectionName))
}

func newMongoBookingRepository(cfg *config.Config, collection *mongo.Collection) *mongoBookingRepository {
	return &mongoBookingRepository{
		cfg:        cfg,
		collection: collection,
	}
}

// withTimeout bounds a store call by timeout, or by the caller's deadline when
// that is sooner.
func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	deadline, hasDeadline := ctx.Deadline()
	if !hasDeadline {
		return context.WithTimeout(ctx, timeout)
	}

	remaining := time.Until(deadline)
	if remaining < timeout {
		return context.WithTimeout(ctx, remaining)
	}

	return context.WithTimeout(ctx, timeout)
}

// Create inserts a new booking. A duplicate key can only come from the unique
// reference index and is reported as ErrReferenceCollision.
func (r *mongoBookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	if booking.CreatedAt.IsZero() {
		booking.CreatedAt = now
	}
	booking.UpdatedAt = booking.CreatedAt

	if _, err := r.collection.InsertOne(ctx, booking); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: %s", bookingserrors.ErrReferenceCollision, booking.Reference)
		}
		return storeError("insert booking", err)
	}
	return nil
}

func (r *mongoBookingRepository) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var booking model.Booking
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&booking)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, bookingserrors.ErrBookingNotFound
		}
		return nil, storeError("find booking", err)
	}

	return &booking, nil
}

// CountOverlapping counts blocking bookings of roomID whose stay intersects
// [checkIn, checkOut). If the count command itself is rejected the blocking
// bookings of the room are scanned and filtered with model.Overlaps instead.
func (r *mongoBookingRepository) CountOverlapping(ctx context.Context, roomID string, checkIn, checkOut time.Time) (int64, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, buildOverlapFilter(roomID, checkIn, checkOut))
	if err == nil {
		return count, nil
	}
	if isConnectivityError(err) {
		return 0, storeError("count overlapping bookings", err)
	}

	r.cfg.Log.Warn("Overlap count rejected, scanning room bookings",
		"room_id", roomID,
		"error", err,
	)
	return r.scanOverlapping(ctx, roomID, checkIn, checkOut)
}

func (r *mongoBookingRepository) scanOverlapping(ctx context.Context, roomID string, checkIn, checkOut time.Time) (int64, error) {
	opts := options.Find().SetProjection(bson.M{"status": 1, "check_in": 1, "check_out": 1})

	cursor, err := r.collection.Find(ctx, buildRoomBlockingFilter(roomID), opts)
	if err != nil {
		return 0, storeError("scan room bookings", err)
	}
	defer cursor.Close(ctx)

	var count int64
	for cursor.Next(ctx) {
		var b model.Booking
		if err := cursor.Decode(&b); err != nil {
			return 0, storeError("decode booking", err)
		}
		if b.Status.IsBlocking() && model.Overlaps(b.CheckIn, b.CheckOut, checkIn, checkOut) {
			count++
		}
	}
	if err := cursor.Err(); err != nil {
		return 0, storeError("scan room bookings", err)
	}
	return count, nil
}

// UpdateStatus moves a booking from one status to another in a single
// conditional write. If the booking is no longer in from, nothing changes and
// ErrInvalidStatusTransition is returned.
func (r *mongoBookingRepository) UpdateStatus(ctx context.Context, id string, from, to model.BookingStatus) (*model.Booking, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	filter := bson.M{"_id": id, "status": from}
	update := bson.M{
		"$set": bson.M{
			"status":     to,
			"updated_at": time.Now().UTC().Truncate(time.Millisecond),
		},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var booking model.Booking
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&booking)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: booking %s is no longer %s", bookingserrors.ErrInvalidStatusTransition, id, from)
		}
		return nil, storeError("update booking status", err)
	}
	return &booking, nil
}

func buildRoomBlockingFilter(roomID string) bson.M {
	return bson.M{
		"room_id": roomID,
		"status":  bson.M{"$in": model.BlockingStatuses},
	}
}

// buildOverlapFilter matches existing.check_in < checkOut AND
// existing.check_out > checkIn, so stays that only touch do not conflict.
func buildOverlapFilter(roomID string, checkIn, checkOut time.Time) bson.M {
	filter := buildRoomBlockingFilter(roomID)
	filter["check_in"] = bson.M{"$lt": checkOut}
	filter["check_out"] = bson.M{"$gt": checkIn}
	return filter
}

func isConnectivityError(err error) bool {
	return mongo.IsNetworkError(err) ||
		mongo.IsTimeout(err) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, mongo.ErrClientDisconnected)
}

func storeError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", bookingserrors.ErrDataStoreUnavailable, op, err)
}
