package repository

import (
	"context"
	"errors"
	bookingserrors "staybook/internal/bookings/errors"
	"staybook/internal/bookings/lock"
	"staybook/pkg/config"
	"staybook/pkg/logger"
	"staybook/pkg/model"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

// These tests run the repositories against mtest's mock deployment: each
// mocked reply answers the next command the driver sends.

func testConfig() *config.Config {
	return &config.Config{
		Log:          logger.Discard(),
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	}
}

func namespace(mt *mtest.T) string {
	return mt.Coll.Database().Name() + "." + mt.Coll.Name()
}

var duplicateKey = mtest.WriteError{Index: 0, Code: 11000, Message: "E11000 duplicate key error"}

func TestRoomLockRepository_TryAcquire(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	tests := []struct {
		name      string
		responses []bson.D
		want      bool
		wantErr   bool
	}{
		{
			name:      "free room is acquired by insert",
			responses: []bson.D{mtest.CreateSuccessResponse()},
			want:      true,
		},
		{
			name: "live lease keeps the room busy",
			responses: []bson.D{
				mtest.CreateWriteErrorsResponse(duplicateKey),
				mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}),
			},
			want: false,
		},
		{
			name: "expired lease is taken over",
			responses: []bson.D{
				mtest.CreateWriteErrorsResponse(duplicateKey),
				mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}),
			},
			want: true,
		},
		{
			name: "other insert failures are returned",
			responses: []bson.D{
				mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 13, Name: "Unauthorized", Message: "not authorized"}),
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		mt.Run(tt.name, func(mt *mtest.T) {
			mt.AddMockResponses(tt.responses...)
			repo := newRoomLockRepository(mt.Coll)

			got, err := repo.TryAcquire(context.Background(), lock.LockID("R1"), "R1", "token-a", time.Minute)
			if tt.wantErr {
				if err == nil {
					mt.Fatal("expected an error")
				}
				return
			}
			if err != nil {
				mt.Fatalf("TryAcquire failed: %v", err)
			}
			if got != tt.want {
				mt.Errorf("TryAcquire = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRoomLockRepository_Release(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("owner deletes its lease", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))
		repo := newRoomLockRepository(mt.Coll)

		if err := repo.Release(context.Background(), lock.LockID("R1"), "token-a"); err != nil {
			mt.Fatalf("Release failed: %v", err)
		}
	})

	mt.Run("other token is not the owner", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}))
		repo := newRoomLockRepository(mt.Coll)

		err := repo.Release(context.Background(), lock.LockID("R1"), "token-b")
		if !errors.Is(err, lock.ErrNotOwner) {
			mt.Fatalf("expected ErrNotOwner, got %v", err)
		}
	})
}

func TestBookingRepository_CreateDuplicateReference(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("duplicate reference", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(duplicateKey))
		repo := newMongoBookingRepository(testConfig(), mt.Coll)

		err := repo.Create(context.Background(), &model.Booking{ID: "b1", Reference: "BK-00000000-000000"})
		if !errors.Is(err, bookingserrors.ErrReferenceCollision) {
			mt.Fatalf("expected ErrReferenceCollision, got %v", err)
		}
	})

	mt.Run("insert stamps timestamps", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		repo := newMongoBookingRepository(testConfig(), mt.Coll)

		b := &model.Booking{ID: "b1", Reference: "BK-00000000-000001"}
		if err := repo.Create(context.Background(), b); err != nil {
			mt.Fatal(err)
		}
		if b.CreatedAt.IsZero() || !b.UpdatedAt.Equal(b.CreatedAt) {
			mt.Errorf("unexpected timestamps %v / %v", b.CreatedAt, b.UpdatedAt)
		}
	})
}

func TestBookingRepository_CountOverlapping(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	in := time.Date(2030, 6, 10, 0, 0, 0, 0, time.UTC)
	out := time.Date(2030, 6, 13, 0, 0, 0, 0, time.UTC)
	day := 24 * time.Hour

	mt.Run("count", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch, bson.D{{Key: "n", Value: 2}}))
		repo := newMongoBookingRepository(testConfig(), mt.Coll)

		n, err := repo.CountOverlapping(context.Background(), "R1", in, out)
		if err != nil {
			mt.Fatal(err)
		}
		if n != 2 {
			mt.Errorf("expected 2 conflicts, got %d", n)
		}
	})

	mt.Run("rejected count falls back to a scan", func(mt *mtest.T) {
		stay := func(id string, status model.BookingStatus, from, to time.Time) bson.D {
			return bson.D{
				{Key: "_id", Value: id},
				{Key: "status", Value: status},
				{Key: "check_in", Value: from},
				{Key: "check_out", Value: to},
			}
		}
		mt.AddMockResponses(
			mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 2, Name: "BadValue", Message: "unknown operator"}),
			mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch,
				stay("overlap", model.StatusConfirmed, in.Add(day), out.Add(day)),
				stay("ends-at-check-in", model.StatusPendingPayment, in.Add(-2*day), in),
				stay("starts-at-check-out", model.StatusConfirmed, out, out.Add(2*day)),
				stay("cancelled", model.StatusCancelled, in, out),
				stay("contains", model.StatusPendingPayment, in.Add(-day), out.Add(day)),
			),
		)
		repo := newMongoBookingRepository(testConfig(), mt.Coll)

		n, err := repo.CountOverlapping(context.Background(), "R1", in, out)
		if err != nil {
			mt.Fatal(err)
		}
		if n != 2 {
			mt.Errorf("scan should count only the overlapping blocking stays, got %d", n)
		}
	})

	mt.Run("connectivity failure is never a scan", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    6,
			Name:    "HostUnreachable",
			Message: "connection reset",
			Labels:  []string{"NetworkError"},
		}))
		repo := newMongoBookingRepository(testConfig(), mt.Coll)

		_, err := repo.CountOverlapping(context.Background(), "R1", in, out)
		if !errors.Is(err, bookingserrors.ErrDataStoreUnavailable) {
			mt.Fatalf("expected ErrDataStoreUnavailable, got %v", err)
		}
	})
}

func TestBookingRepository_UpdateStatus(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("applies the transition", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: bson.D{
			{Key: "_id", Value: "b1"},
			{Key: "status", Value: model.StatusConfirmed},
		}}))
		repo := newMongoBookingRepository(testConfig(), mt.Coll)

		b, err := repo.UpdateStatus(context.Background(), "b1", model.StatusPendingPayment, model.StatusConfirmed)
		if err != nil {
			mt.Fatal(err)
		}
		if b.Status != model.StatusConfirmed {
			mt.Errorf("expected confirmed, got %s", b.Status)
		}
	})

	mt.Run("status moved on", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		repo := newMongoBookingRepository(testConfig(), mt.Coll)

		_, err := repo.UpdateStatus(context.Background(), "b1", model.StatusPendingPayment, model.StatusConfirmed)
		if !errors.Is(err, bookingserrors.ErrInvalidStatusTransition) {
			mt.Fatalf("expected ErrInvalidStatusTransition, got %v", err)
		}
	})
}

func TestBookingRepository_FindByIDNotFound(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("missing", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch))
		repo := newMongoBookingRepository(testConfig(), mt.Coll)

		_, err := repo.FindByID(context.Background(), "nope")
		if !errors.Is(err, bookingserrors.ErrBookingNotFound) {
			mt.Fatalf("expected ErrBookingNotFound, got %v", err)
		}
	})
}

func TestRoomCatalog_GetRoom(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("found", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch, bson.D{
			{Key: "_id", Value: "R1"},
			{Key: "price_per_night", Value: int64(2500)},
			{Key: "is_active", Value: true},
		}))
		catalog := &mongoRoomCatalog{cfg: testConfig(), collection: mt.Coll}

		room, err := catalog.GetRoom(context.Background(), "R1")
		if err != nil {
			mt.Fatal(err)
		}
		if room.PricePerNight != 2500 || !room.IsActive {
			mt.Errorf("unexpected room %+v", room)
		}
	})

	mt.Run("missing", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch))
		catalog := &mongoRoomCatalog{cfg: testConfig(), collection: mt.Coll}

		_, err := catalog.GetRoom(context.Background(), "R404")
		if !errors.Is(err, bookingserrors.ErrRoomNotFound) {
			mt.Fatalf("expected ErrRoomNotFound, got %v", err)
		}
	})
}
