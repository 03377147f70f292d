package repository

import (
	"context"
	"staybook/internal/bookings/lock"
	"staybook/pkg/config"
	"staybook/pkg/model"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	LockCollectionName = "Room_locks"
)

// mongoRoomLockRepository holds room leases as documents keyed by lock id.
// The unique _id makes insert the acquisition; the TTL index on expires_at
// clears leases of crashed holders.
type mongoRoomLockRepository struct {
	collection *mongo.Collection
}

var _ lock.Store = (*mongoRoomLockRepository)(nil)

func NewRoomLockRepository(cfg *config.Config) lock.Store {
	return newRoomLockRepository(cfg.Client.Mongo.Database(cfg.MongoDatabaseName).Collection(LockCollectionName))
}

func newRoomLockRepository(collection *mongo.Collection) *mongoRoomLockRepository {
	return &mongoRoomLockRepository{collection: collection}
}

func (r *mongoRoomLockRepository) TryAcquire(ctx context.Context, key, roomID, token string, ttl time.Duration) (bool, error) {
	now := time.Now().UTC()
	lease := &model.RoomLock{
		ID:        key,
		RoomID:    roomID,
		Owner:     token,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}

	_, err := r.collection.InsertOne(ctx, lease)
	if err == nil {
		return true, nil
	}
	if !mongo.IsDuplicateKeyError(err) {
		return false, err
	}

	// The TTL monitor runs about once a minute, so take over expired leases directly.
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": key, "expires_at": bson.M{"$lte": now}},
		bson.M{"$set": bson.M{
			"room_id":    roomID,
			"owner":      token,
			"expires_at": lease.ExpiresAt,
			"created_at": now,
		}},
	)
	if err != nil {
		return false, err
	}
	return result.MatchedCount == 1, nil
}

func (r *mongoRoomLockRepository) Release(ctx context.Context, key, token string) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": key, "owner": token})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return lock.ErrNotOwner
	}
	return nil
}
