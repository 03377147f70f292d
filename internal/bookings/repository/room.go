package repository

import (
	"context"
	"errors"
	"fmt"
	bookingserrors "staybook/internal/bookings/errors"
	"staybook/pkg/config"
	"staybook/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	RoomCollectionName = "Rooms"
)

// RoomCatalog is the read side of the hotel catalog. The catalog service owns
// the Rooms collection; bookings only read it.
type RoomCatalog interface {
	GetRoom(ctx context.Context, id string) (*model.Room, error)
}

type mongoRoomCatalog struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoRoomCatalog(cfg *config.Config) RoomCatalog {
	return &mongoRoomCatalog{
		cfg:        cfg,
		collection: cfg.Client.Mongo.Database(cfg.MongoDatabaseName).Collection(RoomCollectionName),
	}
}

func (c *mongoRoomCatalog) GetRoom(ctx context.Context, id string) (*model.Room, error) {
	ctx, cancel := withTimeout(ctx, c.cfg.ReadTimeout)
	defer cancel()

	var room model.Room
	err := c.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&room)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", bookingserrors.ErrRoomNotFound, id)
		}
		return nil, storeError("find room", err)
	}
	return &room, nil
}
