package model

import "time"

// RoomLock is the lease document guarding one room's admission decision.
// ID is derived from the room id; Owner is unique per acquisition so only the
// holder can release it.
type RoomLock struct {
	ID        string    `bson:"_id" json:"id"`
	RoomID    string    `bson:"room_id" json:"room_id"`
	Owner     string    `bson:"owner" json:"owner"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
