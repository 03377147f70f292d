package validators

import "go.mongodb.org/mongo-driver/bson"

var RoomLockValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{"_id", "room_id", "owner", "expires_at"},
		"properties": bson.M{
			"_id":        bson.M{"bsonType": "string", "pattern": "^room:[0-9a-f]{16}$"},
			"room_id":    bson.M{"bsonType": "string", "minLength": 1},
			"owner":      bson.M{"bsonType": "string", "minLength": 1},
			"expires_at": bson.M{"bsonType": "date"},
			"created_at": bson.M{"bsonType": "date"},
		},
	},
}
