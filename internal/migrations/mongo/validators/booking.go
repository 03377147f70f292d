package validators

import "go.mongodb.org/mongo-driver/bson"

var integer = []string{"int", "long"}

var BookingValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"reference",
			"room_id",
			"requester_id",
			"check_in",
			"check_out",
			"guests",
			"nights",
			"price_per_night",
			"total",
			"status",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType":  "string",
				"minLength": 36,
				"maxLength": 36,
			},

			"reference": bson.M{
				"bsonType": "string",
				"pattern":  "^BK-[0-9A-Z]{8}-[0-9A-Z]{6}$",
			},

			"room_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
			},

			"requester_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
			},

			"check_in": bson.M{
				"bsonType": "date",
			},

			"check_out": bson.M{
				"bsonType": "date",
			},

			"guests": bson.M{
				"bsonType": integer,
				"minimum":  1,
				"maximum":  20,
			},

			"nights": bson.M{
				"bsonType": integer,
				"minimum":  1,
			},

			"price_per_night": bson.M{
				"bsonType": integer,
				"minimum":  0,
			},

			"total": bson.M{
				"bsonType": integer,
				"minimum":  0,
			},

			"status": bson.M{
				"bsonType": "string",
				"enum": []string{
					"pending_payment",
					"confirmed",
					"cancelled",
				},
			},

			"requester_details": bson.M{
				"bsonType": "object",
				"properties": bson.M{
					"name":  bson.M{"bsonType": "string", "maxLength": 100},
					"email": bson.M{"bsonType": "string"},
					"phone": bson.M{"bsonType": "string"},
				},
			},

			"created_at": bson.M{
				"bsonType": "date",
			},

			"updated_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
