package model

// Room is owned by the catalog. In this system a room and a hotel listing are
// the same entity, so the hotel fields live on the room document.
type Room struct {
	ID            string `json:"id" bson:"_id"`
	Name          string `json:"name" bson:"name"`
	HotelName     string `json:"hotel_name" bson:"hotel_name"`
	City          string `json:"city" bson:"city"`
	Address       string `json:"address" bson:"address"`
	PricePerNight int64  `json:"price_per_night" bson:"price_per_night"`
	IsActive      bool   `json:"is_active" bson:"is_active"`
}

type RoomSnapshot struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	HotelName string `json:"hotel_name"`
	City      string `json:"city"`
	Address   string `json:"address"`
	IsActive  bool   `json:"is_active"`
}

func (r *Room) Snapshot() *RoomSnapshot {
	if r == nil {
		return nil
	}
	return &RoomSnapshot{
		ID:        r.ID,
		Name:      r.Name,
		HotelName: r.HotelName,
		City:      r.City,
		Address:   r.Address,
		IsActive:  r.IsActive,
	}
}
