package domain

import "time"

// Room is a named, owned channel that scopes broadcast and membership.
// Membership itself is not stored here: the hub derives it from the
// current connections, so the descriptor stays consistent by
// construction.
type Room struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedBy   string    `json:"createdBy"`
	CreatedAt   time.Time `json:"createdAt"`
}

// RoomInfo is a room descriptor enriched with the derived member count,
// as sent in roomList/newRoom payloads.
type RoomInfo struct {
	Room
	UserCount int `json:"userCount"`
}
