package ws

import (
	"crypto/rand"
	"math/big"
	"sort"
	"strconv"
	"strings"
	"time"

	"chatroom/internal/domain"
)

// RoomDirectory owns the catalog of chat rooms. Like the registry it is
// guarded by the hub's mutex rather than a lock of its own, so room
// deletion stays atomic with respect to concurrent joins.
type RoomDirectory struct {
	rooms map[string]*domain.Room
}

// NewRoomDirectory creates an empty directory.
func NewRoomDirectory() *RoomDirectory {
	return &RoomDirectory{rooms: make(map[string]*domain.Room)}
}

// generateRoomID draws a 9-digit numeric id, retrying on collision.
// The retry budget guarantees termination even on a saturated id space.
func (d *RoomDirectory) generateRoomID() (string, error) {
	span := big.NewInt(domain.RoomIDMax - domain.RoomIDMin + 1)
	for i := 0; i < domain.RoomIDMaxAttempts; i++ {
		n, err := rand.Int(rand.Reader, span)
		if err != nil {
			return "", err
		}
		id := strconv.FormatInt(n.Int64()+domain.RoomIDMin, 10)
		if _, exists := d.rooms[id]; !exists {
			return id, nil
		}
	}
	return "", domain.ErrRoomIDSpace
}

// Create validates the name, allocates a unique id and adds the room.
// It does not join the owner; joining is a separate explicit step.
func (d *RoomDirectory) Create(name, description, owner string) (*domain.Room, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.ErrRoomNameEmpty
	}
	if runes := []rune(name); len(runes) > domain.RoomNameMaxLen {
		name = string(runes[:domain.RoomNameMaxLen])
	}

	id, err := d.generateRoomID()
	if err != nil {
		return nil, err
	}

	room := &domain.Room{
		ID:          id,
		Name:        name,
		Description: description,
		CreatedBy:   owner,
		CreatedAt:   time.Now(),
	}
	d.rooms[id] = room
	return room, nil
}

// Get returns a room by id.
func (d *RoomDirectory) Get(id string) (*domain.Room, bool) {
	room, ok := d.rooms[id]
	return room, ok
}

// List returns all rooms, newest first.
func (d *RoomDirectory) List() []*domain.Room {
	rooms := make([]*domain.Room, 0, len(d.rooms))
	for _, room := range d.rooms {
		rooms = append(rooms, room)
	}
	sort.Slice(rooms, func(i, j int) bool {
		return rooms[i].CreatedAt.After(rooms[j].CreatedAt)
	})
	return rooms
}

// Delete removes a room after checking the requester owns it. The
// removed descriptor is returned for notification purposes. Once this
// returns, a join arriving later observes the room as gone.
func (d *RoomDirectory) Delete(id, requester string) (*domain.Room, error) {
	room, ok := d.rooms[id]
	if !ok {
		return nil, domain.ErrRoomNotFound
	}
	if room.CreatedBy != requester {
		return nil, domain.ErrNotRoomOwner
	}
	delete(d.rooms, id)
	return room, nil
}

// Count returns the number of rooms.
func (d *RoomDirectory) Count() int {
	return len(d.rooms)
}
