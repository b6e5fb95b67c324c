package ws

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"chatroom/internal/domain"
)

// MessageArchiver receives a copy of every delivered message. Archiving
// is fire-and-forget: the hub never waits on it.
type MessageArchiver interface {
	Archive(msg domain.Message)
}

// Hub owns the three coordination tables: the connection registry, the
// room directory and the connection→room index. One mutex guards all of
// them, so every event handler mutates state and enqueues the
// notifications describing it as a single step. Delivery itself is
// best-effort through per-client buffered channels.
type Hub struct {
	mu        sync.Mutex
	clients   map[string]*Client // connID -> client, includes unidentified connections
	registry  *ConnectionRegistry
	directory *RoomDirectory
	roomOf    map[string]string // connID -> roomID
	archiver  MessageArchiver
}

// NewHub creates a hub. archiver may be nil for pure in-memory mode.
func NewHub(archiver MessageArchiver) *Hub {
	return &Hub{
		clients:   make(map[string]*Client),
		registry:  NewConnectionRegistry(),
		directory: NewRoomDirectory(),
		roomOf:    make(map[string]string),
		archiver:  archiver,
	}
}

// Register adds a freshly upgraded connection. No identity is attached
// yet; the connection only becomes visible in presence after userJoin.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c.ID] = c
}

// AttachIdentity binds an authenticated user to a connection. A second
// announcement on the same connection is a no-op. If the user already
// has another active connection it is force-disconnected: it receives a
// system notice and its socket closes, so its own disconnect path
// unwinds whatever room it was in.
func (h *Hub) AttachIdentity(c *Client, id Identity) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.liveLocked(c) {
		return
	}

	evicted, attached := h.registry.Attach(c.ID, id)
	if !attached {
		return
	}

	if evicted != "" {
		h.evictLocked(evicted)
	}

	log.Printf("user %s joined on connection %s", id.Nickname, c.ID)

	h.sendLocked(c, EventMessage, systemMessage(fmt.Sprintf("Welcome, %s", id.Nickname), ""))
	h.broadcastLocked(EventUserStatus, UserStatusPayload{UserID: id.UserID, Status: "online"}, c.ID)
	h.broadcastPresenceLocked()
	h.sendLocked(c, EventRoomList, h.roomListLocked())
}

// evictLocked disposes of a superseded connection: full room/presence
// unwind, then the socket is closed so its pumps terminate. The later
// transport-level disconnect finds the client already gone and no-ops.
func (h *Hub) evictLocked(connID string) {
	c, ok := h.clients[connID]
	if !ok {
		return
	}

	h.sendLocked(c, EventMessage, systemMessage("You signed in from another connection", ""))
	h.leaveLocked(c)
	delete(h.clients, connID)
	close(c.send)
	if c.conn != nil {
		c.conn.Close()
	}
}

// Disconnect unwinds a closed connection: leave the current room, then
// detach the identity, in one atomic step so presence and room member
// lists never disagree. Safe to call more than once.
func (h *Hub) Disconnect(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[c.ID]; !ok {
		return // already evicted or unwound
	}

	h.leaveLocked(c)
	delete(h.clients, c.ID)
	close(c.send)

	if id, had := h.registry.Detach(c.ID); had {
		log.Printf("user %s disconnected", id.Nickname)
		h.broadcastPresenceLocked()
		h.broadcastLocked(EventUserStatus, UserStatusPayload{UserID: id.UserID, Status: "offline"}, "")
	}
}

// CreateRoom adds a room owned by the connection's user. The owner is
// not auto-joined. Everyone is told about the new room.
func (h *Hub) CreateRoom(c *Client, name, description string) (*domain.Room, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.liveLocked(c) {
		return nil, domain.ErrNotLoggedIn
	}

	id, ok := h.registry.Identity(c.ID)
	if !ok {
		return nil, domain.ErrNotLoggedIn
	}

	return h.createRoomLocked(name, description, id.Nickname)
}

// CreateRoomFor is the REST-facing variant of CreateRoom: the owner is
// already authenticated by the HTTP layer.
func (h *Hub) CreateRoomFor(owner, name, description string) (*domain.Room, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.createRoomLocked(name, description, owner)
}

func (h *Hub) createRoomLocked(name, description, owner string) (*domain.Room, error) {
	room, err := h.directory.Create(name, description, owner)
	if err != nil {
		return nil, err
	}

	h.broadcastLocked(EventNewRoom, domain.RoomInfo{Room: *room}, "")
	return room, nil
}

// RoomDetail returns one room's descriptor plus its derived member
// list.
func (h *Hub) RoomDetail(roomID string) (*domain.RoomInfo, []domain.PublicUser, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	room, ok := h.directory.Get(roomID)
	if !ok {
		return nil, nil, domain.ErrRoomNotFound
	}
	info := domain.RoomInfo{Room: *room, UserCount: h.memberCountLocked(roomID)}
	return &info, h.roomUserListLocked(roomID), nil
}

// Rooms returns the directory with derived member counts, newest first.
func (h *Hub) Rooms() []domain.RoomInfo {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.roomListLocked()
}

// JoinRoom moves the connection into a room, implicitly leaving any
// previous one first. A connection is never in two rooms at once.
func (h *Hub) JoinRoom(c *Client, roomID string) (*domain.RoomInfo, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.liveLocked(c) {
		return nil, domain.ErrNotLoggedIn
	}

	id, ok := h.registry.Identity(c.ID)
	if !ok {
		return nil, domain.ErrNotLoggedIn
	}

	room, ok := h.directory.Get(roomID)
	if !ok {
		return nil, domain.ErrRoomNotFound
	}

	h.leaveLocked(c)
	h.roomOf[c.ID] = roomID

	h.sendLocked(c, EventMessage, systemMessage(fmt.Sprintf("Welcome to room %s", room.Name), roomID))
	h.broadcastRoomLocked(roomID, EventMessage, systemMessage(fmt.Sprintf("%s joined the room", id.Nickname), roomID), c.ID)
	h.broadcastRoomUsersLocked(roomID)

	info := domain.RoomInfo{Room: *room, UserCount: h.memberCountLocked(roomID)}
	return &info, nil
}

// LeaveRoom detaches the connection from its current room. Leaving
// while not in a room is a no-op, not an error.
func (h *Hub) LeaveRoom(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(c)
}

// leaveLocked clears the room assignment and tells the remaining
// members, if the connection was in a room at all.
func (h *Hub) leaveLocked(c *Client) {
	roomID, ok := h.roomOf[c.ID]
	if !ok {
		return
	}
	delete(h.roomOf, c.ID)

	if id, ok := h.registry.Identity(c.ID); ok {
		h.broadcastRoomLocked(roomID, EventMessage, systemMessage(fmt.Sprintf("%s left the room", id.Nickname), roomID), "")
	}
	h.broadcastRoomUsersLocked(roomID)
}

// DeleteRoom removes a room on behalf of its owner. Members are told
// first through the room channel, then every member's assignment is
// cleared, then the removal is announced globally so evicted members
// still hear it. Atomic with respect to concurrent joins.
func (h *Hub) DeleteRoom(c *Client, roomID string) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.liveLocked(c) {
		return "", domain.ErrNotLoggedIn
	}

	id, ok := h.registry.Identity(c.ID)
	if !ok {
		return "", domain.ErrNotLoggedIn
	}

	room, err := h.directory.Delete(roomID, id.Nickname)
	if err != nil {
		return "", err
	}

	h.broadcastRoomLocked(roomID, EventMessage, systemMessage(fmt.Sprintf("Room %s was deleted by its owner", room.Name), roomID), "")

	for connID, rid := range h.roomOf {
		if rid == roomID {
			delete(h.roomOf, connID)
		}
	}

	h.broadcastLocked(EventRoomDeleted, RoomDeletedPayload{RoomID: roomID, RoomName: room.Name}, "")
	log.Printf("room %s (%s) deleted by %s", room.Name, roomID, id.Nickname)
	return room.Name, nil
}

// Away flips an identified connection's presence status between away
// and online without touching its registration or room membership. The
// sender already knows its own state, so only the others are told.
func (h *Hub) Away(c *Client, away bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.liveLocked(c) {
		return
	}
	id, ok := h.registry.Identity(c.ID)
	if !ok {
		return
	}

	status := "online"
	if away {
		status = "away"
	}
	h.broadcastLocked(EventUserStatus, UserStatusPayload{UserID: id.UserID, Status: status}, c.ID)
}

// SendAck delivers an ack reply. It takes the hub lock so the send
// cannot race an eviction closing the channel: a dead connection's ack
// is dropped instead of panicking the process.
func (h *Hub) SendAck(c *Client, ackID int64, ack Ack) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.liveLocked(c) {
		return
	}

	payload, err := json.Marshal(outEnvelope{Event: EventAck, Ack: ackID, Data: ack})
	if err != nil {
		return
	}
	select {
	case c.send <- payload:
	default:
	}
}

// ClientCount returns the number of live connections.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// RoomCount returns the number of rooms in the directory.
func (h *Hub) RoomCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.directory.Count()
}

// ==== locked helpers ====

// liveLocked reports whether the connection is still registered. A
// connection that was evicted or unwound has a closed send channel and
// must not be written to.
func (h *Hub) liveLocked(c *Client) bool {
	_, ok := h.clients[c.ID]
	return ok
}

func (h *Hub) roomListLocked() []domain.RoomInfo {
	rooms := h.directory.List()
	infos := make([]domain.RoomInfo, 0, len(rooms))
	for _, room := range rooms {
		infos = append(infos, domain.RoomInfo{Room: *room, UserCount: h.memberCountLocked(room.ID)})
	}
	return infos
}

// roomUserListLocked recomputes a room's member list from the live
// connection state. The list is always exactly the identified
// connections whose current room is roomID.
func (h *Hub) roomUserListLocked(roomID string) []domain.PublicUser {
	users := make([]domain.PublicUser, 0)
	for _, online := range h.registry.Snapshot() {
		if h.roomOf[online.ConnID] == roomID {
			users = append(users, domain.PublicUser{ID: online.ID, Nickname: online.Nickname})
		}
	}
	return users
}

func (h *Hub) memberCountLocked(roomID string) int {
	count := 0
	for _, rid := range h.roomOf {
		if rid == roomID {
			count++
		}
	}
	return count
}

// sendLocked enqueues one event for one client. A full buffer drops the
// frame rather than blocking the hub; a dead peer is reaped by the
// write pump's ping deadline soon after.
func (h *Hub) sendLocked(c *Client, event string, data any) {
	payload, err := json.Marshal(outEnvelope{Event: event, Data: data})
	if err != nil {
		return
	}
	select {
	case c.send <- payload:
	default:
	}
}

// broadcastLocked sends an event to every connection except the one
// named (empty string means everyone).
func (h *Hub) broadcastLocked(event string, data any, exceptConnID string) {
	for connID, c := range h.clients {
		if connID == exceptConnID {
			continue
		}
		h.sendLocked(c, event, data)
	}
}

// broadcastRoomLocked sends an event to the current members of a room.
func (h *Hub) broadcastRoomLocked(roomID, event string, data any, exceptConnID string) {
	for connID, rid := range h.roomOf {
		if rid != roomID || connID == exceptConnID {
			continue
		}
		if c, ok := h.clients[connID]; ok {
			h.sendLocked(c, event, data)
		}
	}
}

func (h *Hub) broadcastRoomUsersLocked(roomID string) {
	h.broadcastRoomLocked(roomID, EventRoomUsers, h.roomUserListLocked(roomID), "")
}

// broadcastPresenceLocked pushes the full presence snapshot to every
// connection, identified or not.
func (h *Hub) broadcastPresenceLocked() {
	h.broadcastLocked(EventOnlineUsers, h.registry.Snapshot(), "")
}
