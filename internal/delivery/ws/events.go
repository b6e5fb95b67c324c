package ws

import (
	"encoding/json"

	"chatroom/internal/domain"
)

// Inbound event names. The wire format is one JSON envelope per text
// frame; events that expect a reply carry a client-chosen ack id which
// is echoed back on the ack envelope.
const (
	EventUserJoin     = "userJoin"
	EventCreateRoom   = "createRoom"
	EventGetRooms     = "getRooms"
	EventJoinRoom     = "joinRoom"
	EventLeaveRoom    = "leaveRoom"
	EventDeleteRoom   = "deleteRoom"
	EventChatMessage  = "chatMessage"
	EventEmojiMessage = "emojiMessage"
	EventFileMessage  = "fileMessage"
	EventTyping       = "typing"
	EventAway         = "away"
	EventBack         = "back"
)

// Outbound event names.
const (
	EventAck         = "ack"
	EventOnlineUsers = "onlineUsers"
	EventRoomList    = "roomList"
	EventNewRoom     = "newRoom"
	EventRoomDeleted = "roomDeleted"
	EventRoomUsers   = "roomUsers"
	EventMessage     = "message"
	EventUserStatus  = "userStatus"
	EventUserTyping  = "userTyping"
)

// Envelope is an inbound frame as read off the socket.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
	Ack   int64           `json:"ack,omitempty"`
}

// outEnvelope is an outbound frame. Data is marshaled in place.
type outEnvelope struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
	Ack   int64  `json:"ack,omitempty"`
}

// Ack is the reply payload for events invoked with an ack id.
type Ack struct {
	Success bool               `json:"success"`
	Message string             `json:"message,omitempty"`
	Room    *domain.RoomInfo   `json:"room,omitempty"`
	Rooms   []domain.RoomInfo  `json:"rooms,omitempty"`
	Users   []domain.PublicUser `json:"users,omitempty"`
}

// UserJoinPayload announces the authenticated identity of a connection.
type UserJoinPayload struct {
	ID       string `json:"id"`
	Nickname string `json:"nickname"`
}

// CreateRoomPayload carries a room creation request.
type CreateRoomPayload struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// RoomDeletedPayload is broadcast globally when a room is removed.
type RoomDeletedPayload struct {
	RoomID   string `json:"roomId"`
	RoomName string `json:"roomName"`
}

// UserStatusPayload signals a user coming online or going offline.
type UserStatusPayload struct {
	UserID string `json:"userId"`
	Status string `json:"status"`
}

// UserTypingPayload relays a typing indicator to the sender's room.
type UserTypingPayload struct {
	Username string `json:"username"`
	IsTyping bool   `json:"isTyping"`
	RoomID   string `json:"roomId"`
}
