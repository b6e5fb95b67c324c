package ws

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"chatroom/internal/domain"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10
)

// Client represents a single websocket connection. Its identity lives
// in the hub's registry, not here; the client only carries the opaque
// connection id the transport assigned.
type Client struct {
	ID   string
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// NewClient creates a client for an upgraded connection.
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		ID:   uuid.New().String(),
		hub:  hub,
		conn: conn,
		send: make(chan []byte, 256),
	}
}

// ReadPump pumps events from the websocket connection into the hub.
// When it returns, the connection is unwound exactly once.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Disconnect(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(domain.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			break
		}

		var env Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			continue
		}

		c.handleEvent(env)
	}
}

// handleEvent dispatches one inbound envelope. Handlers run to
// completion before the next frame is read, so events from a single
// connection are processed in arrival order.
func (c *Client) handleEvent(env Envelope) {
	switch env.Event {
	case EventUserJoin:
		var payload UserJoinPayload
		if err := json.Unmarshal(env.Data, &payload); err != nil || payload.ID == "" {
			return
		}
		c.hub.AttachIdentity(c, Identity{UserID: payload.ID, Nickname: payload.Nickname})

	case EventCreateRoom:
		var payload CreateRoomPayload
		if err := json.Unmarshal(env.Data, &payload); err != nil {
			c.sendAck(env.Ack, Ack{Success: false, Message: "invalid request"})
			return
		}
		room, err := c.hub.CreateRoom(c, payload.Name, payload.Description)
		if err != nil {
			c.sendAck(env.Ack, Ack{Success: false, Message: err.Error()})
			return
		}
		c.sendAck(env.Ack, Ack{Success: true, Room: &domain.RoomInfo{Room: *room}})

	case EventGetRooms:
		c.sendAck(env.Ack, Ack{Success: true, Rooms: c.hub.Rooms()})

	case EventJoinRoom:
		var roomID string
		if err := json.Unmarshal(env.Data, &roomID); err != nil {
			c.sendAck(env.Ack, Ack{Success: false, Message: "invalid request"})
			return
		}
		info, err := c.hub.JoinRoom(c, roomID)
		if err != nil {
			c.sendAck(env.Ack, Ack{Success: false, Message: err.Error()})
			return
		}
		c.sendAck(env.Ack, Ack{Success: true, Room: info})

	case EventLeaveRoom:
		c.hub.LeaveRoom(c)
		c.sendAck(env.Ack, Ack{Success: true})

	case EventDeleteRoom:
		c.handleDeleteRoom(env)

	case EventChatMessage:
		var text string
		if err := json.Unmarshal(env.Data, &text); err != nil {
			return
		}
		c.hub.Route(c, text, domain.MessageTypeText, nil)

	case EventEmojiMessage:
		var emoji string
		if err := json.Unmarshal(env.Data, &emoji); err != nil {
			return
		}
		c.hub.Route(c, emoji, domain.MessageTypeEmoji, nil)

	case EventFileMessage:
		var fileInfo domain.FileInfo
		if err := json.Unmarshal(env.Data, &fileInfo); err != nil || fileInfo.OriginalName == "" {
			return
		}
		text := fmt.Sprintf("shared a file: %s", fileInfo.OriginalName)
		c.hub.Route(c, text, domain.MessageTypeFile, &fileInfo)

	case EventTyping:
		var isTyping bool
		if err := json.Unmarshal(env.Data, &isTyping); err != nil {
			return
		}
		c.hub.Typing(c, isTyping)

	case EventAway:
		c.hub.Away(c, true)

	case EventBack:
		c.hub.Away(c, false)
	}
}

// handleDeleteRoom runs room deletion under an ack that fires exactly
// once. The safety timer is a last resort: even if eviction stalls on
// an internal fault, the caller is never left waiting forever.
func (c *Client) handleDeleteRoom(env Envelope) {
	var roomID string
	if err := json.Unmarshal(env.Data, &roomID); err != nil {
		c.sendAck(env.Ack, Ack{Success: false, Message: "invalid request"})
		return
	}

	var once sync.Once
	reply := func(ack Ack) {
		once.Do(func() { c.sendAck(env.Ack, ack) })
	}

	timer := time.AfterFunc(domain.AckSafetyTimeout, func() {
		reply(Ack{Success: false, Message: "delete room timed out"})
	})
	defer timer.Stop()

	if _, err := c.hub.DeleteRoom(c, roomID); err != nil {
		reply(Ack{Success: false, Message: err.Error()})
		return
	}
	reply(Ack{Success: true})
}

// sendAck replies to an acked event. Events sent without an ack id get
// no reply. Delivery goes through the hub: the read pump (and the
// deleteRoom safety timer) can race an eviction that closes the send
// channel, so the write has to happen under the hub lock.
func (c *Client) sendAck(ackID int64, ack Ack) {
	if ackID == 0 {
		return
	}
	c.hub.SendAck(c, ackID, ack)
}

// WritePump pumps frames from the hub to the websocket connection, one
// JSON envelope per frame, and keeps the connection alive with pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
