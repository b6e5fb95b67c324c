package ws

import (
	"chatroom/internal/domain"
)

// Route dispatches an inbound chat, emoji or file message. A sender
// outside any room gets a guiding system message back and nothing else;
// routing never surfaces an error to the transport. On success the
// stamped message goes to every member of the sender's room, the sender
// included, so their UI renders through the same path as everyone
// else's.
func (h *Hub) Route(c *Client, text string, mtype domain.MessageType, fileInfo *domain.FileInfo) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.liveLocked(c) {
		return domain.ErrNotLoggedIn
	}

	id, ok := h.registry.Identity(c.ID)
	if !ok {
		h.sendLocked(c, EventMessage, systemMessage("Please log in first", ""))
		return domain.ErrNotLoggedIn
	}

	roomID, ok := h.roomOf[c.ID]
	if !ok {
		h.sendLocked(c, EventMessage, systemMessage("Please join or create a room first", ""))
		return domain.ErrNotInRoom
	}

	msg := formatMessage(id.Nickname, text, mtype, fileInfo, roomID)
	h.broadcastRoomLocked(roomID, EventMessage, msg, "")

	if h.archiver != nil {
		go h.archiver.Archive(msg)
	}
	return nil
}

// Typing relays a typing indicator to the rest of the sender's room.
// It mutates no state; out-of-room indicators are silently ignored.
func (h *Hub) Typing(c *Client, isTyping bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.liveLocked(c) {
		return
	}

	id, ok := h.registry.Identity(c.ID)
	if !ok {
		return
	}
	roomID, ok := h.roomOf[c.ID]
	if !ok {
		return
	}

	h.broadcastRoomLocked(roomID, EventUserTyping, UserTypingPayload{
		Username: id.Nickname,
		IsTyping: isTyping,
		RoomID:   roomID,
	}, c.ID)
}
