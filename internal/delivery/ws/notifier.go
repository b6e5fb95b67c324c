package ws

import (
	"time"

	"github.com/google/uuid"

	"chatroom/internal/domain"
)

// formatMessage stamps a message the way the router delivers it:
// sender, type, room and send time.
func formatMessage(username, text string, mtype domain.MessageType, fileInfo *domain.FileInfo, roomID string) domain.Message {
	return domain.Message{
		ID:       uuid.New().String(),
		Username: username,
		Text:     text,
		Type:     mtype,
		FileInfo: fileInfo,
		RoomID:   roomID,
		Time:     time.Now(),
	}
}

// systemMessage synthesizes a server-authored notification. It travels
// the same message channel as user messages but is tagged for distinct
// rendering.
func systemMessage(text, roomID string) domain.Message {
	return formatMessage(domain.SystemSender, text, domain.MessageTypeSystem, nil, roomID)
}
