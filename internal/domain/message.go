package domain

import "time"

// MessageType tags how a message body should be rendered.
type MessageType string

const (
	MessageTypeText   MessageType = "text"
	MessageTypeEmoji  MessageType = "emoji"
	MessageTypeFile   MessageType = "file"
	MessageTypeSystem MessageType = "system"
)

// SystemSender is the username stamped on server-synthesized messages.
const SystemSender = "system"

// FileInfo describes an uploaded file attached to a file message. The
// DataURL carries the whole payload inline; nothing is written to disk.
type FileInfo struct {
	OriginalName string `json:"originalname"`
	MimeType     string `json:"mimetype"`
	Size         int64  `json:"size"`
	DataURL      string `json:"dataUrl"`
}

// Message is a chat or system message as delivered to clients. The
// router owns it for the duration of dispatch only; retention, if any,
// happens in the storage archive.
type Message struct {
	ID       string      `json:"id"`
	Username string      `json:"username"`
	Text     string      `json:"text"`
	Type     MessageType `json:"type"`
	FileInfo *FileInfo   `json:"fileInfo,omitempty"`
	RoomID   string      `json:"roomId,omitempty"`
	Time     time.Time   `json:"time"`
}
