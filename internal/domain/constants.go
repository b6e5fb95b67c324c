package domain

import "time"

// ==== Account Rules ====

const (
	// NicknameMinLen and NicknameMaxLen bound nickname length in runes.
	NicknameMinLen = 2
	NicknameMaxLen = 15

	// PasswordMinLen is the minimum password length.
	PasswordMinLen = 6
)

// ==== Room Rules ====

const (
	// RoomNameMaxLen bounds room name length in runes.
	RoomNameMaxLen = 50

	// RoomIDMin and RoomIDMax delimit the 9-digit numeric room id space.
	RoomIDMin = 100000000
	RoomIDMax = 999999999

	// RoomIDMaxAttempts caps collision retries during id generation.
	RoomIDMaxAttempts = 100
)

// ==== Transport ====

const (
	// MaxMessageSize is the maximum allowed WebSocket frame from a peer.
	MaxMessageSize = 64 * 1024

	// MaxUploadSize caps file uploads held in memory.
	MaxUploadSize = 10 << 20

	// AckSafetyTimeout bounds how long a pending ack may wait on an
	// operation with internal side-effecting steps (room deletion).
	AckSafetyTimeout = 8 * time.Second
)

// ==== Sessions ====

// TokenTTL is the default lifetime of issued login tokens.
const TokenTTL = 24 * time.Hour
