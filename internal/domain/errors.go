package domain

import "errors"

// Operation failures reported to clients through acks. They never
// escape to the transport as anything but {success:false, message}.
var (
	// ErrNotLoggedIn is returned for room operations on a connection
	// with no attached identity.
	ErrNotLoggedIn = errors.New("not logged in")

	// ErrRoomNameEmpty is returned when a room name trims to nothing.
	ErrRoomNameEmpty = errors.New("room name cannot be empty")

	// ErrRoomNotFound is returned for operations on a missing room.
	ErrRoomNotFound = errors.New("room not found")

	// ErrNotRoomOwner is returned when a non-owner tries to delete a room.
	ErrNotRoomOwner = errors.New("only the room owner can delete it")

	// ErrNotInRoom is returned when a connection outside any room
	// attempts a room-scoped operation.
	ErrNotInRoom = errors.New("not in a room")

	// ErrRoomIDSpace is returned when room id generation exhausts its
	// retry budget. Fatal to the single request only.
	ErrRoomIDSpace = errors.New("room id space exhausted")
)

// Account failures reported through the REST surface.
var (
	// ErrUserNotFound is returned when no account matches the lookup.
	ErrUserNotFound = errors.New("user not found")

	// ErrNicknameTaken is returned when registering or renaming to a
	// nickname that already exists.
	ErrNicknameTaken = errors.New("nickname already taken")

	// ErrInvalidCredentials is returned on login failure. It does not
	// distinguish a missing nickname from a wrong password.
	ErrInvalidCredentials = errors.New("wrong nickname or password")

	// ErrNicknameLength is returned when a nickname is outside 2-15 runes.
	ErrNicknameLength = errors.New("nickname must be 2-15 characters")

	// ErrPasswordTooShort is returned when a password is under 6 characters.
	ErrPasswordTooShort = errors.New("password must be at least 6 characters")

	// ErrWrongPassword is returned when the current password check fails
	// during a profile update.
	ErrWrongPassword = errors.New("current password is incorrect")

	// ErrNothingToUpdate is returned when a profile update names no fields.
	ErrNothingToUpdate = errors.New("nothing to update")
)
