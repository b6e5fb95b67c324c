package domain

import "time"

// User is a registered account. The password field holds a bcrypt hash
// and is never serialized.
type User struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	Nickname  string    `json:"nickname" gorm:"uniqueIndex;size:32"`
	Password  string    `json:"-"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Public returns the shape of a user that is safe to send to clients.
func (u *User) Public() PublicUser {
	return PublicUser{ID: u.ID, Nickname: u.Nickname}
}

// PublicUser is the client-facing projection of an account.
type PublicUser struct {
	ID       string `json:"id"`
	Nickname string `json:"nickname"`
}

// OnlineUser is one entry of the presence snapshot: an identified
// connection and the account behind it.
type OnlineUser struct {
	ID       string `json:"id"`
	Nickname string `json:"nickname"`
	ConnID   string `json:"socketId"`
}
