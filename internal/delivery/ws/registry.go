package ws

import "chatroom/internal/domain"

// Identity is the account bound to a connection once it has announced
// itself.
type Identity struct {
	UserID   string
	Nickname string
}

// ConnectionRegistry maps connection ids to identities and back. It has
// no lock of its own: the hub owns it and guards it together with the
// room tables, so attach/detach and the broadcasts describing them stay
// atomic.
type ConnectionRegistry struct {
	identities map[string]Identity // connID -> identity
	userConns  map[string]string   // userID -> connID (single active connection)
	order      []string            // connIDs in attach order
}

// NewConnectionRegistry creates an empty registry.
func NewConnectionRegistry() *ConnectionRegistry {
	return &ConnectionRegistry{
		identities: make(map[string]Identity),
		userConns:  make(map[string]string),
	}
}

// Attach binds an identity to a connection. It is a no-op if the
// connection already carries an identity. When the user already has
// another active connection, that connection id is returned as evicted
// and its mapping is replaced; the caller decides how to dispose of it.
func (r *ConnectionRegistry) Attach(connID string, id Identity) (evicted string, attached bool) {
	if _, ok := r.identities[connID]; ok {
		return "", false
	}

	if prev, ok := r.userConns[id.UserID]; ok && prev != connID {
		evicted = prev
		delete(r.identities, prev)
		r.removeFromOrder(prev)
	}

	r.identities[connID] = id
	r.userConns[id.UserID] = connID
	r.order = append(r.order, connID)
	return evicted, true
}

// Detach removes the connection's identity and the reverse mapping,
// returning the identity that was bound. ok is false when the
// connection never announced itself.
func (r *ConnectionRegistry) Detach(connID string) (Identity, bool) {
	id, ok := r.identities[connID]
	if !ok {
		return Identity{}, false
	}

	delete(r.identities, connID)
	if r.userConns[id.UserID] == connID {
		delete(r.userConns, id.UserID)
	}
	r.removeFromOrder(connID)
	return id, true
}

// Identity returns the identity bound to a connection, if any.
func (r *ConnectionRegistry) Identity(connID string) (Identity, bool) {
	id, ok := r.identities[connID]
	return id, ok
}

// ConnFor returns the active connection id for a user, if any.
func (r *ConnectionRegistry) ConnFor(userID string) (string, bool) {
	connID, ok := r.userConns[userID]
	return connID, ok
}

// Snapshot returns the presence list: every identified connection in
// attach order. It re-reads current state on every call; results are
// not valid across later mutations.
func (r *ConnectionRegistry) Snapshot() []domain.OnlineUser {
	users := make([]domain.OnlineUser, 0, len(r.order))
	for _, connID := range r.order {
		id, ok := r.identities[connID]
		if !ok {
			continue
		}
		users = append(users, domain.OnlineUser{
			ID:       id.UserID,
			Nickname: id.Nickname,
			ConnID:   connID,
		})
	}
	return users
}

// Count returns the number of identified connections.
func (r *ConnectionRegistry) Count() int {
	return len(r.identities)
}

func (r *ConnectionRegistry) removeFromOrder(connID string) {
	for i, c := range r.order {
		if c == connID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			return
		}
	}
}
