package usecase

import (
	"errors"
	"strings"
	"testing"

	"chatroom/internal/domain"
)

// fakeUserRepo is an in-memory UserRepository for tests.
type fakeUserRepo struct {
	users map[string]*domain.User // id -> user
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*domain.User)}
}

func (r *fakeUserRepo) CreateUser(user *domain.User) error {
	for _, u := range r.users {
		if u.Nickname == user.Nickname {
			return domain.ErrNicknameTaken
		}
	}
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *fakeUserRepo) FindUserByID(id string) (*domain.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}

func (r *fakeUserRepo) FindUserByNickname(nickname string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Nickname == nickname {
			clone := *u
			return &clone, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *fakeUserRepo) NicknameExists(nickname, excludeID string) (bool, error) {
	for id, u := range r.users {
		if u.Nickname == nickname && id != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeUserRepo) UpdateUser(user *domain.User) error {
	if _, ok := r.users[user.ID]; !ok {
		return domain.ErrUserNotFound
	}
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func TestRegister(t *testing.T) {
	svc := NewAccountService(newFakeUserRepo())

	user, err := svc.Register("alice", "secret123")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if user.ID == "" {
		t.Error("expected a generated user id")
	}
	if user.Nickname != "alice" {
		t.Errorf("expected nickname alice, got %q", user.Nickname)
	}
	if user.Password == "secret123" || user.Password == "" {
		t.Error("password must be stored as a hash")
	}
}

func TestRegister_Validation(t *testing.T) {
	svc := NewAccountService(newFakeUserRepo())

	cases := []struct {
		name     string
		nickname string
		password string
		want     error
	}{
		{"nickname too short", "a", "secret123", domain.ErrNicknameLength},
		{"nickname too long", strings.Repeat("a", domain.NicknameMaxLen+1), "secret123", domain.ErrNicknameLength},
		{"password too short", "alice", "12345", domain.ErrPasswordTooShort},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Register(tc.nickname, tc.password); !errors.Is(err, tc.want) {
				t.Errorf("expected %v, got %v", tc.want, err)
			}
		})
	}

	// Boundary lengths are accepted.
	if _, err := svc.Register(strings.Repeat("a", domain.NicknameMinLen), "secret123"); err != nil {
		t.Errorf("min-length nickname rejected: %v", err)
	}
	if _, err := svc.Register(strings.Repeat("b", domain.NicknameMaxLen), "secret123"); err != nil {
		t.Errorf("max-length nickname rejected: %v", err)
	}
}

func TestRegister_NicknameTaken(t *testing.T) {
	svc := NewAccountService(newFakeUserRepo())

	if _, err := svc.Register("alice", "secret123"); err != nil {
		t.Fatalf("first Register failed: %v", err)
	}
	if _, err := svc.Register("alice", "different1"); !errors.Is(err, domain.ErrNicknameTaken) {
		t.Errorf("expected ErrNicknameTaken, got %v", err)
	}
}

func TestLogin(t *testing.T) {
	svc := NewAccountService(newFakeUserRepo())
	registered, _ := svc.Register("alice", "secret123")

	user, err := svc.Login("alice", "secret123")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if user.ID != registered.ID {
		t.Errorf("expected user %s, got %s", registered.ID, user.ID)
	}
}

func TestLogin_InvalidCredentials(t *testing.T) {
	svc := NewAccountService(newFakeUserRepo())
	svc.Register("alice", "secret123")

	// Unknown nickname and wrong password fail identically.
	if _, err := svc.Login("nobody", "secret123"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Errorf("unknown nickname: expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Login("alice", "wrongpass"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Errorf("wrong password: expected ErrInvalidCredentials, got %v", err)
	}
}

func TestVerifyPassword(t *testing.T) {
	svc := NewAccountService(newFakeUserRepo())
	user, _ := svc.Register("alice", "secret123")

	if !svc.VerifyPassword(user.ID, "secret123") {
		t.Error("correct password rejected")
	}
	if svc.VerifyPassword(user.ID, "wrongpass") {
		t.Error("wrong password accepted")
	}
	if svc.VerifyPassword("no-such-id", "secret123") {
		t.Error("unknown user accepted")
	}
}

func TestUpdate_Nickname(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewAccountService(repo)
	user, _ := svc.Register("alice", "secret123")

	updated, err := svc.Update(user.ID, "alicia", "", "")
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.Nickname != "alicia" {
		t.Errorf("expected nickname alicia, got %q", updated.Nickname)
	}

	stored, _ := repo.FindUserByID(user.ID)
	if stored.Nickname != "alicia" {
		t.Errorf("update not persisted, stored nickname %q", stored.Nickname)
	}

	// The old password still works after a pure nickname change.
	if _, err := svc.Login("alicia", "secret123"); err != nil {
		t.Errorf("login after rename failed: %v", err)
	}
}

func TestUpdate_NicknameTaken(t *testing.T) {
	svc := NewAccountService(newFakeUserRepo())
	svc.Register("alice", "secret123")
	bob, _ := svc.Register("bob", "secret123")

	if _, err := svc.Update(bob.ID, "alice", "", ""); !errors.Is(err, domain.ErrNicknameTaken) {
		t.Errorf("expected ErrNicknameTaken, got %v", err)
	}

	// Keeping your own nickname while changing the password is fine.
	if _, err := svc.Update(bob.ID, "bob", "secret123", "newsecret1"); err != nil {
		t.Errorf("same-nickname update failed: %v", err)
	}
}

func TestUpdate_Password(t *testing.T) {
	svc := NewAccountService(newFakeUserRepo())
	user, _ := svc.Register("alice", "secret123")

	if _, err := svc.Update(user.ID, "", "wrongpass", "newsecret1"); !errors.Is(err, domain.ErrWrongPassword) {
		t.Errorf("expected ErrWrongPassword, got %v", err)
	}
	if _, err := svc.Update(user.ID, "", "", "newsecret1"); !errors.Is(err, domain.ErrWrongPassword) {
		t.Errorf("missing old password: expected ErrWrongPassword, got %v", err)
	}
	if _, err := svc.Update(user.ID, "", "secret123", "short"); !errors.Is(err, domain.ErrPasswordTooShort) {
		t.Errorf("expected ErrPasswordTooShort, got %v", err)
	}

	if _, err := svc.Update(user.ID, "", "secret123", "newsecret1"); err != nil {
		t.Fatalf("password change failed: %v", err)
	}
	if _, err := svc.Login("alice", "secret123"); err == nil {
		t.Error("old password still accepted")
	}
	if _, err := svc.Login("alice", "newsecret1"); err != nil {
		t.Errorf("new password rejected: %v", err)
	}
}

func TestUpdate_NothingToUpdate(t *testing.T) {
	svc := NewAccountService(newFakeUserRepo())
	user, _ := svc.Register("alice", "secret123")

	if _, err := svc.Update(user.ID, "", "", ""); !errors.Is(err, domain.ErrNothingToUpdate) {
		t.Errorf("expected ErrNothingToUpdate, got %v", err)
	}
	if _, err := svc.Update(user.ID, "alice", "", ""); !errors.Is(err, domain.ErrNothingToUpdate) {
		t.Errorf("unchanged nickname: expected ErrNothingToUpdate, got %v", err)
	}
}

func TestUpdate_UnknownUser(t *testing.T) {
	svc := NewAccountService(newFakeUserRepo())

	if _, err := svc.Update("no-such-id", "alice", "", ""); !errors.Is(err, domain.ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
}
