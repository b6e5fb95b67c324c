package usecase

import (
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"chatroom/internal/domain"
)

// bcryptCost matches the cost the account database was seeded with.
const bcryptCost = 10

// UserRepository is the persistence contract the account service needs.
// The GORM store implements it; tests use an in-memory fake.
type UserRepository interface {
	CreateUser(user *domain.User) error
	FindUserByID(id string) (*domain.User, error)
	FindUserByNickname(nickname string) (*domain.User, error)
	NicknameExists(nickname, excludeID string) (bool, error)
	UpdateUser(user *domain.User) error
}

// AccountService handles registration, login and profile updates.
type AccountService struct {
	repo UserRepository
}

// NewAccountService creates an AccountService.
func NewAccountService(repo UserRepository) *AccountService {
	return &AccountService{repo: repo}
}

func validNickname(nickname string) bool {
	n := utf8.RuneCountInString(nickname)
	return n >= domain.NicknameMinLen && n <= domain.NicknameMaxLen
}

// Register creates a new account. Nicknames are unique; passwords are
// stored as bcrypt hashes only.
func (s *AccountService) Register(nickname, password string) (*domain.User, error) {
	if !validNickname(nickname) {
		return nil, domain.ErrNicknameLength
	}
	if len(password) < domain.PasswordMinLen {
		return nil, domain.ErrPasswordTooShort
	}

	taken, err := s.repo.NicknameExists(nickname, "")
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, domain.ErrNicknameTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		ID:       uuid.New().String(),
		Nickname: nickname,
		Password: string(hash),
	}
	if err := s.repo.CreateUser(user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login verifies credentials. The error never reveals whether the
// nickname or the password was wrong.
func (s *AccountService) Login(nickname, password string) (*domain.User, error) {
	user, err := s.repo.FindUserByNickname(nickname)
	if err != nil {
		return nil, domain.ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, domain.ErrInvalidCredentials
	}
	return user, nil
}

// VerifyPassword checks an account's current password.
func (s *AccountService) VerifyPassword(id, password string) bool {
	user, err := s.repo.FindUserByID(id)
	if err != nil {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) == nil
}

// Update changes the nickname and/or the password of an account. A
// password change requires the current password.
func (s *AccountService) Update(id, nickname, oldPassword, newPassword string) (*domain.User, error) {
	user, err := s.repo.FindUserByID(id)
	if err != nil {
		return nil, err
	}

	changed := false

	if nickname != "" && nickname != user.Nickname {
		if !validNickname(nickname) {
			return nil, domain.ErrNicknameLength
		}
		taken, err := s.repo.NicknameExists(nickname, id)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, domain.ErrNicknameTaken
		}
		user.Nickname = nickname
		changed = true
	}

	if newPassword != "" {
		if oldPassword == "" || bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(oldPassword)) != nil {
			return nil, domain.ErrWrongPassword
		}
		if len(newPassword) < domain.PasswordMinLen {
			return nil, domain.ErrPasswordTooShort
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcryptCost)
		if err != nil {
			return nil, err
		}
		user.Password = string(hash)
		changed = true
	}

	if !changed {
		return nil, domain.ErrNothingToUpdate
	}

	if err := s.repo.UpdateUser(user); err != nil {
		return nil, err
	}
	return user, nil
}
