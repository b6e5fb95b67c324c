package storage

import (
	"errors"
	"log"
	"os"
	"path/filepath"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"chatroom/internal/domain"
)

// MessageRecord is the archived form of a delivered message. File
// payloads are not archived; they exist only as in-memory data URLs for
// the duration of dispatch.
type MessageRecord struct {
	ID        string `gorm:"primaryKey"`
	RoomID    string `gorm:"index:idx_room_created"`
	Username  string
	Type      string
	Content   string
	CreatedAt time.Time `gorm:"index:idx_room_created"`
}

// Store persists accounts and the message archive in SQLite.
type Store struct {
	db *gorm.DB
}

// Open opens (creating if needed) the database at path and migrates the
// schema.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(&domain.User{}, &MessageRecord{}); err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// ==== user repository ====

// CreateUser inserts a new account.
func (s *Store) CreateUser(user *domain.User) error {
	result := s.db.Create(user)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return domain.ErrNicknameTaken
		}
		return result.Error
	}
	return nil
}

// FindUserByID finds an account by id.
func (s *Store) FindUserByID(id string) (*domain.User, error) {
	var user domain.User
	result := s.db.First(&user, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, result.Error
	}
	return &user, nil
}

// FindUserByNickname finds an account by nickname.
func (s *Store) FindUserByNickname(nickname string) (*domain.User, error) {
	var user domain.User
	result := s.db.First(&user, "nickname = ?", nickname)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, result.Error
	}
	return &user, nil
}

// NicknameExists reports whether another account already uses the
// nickname. excludeID skips the account being renamed.
func (s *Store) NicknameExists(nickname, excludeID string) (bool, error) {
	var count int64
	query := s.db.Model(&domain.User{}).Where("nickname = ?", nickname)
	if excludeID != "" {
		query = query.Where("id <> ?", excludeID)
	}
	if result := query.Count(&count); result.Error != nil {
		return false, result.Error
	}
	return count > 0, nil
}

// UpdateUser saves account changes.
func (s *Store) UpdateUser(user *domain.User) error {
	return s.db.Save(user).Error
}

// ==== message archive ====

// Archive stores a delivered message. It is called from a throwaway
// goroutine per message and must never matter to the broadcast path;
// failures are logged and dropped.
func (s *Store) Archive(msg domain.Message) {
	record := MessageRecord{
		ID:        msg.ID,
		RoomID:    msg.RoomID,
		Username:  msg.Username,
		Type:      string(msg.Type),
		Content:   msg.Text,
		CreatedAt: msg.Time,
	}
	if err := s.db.Create(&record).Error; err != nil {
		log.Printf("archive message: %v", err)
	}
}

// RoomHistory returns the most recent archived messages for a room,
// oldest first.
func (s *Store) RoomHistory(roomID string, limit int) ([]MessageRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	var records []MessageRecord
	result := s.db.Where("room_id = ?", roomID).
		Order("created_at DESC").
		Limit(limit).
		Find(&records)
	if result.Error != nil {
		return nil, result.Error
	}
	// reverse into chronological order
	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}
	return records, nil
}
