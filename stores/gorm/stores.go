package gorm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	kh "github.com/panyam/keyhole"
)

// AutoMigrate runs database migrations for all keyhole tables
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&UserModel{},
		&SessionModel{},
	)
}

// =============================================================================
// UserStore
// =============================================================================

// UserStore implements kh.UserStore using GORM
type UserStore struct {
	db *gorm.DB
}

func NewUserStore(db *gorm.DB) *UserStore {
	return &UserStore{db: db}
}

func (s *UserStore) GetUserById(ctx context.Context, id uint) (*kh.User, error) {
	return s.first(ctx, "id = ?", id)
}

func (s *UserStore) GetUserByEmail(ctx context.Context, email string) (*kh.User, error) {
	email = kh.NormalizeEmail(email)
	if email == "" {
		return nil, kh.ErrUserNotFound
	}
	return s.first(ctx, "email = ?", email)
}

func (s *UserStore) GetUserByExternalID(ctx context.Context, provider, externalID string) (*kh.User, error) {
	if provider == "" || externalID == "" {
		return nil, kh.ErrUserNotFound
	}
	return s.first(ctx, "provider = ? AND external_id = ?", provider, externalID)
}

func (s *UserStore) CreateUser(ctx context.Context, user *kh.User) error {
	if user.PasswordHash == "" && user.ExternalID == "" {
		return errors.New("user needs a password hash or an external id")
	}
	model := UserToModel(user)
	model.ID = 0
	if err := s.db.WithContext(ctx).Create(model).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %v", kh.ErrUniqueViolation, err)
		}
		return err
	}
	user.ID = model.ID
	user.CreatedAt = model.CreatedAt
	return nil
}

func (s *UserStore) first(ctx context.Context, query string, args ...any) (*kh.User, error) {
	var model UserModel
	if err := s.db.WithContext(ctx).Where(query, args...).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, kh.ErrUserNotFound
		}
		return nil, err
	}
	return model.ToUser(), nil
}

// isUniqueViolation relies on TranslateError, with a message check for
// dialectors opened without it.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "duplicate key value")
}
