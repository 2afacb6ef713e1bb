package gorm

import (
	"time"

	kh "github.com/panyam/keyhole"
)

// UserModel is the GORM model for users. Optional columns are pointers so
// they are stored as NULL, which the unique indexes ignore.
type UserModel struct {
	ID           uint      `gorm:"primaryKey;autoIncrement"`
	Email        *string   `gorm:"size:320;uniqueIndex"`
	PasswordHash *string   `gorm:"size:255"`
	Provider     *string   `gorm:"size:32;uniqueIndex:idx_users_external"`
	ExternalID   *string   `gorm:"size:255;uniqueIndex:idx_users_external"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

func (UserModel) TableName() string {
	return "users"
}

func (m *UserModel) ToUser() *kh.User {
	return &kh.User{
		ID:           m.ID,
		Email:        deref(m.Email),
		PasswordHash: deref(m.PasswordHash),
		Provider:     deref(m.Provider),
		ExternalID:   deref(m.ExternalID),
		CreatedAt:    m.CreatedAt,
	}
}

func UserToModel(u *kh.User) *UserModel {
	return &UserModel{
		ID:           u.ID,
		Email:        nullable(u.Email),
		PasswordHash: nullable(u.PasswordHash),
		Provider:     nullable(u.Provider),
		ExternalID:   nullable(u.ExternalID),
		CreatedAt:    u.CreatedAt,
	}
}

// SessionModel is the GORM model for scs session data
type SessionModel struct {
	Token  string    `gorm:"primaryKey;size:64"`
	Data   []byte    `gorm:"not null"`
	Expiry time.Time `gorm:"not null;index"`
}

func (SessionModel) TableName() string {
	return "sessions"
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
