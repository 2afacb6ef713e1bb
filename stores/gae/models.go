//go:build !wasm
// +build !wasm

package gae

import (
	"time"

	"cloud.google.com/go/datastore"

	kh "github.com/panyam/keyhole"
)

// UserEntity is the Datastore entity for users
type UserEntity struct {
	Key          *datastore.Key `datastore:"__key__"`
	Email        string         `datastore:"email"`
	PasswordHash string         `datastore:"password_hash,noindex"`
	Provider     string         `datastore:"provider"`
	ExternalID   string         `datastore:"external_id"`
	CreatedAt    time.Time      `datastore:"created_at"`
}

func (e *UserEntity) ToUser() *kh.User {
	return &kh.User{
		ID:           uint(e.Key.ID),
		Email:        e.Email,
		PasswordHash: e.PasswordHash,
		Provider:     e.Provider,
		ExternalID:   e.ExternalID,
		CreatedAt:    e.CreatedAt,
	}
}

func UserToEntity(u *kh.User, key *datastore.Key) *UserEntity {
	return &UserEntity{
		Key:          key,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Provider:     u.Provider,
		ExternalID:   u.ExternalID,
		CreatedAt:    u.CreatedAt,
	}
}

// UniqueEntity claims a unique value (an email or a provider id) for a user.
// Its key name is the value itself.
type UniqueEntity struct {
	UserID    int64     `datastore:"user_id,noindex"`
	CreatedAt time.Time `datastore:"created_at,noindex"`
}
