package keyhole

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	// ErrUserNotFound is returned by a UserStore when no record matches a lookup.
	ErrUserNotFound = errors.New("user not found")

	// ErrUniqueViolation is returned by a UserStore when an insert would
	// duplicate the email or the (provider, external id) pair of another user.
	ErrUniqueViolation = errors.New("unique constraint violated")
)

// User is a record of the credential store.
// A user has at least one of PasswordHash or ExternalID.
type User struct {
	ID           uint      `json:"id"`
	Email        string    `json:"email,omitempty"`       // empty when the provider did not share one
	PasswordHash string    `json:"-"`                     // bcrypt digest, empty for external-only users
	Provider     string    `json:"provider,omitempty"`    // "facebook"
	ExternalID   string    `json:"external_id,omitempty"` // subject id assigned by Provider
	CreatedAt    time.Time `json:"created_at"`
}

// HasPassword reports whether the user can log in with a local password.
func (u *User) HasPassword() bool { return u.PasswordHash != "" }

// UserStore is the credential store. It is the only place user records live.
type UserStore interface {
	// GetUserById retrieves a user by its generated identifier
	GetUserById(ctx context.Context, id uint) (*User, error)

	// GetUserByEmail retrieves a user by (normalized) email
	GetUserByEmail(ctx context.Context, email string) (*User, error)

	// GetUserByExternalID retrieves a user by the id a provider assigned to it
	GetUserByExternalID(ctx context.Context, provider, externalID string) (*User, error)

	// CreateUser inserts the user and populates its ID and CreatedAt.
	// Returns ErrUniqueViolation if the email or external id is taken.
	CreateUser(ctx context.Context, user *User) error
}

// NormalizeEmail trims and lower-cases an email so lookups and inserts agree.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
