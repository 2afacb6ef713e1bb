package keyhole

import (
	"context"
	"errors"

	"github.com/panyam/keyhole/internal/logutil"
)

// LocalAuth verifies email/password pairs against the credential store.
type LocalAuth struct {
	Users  UserStore
	Hasher PasswordHasher
}

func NewLocalAuth(users UserStore, hasher PasswordHasher) *LocalAuth {
	if hasher == nil {
		hasher = NewBcryptHasher(0)
	}
	return &LocalAuth{Users: users, Hasher: hasher}
}

// Signup creates a user for an email that is not registered yet.
// Exactly one row is inserted on success and none on failure.
func (a *LocalAuth) Signup(ctx context.Context, creds *Credentials) (*User, error) {
	if authErr := creds.Validate(); authErr != nil {
		return nil, authErr
	}
	email := NormalizeEmail(creds.Email)
	log := logutil.GetOrDefault(ctx).With().Str("email", email).Logger()

	_, err := a.Users.GetUserByEmail(ctx, email)
	if err == nil {
		log.Debug().Msg("signup rejected, email already registered")
		return nil, ErrDuplicateAccount
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, StorageError("looking up user by email", err)
	}

	passwordHash, err := a.Hasher.Hash(creds.Password)
	if err != nil {
		return nil, err
	}

	user := &User{Email: email, PasswordHash: passwordHash}
	if err := a.Users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, ErrUniqueViolation) {
			// lost a race against a concurrent signup for the same email
			log.Debug().Msg("signup rejected by unique index")
			return nil, ErrDuplicateAccount
		}
		return nil, StorageError("creating user", err)
	}

	log.Info().Uint("user_id", user.ID).Msg("created local user")
	return user, nil
}

// Login returns the user whose stored digest matches the submitted password.
func (a *LocalAuth) Login(ctx context.Context, creds *Credentials) (*User, error) {
	if authErr := creds.Validate(); authErr != nil {
		return nil, authErr
	}
	email := NormalizeEmail(creds.Email)
	log := logutil.GetOrDefault(ctx).With().Str("email", email).Logger()

	user, err := a.Users.GetUserByEmail(ctx, email)
	if errors.Is(err, ErrUserNotFound) {
		return nil, ErrNoSuchAccount
	} else if err != nil {
		return nil, StorageError("looking up user by email", err)
	}

	if !user.HasPassword() {
		log.Debug().Str("provider", user.Provider).Msg("local login for an external-only account")
		return nil, ErrBadCredentials
	}

	ok, err := a.Hasher.Compare(user.PasswordHash, creds.Password)
	if err != nil {
		log.Warn().Err(err).Uint("user_id", user.ID).Msg("stored password hash is unusable")
		return nil, ErrBadCredentials.Wrap(err)
	}
	if !ok {
		return nil, ErrBadCredentials
	}
	return user, nil
}
