package keyhole

import (
	"context"
	"errors"

	"github.com/alexedwards/scs/v2"

	"github.com/panyam/keyhole/internal/logutil"
)

// SessionUserKey is the session variable holding the signed-in user's id.
const SessionUserKey = "userID"

// SessionManager links opaque session tokens to user ids. Only the id is
// persisted; the full user is re-read from the credential store on Resolve.
type SessionManager struct {
	*scs.SessionManager
	Users UserStore
}

func NewSessionManager(sm *scs.SessionManager, users UserStore) *SessionManager {
	return &SessionManager{SessionManager: sm, Users: users}
}

// Establish signs user into the session carried by ctx. The token is renewed
// so a pre-login token is never reused, and the new token is returned.
func (s *SessionManager) Establish(ctx context.Context, user *User) (string, error) {
	if err := s.RenewToken(ctx); err != nil {
		return "", StorageError("renewing session token", err)
	}
	s.Put(ctx, SessionUserKey, int64(user.ID))
	return s.Token(ctx), nil
}

// Resolve returns the user of the session carried by ctx, or nil for an
// anonymous session. A session whose user no longer exists is downgraded to
// anonymous rather than reported as an error.
func (s *SessionManager) Resolve(ctx context.Context) (*User, error) {
	id := s.GetInt64(ctx, SessionUserKey)
	if id <= 0 {
		return nil, nil
	}
	user, err := s.Users.GetUserById(ctx, uint(id))
	if errors.Is(err, ErrUserNotFound) {
		log := logutil.GetOrDefault(ctx)
		log.Info().Int64("user_id", id).Msg("session references a missing user")
		s.Remove(ctx, SessionUserKey)
		return nil, nil
	} else if err != nil {
		return nil, StorageError("resolving session user", err)
	}
	return user, nil
}

// ResolveToken loads the session identified by token and resolves it.
// The returned context carries the loaded session.
func (s *SessionManager) ResolveToken(ctx context.Context, token string) (context.Context, *User, error) {
	ctx, err := s.Load(ctx, token)
	if err != nil {
		return ctx, nil, StorageError("loading session", err)
	}
	user, err := s.Resolve(ctx)
	return ctx, user, err
}

// Terminate destroys the session carried by ctx. The store entry is deleted
// and the client cookie is expired on the way out.
func (s *SessionManager) Terminate(ctx context.Context) error {
	if err := s.Destroy(ctx); err != nil {
		return StorageError("destroying session", err)
	}
	return nil
}
