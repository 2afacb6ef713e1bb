package keyhole

import (
	"context"
	"net/http"
)

type sessionContextKey struct{}

// SessionContext is the per-request view of the session: the opaque token and
// the resolved user (nil when anonymous).
type SessionContext struct {
	Token string
	User  *User
}

// Authenticated reports whether the request belongs to a signed-in user
func (s *SessionContext) Authenticated() bool { return s != nil && s.User != nil }

func withSessionContext(r *http.Request, sc *SessionContext) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), sessionContextKey{}, sc))
}

// SessionFromContext returns the session context installed by the middleware,
// or an anonymous one.
func SessionFromContext(ctx context.Context) *SessionContext {
	if sc, ok := ctx.Value(sessionContextKey{}).(*SessionContext); ok && sc != nil {
		return sc
	}
	return &SessionContext{}
}
