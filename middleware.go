package keyhole

import (
	"net/http"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
)

// Middleware resolves the session of each request and guards protected routes.
type Middleware struct {
	Sessions *SessionManager

	// Where anonymous requests to protected routes are sent
	LoginURL string

	// Called when the session cannot be resolved because of a store failure
	OnError func(w http.ResponseWriter, r *http.Request, err error)
}

/**
 * Ensures that config values have reasonable defaults.
 */
func (m *Middleware) EnsureReasonableDefaults() {
	if m.LoginURL == "" {
		m.LoginURL = "/login"
	}
	if m.OnError == nil {
		m.OnError = func(w http.ResponseWriter, r *http.Request, err error) {
			hlog.FromRequest(r).Error().Err(err).Msg("error resolving session")
			http.Redirect(w, r, m.LoginURL, http.StatusFound)
		}
	}
}

/**
 * Resolves the session user and makes a SessionContext available to the
 * handlers downstream.
 *
 * Note this does not perform any redirects if a valid user does not exist.
 * To also enforce a user exists, use EnsureUser.
 */
func (m *Middleware) ExtractUser(next http.Handler) http.Handler {
	m.EnsureReasonableDefaults()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r, err := m.extract(r)
		if err != nil {
			m.OnError(w, r, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// EnsureUser is ExtractUser plus a redirect to LoginURL for anonymous requests
func (m *Middleware) EnsureUser(next http.Handler) http.Handler {
	m.EnsureReasonableDefaults()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r, err := m.extract(r)
		if err != nil {
			m.OnError(w, r, err)
			return
		}
		if !SessionFromContext(r.Context()).Authenticated() {
			http.Redirect(w, r, m.LoginURL, http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (m *Middleware) extract(r *http.Request) (*http.Request, error) {
	if sc, ok := r.Context().Value(sessionContextKey{}).(*SessionContext); ok && sc != nil {
		return r, nil
	}
	user, err := m.Sessions.Resolve(r.Context())
	if err != nil {
		return r, err
	}
	if user != nil {
		hlog.FromRequest(r).UpdateContext(func(c zerolog.Context) zerolog.Context {
			return c.Uint("user_id", user.ID)
		})
	}
	return withSessionContext(r, &SessionContext{Token: m.Sessions.Token(r.Context()), User: user}), nil
}
