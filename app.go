package keyhole

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/alexedwards/scs/v2"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"golang.org/x/oauth2"

	"github.com/panyam/keyhole/internal/logutil"
)

// Route paths
const (
	HomePath             = "/"
	LoginPath            = "/login"
	SignupPath           = "/signup"
	LogoutPath           = "/logout"
	ExternalPath         = "/auth/external"
	ExternalCallbackPath = "/auth/external/callback"
	HealthPath           = "/healthz"
)

// App is the route layer. It owns no records: it asks the authenticators to
// produce users and the session manager to remember them.
type App struct {
	Config     Config
	Sessions   *SessionManager
	Local      *LocalAuth
	External   *ExternalAuth    // nil when Provider is nil
	Provider   IdentityProvider // nil disables external login
	Views      *Views
	Middleware Middleware
	Logger     zerolog.Logger

	router *mux.Router
}

// NewApp wires the authenticators, session manager and views around users.
func NewApp(cfg Config, users UserStore, sm *scs.SessionManager, provider IdentityProvider, logger zerolog.Logger) (*App, error) {
	if users == nil {
		return nil, errors.New("a user store is required")
	}
	if sm == nil {
		return nil, errors.New("a session manager is required")
	}
	views, err := NewViews()
	if err != nil {
		return nil, err
	}

	a := &App{
		Config:   cfg,
		Sessions: NewSessionManager(sm, users),
		Local:    NewLocalAuth(users, NewBcryptHasher(cfg.BcryptCost)),
		Provider: provider,
		Views:    views,
		Logger:   logger,
	}
	if provider != nil {
		a.External = NewExternalAuth(users, provider.Name())
	}
	a.Middleware = Middleware{
		Sessions: a.Sessions,
		LoginURL: LoginPath,
		OnError:  a.handleError,
	}
	return a, nil
}

// Handler returns the full middleware chain: request logging, session
// load/save and the router.
func (a *App) Handler() http.Handler {
	return logutil.HTTPMiddleware(a.Logger)(a.Sessions.LoadAndSave(a.setupRoutes().router))
}

func (a *App) setupRoutes() *App {
	if a.router != nil {
		return a
	}
	r := mux.NewRouter()

	r.Handle(HomePath, a.Middleware.EnsureUser(http.HandlerFunc(a.renderSecret))).Methods(http.MethodGet)
	r.HandleFunc(LoginPath, a.renderPage(ViewLogin, "Log in")).Methods(http.MethodGet)
	r.HandleFunc(SignupPath, a.renderPage(ViewSignup, "Sign up")).Methods(http.MethodGet)
	r.Handle(LogoutPath, a.Middleware.EnsureUser(http.HandlerFunc(a.onLogout))).Methods(http.MethodGet)

	r.Handle(SignupPath, a.Authenticate(StrategyLocalSignup, AuthenticateOptions{
		SuccessRedirect: LoginPath,
		FailureRedirect: SignupPath,
	})).Methods(http.MethodPost)
	r.Handle(LoginPath, a.Authenticate(StrategyLocalLogin, AuthenticateOptions{
		SuccessRedirect: HomePath,
		FailureRedirect: LoginPath,
	})).Methods(http.MethodPost)

	if a.Provider != nil {
		r.HandleFunc(ExternalPath, a.Provider.InitiateAuth).Methods(http.MethodGet)
		r.Handle(ExternalCallbackPath, a.Authenticate(StrategyExternal, AuthenticateOptions{
			SuccessRedirect: HomePath,
			FailureRedirect: LoginPath,
		})).Methods(http.MethodGet)
	}

	r.HandleFunc(HealthPath, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}).Methods(http.MethodGet)

	a.router = r
	return a
}

// Authenticate returns the handler running strategy. On success the user is
// signed into the session and redirected to opts.SuccessRedirect.
func (a *App) Authenticate(strategy Strategy, opts AuthenticateOptions) http.Handler {
	switch strategy {
	case StrategyLocalSignup:
		return a.localHandler(strategy, a.Local.Signup, opts)
	case StrategyLocalLogin:
		return a.localHandler(strategy, a.Local.Login, opts)
	case StrategyExternal:
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if a.Provider == nil {
				http.NotFound(w, r)
				return
			}
			a.Provider.HandleCallback(w, r, a.externalDone(opts))
		})
	}
	panic(fmt.Sprintf("unknown strategy: %d", strategy))
}

type authenticateFunc func(ctx context.Context, creds *Credentials) (*User, error)

func (a *App) localHandler(strategy Strategy, authenticate authenticateFunc, opts AuthenticateOptions) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		creds, err := ParseCredentials(r)
		if err != nil {
			hlog.FromRequest(r).Info().Err(err).Str("strategy", strategy.String()).Msg("unreadable credentials")
			http.Redirect(w, r, opts.FailureRedirect, http.StatusFound)
			return
		}
		user, err := authenticate(r.Context(), creds)
		a.finish(w, r, strategy, user, err, opts)
	})
}

func (a *App) externalDone(opts AuthenticateOptions) CallbackFunc {
	return func(w http.ResponseWriter, r *http.Request, token *oauth2.Token, profile Profile, err error) {
		var user *User
		if err == nil {
			user, err = a.External.HandleCallback(r.Context(), token, profile)
		}
		a.finish(w, r, StrategyExternal, user, err, opts)
	}
}

// finish turns the outcome of a strategy into a redirect.
func (a *App) finish(w http.ResponseWriter, r *http.Request, strategy Strategy, user *User, err error, opts AuthenticateOptions) {
	log := hlog.FromRequest(r)
	if err != nil {
		if IsRecoverable(err) {
			var authErr *AuthError
			errors.As(err, &authErr)
			log.Info().Str("strategy", strategy.String()).Str("reason", authErr.Code).Msg("authentication failed")
			http.Redirect(w, r, opts.FailureRedirect, http.StatusFound)
			return
		}
		a.handleError(w, r, err)
		return
	}

	if _, err := a.Sessions.Establish(r.Context(), user); err != nil {
		a.handleError(w, r, err)
		return
	}
	log.Info().Str("strategy", strategy.String()).Uint("user_id", user.ID).Msg("user signed in")
	http.Redirect(w, r, opts.SuccessRedirect, http.StatusFound)
}

func (a *App) onLogout(w http.ResponseWriter, r *http.Request) {
	if err := a.Sessions.Terminate(r.Context()); err != nil {
		a.handleError(w, r, err)
		return
	}
	hlog.FromRequest(r).Info().Msg("user logged out")
	http.Redirect(w, r, LoginPath, http.StatusFound)
}

// handleError is the generic error handler: storage and provider failures are
// logged and answered with a best-effort redirect to the login page.
func (a *App) handleError(w http.ResponseWriter, r *http.Request, err error) {
	hlog.FromRequest(r).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	http.Redirect(w, r, LoginPath, http.StatusFound)
}

func (a *App) renderSecret(w http.ResponseWriter, r *http.Request) {
	sc := SessionFromContext(r.Context())
	a.render(w, r, ViewSecret, ViewData{Title: "Welcome", User: sc.User})
}

func (a *App) renderPage(view, title string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data := ViewData{Title: title}
		if a.Provider != nil {
			data.ExternalLogin = a.Provider.Name()
		}
		a.render(w, r, view, data)
	}
}

func (a *App) render(w http.ResponseWriter, r *http.Request, view string, data ViewData) {
	if err := a.Views.Render(w, view, data); err != nil {
		hlog.FromRequest(r).Error().Err(err).Str("view", view).Msg("render failed")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}
