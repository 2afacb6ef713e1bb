// Package keyhole provides email/password and social login for Go web
// applications, backed by server side sessions.
//
// Keyhole separates authentication into three parts: a credential store that
// owns user records, authenticators that turn credentials or a provider's
// profile into a user, and a session manager that remembers which user a
// browser belongs to. The route layer ties them together and owns no records.
//
// # Architecture
//
// UserStore: The only place user records live. A user has an email and a
// bcrypt password hash, an external provider id, or both.
//
// LocalAuth: Signup and login with an email and password. Failures are
// reported as an *AuthError with a stable code (duplicate_account,
// no_such_account, bad_credentials, missing_field).
//
// ExternalAuth: Finds or creates the user for a profile returned by an
// IdentityProvider. The oauth2 package implements Facebook, Google and GitHub.
//
// SessionManager: Stores the user id in an scs session. The session token is
// renewed whenever a user is established.
//
// # Basic Usage
//
//	db, err := gormstore.Open(keyhole.DriverSQLite, "keyhole.db")
//	if err != nil { ... }
//	if err := gormstore.AutoMigrate(db); err != nil { ... }
//
//	sm := scs.New()
//	sm.Store = gormstore.NewSessionStore(db)
//
//	cfg := keyhole.DefaultConfig()
//	cfg.SecretKey = os.Getenv("SECRET_KEY")
//	provider, err := oauth2.NewProvider(cfg)
//	if err != nil { ... }
//
//	app, err := keyhole.NewApp(cfg, gormstore.NewUserStore(db), sm, provider, logger)
//	if err != nil { ... }
//	http.ListenAndServe(cfg.Addr, app.Handler())
//
// Other handlers can be protected with the app's middleware:
//
//	router.Handle("/account", app.Middleware.EnsureUser(accountHandler))
//
// and read the current user with SessionFromContext(r.Context()).
//
// # Routes
//
//	GET  /                          secret page for users, redirect to /login otherwise
//	GET  /login, /signup            forms
//	POST /login                     local login, redirects to / or back to /login
//	POST /signup                    local signup, redirects to /login
//	GET  /auth/external             redirect to the identity provider
//	GET  /auth/external/callback    provider redirect target
//	GET  /logout                    ends the session
//	GET  /healthz                   liveness
//
// # Security
//
// Passwords are hashed with bcrypt. The OAuth2 state parameter is a short
// lived HS256 token bound to a nonce cookie and signed with Config.SecretKey.
// Session cookies are HttpOnly and SameSite=Lax.
package keyhole
