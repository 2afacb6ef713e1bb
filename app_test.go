package keyhole_test

import (
	"context"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/alexedwards/scs/v2"
	"github.com/rs/zerolog"
	"github.com/steinfletcher/apitest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/oauth2"

	kh "github.com/panyam/keyhole"
)

// fakeProvider skips the third party: InitiateAuth redirects straight to the
// callback, which reports the profile named by the subject parameter.
type fakeProvider struct{}

func (fakeProvider) Name() string { return "fake" }

func (fakeProvider) InitiateAuth(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, kh.ExternalCallbackPath+"?subject=ext-1&email=zoe@example.com", http.StatusFound)
}

func (fakeProvider) HandleCallback(w http.ResponseWriter, r *http.Request, done kh.CallbackFunc) {
	if e := r.FormValue("error"); e != "" {
		done(w, r, nil, kh.Profile{}, kh.ProviderError("authorization denied", nil))
		return
	}
	done(w, r, &oauth2.Token{AccessToken: "t"}, kh.Profile{
		Subject: r.FormValue("subject"),
		Email:   r.FormValue("email"),
	}, nil)
}

func newTestApp(t *testing.T, users kh.UserStore, provider kh.IdentityProvider) *kh.App {
	t.Helper()
	cfg := kh.DefaultConfig()
	cfg.SecretKey = "test-secret"
	cfg.BcryptCost = bcrypt.MinCost
	app, err := kh.NewApp(cfg, users, scs.New(), provider, zerolog.Nop())
	require.NoError(t, err)
	return app
}

// newTestClient returns a cookie keeping client for an httptest server
func newTestClient(t *testing.T, handler http.Handler) (*httptest.Server, *http.Client) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return server, &http.Client{Jar: jar}
}

func postForm(t *testing.T, client *http.Client, u string, email, password string) (*http.Response, string) {
	t.Helper()
	resp, err := client.PostForm(u, url.Values{"email": {email}, "password": {password}})
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp, string(body)
}

func get(t *testing.T, client *http.Client, u string) (*http.Response, string) {
	t.Helper()
	resp, err := client.Get(u)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp, string(body)
}

func TestRoutesAnonymous(t *testing.T) {
	handler := newTestApp(t, newTestStore(t), nil).Handler()

	apitest.Handler(handler).Get(kh.HomePath).Expect(t).
		Status(http.StatusFound).Header("Location", kh.LoginPath).End()
	apitest.Handler(handler).Get(kh.LogoutPath).Expect(t).
		Status(http.StatusFound).Header("Location", kh.LoginPath).End()
	apitest.Handler(handler).Get(kh.HealthPath).Expect(t).
		Status(http.StatusOK).Body("ok").End()
	apitest.Handler(handler).Get(kh.ExternalPath).Expect(t).
		Status(http.StatusNotFound).End()
	apitest.Handler(handler).Get(kh.ExternalCallbackPath).Expect(t).
		Status(http.StatusNotFound).End()

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, kh.LoginPath, nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `action="/login"`)
	assert.NotContains(t, w.Body.String(), kh.ExternalPath)

	apitest.Handler(handler).Get(kh.SignupPath).Expect(t).Status(http.StatusOK).End()
}

func TestSignupRoute(t *testing.T) {
	store := newTestStore(t)
	handler := newTestApp(t, store, nil).Handler()

	apitest.Handler(handler).Post(kh.SignupPath).
		FormData("email", "Kim@Example.com").FormData("password", "pw").
		Expect(t).Status(http.StatusFound).Header("Location", kh.LoginPath).End()

	user, err := store.GetUserByEmail(context.Background(), "kim@example.com")
	require.NoError(t, err)
	assert.True(t, user.HasPassword())

	apitest.Handler(handler).Post(kh.SignupPath).
		FormData("email", "kim@example.com").FormData("password", "other").
		Expect(t).Status(http.StatusFound).Header("Location", kh.SignupPath).End()

	apitest.Handler(handler).Post(kh.SignupPath).
		FormData("email", "lee@example.com").
		Expect(t).Status(http.StatusFound).Header("Location", kh.SignupPath).End()

	apitest.Handler(handler).Post(kh.SignupPath).
		FormData("email", "long@example.com").FormData("password", strings.Repeat("a", 80)).
		Expect(t).Status(http.StatusFound).Header("Location", kh.SignupPath).End()
	_, err = store.GetUserByEmail(context.Background(), "long@example.com")
	assert.ErrorIs(t, err, kh.ErrUserNotFound)

	apitest.Handler(handler).Post(kh.SignupPath).
		JSON(`{"email": "lee@example.com", "password": "pw"}`).
		Expect(t).Status(http.StatusFound).Header("Location", kh.LoginPath).End()
}

func TestLoginRouteFailures(t *testing.T) {
	store := newTestStore(t)
	handler := newTestApp(t, store, nil).Handler()
	apitest.Handler(handler).Post(kh.SignupPath).
		FormData("email", "max@example.com").FormData("password", "right").
		Expect(t).Status(http.StatusFound).End()

	for _, form := range []url.Values{
		{"email": {"max@example.com"}, "password": {"wrong"}},
		{"email": {"nobody@example.com"}, "password": {"right"}},
		{"email": {"max@example.com"}},
	} {
		apitest.Handler(handler).Post(kh.LoginPath).
			FormData("email", form.Get("email")).FormData("password", form.Get("password")).
			Expect(t).Status(http.StatusFound).Header("Location", kh.LoginPath).End()
	}
}

func TestLocalJourney(t *testing.T) {
	server, client := newTestClient(t, newTestApp(t, newTestStore(t), nil).Handler())

	resp, body := postForm(t, client, server.URL+kh.SignupPath, "nina@example.com", "pw")
	assert.Equal(t, kh.LoginPath, resp.Request.URL.Path)
	assert.Contains(t, body, "Log in")

	resp, body = postForm(t, client, server.URL+kh.LoginPath, "nina@example.com", "pw")
	assert.Equal(t, kh.HomePath, resp.Request.URL.Path)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "nina@example.com")

	resp, _ = get(t, client, server.URL+kh.HomePath)
	assert.Equal(t, kh.HomePath, resp.Request.URL.Path, "session survives across requests")

	resp, _ = get(t, client, server.URL+kh.LogoutPath)
	assert.Equal(t, kh.LoginPath, resp.Request.URL.Path)

	resp, _ = get(t, client, server.URL+kh.HomePath)
	assert.Equal(t, kh.LoginPath, resp.Request.URL.Path)
}

func TestLoginRenewsSessionCookie(t *testing.T) {
	app := newTestApp(t, newTestStore(t), nil)
	server, client := newTestClient(t, app.Handler())
	base, _ := url.Parse(server.URL)
	cookieName := app.Sessions.Cookie.Name

	sessionCookie := func() string {
		for _, c := range client.Jar.Cookies(base) {
			if c.Name == cookieName {
				return c.Value
			}
		}
		return ""
	}

	// signup establishes a session before the redirect to /login
	postForm(t, client, server.URL+kh.SignupPath, "omar@example.com", "pw")
	before := sessionCookie()
	require.NotEmpty(t, before)

	postForm(t, client, server.URL+kh.LoginPath, "omar@example.com", "pw")
	after := sessionCookie()
	require.NotEmpty(t, after)
	assert.NotEqual(t, before, after)
}

func TestExternalJourney(t *testing.T) {
	store := newTestStore(t)
	server, client := newTestClient(t, newTestApp(t, store, fakeProvider{}).Handler())

	_, body := get(t, client, server.URL+kh.LoginPath)
	assert.Contains(t, body, "Log in with fake")

	resp, body := get(t, client, server.URL+kh.ExternalPath)
	assert.Equal(t, kh.HomePath, resp.Request.URL.Path)
	assert.Contains(t, body, "zoe@example.com")

	user, err := store.GetUserByExternalID(context.Background(), "fake", "ext-1")
	require.NoError(t, err)
	assert.False(t, user.HasPassword())

	// a second login reuses the provisioned user
	get(t, client, server.URL+kh.LogoutPath)
	get(t, client, server.URL+kh.ExternalPath)
	again, err := store.GetUserByExternalID(context.Background(), "fake", "ext-1")
	require.NoError(t, err)
	assert.Equal(t, user.ID, again.ID)
}

func TestExternalCallbackFailures(t *testing.T) {
	store := newTestStore(t)
	_, err := kh.NewLocalAuth(store, newCountingHasher()).Signup(context.Background(), &kh.Credentials{Email: "pat@example.com", Password: "pw"})
	require.NoError(t, err)
	handler := newTestApp(t, store, fakeProvider{}).Handler()

	apitest.Handler(handler).Get(kh.ExternalCallbackPath).
		Query("error", "access_denied").
		Expect(t).Status(http.StatusFound).Header("Location", kh.LoginPath).End()

	apitest.Handler(handler).Get(kh.ExternalCallbackPath).
		Query("subject", "ext-2").Query("email", "pat@example.com").
		Expect(t).Status(http.StatusFound).Header("Location", kh.LoginPath).End()

	_, err = store.GetUserByExternalID(context.Background(), "fake", "ext-2")
	assert.ErrorIs(t, err, kh.ErrUserNotFound)
}

func TestStorageFailureRedirectsToLogin(t *testing.T) {
	broken := &faultyStore{
		UserStore: newTestStore(t),
		byEmail: func(ctx context.Context, email string) (*kh.User, error) {
			return nil, errDiskOnFire
		},
	}
	handler := newTestApp(t, broken, nil).Handler()

	apitest.Handler(handler).Post(kh.SignupPath).
		FormData("email", "quinn@example.com").FormData("password", "pw").
		Expect(t).Status(http.StatusFound).Header("Location", kh.LoginPath).End()
}

func TestMiddlewareExtractUser(t *testing.T) {
	store := newTestStore(t)
	app := newTestApp(t, store, nil)

	var seen *kh.SessionContext
	protected := app.Sessions.LoadAndSave(app.Middleware.ExtractUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = kh.SessionFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})))

	apitest.Handler(protected).Get("/anything").Expect(t).Status(http.StatusNoContent).End()
	require.NotNil(t, seen)
	assert.False(t, seen.Authenticated())
}
