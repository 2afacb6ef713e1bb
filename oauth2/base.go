package oauth2

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/oauth2"

	kh "github.com/panyam/keyhole"
	"github.com/panyam/keyhole/internal/logutil"
)

// profileFunc maps a provider's user info response onto a profile
type profileFunc func(info map[string]any) kh.Profile

// BaseOAuth2 runs the authorization code flow. Providers embed it and supply
// their endpoint, default scopes, user info URL and profile mapping.
type BaseOAuth2 struct {
	ClientId     string
	ClientSecret string
	CallbackURL  string

	// UserInfoURL is fetched with the access token after the code exchange.
	// Can be overridden for testing.
	UserInfoURL string

	// HTTPClient is used for the token exchange and the user info request.
	// Defaults to http.DefaultClient.
	HTTPClient *http.Client

	State *StateSigner

	// SecureCookie marks the state cookie Secure even when the request
	// reached us over plain HTTP, eg behind a TLS terminating proxy.
	SecureCookie bool

	name        string
	toProfile   profileFunc
	oauthConfig oauth2.Config
}

func NewBaseOAuth2(name, clientId, clientSecret, callbackUrl string, scopes []string, endpoint oauth2.Endpoint, secretKey string) *BaseOAuth2 {
	return &BaseOAuth2{
		ClientId:     clientId,
		ClientSecret: clientSecret,
		CallbackURL:  callbackUrl,
		State:        NewStateSigner(secretKey, name),
		name:         name,
		oauthConfig: oauth2.Config{
			ClientID:     clientId,
			ClientSecret: clientSecret,
			RedirectURL:  callbackUrl,
			Scopes:       scopes,
			Endpoint:     endpoint,
		},
	}
}

func (b *BaseOAuth2) Name() string { return b.name }

// SetEndpoint points the flow at different authorization and token URLs
func (b *BaseOAuth2) SetEndpoint(endpoint oauth2.Endpoint) {
	b.oauthConfig.Endpoint = endpoint
}

// Scopes requested from the provider
func (b *BaseOAuth2) Scopes() []string {
	return b.oauthConfig.Scopes
}

// InitiateAuth redirects to the provider's authorization endpoint. The state
// parameter is a signed token bound to a nonce in the oauthstate cookie.
func (b *BaseOAuth2) InitiateAuth(w http.ResponseWriter, r *http.Request) {
	nonce, err := newNonce()
	if err != nil {
		b.fail(w, r, "generating oauth state", err, nil)
		return
	}
	state, err := b.State.Issue(nonce)
	if err != nil {
		b.fail(w, r, "signing oauth state", err, nil)
		return
	}
	setStateCookie(w, nonce, b.State.TTL, b.SecureCookie || r.TLS != nil)
	http.Redirect(w, r, b.oauthConfig.AuthCodeURL(state), http.StatusFound)
}

// HandleCallback validates the provider's redirect, exchanges the code for a
// token and fetches the profile. Every failure is reported to done as
// kh.ErrProviderAuthFailed.
func (b *BaseOAuth2) HandleCallback(w http.ResponseWriter, r *http.Request, done kh.CallbackFunc) {
	ctx := r.Context()
	cookie, _ := r.Cookie(StateCookieName)
	clearStateCookie(w)

	if e := r.FormValue("error"); e != "" {
		b.fail(w, r, "authorization denied", fmt.Errorf("%s: %s", e, r.FormValue("error_description")), done)
		return
	}
	if cookie == nil || cookie.Value == "" {
		b.fail(w, r, "missing oauth state cookie", nil, done)
		return
	}
	if err := b.State.Verify(r.FormValue("state"), cookie.Value); err != nil {
		b.fail(w, r, "invalid oauth state", err, done)
		return
	}

	token, err := b.oauthConfig.Exchange(b.ExchangeContext(ctx), r.FormValue("code"))
	if err != nil {
		b.fail(w, r, "code exchange failed", err, done)
		return
	}
	profile, err := b.FetchProfile(ctx, token)
	if err != nil {
		b.fail(w, r, "fetching user info failed", err, done)
		return
	}
	done(w, r, token, profile, nil)
}

// FetchProfile reads the user info for token and maps it to a profile
func (b *BaseOAuth2) FetchProfile(ctx context.Context, token *oauth2.Token) (kh.Profile, error) {
	info, err := b.getUserData(ctx, token)
	if err != nil {
		return kh.Profile{}, err
	}
	profile := b.toProfile(info)
	if profile.Subject == "" {
		return kh.Profile{}, fmt.Errorf("%s user info has no id", b.name)
	}
	return profile, nil
}

// ExchangeContext carries the injectable HTTP client into the oauth2 library
func (b *BaseOAuth2) ExchangeContext(ctx context.Context) context.Context {
	if b.HTTPClient == nil {
		return ctx
	}
	return context.WithValue(ctx, oauth2.HTTPClient, b.HTTPClient)
}

func (b *BaseOAuth2) getUserData(ctx context.Context, token *oauth2.Token) (map[string]any, error) {
	log := logutil.GetOrDefault(ctx)
	log.Debug().Str("provider", b.name).Msg("getting user data")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.UserInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	client := b.oauthConfig.Client(b.ExchangeContext(ctx), token)
	response, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed getting user info from %s: %w", b.name, err)
	}
	defer response.Body.Close()

	contents, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, fmt.Errorf("failed read response: %w", err)
	}
	if response.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("user info request returned %d: %s", response.StatusCode, contents)
	}

	var userInfo map[string]any
	if err := json.Unmarshal(contents, &userInfo); err != nil {
		return nil, fmt.Errorf("failed to parse user info: %w", err)
	}
	return userInfo, nil
}

func (b *BaseOAuth2) fail(w http.ResponseWriter, r *http.Request, op string, err error, done kh.CallbackFunc) {
	authErr := kh.ProviderError(op, err)
	if done == nil {
		log := logutil.GetOrDefault(r.Context())
		log.Error().Err(authErr).Str("provider", b.name).Msg("cannot start authorization")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	done(w, r, nil, kh.Profile{}, authErr)
}
