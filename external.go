package keyhole

import (
	"context"
	"errors"
	"net/http"

	"golang.org/x/oauth2"

	"github.com/panyam/keyhole/internal/logutil"
)

// Profile is the part of a provider's user info we keep.
type Profile struct {
	Subject string         // provider assigned id
	Email   string         // optional
	Name    string         // optional
	Raw     map[string]any // the decoded response, as returned by the provider
}

// CallbackFunc receives the outcome of a provider callback. On failure err is
// non-nil and token/profile are zero.
type CallbackFunc func(w http.ResponseWriter, r *http.Request, token *oauth2.Token, profile Profile, err error)

// IdentityProvider runs the OAuth2 authorization code flow against a third party.
type IdentityProvider interface {
	// Name is the provider name stored with provisioned users, eg "facebook"
	Name() string

	// InitiateAuth redirects the client to the provider's authorization endpoint
	InitiateAuth(w http.ResponseWriter, r *http.Request)

	// HandleCallback validates the redirect back from the provider, exchanges
	// the code and fetches the profile, then reports to done.
	HandleCallback(w http.ResponseWriter, r *http.Request, done CallbackFunc)
}

// ExternalAuth resolves provider profiles to users, provisioning on first login.
type ExternalAuth struct {
	Users    UserStore
	Provider string
}

func NewExternalAuth(users UserStore, provider string) *ExternalAuth {
	return &ExternalAuth{Users: users, Provider: provider}
}

// HandleCallback returns the user linked to the profile's subject id, creating
// it if needed. Calling it twice with the same profile yields the same user.
func (a *ExternalAuth) HandleCallback(ctx context.Context, token *oauth2.Token, profile Profile) (*User, error) {
	if profile.Subject == "" {
		return nil, ProviderError("profile has no subject id", nil)
	}
	log := logutil.GetOrDefault(ctx).With().
		Str("provider", a.Provider).
		Str("external_id", profile.Subject).
		Logger()

	user, err := a.Users.GetUserByExternalID(ctx, a.Provider, profile.Subject)
	if err == nil {
		return user, nil
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, StorageError("looking up user by external id", err)
	}

	user = &User{
		Email:      NormalizeEmail(profile.Email),
		Provider:   a.Provider,
		ExternalID: profile.Subject,
	}
	if err := a.Users.CreateUser(ctx, user); err != nil {
		if !errors.Is(err, ErrUniqueViolation) {
			return nil, StorageError("creating external user", err)
		}
		// Either a concurrent callback provisioned the same profile first, or
		// the email belongs to another account.
		existing, lookupErr := a.Users.GetUserByExternalID(ctx, a.Provider, profile.Subject)
		if lookupErr == nil {
			return existing, nil
		} else if !errors.Is(lookupErr, ErrUserNotFound) {
			return nil, StorageError("looking up user by external id", lookupErr)
		}
		log.Info().Str("email", user.Email).Msg("email already owned by another account")
		return nil, ErrDuplicateAccount
	}

	log.Info().Uint("user_id", user.ID).Msg("provisioned external user")
	return user, nil
}
