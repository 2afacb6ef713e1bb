package oauth2

import (
	"fmt"

	kh "github.com/panyam/keyhole"
)

// NewProvider builds the identity provider named by cfg.Provider, or returns
// nil when external login is not configured.
func NewProvider(cfg kh.Config) (kh.IdentityProvider, error) {
	if !cfg.ExternalLoginEnabled() {
		return nil, nil
	}
	callbackURL := cfg.ProviderCallbackURL()
	var base *BaseOAuth2
	var provider kh.IdentityProvider
	switch cfg.Provider {
	case kh.ProviderFacebook:
		p := NewFacebookOAuth2(cfg.ClientID, cfg.ClientSecret, callbackURL, cfg.Scopes, cfg.SecretKey)
		base, provider = p.BaseOAuth2, p
	case kh.ProviderGoogle:
		p := NewGoogleOAuth2(cfg.ClientID, cfg.ClientSecret, callbackURL, cfg.Scopes, cfg.SecretKey)
		base, provider = p.BaseOAuth2, p
	case kh.ProviderGithub:
		p := NewGithubOAuth2(cfg.ClientID, cfg.ClientSecret, callbackURL, cfg.Scopes, cfg.SecretKey)
		base, provider = p.BaseOAuth2, p
	default:
		return nil, fmt.Errorf("unknown identity provider: %q", cfg.Provider)
	}
	base.SecureCookie = cfg.SecureCookies
	return provider, nil
}
