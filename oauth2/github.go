package oauth2

import (
	"golang.org/x/oauth2/github"

	kh "github.com/panyam/keyhole"
)

type GithubOAuth2 struct {
	*BaseOAuth2
}

func NewGithubOAuth2(clientId, clientSecret, callbackUrl string, scopes []string, secretKey string) *GithubOAuth2 {
	if len(scopes) == 0 {
		scopes = []string{"read:user", "user:email"}
	}
	out := &GithubOAuth2{
		BaseOAuth2: NewBaseOAuth2(kh.ProviderGithub, clientId, clientSecret, callbackUrl, scopes, github.Endpoint, secretKey),
	}
	out.UserInfoURL = "https://api.github.com/user"
	out.toProfile = func(info map[string]any) kh.Profile {
		// github numeric ids decode as float64; login is the fallback display name
		name := stringField(info, "name")
		if name == "" {
			name = stringField(info, "login")
		}
		return kh.Profile{
			Subject: stringField(info, "id"),
			Email:   stringField(info, "email"),
			Name:    name,
			Raw:     info,
		}
	}
	return out
}
