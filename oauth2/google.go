package oauth2

import (
	"golang.org/x/oauth2/google"

	kh "github.com/panyam/keyhole"
)

type GoogleOAuth2 struct {
	*BaseOAuth2
}

func NewGoogleOAuth2(clientId, clientSecret, callbackUrl string, scopes []string, secretKey string) *GoogleOAuth2 {
	if len(scopes) == 0 {
		scopes = []string{
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
		}
	}
	out := &GoogleOAuth2{
		BaseOAuth2: NewBaseOAuth2(kh.ProviderGoogle, clientId, clientSecret, callbackUrl, scopes, google.Endpoint, secretKey),
	}
	out.UserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"
	out.toProfile = func(info map[string]any) kh.Profile {
		return kh.Profile{
			Subject: stringField(info, "id"),
			Email:   stringField(info, "email"),
			Name:    stringField(info, "name"),
			Raw:     info,
		}
	}
	return out
}
