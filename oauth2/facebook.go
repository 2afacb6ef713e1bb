package oauth2

import (
	"golang.org/x/oauth2/facebook"

	kh "github.com/panyam/keyhole"
)

type FacebookOAuth2 struct {
	*BaseOAuth2
}

func NewFacebookOAuth2(clientId, clientSecret, callbackUrl string, scopes []string, secretKey string) *FacebookOAuth2 {
	if len(scopes) == 0 {
		scopes = []string{"email", "public_profile"}
	}
	out := &FacebookOAuth2{
		BaseOAuth2: NewBaseOAuth2(kh.ProviderFacebook, clientId, clientSecret, callbackUrl, scopes, facebook.Endpoint, secretKey),
	}
	out.UserInfoURL = "https://graph.facebook.com/me?fields=id,email,name"
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
