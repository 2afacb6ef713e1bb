package oauth2

import (
	"crypto/subtle"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultStateTTL bounds how long a user may take at the provider
const DefaultStateTTL = 10 * time.Minute

// StateSigner issues and verifies the OAuth2 state parameter as an HS256 JWT
// carrying a nonce. The same nonce lives in the client's state cookie, so a
// state minted for one browser is useless in another.
type StateSigner struct {
	Key    []byte
	Issuer string
	TTL    time.Duration
}

func NewStateSigner(secretKey, issuer string) *StateSigner {
	return &StateSigner{Key: []byte(secretKey), Issuer: issuer + "-state", TTL: DefaultStateTTL}
}

func (s *StateSigner) Issue(nonce string) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"nonce": nonce,
		"iss":   s.Issuer,
		"iat":   now.Unix(),
		"exp":   now.Add(s.TTL).Unix(),
	})
	return token.SignedString(s.Key)
}

func (s *StateSigner) Verify(state, nonce string) error {
	if state == "" {
		return errors.New("state is empty")
	}
	token, err := jwt.Parse(state, func(token *jwt.Token) (any, error) {
		return s.Key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.Issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || claims == nil {
		return errors.New("claims is not a map")
	}
	claimed, _ := claims["nonce"].(string)
	if claimed == "" || subtle.ConstantTimeCompare([]byte(claimed), []byte(nonce)) != 1 {
		return errors.New("state does not match cookie")
	}
	return nil
}
