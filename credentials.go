package keyhole

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// Credentials are the email/password pair submitted to signup and login
type Credentials struct {
	Email    string
	Password string
}

// Form field names for the local strategies
const (
	EmailField    = "email"
	PasswordField = "password"
)

// MaxPasswordBytes is the longest password bcrypt accepts
const MaxPasswordBytes = 72

// Validate checks the input constraints shared by signup and login.
func (c *Credentials) Validate() *AuthError {
	if c.Email == "" {
		return NewAuthError(ErrCodeMissingField, "Email is required", EmailField)
	}
	if c.Password == "" {
		return NewAuthError(ErrCodeMissingField, "Password is required", PasswordField)
	}
	if len(c.Password) > MaxPasswordBytes {
		return NewAuthError(ErrCodeInvalidPassword, fmt.Sprintf("Password must be at most %d bytes", MaxPasswordBytes), PasswordField)
	}
	return nil
}

// ParseCredentials reads credentials from an urlencoded/multipart form or a JSON body.
func ParseCredentials(r *http.Request) (*Credentials, error) {
	contentType := r.Header.Get("Content-Type")
	creds := &Credentials{}

	if strings.HasPrefix(contentType, "application/json") {
		var data map[string]any
		if err := json.NewDecoder(r.Body).Decode(&data); err != nil || data == nil {
			return nil, fmt.Errorf("invalid post body")
		}
		creds.Email, _ = data[EmailField].(string)
		creds.Password, _ = data[PasswordField].(string)
	} else {
		if err := r.ParseForm(); err != nil {
			return nil, fmt.Errorf("error parsing form")
		}
		creds.Email = r.FormValue(EmailField)
		creds.Password = r.FormValue(PasswordField)
	}

	creds.Email = NormalizeEmail(creds.Email)
	return creds, nil
}
