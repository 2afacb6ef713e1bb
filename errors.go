package keyhole

import (
	"errors"
	"fmt"
)

// Error codes of the authentication failure taxonomy
const (
	ErrCodeDuplicateAccount   = "duplicate_account"
	ErrCodeNoSuchAccount      = "no_such_account"
	ErrCodeBadCredentials     = "bad_credentials"
	ErrCodeMissingField       = "missing_field"
	ErrCodeInvalidPassword    = "invalid_password"
	ErrCodeProviderAuthFailed = "provider_auth_failed"
	ErrCodeStorage            = "storage_error"
)

// AuthError is a failure produced by an authenticator or the session manager.
// Two AuthErrors match under errors.Is when their codes are equal.
type AuthError struct {
	Code    string
	Message string
	Field   string // form field the failure relates to, if any
	Err     error  // underlying cause, never shown to clients
}

func NewAuthError(code, message, field string) *AuthError {
	return &AuthError{Code: code, Message: message, Field: field}
}

// Sentinels for errors.Is checks
var (
	ErrDuplicateAccount   = NewAuthError(ErrCodeDuplicateAccount, "account already exists", "email")
	ErrNoSuchAccount      = NewAuthError(ErrCodeNoSuchAccount, "no such account", "email")
	ErrBadCredentials     = NewAuthError(ErrCodeBadCredentials, "invalid credentials", "password")
	ErrMissingField       = NewAuthError(ErrCodeMissingField, "required field missing", "")
	ErrInvalidPassword    = NewAuthError(ErrCodeInvalidPassword, "password is not acceptable", "password")
	ErrProviderAuthFailed = NewAuthError(ErrCodeProviderAuthFailed, "identity provider rejected the authorization", "")
	ErrStorage            = NewAuthError(ErrCodeStorage, "storage error", "")
)

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AuthError) Unwrap() error { return e.Err }

func (e *AuthError) Is(target error) bool {
	t, ok := target.(*AuthError)
	return ok && t.Code == e.Code
}

// Wrap returns a copy of e carrying cause.
func (e *AuthError) Wrap(cause error) *AuthError {
	out := *e
	out.Err = cause
	return &out
}

// StorageError wraps a credential or session store failure.
func StorageError(op string, err error) *AuthError {
	return NewAuthError(ErrCodeStorage, op, "").Wrap(err)
}

// ProviderError wraps a failure of the external identity provider.
func ProviderError(op string, err error) *AuthError {
	return NewAuthError(ErrCodeProviderAuthFailed, op, "").Wrap(err)
}

// IsRecoverable reports whether err is an authentication failure that the
// route layer answers with its failure redirect instead of the error handler.
func IsRecoverable(err error) bool {
	var ae *AuthError
	if !errors.As(err, &ae) {
		return false
	}
	switch ae.Code {
	case ErrCodeDuplicateAccount, ErrCodeNoSuchAccount, ErrCodeBadCredentials, ErrCodeMissingField, ErrCodeInvalidPassword:
		return true
	}
	return false
}
