package auth

import (
	"errors"
	"fmt"
)

// ErrorKind classifies why a token was rejected.
type ErrorKind string

const (
	KindMissing      ErrorKind = "missing"
	KindMalformed    ErrorKind = "malformed"
	KindBadSignature ErrorKind = "bad_signature"
	KindExpired      ErrorKind = "expired"
	KindDeactivated  ErrorKind = "deactivated"
)

// AuthError is the typed failure returned by token decoding and verification.
type AuthError struct {
	Kind ErrorKind
	Err  error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("token %s: %v", e.Kind, e.Err)
	}
	return "token " + string(e.Kind)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// Is matches on kind so errors.Is(err, ErrExpired) works for wrapped causes.
func (e *AuthError) Is(target error) bool {
	t, ok := target.(*AuthError)
	return ok && t.Kind == e.Kind
}

var (
	ErrMissing      = &AuthError{Kind: KindMissing}
	ErrMalformed    = &AuthError{Kind: KindMalformed}
	ErrBadSignature = &AuthError{Kind: KindBadSignature}
	ErrExpired      = &AuthError{Kind: KindExpired}
	ErrDeactivated  = &AuthError{Kind: KindDeactivated}
)

func newAuthError(kind ErrorKind, err error) *AuthError {
	return &AuthError{Kind: kind, Err: err}
}

// KindOf extracts the failure kind, or "" for non-auth errors.
func KindOf(err error) ErrorKind {
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return authErr.Kind
	}
	return ""
}

// Login and issuance errors. The first three stay internal; callers collapse
// them into ErrInvalidCredentials before anything reaches a client.
var (
	ErrIdentityNotFound   = errors.New("identity not found")
	ErrSecretMismatch     = errors.New("secret mismatch")
	ErrRoleMismatch       = errors.New("role mismatch")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInactiveIdentity   = errors.New("identity is deactivated")
	ErrIssuanceFailure    = errors.New("issuance backend unavailable")
)
