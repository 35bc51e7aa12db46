package nonce

import "errors"

// Token validation errors
var (
	// ErrNoSecretKey is returned when attempting to issue tokens without a configured secret key
	ErrNoSecretKey = errors.New("nonce: no secret key configured")

	// ErrMissingToken is returned when the token is empty
	ErrMissingToken = errors.New("nonce: missing token")

	// ErrMalformedToken is returned when the token cannot be parsed
	ErrMalformedToken = errors.New("nonce: malformed token")

	// ErrExpired is returned when the token lifetime has passed
	ErrExpired = errors.New("nonce: token has expired")

	// ErrInvalidSignature is returned when the signature does not match
	ErrInvalidSignature = errors.New("nonce: invalid signature")
)

// IsAuthError returns true if the error is a token validation error
func IsAuthError(err error) bool {
	return errors.Is(err, ErrMissingToken) ||
		errors.Is(err, ErrMalformedToken) ||
		errors.Is(err, ErrExpired) ||
		errors.Is(err, ErrInvalidSignature)
}
