// Package nonce issues and verifies time-bound HMAC integrity tokens for forms.
//
// A token is bound to an action name and a subject (the acting user):
//
//	token, _ := signer.Issue("originallyappeared_meta_box", userID)
//	err := signer.Verify(token, "originallyappeared_meta_box", userID)
//
// Tokens have the form "<expires>.<hex hmac-sha256>".
package nonce

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Signer generates and validates integrity tokens
type Signer struct {
	secretKey []byte
	lifetime  time.Duration
	now       func() time.Time
}

// New creates a new Signer with the given options
func New(opts ...Option) *Signer {
	s := &Signer{
		lifetime: 24 * time.Hour,
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Issue returns a token for action and subject that expires after the configured lifetime.
func (s *Signer) Issue(action, subject string) (string, error) {
	if len(s.secretKey) == 0 {
		return "", ErrNoSecretKey
	}

	expiresAt := s.now().Add(s.lifetime).Unix()
	signature := s.generateSignature(s.createPayload(action, subject, expiresAt))

	return fmt.Sprintf("%d.%s", expiresAt, signature), nil
}

// Verify checks that token was issued for action and subject and has not expired.
func (s *Signer) Verify(token, action, subject string) error {
	if len(s.secretKey) == 0 {
		return ErrNoSecretKey
	}
	if token == "" {
		return ErrMissingToken
	}

	expiresStr, signature, ok := strings.Cut(token, ".")
	if !ok || signature == "" {
		return ErrMalformedToken
	}
	expiresAt, err := strconv.ParseInt(expiresStr, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}

	if s.now().Unix() > expiresAt {
		return ErrExpired
	}

	expected := s.generateSignature(s.createPayload(action, subject, expiresAt))

	// Constant-time comparison
	if !hmac.Equal([]byte(signature), []byte(expected)) {
		return ErrInvalidSignature
	}

	return nil
}

// IsEnabled returns true if a secret key is configured
func (s *Signer) IsEnabled() bool {
	return len(s.secretKey) > 0
}

// createPayload formats ACTION|SUBJECT|EXPIRES
func (s *Signer) createPayload(action, subject string, expiresAt int64) string {
	return fmt.Sprintf("%s|%s|%d", action, subject, expiresAt)
}

func (s *Signer) generateSignature(payload string) string {
	h := hmac.New(sha256.New, s.secretKey)
	h.Write([]byte(payload))
	return hex.EncodeToString(h.Sum(nil))
}
