package nonce

import "time"

// Option is a functional option for configuring a Signer
type Option func(*Signer)

// WithSecretKey sets the secret key used for HMAC signing.
// The key should be at least 32 bytes.
func WithSecretKey(key string) Option {
	return func(s *Signer) {
		s.secretKey = []byte(key)
	}
}

// WithLifetime sets how long an issued token stays valid. Default is 24 hours.
func WithLifetime(d time.Duration) Option {
	return func(s *Signer) {
		if d > 0 {
			s.lifetime = d
		}
	}
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Signer) {
		s.now = now
	}
}
