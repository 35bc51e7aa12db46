package host

import (
	"context"

	"github.com/krues8dr/originallyappeared/pkg/originallyappeared/nonce"
)

// NonceTokens issues integrity tokens bound to the acting author
type NonceTokens struct {
	signer *nonce.Signer
}

// NewNonceTokens wraps signer as a token service
func NewNonceTokens(signer *nonce.Signer) *NonceTokens {
	return &NonceTokens{signer: signer}
}

// Issue implements originallyappeared.TokenService
func (t *NonceTokens) Issue(ctx context.Context, action string) (string, error) {
	return t.signer.Issue(action, IdentityFromContext(ctx).Subject)
}

// Verify implements originallyappeared.TokenService
func (t *NonceTokens) Verify(ctx context.Context, token, action string) bool {
	return t.signer.Verify(token, action, IdentityFromContext(ctx).Subject) == nil
}
