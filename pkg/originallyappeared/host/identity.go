package host

import (
	"context"
	"strings"
	"time"

	"github.com/go-chi/jwtauth"
	"github.com/google/uuid"
)

// Identity is the author acting on a request
type Identity struct {
	Subject      string
	Capabilities []string
}

// Anonymous is the identity of requests without a verified token
var Anonymous = Identity{}

// Can reports whether the identity holds capability, either globally or
// scoped to recordID as "capability:<id>".
func (id Identity) Can(capability string, recordID uuid.UUID) bool {
	scoped := capability + ":" + recordID.String()
	for _, c := range id.Capabilities {
		if c == capability || c == scoped {
			return true
		}
	}
	return false
}

// IdentityFromContext reads the identity from the JWT verified by
// jwtauth.Verifier. Requests without a valid token are Anonymous.
func IdentityFromContext(ctx context.Context) Identity {
	token, claims, err := jwtauth.FromContext(ctx)
	if err != nil || token == nil {
		return Anonymous
	}

	id := Identity{}
	if sub, ok := claims["sub"].(string); ok {
		id.Subject = sub
	}
	id.Capabilities = capabilities(claims["caps"])
	return id
}

func capabilities(v interface{}) []string {
	switch caps := v.(type) {
	case []string:
		return caps
	case []interface{}:
		out := make([]string, 0, len(caps))
		for _, c := range caps {
			if s, ok := c.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		return strings.Fields(caps)
	}
	return nil
}

// ClaimsAuthorizer answers capability checks from the request's JWT claims
type ClaimsAuthorizer struct{}

// Can implements originallyappeared.Authorizer
func (ClaimsAuthorizer) Can(ctx context.Context, capability string, recordID uuid.UUID) bool {
	return IdentityFromContext(ctx).Can(capability, recordID)
}

// IssueToken mints a signed author token carrying subject and caps.
func IssueToken(ja *jwtauth.JWTAuth, subject string, caps []string, ttl time.Duration) (string, error) {
	claims := map[string]interface{}{
		"sub":  subject,
		"caps": caps,
	}
	jwtauth.SetIssuedNow(claims)
	jwtauth.SetExpiry(claims, time.Now().Add(ttl))
	_, tokenString, err := ja.Encode(claims)
	return tokenString, err
}
