package token

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// stateClaims are the JWT claims for an OAuth state parameter. The state
// is the CSRF binding between the redirect we issued and the callback the
// browser comes back with; no session semantics attach to it.
type stateClaims struct {
	jwt.RegisteredClaims
	Provider string `json:"provider"`
	Type     string `json:"type"` // always "oauth-state"
}

// StateIssuer issues and verifies short-lived OAuth state JWTs signed with
// an HMAC secret from configuration.
type StateIssuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

// NewStateIssuer creates a StateIssuer.
//
//	issuerURL — the "iss" claim value; matches the service's base URL.
//	ttl       — state lifetime (default: 10 minutes).
func NewStateIssuer(secret []byte, issuerURL string, ttl time.Duration) *StateIssuer {
	if ttl == 0 {
		ttl = 10 * time.Minute
	}
	return &StateIssuer{secret: secret, issuer: issuerURL, ttl: ttl}
}

// Issue creates a signed state token carrying the provider name, so the
// callback can check it came back from the flow we started.
func (s *StateIssuer) Issue(provider string) (string, error) {
	now := time.Now().UTC()
	claims := stateClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   "oauth-state",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			ID:        uuid.New().String(),
		},
		Provider: provider,
		Type:     "oauth-state",
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign oauth state: %w", err)
	}
	return signed, nil
}

// Verify validates a state token and returns the embedded provider name.
func (s *StateIssuer) Verify(tokenStr string) (provider string, err error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&stateClaims{},
		func(tok *jwt.Token) (any, error) {
			if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", tok.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return "", fmt.Errorf("invalid oauth state: %w", err)
	}
	claims, ok := token.Claims.(*stateClaims)
	if !ok || claims.Type != "oauth-state" {
		return "", fmt.Errorf("not an oauth state token")
	}
	return claims.Provider, nil
}
