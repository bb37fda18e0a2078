package identity

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/example/phrasebot/pkg/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Resolver determines which owner a request acts for
type Resolver interface {
	ResolveOwnerID(r *http.Request) (uuid.UUID, error)
}

// Claims carried by access tokens
type Claims struct {
	UserAccountID string `json:"user_account_id,omitempty"`
	jwt.RegisteredClaims
}

// JWTResolver reads the owner from an HS256 bearer token
type JWTResolver struct {
	key []byte
}

// NewJWTResolver creates a resolver that verifies tokens with secret
func NewJWTResolver(secret string) *JWTResolver {
	return &JWTResolver{key: []byte(secret)}
}

// ResolveOwnerID implements Resolver. Every failure is reported as
// ErrIdentityUnavailable.
func (j *JWTResolver) ResolveOwnerID(r *http.Request) (uuid.UUID, error) {
	if len(j.key) == 0 {
		return uuid.Nil, fmt.Errorf("%w: no signing key configured", models.ErrIdentityUnavailable)
	}

	header := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return uuid.Nil, fmt.Errorf("%w: missing bearer token", models.ErrIdentityUnavailable)
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(strings.TrimSpace(token), claims, func(t *jwt.Token) (interface{}, error) {
		return j.key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %v", models.ErrIdentityUnavailable, err)
	}
	if !parsed.Valid {
		return uuid.Nil, fmt.Errorf("%w: invalid token", models.ErrIdentityUnavailable)
	}

	subject := claims.UserAccountID
	if subject == "" {
		subject = claims.Subject
	}
	owner, err := uuid.Parse(subject)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: token does not name a user account", models.ErrIdentityUnavailable)
	}
	return owner, nil
}

// IssueToken signs a token for owner. Used by tooling and tests.
func (j *JWTResolver) IssueToken(owner uuid.UUID, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserAccountID: owner.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   owner.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.key)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}
