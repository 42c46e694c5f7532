package auth

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/thejerf/abtime"

	"github.com/spec-kit/recipe-archive/internal/domain"
)

// DefaultTokenTTL is used when a non-positive TTL is configured.
const DefaultTokenTTL = 10 * time.Hour

// ErrInvalidToken covers every reason a token is rejected: bad encoding, wrong
// algorithm, signature mismatch, expiry. Callers cannot tell them apart.
var ErrInvalidToken = errors.New("invalid token")

// TokenManager handles issuing and validating JWT tokens. It is immutable after
// construction and safe for concurrent use.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	clock  abtime.AbstractTime
	parser *jwt.Parser
}

// NewTokenManager builds a new manager. A nil clock means wall-clock time.
func NewTokenManager(secret string, ttl time.Duration, clock abtime.AbstractTime) *TokenManager {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	if clock == nil {
		clock = abtime.NewRealTime()
	}
	return &TokenManager{
		secret: []byte(secret),
		ttl:    ttl,
		clock:  clock,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithExpirationRequired(),
			jwt.WithStrictDecoding(),
			jwt.WithTimeFunc(clock.Now),
		),
	}
}

// TTL reports the lifetime given to issued tokens.
func (tm *TokenManager) TTL() time.Duration {
	return tm.ttl
}

// Issue signs a token for subject valid from now until now+TTL. The returned
// identity is exactly what Parse yields for the token.
func (tm *TokenManager) Issue(subject string) (string, domain.Identity, error) {
	// NumericDate has second precision; truncate so the round trip is exact.
	now := tm.clock.Now().UTC().Truncate(time.Second)
	identity := domain.Identity{
		Subject:   subject,
		IssuedAt:  now,
		ExpiresAt: now.Add(tm.ttl),
	}

	claims := jwt.RegisteredClaims{
		Subject:   identity.Subject,
		IssuedAt:  jwt.NewNumericDate(identity.IssuedAt),
		ExpiresAt: jwt.NewNumericDate(identity.ExpiresAt),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(tm.secret)
	if err != nil {
		return "", domain.Identity{}, err
	}
	return token, identity, nil
}

// Parse verifies the token signature and validity window and returns the
// embedded identity. Any failure yields ErrInvalidToken.
func (tm *TokenManager) Parse(tokenStr string) (domain.Identity, error) {
	claims := &jwt.RegisteredClaims{}
	parsed, err := tm.parser.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (interface{}, error) {
		return tm.secret, nil
	})
	if err != nil || !parsed.Valid {
		return domain.Identity{}, ErrInvalidToken
	}
	if claims.Subject == "" || claims.IssuedAt == nil {
		return domain.Identity{}, ErrInvalidToken
	}

	return domain.Identity{
		Subject:   claims.Subject,
		IssuedAt:  claims.IssuedAt.Time.UTC(),
		ExpiresAt: claims.ExpiresAt.Time.UTC(),
	}, nil
}
