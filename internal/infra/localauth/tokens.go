// Package localauth implements domain.IdentityService for self-hosted
// backends: bcrypt password hashes, HS256 access tokens and rotating
// refresh tokens, over a pluggable user store.
package localauth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/Phoethar22452/supabase-task-tracker/internal/domain"
)

// Token lifetimes.
const (
	AccessTokenTTL  = time.Hour
	RefreshTokenTTL = 30 * 24 * time.Hour
)

// ErrInvalidToken is returned when an access token fails verification.
var ErrInvalidToken = errors.New("invalid access token")

// Issuer signs and verifies access tokens.
type Issuer struct {
	clock  domain.Clock
	secret []byte
}

// NewIssuer creates an Issuer for the HS256 secret.
func NewIssuer(secret string, clock domain.Clock) *Issuer {
	return &Issuer{secret: []byte(secret), clock: clock}
}

type claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Issue creates a session for user with a fresh refresh token.
func (i *Issuer) Issue(user domain.User) (*domain.Session, error) {
	now := i.clock.Now()
	exp := now.Add(AccessTokenTTL)
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Email: user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
			ID:        uuid.NewString(),
		},
	})
	signed, err := tok.SignedString(i.secret)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}
	return &domain.Session{
		AccessToken:  signed,
		RefreshToken: uuid.NewString(),
		ExpiresAt:    time.Unix(exp.Unix(), 0),
		User:         user,
	}, nil
}

// Verify checks the signature and returns the token's user.
// Expiry is not checked here; callers compare the session's ExpiresAt.
func (i *Issuer) Verify(token string) (domain.User, error) {
	var c claims
	_, err := jwt.ParseWithClaims(token, &c, func(t *jwt.Token) (any, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return domain.User{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return domain.User{ID: c.Subject, Email: c.Email}, nil
}
