package identity

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims are the fields of an ID token a client typically needs.
// They are decoded WITHOUT signature verification; servers must verify
// tokens with the Admin SDK before trusting them.
type TokenClaims struct {
	UserID         string
	Email          string
	EmailVerified  bool
	SignInProvider string
	IssuedAt       time.Time
	ExpiresAt      time.Time
}

type idTokenClaims struct {
	jwt.RegisteredClaims
	Email         string `json:"email,omitempty"`
	EmailVerified bool   `json:"email_verified,omitempty"`
	UserID        string `json:"user_id,omitempty"`
	Firebase      struct {
		SignInProvider string `json:"sign_in_provider,omitempty"`
	} `json:"firebase"`
}

// Claims decodes the credential's ID token.
func (c *Credential) Claims() (*TokenClaims, error) {
	if c.IDToken == "" {
		return nil, errors.New("credential has no ID token")
	}

	var claims idTokenClaims
	if _, _, err := jwt.NewParser().ParseUnverified(c.IDToken, &claims); err != nil {
		return nil, fmt.Errorf("failed to parse ID token: %w", err)
	}

	tc := &TokenClaims{
		UserID:         claims.UserID,
		Email:          claims.Email,
		EmailVerified:  claims.EmailVerified,
		SignInProvider: claims.Firebase.SignInProvider,
	}
	if tc.UserID == "" {
		tc.UserID = claims.Subject
	}
	if claims.IssuedAt != nil {
		tc.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		tc.ExpiresAt = claims.ExpiresAt.Time
	}
	return tc, nil
}

// ExpiresAt returns when the ID token stops being valid, counting ExpiresIn
// from issued (usually the time the credential was received).
func (c *Credential) ExpiresAt(issued time.Time) time.Time {
	return issued.Add(c.ExpiresIn)
}
