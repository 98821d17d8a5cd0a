// Package admin wraps the Firebase Admin SDK for the server-side halves of
// the sign-in flows: verifying ID tokens returned by the identity service and
// minting custom tokens for SignInWithCustomToken.
package admin

import (
	"context"
	"errors"
	"fmt"
	"time"

	firebase "firebase.google.com/go/v4"
	firebaseAuth "firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"
)

// backend is implemented by both firebaseAuth.Client and firebaseAuth.TenantClient.
type backend interface {
	VerifyIDToken(ctx context.Context, idToken string) (*firebaseAuth.Token, error)
	CustomToken(ctx context.Context, uid string) (string, error)
	CustomTokenWithClaims(ctx context.Context, uid string, devClaims map[string]interface{}) (string, error)
}

// Claims are the verified claims of an ID token.
type Claims struct {
	UID           string    `json:"uid"`
	Email         string    `json:"email,omitempty"`
	EmailVerified bool      `json:"emailVerified"`
	Name          string    `json:"name,omitempty"`
	Picture       string    `json:"picture,omitempty"`
	ProviderID    string    `json:"providerId,omitempty"`
	TenantID      string    `json:"tenantId,omitempty"`
	IssuedAt      time.Time `json:"issuedAt"`
	ExpiresAt     time.Time `json:"expiresAt"`
}

// Config holds configuration for Client
type Config struct {
	ProjectID       string
	CredentialsPath string // empty uses Application Default Credentials
	TenantID        string // optional: multi-tenant Identity Platform
}

// Client verifies and mints tokens, optionally scoped to one tenant.
type Client struct {
	backend  backend
	tenantID string
}

// New creates a Client from cfg. FIREBASE_AUTH_EMULATOR_HOST is honoured by
// the SDK itself.
func New(ctx context.Context, cfg Config) (*Client, error) {
	var opts []option.ClientOption
	if cfg.CredentialsPath != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsPath))
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.ProjectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create firebase app: %w", err)
	}

	authClient, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get auth client: %w", err)
	}

	if cfg.TenantID == "" {
		return &Client{backend: authClient}, nil
	}

	tenantClient, err := authClient.TenantManager.AuthForTenant(cfg.TenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to get tenant auth client for %s: %w", cfg.TenantID, err)
	}
	return &Client{backend: tenantClient, tenantID: cfg.TenantID}, nil
}

// TenantID returns the tenant the client is scoped to, or "".
func (c *Client) TenantID() string {
	return c.tenantID
}

// VerifyIDToken checks the signature, expiry and audience of idToken.
func (c *Client) VerifyIDToken(ctx context.Context, idToken string) (*Claims, error) {
	if idToken == "" {
		return nil, errors.New("ID token is empty")
	}

	token, err := c.backend.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, fmt.Errorf("failed to verify ID token: %w", err)
	}
	return claimsFromToken(token), nil
}

// CustomToken mints a token for uid that SignInWithCustomToken accepts.
// Extra developer claims are embedded when given.
func (c *Client) CustomToken(ctx context.Context, uid string, devClaims map[string]any) (string, error) {
	if uid == "" {
		return "", errors.New("uid is required")
	}

	var (
		token string
		err   error
	)
	if len(devClaims) == 0 {
		token, err = c.backend.CustomToken(ctx, uid)
	} else {
		token, err = c.backend.CustomTokenWithClaims(ctx, uid, devClaims)
	}
	if err != nil {
		return "", fmt.Errorf("failed to mint custom token for %s: %w", uid, err)
	}
	return token, nil
}

func claimsFromToken(token *firebaseAuth.Token) *Claims {
	claims := &Claims{
		UID:           token.UID,
		Email:         getStringClaim(token.Claims, "email"),
		EmailVerified: getBoolClaim(token.Claims, "email_verified"),
		Name:          getStringClaim(token.Claims, "name"),
		Picture:       getStringClaim(token.Claims, "picture"),
		ProviderID:    token.Firebase.SignInProvider,
		TenantID:      token.Firebase.Tenant,
	}
	if token.IssuedAt != 0 {
		claims.IssuedAt = time.Unix(token.IssuedAt, 0)
	}
	if token.Expires != 0 {
		claims.ExpiresAt = time.Unix(token.Expires, 0)
	}
	return claims
}

// getStringClaim safely extracts a string claim from the claims map
func getStringClaim(claims map[string]any, key string) string {
	str, _ := claims[key].(string)
	return str
}

// getBoolClaim safely extracts a boolean claim from the claims map
func getBoolClaim(claims map[string]any, key string) bool {
	b, _ := claims[key].(bool)
	return b
}
