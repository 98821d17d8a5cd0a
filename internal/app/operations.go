package app

import (
	"context"

	"github.com/ayanel/kagi/internal/admin"
	"github.com/ayanel/kagi/pkg/identity"
)

// Operation names used for the operation metric label.
const (
	OpSignInPassword    = "signin_password"
	OpSignInAnonymous   = "signin_anonymous"
	OpSignInCustomToken = "signin_custom_token"
	OpSignInOAuth       = "signin_oauth"
	OpSignUp            = "signup"
	OpResetPassword     = "reset_password"
	OpSendVerification  = "send_verification"
	OpLinkPassword      = "link_password"
	OpLinkOAuth         = "link_oauth"
	OpProviders         = "providers"
	OpAccountInfo       = "account_info"
	OpVerify            = "verify"
	OpMintCustomToken   = "mint_custom_token"
)

// SignInWithEmailAndPassword signs in and mirrors the profile.
func (a *App) SignInWithEmailAndPassword(ctx context.Context, email, password string) (*identity.Credential, error) {
	cred, err := a.client.SignInWithEmailAndPassword(ctx, email, password)
	return a.credential(ctx, OpSignInPassword, cred, err)
}

// SignInAnonymously creates an anonymous account.
func (a *App) SignInAnonymously(ctx context.Context) (*identity.Credential, error) {
	cred, err := a.client.SignInAnonymously(ctx)
	return a.credential(ctx, OpSignInAnonymous, cred, err)
}

// SignInWithCustomToken exchanges a custom token for a credential.
func (a *App) SignInWithCustomToken(ctx context.Context, token string) (*identity.Credential, error) {
	cred, err := a.client.SignInWithCustomToken(ctx, token)
	return a.credential(ctx, OpSignInCustomToken, cred, err)
}

// SignInAsUser mints a custom token for uid with the Admin SDK and signs in
// with it.
func (a *App) SignInAsUser(ctx context.Context, uid string, devClaims map[string]any) (*identity.Credential, error) {
	token, err := a.MintCustomToken(ctx, uid, devClaims)
	if err != nil {
		return nil, err
	}
	return a.SignInWithCustomToken(ctx, token)
}

// SignInWithOAuth signs in with a provider access token.
func (a *App) SignInWithOAuth(ctx context.Context, kind identity.ProviderKind, accessToken string) (*identity.Credential, error) {
	cred, err := a.client.SignInWithOAuth(ctx, kind, accessToken)
	return a.credential(ctx, OpSignInOAuth, cred, err)
}

// CreateUserWithEmailAndPassword signs up. When only the display-name step
// fails the credential is still returned and mirrored along with the error.
func (a *App) CreateUserWithEmailAndPassword(ctx context.Context, email, password, displayName string) (*identity.Credential, error) {
	cred, err := a.client.CreateUserWithEmailAndPassword(ctx, email, password, displayName)
	return a.credential(ctx, OpSignUp, cred, err)
}

// SendPasswordResetEmail asks the service to mail a reset link.
func (a *App) SendPasswordResetEmail(ctx context.Context, email string) error {
	err := a.client.SendPasswordResetEmail(ctx, email)
	a.observe(OpResetPassword, err)
	return err
}

// SendEmailVerification asks the service to mail a verification link.
func (a *App) SendEmailVerification(ctx context.Context, cred *identity.Credential) error {
	err := a.client.SendEmailVerification(ctx, cred)
	a.observe(OpSendVerification, err)
	return err
}

// LinkWithEmailAndPassword attaches a password to the signed-in account.
func (a *App) LinkWithEmailAndPassword(ctx context.Context, cred *identity.Credential, email, password string) (*identity.Credential, error) {
	linked, err := a.client.LinkWithEmailAndPassword(ctx, cred, email, password)
	return a.credential(ctx, OpLinkPassword, linked, err)
}

// LinkWithOAuth attaches an OAuth provider to the signed-in account.
func (a *App) LinkWithOAuth(ctx context.Context, cred *identity.Credential, kind identity.ProviderKind, accessToken string) (*identity.Credential, error) {
	linked, err := a.client.LinkWithOAuth(ctx, cred, kind, accessToken)
	return a.credential(ctx, OpLinkOAuth, linked, err)
}

// GetLinkedAccounts lists the providers registered for email.
func (a *App) GetLinkedAccounts(ctx context.Context, email string) (*identity.ProviderQueryResult, error) {
	result, err := a.client.GetLinkedAccounts(ctx, email)
	a.observe(OpProviders, err)
	return result, err
}

// GetAccountInfo fetches the profile behind idToken and mirrors it.
func (a *App) GetAccountInfo(ctx context.Context, idToken string) (*identity.Profile, error) {
	profile, err := a.client.GetAccountInfo(ctx, idToken)
	a.observe(OpAccountInfo, err)
	if err == nil {
		a.remember(ctx, &identity.Credential{LocalID: profile.LocalID, Profile: *profile})
	}
	return profile, err
}

// Verify checks an ID token with the Admin SDK.
func (a *App) Verify(ctx context.Context, idToken string) (*admin.Claims, error) {
	if a.admin == nil {
		return nil, ErrAdminNotConfigured
	}
	claims, err := a.admin.VerifyIDToken(ctx, idToken)
	a.observe(OpVerify, err)
	return claims, err
}

// MintCustomToken creates a custom token for uid with the Admin SDK.
func (a *App) MintCustomToken(ctx context.Context, uid string, devClaims map[string]any) (string, error) {
	if a.admin == nil {
		return "", ErrAdminNotConfigured
	}
	token, err := a.admin.CustomToken(ctx, uid, devClaims)
	a.observe(OpMintCustomToken, err)
	return token, err
}
