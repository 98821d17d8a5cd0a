package identity

import (
	"context"
	"fmt"
	"net/url"
)

// SignInWithCustomToken exchanges a custom token minted by a trusted server
// for a credential, then fetches the full profile with the new ID token.
// A failing profile fetch fails the whole call with an AuthError for
// getAccountInfo.
func (c *Client) SignInWithCustomToken(ctx context.Context, token string) (*Credential, error) {
	cred, err := c.postCredential(ctx, EndpointVerifyCustomToken, customTokenRequest{
		Token:             token,
		ReturnSecureToken: true,
	})
	if err != nil {
		return nil, err
	}

	profile, err := c.GetAccountInfo(ctx, cred.IDToken)
	if err != nil {
		return nil, err
	}
	cred.Profile = *profile
	if cred.LocalID == "" {
		cred.LocalID = profile.LocalID
	}
	return cred, nil
}

// SignInWithOAuth exchanges a provider access token for a credential.
// EmailAndPassword is rejected with ErrInvalidArgument before any request.
// The token is query-escaped inside postBody, so characters such as '+', '/'
// or '=' go out percent-encoded and the service form-decodes them back.
func (c *Client) SignInWithOAuth(ctx context.Context, kind ProviderKind, accessToken string) (*Credential, error) {
	req, err := newAssertionRequest(kind, accessToken, "")
	if err != nil {
		return nil, err
	}
	return c.postCredential(ctx, EndpointVerifyAssertion, req)
}

// SignInAnonymously creates a new anonymous account.
func (c *Client) SignInAnonymously(ctx context.Context) (*Credential, error) {
	cred, err := c.postCredential(ctx, EndpointSignupNewUser, signupRequest{
		ReturnSecureToken: true,
	})
	if err != nil {
		return nil, err
	}
	cred.IsNewUser = true
	return cred, nil
}

// SignInWithEmailAndPassword signs in a password account.
func (c *Client) SignInWithEmailAndPassword(ctx context.Context, email, password string) (*Credential, error) {
	return c.postCredential(ctx, EndpointVerifyPassword, passwordRequest{
		Email:             email,
		Password:          password,
		ReturnSecureToken: true,
	})
}

// CreateUserWithEmailAndPassword creates a password account. A non-empty
// displayName is set with a second request.
//
// If the account is created but setting the display name fails, the returned
// credential is non-nil along with the error: the account exists and the
// caller may retry UpdateDisplayName with it.
func (c *Client) CreateUserWithEmailAndPassword(ctx context.Context, email, password, displayName string) (*Credential, error) {
	cred, err := c.postCredential(ctx, EndpointSignupNewUser, signupRequest{
		Email:             email,
		Password:          password,
		ReturnSecureToken: true,
	})
	if err != nil {
		return nil, err
	}
	cred.IsNewUser = true

	if displayName == "" {
		return cred, nil
	}
	if err := c.UpdateDisplayName(ctx, cred, displayName); err != nil {
		return cred, err
	}
	return cred, nil
}

// UpdateDisplayName sets the account's display name and, on success, patches
// cred.Profile.DisplayName without refetching the profile.
func (c *Client) UpdateDisplayName(ctx context.Context, cred *Credential, displayName string) error {
	if cred == nil {
		return fmt.Errorf("%w: nil credential", ErrInvalidArgument)
	}
	err := c.post(ctx, EndpointSetAccountInfo, displayNameRequest{
		DisplayName:       displayName,
		IDToken:           cred.IDToken,
		ReturnSecureToken: true,
	}, nil)
	if err != nil {
		return err
	}
	cred.Profile.DisplayName = displayName
	return nil
}

// SendPasswordResetEmail asks the service to email a password reset link.
func (c *Client) SendPasswordResetEmail(ctx context.Context, email string) error {
	return c.post(ctx, EndpointGetOobConfirmationCode, oobCodeRequest{
		RequestType: requestTypePasswordReset,
		Email:       email,
	}, nil)
}

// SendEmailVerification asks the service to email a verification link to the
// address of the signed-in account.
func (c *Client) SendEmailVerification(ctx context.Context, cred *Credential) error {
	if cred == nil {
		return fmt.Errorf("%w: nil credential", ErrInvalidArgument)
	}
	return c.post(ctx, EndpointGetOobConfirmationCode, oobCodeRequest{
		RequestType: requestTypeVerifyEmail,
		IDToken:     cred.IDToken,
	}, nil)
}

// LinkWithEmailAndPassword adds a password identity to the account of cred.
func (c *Client) LinkWithEmailAndPassword(ctx context.Context, cred *Credential, email, password string) (*Credential, error) {
	if cred == nil {
		return nil, fmt.Errorf("%w: nil credential", ErrInvalidArgument)
	}
	return c.postCredential(ctx, EndpointSetAccountInfo, passwordRequest{
		IDToken:           cred.IDToken,
		Email:             email,
		Password:          password,
		ReturnSecureToken: true,
	})
}

// LinkWithOAuth adds a provider identity to the account of cred.
// EmailAndPassword is rejected with ErrInvalidArgument before any request.
func (c *Client) LinkWithOAuth(ctx context.Context, cred *Credential, kind ProviderKind, accessToken string) (*Credential, error) {
	if cred == nil {
		return nil, fmt.Errorf("%w: nil credential", ErrInvalidArgument)
	}
	req, err := newAssertionRequest(kind, accessToken, cred.IDToken)
	if err != nil {
		return nil, err
	}
	return c.postCredential(ctx, EndpointVerifyAssertion, req)
}

// GetLinkedAccounts lists the providers linked to email. The result always
// carries the queried email, even when the service omits it.
func (c *Client) GetLinkedAccounts(ctx context.Context, email string) (*ProviderQueryResult, error) {
	var result ProviderQueryResult
	err := c.post(ctx, EndpointCreateAuthURI, createAuthURIRequest{
		Identifier:  email,
		ContinueURI: localRequestURI,
	}, &result)
	if err != nil {
		return nil, err
	}
	result.Email = email
	return &result, nil
}

// GetAccountInfo fetches the profile of the account owning idToken.
func (c *Client) GetAccountInfo(ctx context.Context, idToken string) (*Profile, error) {
	var resp accountInfoResponse
	if err := c.post(ctx, EndpointGetAccountInfo, accountInfoRequest{IDToken: idToken}, &resp); err != nil {
		return nil, err
	}
	profile := resp.Users[0]
	return &profile, nil
}

// oauthPostBody renders the form-encoded postBody verifyAssertion expects:
// access_token=<token>&providerId=<id>.
func oauthPostBody(kind ProviderKind, accessToken string) string {
	return "access_token=" + url.QueryEscape(accessToken) + "&providerId=" + url.QueryEscape(kind.ProviderID())
}

func newAssertionRequest(kind ProviderKind, accessToken, idToken string) (assertionRequest, error) {
	if !kind.IsOAuth() {
		return assertionRequest{}, fmt.Errorf("%w: provider %s cannot be used for OAuth sign-in", ErrInvalidArgument, kind)
	}
	return assertionRequest{
		PostBody:          oauthPostBody(kind, accessToken),
		RequestURI:        localRequestURI,
		IDToken:           idToken,
		ReturnSecureToken: true,
	}, nil
}
