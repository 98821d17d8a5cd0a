// Package oauthcode runs the provider side of an OAuth 2.0 authorization-code
// flow with PKCE and yields the access token that the identity service's
// verifyAssertion endpoint accepts.
package oauthcode

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/facebook"
	"golang.org/x/oauth2/github"
	"golang.org/x/oauth2/google"

	"github.com/ayanel/kagi/pkg/identity"
)

// Config describes the OAuth application registered with the provider.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       []string // nil uses the provider's default scopes
}

// Flow is one provider's authorization-code exchange.
type Flow struct {
	provider identity.ProviderKind
	config   *oauth2.Config
}

// Start is what the user needs to begin the flow: the URL to open, and the
// state and verifier to keep for the exchange.
type Start struct {
	URL      string `json:"url"`
	State    string `json:"state"`
	Verifier string `json:"verifier"`
}

var defaultScopes = map[identity.ProviderKind][]string{
	identity.Google:   {"openid", "email", "profile"},
	identity.Github:   {"read:user", "user:email"},
	identity.Facebook: {"email", "public_profile"},
}

func endpointFor(kind identity.ProviderKind) (oauth2.Endpoint, bool) {
	switch kind {
	case identity.Google:
		return google.Endpoint, true
	case identity.Github:
		return github.Endpoint, true
	case identity.Facebook:
		return facebook.Endpoint, true
	default:
		return oauth2.Endpoint{}, false
	}
}

// New creates a Flow for kind. Twitter uses OAuth 1.0a and is not supported.
func New(kind identity.ProviderKind, cfg Config) (*Flow, error) {
	endpoint, ok := endpointFor(kind)
	if !ok {
		return nil, fmt.Errorf("%w: no authorization-code flow for %s", identity.ErrInvalidArgument, kind)
	}
	return NewWithEndpoint(kind, cfg, endpoint)
}

// NewWithEndpoint creates a Flow against an explicit endpoint, e.g. a
// self-hosted GitHub Enterprise.
func NewWithEndpoint(kind identity.ProviderKind, cfg Config, endpoint oauth2.Endpoint) (*Flow, error) {
	if cfg.ClientID == "" || cfg.RedirectURL == "" {
		return nil, errors.New("oauth client_id and redirect_url are required")
	}

	scopes := cfg.Scopes
	if scopes == nil {
		scopes = defaultScopes[kind]
	}

	return &Flow{
		provider: kind,
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     endpoint,
			Scopes:       scopes,
		},
	}, nil
}

// Provider returns the provider this flow signs in with.
func (f *Flow) Provider() identity.ProviderKind {
	return f.provider
}

// Begin builds the authorization URL with a fresh state and S256 challenge.
func (f *Flow) Begin() Start {
	verifier := oauth2.GenerateVerifier()
	state := uuid.NewString()

	return Start{
		URL:      f.config.AuthCodeURL(state, oauth2.AccessTypeOnline, oauth2.S256ChallengeOption(verifier)),
		State:    state,
		Verifier: verifier,
	}
}

// Exchange trades the authorization code for the provider access token.
func (f *Flow) Exchange(ctx context.Context, code, verifier string) (string, error) {
	if code == "" {
		return "", fmt.Errorf("%w: authorization code is empty", identity.ErrInvalidArgument)
	}

	var opts []oauth2.AuthCodeOption
	if verifier != "" {
		opts = append(opts, oauth2.VerifierOption(verifier))
	}

	token, err := f.config.Exchange(ctx, code, opts...)
	if err != nil {
		return "", fmt.Errorf("%s token exchange failed: %w", f.provider, err)
	}
	if token.AccessToken == "" {
		return "", fmt.Errorf("%s did not return an access token", f.provider)
	}
	return token.AccessToken, nil
}
