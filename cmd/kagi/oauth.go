package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/ayanel/kagi/internal/oauthcode"
	"github.com/ayanel/kagi/pkg/identity"
)

// oauthFlags describe where the provider access token comes from: given
// directly, or exchanged from an authorization code.
type oauthFlags struct {
	providerName string
	accessToken  string
	code         string
	verifier     string
	client       oauthcode.Config
}

func (f *oauthFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.providerName, "provider", "", "OAuth provider (google, facebook, github, twitter)")
	cmd.Flags().StringVar(&f.accessToken, "access-token", "", "provider access token")
	cmd.Flags().StringVar(&f.code, "code", "", "authorization code to exchange for an access token")
	cmd.Flags().StringVar(&f.verifier, "verifier", "", "PKCE verifier printed by oauth-url")
	registerClientFlags(cmd, &f.client)
	_ = cmd.MarkFlagRequired("provider")
	cmd.MarkFlagsMutuallyExclusive("access-token", "code")
	cmd.MarkFlagsOneRequired("access-token", "code")
	cmd.MarkFlagsRequiredTogether("code", "verifier")
}

func registerClientFlags(cmd *cobra.Command, cfg *oauthcode.Config) {
	cmd.Flags().StringVar(&cfg.ClientID, "client-id", "", "OAuth client ID")
	cmd.Flags().StringVar(&cfg.ClientSecret, "client-secret", "", "OAuth client secret")
	cmd.Flags().StringVar(&cfg.RedirectURL, "redirect-url", "", "redirect URL registered with the provider")
	cmd.Flags().StringSliceVar(&cfg.Scopes, "scope", nil, "scopes to request (default: provider profile and email)")
}

func (f *oauthFlags) provider() (identity.ProviderKind, error) {
	return providerArg(f.providerName)
}

// accessTokenFor returns --access-token, or exchanges --code for one.
func (f *oauthFlags) accessTokenFor(ctx context.Context, kind identity.ProviderKind) (string, error) {
	if f.code == "" {
		if f.accessToken == "" {
			return "", errors.New("--access-token or --code is required")
		}
		return f.accessToken, nil
	}

	flow, err := oauthcode.New(kind, f.client)
	if err != nil {
		return "", err
	}
	return flow.Exchange(ctx, f.code, f.verifier)
}

// NewOAuthURLCmd creates the oauth-url command, which starts an
// authorization code flow. It needs no identity configuration.
func NewOAuthURLCmd() *cobra.Command {
	var (
		providerName string
		client       oauthcode.Config
	)

	cmd := &cobra.Command{
		Use:   "oauth-url",
		Short: "Print the provider consent URL, state and PKCE verifier",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			kind, err := providerArg(providerName)
			if err != nil {
				return err
			}
			flow, err := oauthcode.New(kind, client)
			if err != nil {
				return err
			}
			return printJSON(cmd, flow.Begin())
		},
	}

	cmd.Flags().StringVar(&providerName, "provider", "", "OAuth provider (google, facebook, github)")
	registerClientFlags(cmd, &client)
	_ = cmd.MarkFlagRequired("provider")

	return cmd
}
