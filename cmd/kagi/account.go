package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/ayanel/kagi/internal/app"
	"github.com/ayanel/kagi/internal/version"
)

// NewLinkCmd creates the link command group.
func NewLinkCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "link",
		Short: "Link another provider to a signed-in account",
	}

	cmd.AddCommand(newLinkPasswordCmd(flags))
	cmd.AddCommand(newLinkOAuthCmd(flags))

	return cmd
}

func newLinkPasswordCmd(flags *globalFlags) *cobra.Command {
	var (
		idToken   string
		email     string
		password  string
		fromStdin bool
	)

	cmd := &cobra.Command{
		Use:   "password",
		Short: "Attach an email and password to the account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			pw, err := readPassword(cmd, password, fromStdin)
			if err != nil {
				return err
			}
			return run(cmd, flags, func(ctx context.Context, a *app.App) (any, error) {
				return result(a.LinkWithEmailAndPassword(ctx, sessionFrom(idToken), email, pw))
			})
		},
	}

	cmd.Flags().StringVar(&idToken, "id-token", "", "ID token of the signed-in account")
	cmd.Flags().StringVar(&email, "email", "", "email address to link")
	addPasswordFlags(cmd, &password, &fromStdin)
	_ = cmd.MarkFlagRequired("id-token")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func newLinkOAuthCmd(flags *globalFlags) *cobra.Command {
	var (
		idToken string
		of      oauthFlags
	)

	cmd := &cobra.Command{
		Use:   "oauth",
		Short: "Attach an OAuth provider to the account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			kind, err := of.provider()
			if err != nil {
				return err
			}
			return run(cmd, flags, func(ctx context.Context, a *app.App) (any, error) {
				accessToken, err := of.accessTokenFor(ctx, kind)
				if err != nil {
					return nil, err
				}
				return result(a.LinkWithOAuth(ctx, sessionFrom(idToken), kind, accessToken))
			})
		},
	}

	cmd.Flags().StringVar(&idToken, "id-token", "", "ID token of the signed-in account")
	of.register(cmd)
	_ = cmd.MarkFlagRequired("id-token")

	return cmd
}

// NewProvidersCmd creates the providers command.
func NewProvidersCmd(flags *globalFlags) *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "providers",
		Short: "List the providers linked to an email address",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, flags, func(ctx context.Context, a *app.App) (any, error) {
				return result(a.GetLinkedAccounts(ctx, email))
			})
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "email address to look up")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

// NewAccountCmd creates the account command.
func NewAccountCmd(flags *globalFlags) *cobra.Command {
	var idToken string

	cmd := &cobra.Command{
		Use:   "account",
		Short: "Print the profile of the signed-in account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, flags, func(ctx context.Context, a *app.App) (any, error) {
				return result(a.GetAccountInfo(ctx, idToken))
			})
		},
	}

	cmd.Flags().StringVar(&idToken, "id-token", "", "ID token of the signed-in account")
	_ = cmd.MarkFlagRequired("id-token")

	return cmd
}

// NewVerifyCmd creates the verify command.
func NewVerifyCmd(flags *globalFlags) *cobra.Command {
	var idToken string

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify an ID token with the Admin SDK and print its claims",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, flags, func(ctx context.Context, a *app.App) (any, error) {
				return result(a.Verify(ctx, idToken))
			})
		},
	}

	cmd.Flags().StringVar(&idToken, "id-token", "", "ID token to verify")
	_ = cmd.MarkFlagRequired("id-token")

	return cmd
}

// NewVersionCmd creates the version command.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := cmd.OutOrStdout().Write([]byte("kagi " + version.String() + "\n"))
			return err
		},
	}
}
