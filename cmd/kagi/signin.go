package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/ayanel/kagi/internal/app"
	"github.com/ayanel/kagi/pkg/identity"
)

// NewSignInCmd creates the signin command group.
func NewSignInCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "signin",
		Short: "Sign in and print the credential",
	}

	cmd.AddCommand(newSignInPasswordCmd(flags))
	cmd.AddCommand(newSignInAnonymousCmd(flags))
	cmd.AddCommand(newSignInCustomTokenCmd(flags))
	cmd.AddCommand(newSignInOAuthCmd(flags))

	return cmd
}

func newSignInPasswordCmd(flags *globalFlags) *cobra.Command {
	var (
		email     string
		password  string
		fromStdin bool
	)

	cmd := &cobra.Command{
		Use:   "password",
		Short: "Sign in with email and password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			pw, err := readPassword(cmd, password, fromStdin)
			if err != nil {
				return err
			}
			return run(cmd, flags, func(ctx context.Context, a *app.App) (any, error) {
				return result(a.SignInWithEmailAndPassword(ctx, email, pw))
			})
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email address")
	addPasswordFlags(cmd, &password, &fromStdin)
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func newSignInAnonymousCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "anonymous",
		Short: "Create an anonymous account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, flags, func(ctx context.Context, a *app.App) (any, error) {
				return result(a.SignInAnonymously(ctx))
			})
		},
	}
}

func newSignInCustomTokenCmd(flags *globalFlags) *cobra.Command {
	var (
		token string
		uid   string
	)

	cmd := &cobra.Command{
		Use:   "custom-token",
		Short: "Sign in with a custom token, or mint one for --uid with the Admin SDK",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if token == "" && uid == "" {
				return errors.New("one of --token or --uid is required")
			}
			return run(cmd, flags, func(ctx context.Context, a *app.App) (any, error) {
				if uid != "" {
					return result(a.SignInAsUser(ctx, uid, nil))
				}
				return result(a.SignInWithCustomToken(ctx, token))
			})
		},
	}

	cmd.Flags().StringVar(&token, "token", "", "custom token issued by the Admin SDK")
	cmd.Flags().StringVar(&uid, "uid", "", "mint a custom token for this uid (requires the admin section)")
	cmd.MarkFlagsMutuallyExclusive("token", "uid")

	return cmd
}

func newSignInOAuthCmd(flags *globalFlags) *cobra.Command {
	var of oauthFlags

	cmd := &cobra.Command{
		Use:   "oauth",
		Short: "Sign in with an OAuth provider access token or authorization code",
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
				return result(a.SignInWithOAuth(ctx, kind, accessToken))
			})
		},
	}

	of.register(cmd)

	return cmd
}

// NewSignUpCmd creates the signup command.
func NewSignUpCmd(flags *globalFlags) *cobra.Command {
	var (
		email       string
		password    string
		fromStdin   bool
		displayName string
	)

	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an email and password account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			pw, err := readPassword(cmd, password, fromStdin)
			if err != nil {
				return err
			}
			return run(cmd, flags, func(ctx context.Context, a *app.App) (any, error) {
				return result(a.CreateUserWithEmailAndPassword(ctx, email, pw, displayName))
			})
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email address")
	cmd.Flags().StringVar(&displayName, "display-name", "", "display name to set after sign-up")
	addPasswordFlags(cmd, &password, &fromStdin)
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

// NewResetPasswordCmd creates the reset-password command.
func NewResetPasswordCmd(flags *globalFlags) *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "reset-password",
		Short: "Send a password reset email",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, flags, func(ctx context.Context, a *app.App) (any, error) {
				if err := a.SendPasswordResetEmail(ctx, email); err != nil {
					return nil, err
				}
				return status{OK: true, Email: email}, nil
			})
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email address")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

// NewSendVerificationCmd creates the send-verification command.
func NewSendVerificationCmd(flags *globalFlags) *cobra.Command {
	var idToken string

	cmd := &cobra.Command{
		Use:   "send-verification",
		Short: "Send an email verification link to the signed-in account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, flags, func(ctx context.Context, a *app.App) (any, error) {
				if err := a.SendEmailVerification(ctx, sessionFrom(idToken)); err != nil {
					return nil, err
				}
				return status{OK: true}, nil
			})
		},
	}

	cmd.Flags().StringVar(&idToken, "id-token", "", "ID token of the signed-in account")
	_ = cmd.MarkFlagRequired("id-token")

	return cmd
}

// providerArg is shared by the oauth subcommands.
func providerArg(s string) (identity.ProviderKind, error) {
	kind, err := identity.ParseProviderKind(s)
	if err != nil {
		return 0, err
	}
	if !kind.IsOAuth() {
		return 0, errors.New("--provider must be an OAuth provider (google, facebook, github, twitter)")
	}
	return kind, nil
}
