package main

import (
	"github.com/spf13/cobra"
)

// globalFlags are the persistent flags shared by every subcommand.
type globalFlags struct {
	configFile string
	metrics    bool
}

// NewRootCmd creates the root command for the kagi CLI.
func NewRootCmd() *cobra.Command {
	flags := &globalFlags{}

	cmd := &cobra.Command{
		Use:   "kagi",
		Short: "kagi - identity service client",
		Long: `kagi signs in to, creates and links accounts on the identity service
(Firebase Auth / Google Identity Platform) through its REST API.

Results are printed as JSON on stdout. Configuration comes from --config
or from KAGI_* environment variables (.env.localdev is loaded if present).`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&flags.configFile, "config", "", "config file path (default: environment only)")
	cmd.PersistentFlags().BoolVar(&flags.metrics, "metrics", false, "write Prometheus metrics to stderr after the command")

	cmd.AddCommand(NewSignInCmd(flags))
	cmd.AddCommand(NewSignUpCmd(flags))
	cmd.AddCommand(NewResetPasswordCmd(flags))
	cmd.AddCommand(NewLinkCmd(flags))
	cmd.AddCommand(NewProvidersCmd(flags))
	cmd.AddCommand(NewAccountCmd(flags))
	cmd.AddCommand(NewVerifyCmd(flags))
	cmd.AddCommand(NewSendVerificationCmd(flags))
	cmd.AddCommand(NewOAuthURLCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}
