package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ayanel/kagi/internal/app"
	"github.com/ayanel/kagi/internal/config"
	"github.com/ayanel/kagi/internal/logging"
	"github.com/ayanel/kagi/internal/version"
	"github.com/ayanel/kagi/pkg/identity"
)

// operation is the body of a subcommand; its result is printed as JSON.
type operation func(ctx context.Context, a *app.App) (any, error)

// run loads configuration, opens the App, executes op and prints its result.
func run(cmd *cobra.Command, flags *globalFlags, op operation) (err error) {
	cfg, err := config.Load(flags.configFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if flags.metrics {
		cfg.Metrics.Enabled = true
	}

	logger := logging.SetDefault("kagi", version.Version, cfg.Log.Format, cfg.Log.Level, cmd.ErrOrStderr()).
		With("run_id", uuid.NewString(), "command", cmd.CommandPath())

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := app.Open(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if m := a.Metrics(); m != nil {
			if dumpErr := m.Dump(cmd.ErrOrStderr()); dumpErr != nil {
				logger.Warn("failed to write metrics", "error", dumpErr)
			}
		}
		if closeErr := a.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	out, opErr := op(ctx, a)
	if out != nil {
		// A partial result (e.g. sign-up without display name) is still printed.
		if printErr := printJSON(cmd, out); printErr != nil {
			return errors.Join(opErr, printErr)
		}
	}
	if opErr != nil {
		return describe(opErr)
	}
	return nil
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// describe prefixes identity failures with their classified reason.
func describe(err error) error {
	var authErr *identity.AuthError
	if errors.As(err, &authErr) && authErr.Classified() {
		return fmt.Errorf("%s: %w", authErr.Reason, err)
	}
	return err
}

// status is printed by operations that return no data.
type status struct {
	OK    bool   `json:"ok"`
	Email string `json:"email,omitempty"`
}

// readPassword returns flagValue, or the first line of stdin when fromStdin is set.
func readPassword(cmd *cobra.Command, flagValue string, fromStdin bool) (string, error) {
	if !fromStdin {
		if flagValue == "" {
			return "", errors.New("--password or --password-stdin is required")
		}
		return flagValue, nil
	}

	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("failed to read password from stdin: %w", err)
	}
	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return "", errors.New("password from stdin is empty")
	}
	return password, nil
}

func addPasswordFlags(cmd *cobra.Command, password *string, fromStdin *bool) {
	cmd.Flags().StringVar(password, "password", "", "account password")
	cmd.Flags().BoolVar(fromStdin, "password-stdin", false, "read the password from the first line of stdin")
	cmd.MarkFlagsMutuallyExclusive("password", "password-stdin")
}

// sessionFrom wraps an ID token obtained from an earlier sign-in.
func sessionFrom(idToken string) *identity.Credential {
	return &identity.Credential{IDToken: idToken}
}

// result converts a typed pointer to an untyped result without producing a
// non-nil interface around a nil pointer.
func result[T any](v *T, err error) (any, error) {
	if v == nil {
		return nil, err
	}
	return v, err
}
