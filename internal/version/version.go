// Package version provides build-time version information.
package version

import "fmt"

// Set at build time via -ldflags:
//
//	go build -ldflags "-X github.com/ayanel/kagi/internal/version.Version=v0.3.0 -X github.com/ayanel/kagi/internal/version.CommitHash=abc1234"
var (
	Version    = "dev"
	CommitHash = "unknown"
	BuildDate  = "unknown"
)

// String formats the build information for --version output.
func String() string {
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, CommitHash, BuildDate)
}
