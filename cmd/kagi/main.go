// Package main is the kagi command line client for the identity service.
package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/ayanel/kagi/internal/version"
)

func main() {
	// Load .env.localdev file if it exists (for local development)
	_ = godotenv.Load(".env.localdev")

	cmd := NewRootCmd()
	cmd.Version = version.String()

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
