// Package security checks the endpoints kagi is configured to talk to.
package security

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
)

// IsPrivateIP reports whether ipStr is a private, loopback or link-local
// address. Invalid input is not private.
func IsPrivateIP(ipStr string) bool {
	ip := net.ParseIP(ipStr)
	if ip == nil {
		return false
	}
	return ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast()
}

// IsLocalhost reports whether host names the local machine.
// Accepts: "localhost", "127.0.0.1", "::1", "[::1]", "0.0.0.0"
func IsLocalhost(host string) bool {
	host = strings.TrimSuffix(strings.TrimPrefix(host, "["), "]")

	switch strings.ToLower(host) {
	case "localhost", "0.0.0.0":
		return true
	}

	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// ValidateEndpointURL checks a service base URL before any credential is
// sent to it:
//   - the URL parses and uses http or https
//   - plain http is only accepted for localhost, and only with allowLocal
//     (the local emulator)
//   - private and link-local addresses are rejected
//   - no query string or fragment, since the endpoint path and key are
//     appended to it
func ValidateEndpointURL(urlStr string, allowLocal bool) error {
	if strings.TrimSpace(urlStr) == "" {
		return errors.New("URL is empty")
	}

	parsed, err := url.Parse(urlStr)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	scheme := strings.ToLower(parsed.Scheme)
	if scheme != "http" && scheme != "https" {
		return fmt.Errorf("unsupported URL scheme: %q (only http and https are allowed)", parsed.Scheme)
	}

	host := parsed.Hostname()
	if host == "" {
		return errors.New("invalid URL: missing host")
	}
	if parsed.RawQuery != "" || parsed.Fragment != "" {
		return errors.New("base URL must not carry a query or fragment")
	}

	isLocal := IsLocalhost(host)
	if isLocal {
		if !allowLocal {
			return errors.New("localhost URLs are not allowed")
		}
		return nil
	}

	if scheme == "http" {
		return errors.New("HTTPS is required for non-local endpoints")
	}
	if IsPrivateIP(host) {
		return errors.New("private IP addresses are not allowed")
	}
	return nil
}

// ValidateEmulatorURL checks the base URL of an explicitly configured Auth
// emulator. Plain http and any host name (e.g. a compose service) are
// accepted, but the URL must point at emulatorHost itself.
func ValidateEmulatorURL(urlStr, emulatorHost string) error {
	if strings.TrimSpace(emulatorHost) == "" {
		return errors.New("emulator host is empty")
	}
	if strings.TrimSpace(urlStr) == "" {
		return errors.New("URL is empty")
	}

	parsed, err := url.Parse(urlStr)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	scheme := strings.ToLower(parsed.Scheme)
	if scheme != "http" && scheme != "https" {
		return fmt.Errorf("unsupported URL scheme: %q (only http and https are allowed)", parsed.Scheme)
	}
	if parsed.Hostname() == "" {
		return errors.New("invalid URL: missing host")
	}
	if parsed.RawQuery != "" || parsed.Fragment != "" {
		return errors.New("base URL must not carry a query or fragment")
	}
	if !strings.EqualFold(parsed.Host, strings.TrimSpace(emulatorHost)) {
		return fmt.Errorf("URL host %q does not match emulator host %q", parsed.Host, emulatorHost)
	}
	return nil
}
