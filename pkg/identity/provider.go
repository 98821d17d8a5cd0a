package identity

import (
	"fmt"
	"strings"
)

// ProviderKind identifies a sign-in method supported by the identity service.
type ProviderKind int

const (
	// EmailAndPassword is the built-in password provider. It is not a valid
	// argument for the OAuth operations.
	EmailAndPassword ProviderKind = iota
	Google
	Facebook
	Github
	Twitter
)

// Provider identifiers as used on the wire.
const (
	ProviderIDPassword = "password"
	ProviderIDGoogle   = "google.com"
	ProviderIDFacebook = "facebook.com"
	ProviderIDGithub   = "github.com"
	ProviderIDTwitter  = "twitter.com"
)

// ProviderID returns the provider identifier the service expects in postBody.
func (k ProviderKind) ProviderID() string {
	switch k {
	case EmailAndPassword:
		return ProviderIDPassword
	case Google:
		return ProviderIDGoogle
	case Facebook:
		return ProviderIDFacebook
	case Github:
		return ProviderIDGithub
	case Twitter:
		return ProviderIDTwitter
	default:
		return ""
	}
}

func (k ProviderKind) String() string {
	switch k {
	case EmailAndPassword:
		return "email"
	case Google:
		return "google"
	case Facebook:
		return "facebook"
	case Github:
		return "github"
	case Twitter:
		return "twitter"
	default:
		return fmt.Sprintf("ProviderKind(%d)", int(k))
	}
}

// IsOAuth reports whether k can be used with SignInWithOAuth and LinkWithOAuth.
func (k ProviderKind) IsOAuth() bool {
	switch k {
	case Google, Facebook, Github, Twitter:
		return true
	default:
		return false
	}
}

// ParseProviderKind accepts either the short name ("google") or the provider
// identifier ("google.com").
func ParseProviderKind(s string) (ProviderKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "email", "password":
		return EmailAndPassword, nil
	case "google", ProviderIDGoogle:
		return Google, nil
	case "facebook", ProviderIDFacebook:
		return Facebook, nil
	case "github", ProviderIDGithub:
		return Github, nil
	case "twitter", ProviderIDTwitter:
		return Twitter, nil
	default:
		return 0, fmt.Errorf("%w: unknown provider %q", ErrInvalidArgument, s)
	}
}

func providerKindFromID(id string) (ProviderKind, bool) {
	switch id {
	case ProviderIDPassword:
		return EmailAndPassword, true
	case ProviderIDGoogle:
		return Google, true
	case ProviderIDFacebook:
		return Facebook, true
	case ProviderIDGithub:
		return Github, true
	case ProviderIDTwitter:
		return Twitter, true
	default:
		return 0, false
	}
}
