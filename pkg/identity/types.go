package identity

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Credential is the outcome of a successful sign-in, sign-up or link.
type Credential struct {
	IDToken      string        `json:"idToken"`
	RefreshToken string        `json:"refreshToken"`
	ExpiresIn    time.Duration `json:"expiresIn"`
	LocalID      string        `json:"localId"`
	IsNewUser    bool          `json:"isNewUser"`
	Profile      Profile       `json:"profile"`
}

// MarshalJSON writes ExpiresIn as whole seconds, the unit the service uses
// for expiresIn.
func (c Credential) MarshalJSON() ([]byte, error) {
	type plain Credential
	return json.Marshal(struct {
		plain
		ExpiresIn int64 `json:"expiresIn"`
	}{plain(c), int64(c.ExpiresIn / time.Second)})
}

// UnmarshalJSON reads the form written by MarshalJSON.
func (c *Credential) UnmarshalJSON(b []byte) error {
	type plain Credential
	aux := struct {
		*plain
		ExpiresIn int64 `json:"expiresIn"`
	}{plain: (*plain)(c)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	c.ExpiresIn = time.Duration(aux.ExpiresIn) * time.Second
	return nil
}

// Profile is the user-facing account data returned with a credential.
type Profile struct {
	LocalID       string             `json:"localId"`
	Email         string             `json:"email,omitempty"`
	DisplayName   string             `json:"displayName,omitempty"`
	PhotoURL      string             `json:"photoUrl,omitempty"`
	EmailVerified bool               `json:"emailVerified"`
	Providers     []ProviderUserInfo `json:"providerUserInfo,omitempty"`
}

// ProviderUserInfo is one identity linked to an account.
type ProviderUserInfo struct {
	ProviderID  string `json:"providerId"`
	FederatedID string `json:"federatedId,omitempty"`
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
	PhotoURL    string `json:"photoUrl,omitempty"`
	RawID       string `json:"rawId,omitempty"`
}

// ProviderQueryResult lists the providers already linked to an email address.
type ProviderQueryResult struct {
	Email      string   `json:"email"`
	Providers  []string `json:"allProviders"`
	Registered bool     `json:"registered"`
}

// Kinds maps the known provider identifiers to ProviderKind, skipping others.
func (r ProviderQueryResult) Kinds() []ProviderKind {
	kinds := make([]ProviderKind, 0, len(r.Providers))
	for _, id := range r.Providers {
		if k, ok := providerKindFromID(id); ok {
			kinds = append(kinds, k)
		}
	}
	return kinds
}

// authResponse is the flattened success shape shared by the credential
// endpoints: credential fields and profile fields side by side.
type authResponse struct {
	IDToken          string             `json:"idToken"`
	RefreshToken     string             `json:"refreshToken"`
	ExpiresIn        seconds            `json:"expiresIn"`
	LocalID          string             `json:"localId"`
	IsNewUser        bool               `json:"isNewUser"`
	Email            string             `json:"email"`
	DisplayName      string             `json:"displayName"`
	PhotoURL         string             `json:"photoUrl"`
	EmailVerified    bool               `json:"emailVerified"`
	ProviderUserInfo []ProviderUserInfo `json:"providerUserInfo"`
}

// seconds decodes expiresIn, which the service sends as a decimal string.
type seconds time.Duration

func (s *seconds) UnmarshalJSON(b []byte) error {
	str := strings.Trim(string(b), `"`)
	if str == "" || str == "null" {
		*s = 0
		return nil
	}
	n, err := strconv.ParseInt(str, 10, 64)
	if err != nil {
		return fmt.Errorf("expiresIn %q: %w", str, err)
	}
	*s = seconds(time.Duration(n) * time.Second)
	return nil
}

func (r authResponse) credential() *Credential {
	return &Credential{
		IDToken:      r.IDToken,
		RefreshToken: r.RefreshToken,
		ExpiresIn:    time.Duration(r.ExpiresIn),
		LocalID:      r.LocalID,
		IsNewUser:    r.IsNewUser,
		Profile: Profile{
			LocalID:       r.LocalID,
			Email:         r.Email,
			DisplayName:   r.DisplayName,
			PhotoURL:      r.PhotoURL,
			EmailVerified: r.EmailVerified,
			Providers:     r.ProviderUserInfo,
		},
	}
}

func (r *authResponse) validate() error {
	if r.IDToken == "" {
		return errors.New("response contains no idToken")
	}
	return nil
}

type accountInfoResponse struct {
	Users []Profile `json:"users"`
}

func (r *accountInfoResponse) validate() error {
	if len(r.Users) == 0 {
		return errors.New("response contains no users")
	}
	return nil
}

// Request bodies. Field names are the wire contract.

type customTokenRequest struct {
	Token             string `json:"token"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

type accountInfoRequest struct {
	IDToken string `json:"idToken"`
}

type assertionRequest struct {
	PostBody          string `json:"postBody"`
	RequestURI        string `json:"requestUri"`
	IDToken           string `json:"idToken,omitempty"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

type signupRequest struct {
	Email             string `json:"email,omitempty"`
	Password          string `json:"password,omitempty"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

type passwordRequest struct {
	IDToken           string `json:"idToken,omitempty"`
	Email             string `json:"email"`
	Password          string `json:"password"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

type displayNameRequest struct {
	DisplayName       string `json:"displayName"`
	IDToken           string `json:"idToken"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

type oobCodeRequest struct {
	RequestType string `json:"requestType"`
	Email       string `json:"email,omitempty"`
	IDToken     string `json:"idToken,omitempty"`
}

type createAuthURIRequest struct {
	Identifier  string `json:"identifier"`
	ContinueURI string `json:"continueUri"`
}

const (
	requestTypePasswordReset = "PASSWORD_RESET"
	requestTypeVerifyEmail   = "VERIFY_EMAIL"

	// localRequestURI is the placeholder redirect the service requires for
	// verifyAssertion and createAuthUri.
	localRequestURI = "http://localhost"
)
