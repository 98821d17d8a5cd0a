package identity

import (
	"net/url"
	"strings"
)

// Endpoint is the operation suffix of a relyingparty URL.
type Endpoint string

const (
	EndpointVerifyCustomToken      Endpoint = "verifyCustomToken"
	EndpointGetAccountInfo         Endpoint = "getAccountInfo"
	EndpointVerifyAssertion        Endpoint = "verifyAssertion"
	EndpointSignupNewUser          Endpoint = "signupNewUser"
	EndpointVerifyPassword         Endpoint = "verifyPassword"
	EndpointGetOobConfirmationCode Endpoint = "getOobConfirmationCode"
	EndpointSetAccountInfo         Endpoint = "setAccountInfo"
	EndpointCreateAuthURI          Endpoint = "createAuthUri"
)

// DefaultBaseURL is the hosted service root, up to and including the API version.
const DefaultBaseURL = "https://www.googleapis.com/identitytoolkit/v3"

// url builds <base>/relyingparty/<endpoint>?key=<apiKey>.
func (c *Client) url(ep Endpoint) string {
	return c.baseURL + "/relyingparty/" + string(ep) + "?" + url.Values{"key": {c.apiKey}}.Encode()
}

func normalizeBaseURL(base string) string {
	return strings.TrimSuffix(strings.TrimSpace(base), "/")
}
