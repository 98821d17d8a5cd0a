package identity

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

const testAPIKey = "test-api-key"

type recordedRequest struct {
	Endpoint    string
	Key         string
	ContentType string
	Body        map[string]any
	RawBody     string
}

// fakeService answers relyingparty requests from per-endpoint responders and
// records every request it receives.
type fakeService struct {
	t         *testing.T
	server    *httptest.Server
	mu        sync.Mutex
	requests  []recordedRequest
	responses map[Endpoint]fakeResponse
}

type fakeResponse struct {
	status int
	body   string
}

func newFakeService(t *testing.T) *fakeService {
	t.Helper()
	f := &fakeService{t: t, responses: map[Endpoint]fakeResponse{}}
	f.server = httptest.NewServer(http.HandlerFunc(f.handle))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeService) respond(ep Endpoint, status int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[ep] = fakeResponse{status: status, body: body}
}

func (f *fakeService) handle(w http.ResponseWriter, r *http.Request) {
	raw, _ := io.ReadAll(r.Body)
	ep := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]

	rec := recordedRequest{
		Endpoint:    ep,
		Key:         r.URL.Query().Get("key"),
		ContentType: r.Header.Get("Content-Type"),
		RawBody:     string(raw),
	}
	_ = json.Unmarshal(raw, &rec.Body)

	f.mu.Lock()
	f.requests = append(f.requests, rec)
	resp, ok := f.responses[Endpoint(ep)]
	f.mu.Unlock()

	if !ok {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"code":404,"message":"NOT_FOUND"}}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.status)
	_, _ = w.Write([]byte(resp.body))
}

func (f *fakeService) recorded() []recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]recordedRequest, len(f.requests))
	copy(out, f.requests)
	return out
}

func (f *fakeService) client(opts ...Option) *Client {
	opts = append([]Option{WithBaseURL(f.server.URL + "/v3")}, opts...)
	c := NewClient(testAPIKey, opts...)
	f.t.Cleanup(func() { _ = c.Close() })
	return c
}

const signInResponse = `{
	"kind": "identitytoolkit#VerifyPasswordResponse",
	"localId": "uid-123",
	"email": "alice@example.com",
	"displayName": "",
	"idToken": "id-token-abc",
	"registered": true,
	"refreshToken": "refresh-token-xyz",
	"expiresIn": "3600"
}`

func TestNewClient_Defaults(t *testing.T) {
	c := NewClient(testAPIKey)
	defer c.Close()

	assert.Equal(t, DefaultBaseURL, c.baseURL)
	assert.Equal(t, 10*time.Second, c.timeout)
	require.NotNil(t, c.client)
	assert.Equal(t, 10*time.Second, c.client.Timeout)
	assert.NotNil(t, c.logger)
	assert.NotNil(t, c.tracer)
}

func TestNewClient_Options(t *testing.T) {
	hc := &http.Client{}
	c := NewClient(testAPIKey,
		WithBaseURL("http://localhost:9099/www.googleapis.com/identitytoolkit/v3/"),
		WithHTTPClient(hc),
		WithTimeout(3*time.Second),
	)
	defer c.Close()

	assert.Equal(t, "http://localhost:9099/www.googleapis.com/identitytoolkit/v3", c.baseURL)
	assert.Same(t, hc, c.client)
	assert.Equal(t,
		"http://localhost:9099/www.googleapis.com/identitytoolkit/v3/relyingparty/verifyPassword?key=test-api-key",
		c.url(EndpointVerifyPassword))
}

func TestSignInWithEmailAndPassword(t *testing.T) {
	f := newFakeService(t)
	f.respond(EndpointVerifyPassword, http.StatusOK, signInResponse)

	cred, err := f.client().SignInWithEmailAndPassword(context.Background(), "alice@example.com", "s3cret")
	require.NoError(t, err)

	reqs := f.recorded()
	require.Len(t, reqs, 1)
	assert.Equal(t, "verifyPassword", reqs[0].Endpoint)
	assert.Equal(t, testAPIKey, reqs[0].Key)
	assert.Equal(t, "application/json", reqs[0].ContentType)
	assert.Equal(t, map[string]any{
		"email":             "alice@example.com",
		"password":          "s3cret",
		"returnSecureToken": true,
	}, reqs[0].Body)

	assert.Equal(t, "id-token-abc", cred.IDToken)
	assert.Equal(t, "refresh-token-xyz", cred.RefreshToken)
	assert.Equal(t, time.Hour, cred.ExpiresIn)
	assert.Equal(t, "uid-123", cred.LocalID)
	assert.Equal(t, "uid-123", cred.Profile.LocalID)
	assert.Equal(t, "alice@example.com", cred.Profile.Email)
}

func TestSignInWithEmailAndPassword_EscapesSpecialCharacters(t *testing.T) {
	f := newFakeService(t)
	f.respond(EndpointVerifyPassword, http.StatusOK, signInResponse)

	password := "p\"ass\\word\n\t}"
	_, err := f.client().SignInWithEmailAndPassword(context.Background(), `quote"@example.com`, password)
	require.NoError(t, err)

	reqs := f.recorded()
	require.Len(t, reqs, 1)
	require.NotNil(t, reqs[0].Body, "request body must be valid JSON: %s", reqs[0].RawBody)
	assert.Equal(t, `quote"@example.com`, reqs[0].Body["email"])
	assert.Equal(t, password, reqs[0].Body["password"])
}

func TestSignInWithOAuth(t *testing.T) {
	tests := []struct {
		kind     ProviderKind
		wantBody string
	}{
		{Google, "access_token=ya29.token-1&providerId=google.com"},
		{Facebook, "access_token=EAAB_token&providerId=facebook.com"},
		{Github, "access_token=gho_abc123&providerId=github.com"},
		{Twitter, "access_token=tw-token~1&providerId=twitter.com"},
	}
	tokens := map[ProviderKind]string{
		Google:   "ya29.token-1",
		Facebook: "EAAB_token",
		Github:   "gho_abc123",
		Twitter:  "tw-token~1",
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			f := newFakeService(t)
			f.respond(EndpointVerifyAssertion, http.StatusOK, `{
				"federatedId": "https://accounts.google.com/1234",
				"providerId": "`+tt.kind.ProviderID()+`",
				"localId": "uid-oauth",
				"emailVerified": true,
				"email": "bob@example.com",
				"displayName": "Bob",
				"photoUrl": "https://example.com/bob.png",
				"idToken": "oauth-id-token",
				"refreshToken": "oauth-refresh",
				"expiresIn": "3600",
				"isNewUser": true
			}`)

			cred, err := f.client().SignInWithOAuth(context.Background(), tt.kind, tokens[tt.kind])
			require.NoError(t, err)

			reqs := f.recorded()
			require.Len(t, reqs, 1)
			assert.Equal(t, "verifyAssertion", reqs[0].Endpoint)
			assert.Equal(t, tt.wantBody, reqs[0].Body["postBody"])
			assert.Equal(t, "http://localhost", reqs[0].Body["requestUri"])
			assert.Equal(t, true, reqs[0].Body["returnSecureToken"])
			assert.NotContains(t, reqs[0].Body, "idToken")

			assert.True(t, cred.IsNewUser)
			assert.True(t, cred.Profile.EmailVerified)
			assert.Equal(t, "Bob", cred.Profile.DisplayName)
			assert.Equal(t, "https://example.com/bob.png", cred.Profile.PhotoURL)
		})
	}
}

func TestSignInWithOAuth_RejectsEmailAndPassword(t *testing.T) {
	f := newFakeService(t)
	c := f.client()

	_, err := c.SignInWithOAuth(context.Background(), EmailAndPassword, "token")
	require.ErrorIs(t, err, ErrInvalidArgument)

	_, err = c.LinkWithOAuth(context.Background(), &Credential{IDToken: "id"}, EmailAndPassword, "token")
	require.ErrorIs(t, err, ErrInvalidArgument)

	assert.Empty(t, f.recorded(), "no request may be issued")
}

func TestSignInAnonymously(t *testing.T) {
	f := newFakeService(t)
	f.respond(EndpointSignupNewUser, http.StatusOK, `{
		"kind": "identitytoolkit#SignupNewUserResponse",
		"idToken": "anon-id-token",
		"refreshToken": "anon-refresh",
		"expiresIn": "3600",
		"localId": "anon-uid"
	}`)

	cred, err := f.client().SignInAnonymously(context.Background())
	require.NoError(t, err)

	reqs := f.recorded()
	require.Len(t, reqs, 1)
	assert.Equal(t, "signupNewUser", reqs[0].Endpoint)
	assert.Equal(t, map[string]any{"returnSecureToken": true}, reqs[0].Body)

	assert.Equal(t, "anon-uid", cred.LocalID)
	assert.True(t, cred.IsNewUser)
	assert.Empty(t, cred.Profile.Email)
	assert.Empty(t, cred.Profile.DisplayName)
}

func TestSignInWithCustomToken(t *testing.T) {
	f := newFakeService(t)
	f.respond(EndpointVerifyCustomToken, http.StatusOK, `{
		"kind": "identitytoolkit#VerifyCustomTokenResponse",
		"idToken": "custom-id-token",
		"refreshToken": "custom-refresh",
		"expiresIn": "3600",
		"isNewUser": false
	}`)
	f.respond(EndpointGetAccountInfo, http.StatusOK, `{
		"kind": "identitytoolkit#GetAccountInfoResponse",
		"users": [{
			"localId": "uid-custom",
			"email": "carol@example.com",
			"emailVerified": true,
			"displayName": "Carol",
			"providerUserInfo": [
				{"providerId": "google.com", "federatedId": "1234", "email": "carol@gmail.com", "rawId": "1234"}
			]
		}]
	}`)

	cred, err := f.client().SignInWithCustomToken(context.Background(), "minted-custom-token")
	require.NoError(t, err)

	reqs := f.recorded()
	require.Len(t, reqs, 2)
	assert.Equal(t, "verifyCustomToken", reqs[0].Endpoint)
	assert.Equal(t, map[string]any{"token": "minted-custom-token", "returnSecureToken": true}, reqs[0].Body)
	assert.Equal(t, "getAccountInfo", reqs[1].Endpoint)
	assert.Equal(t, map[string]any{"idToken": "custom-id-token"}, reqs[1].Body)

	assert.Equal(t, Profile{
		LocalID:       "uid-custom",
		Email:         "carol@example.com",
		EmailVerified: true,
		DisplayName:   "Carol",
		Providers: []ProviderUserInfo{
			{ProviderID: "google.com", FederatedID: "1234", Email: "carol@gmail.com", RawID: "1234"},
		},
	}, cred.Profile)
	assert.Equal(t, "uid-custom", cred.LocalID)
	assert.Equal(t, "custom-id-token", cred.IDToken)
}

func TestSignInWithCustomToken_ProfileFetchFails(t *testing.T) {
	f := newFakeService(t)
	f.respond(EndpointVerifyCustomToken, http.StatusOK, `{"idToken":"custom-id-token","refreshToken":"r","expiresIn":"3600"}`)
	f.respond(EndpointGetAccountInfo, http.StatusBadRequest, `{"error":{"code":400,"message":"INVALID_ID_TOKEN"}}`)

	cred, err := f.client().SignInWithCustomToken(context.Background(), "minted")
	require.Error(t, err)
	assert.Nil(t, cred)

	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, EndpointGetAccountInfo, authErr.Endpoint)
	assert.Equal(t, KindProtocol, authErr.Kind)
	assert.Equal(t, http.StatusBadRequest, authErr.StatusCode)
	assert.Equal(t, `{"idToken":"custom-id-token"}`, authErr.RequestBody)
}

func TestSignInWithCustomToken_NoUsers(t *testing.T) {
	f := newFakeService(t)
	f.respond(EndpointVerifyCustomToken, http.StatusOK, `{"idToken":"t","expiresIn":"3600"}`)
	f.respond(EndpointGetAccountInfo, http.StatusOK, `{"users":[]}`)

	_, err := f.client().SignInWithCustomToken(context.Background(), "minted")

	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, EndpointGetAccountInfo, authErr.Endpoint)
	assert.Equal(t, KindMalformedResponse, authErr.Kind)
	assert.Equal(t, http.StatusOK, authErr.StatusCode)
	assert.Equal(t, `{"idToken":"t"}`, authErr.RequestBody)
	assert.Equal(t, `{"users":[]}`, authErr.ResponseBody)
}

func TestCredentialEndpoints_MissingIDToken(t *testing.T) {
	calls := []struct {
		name     string
		endpoint Endpoint
		call     func(c *Client) (*Credential, error)
	}{
		{"password", EndpointVerifyPassword, func(c *Client) (*Credential, error) {
			return c.SignInWithEmailAndPassword(context.Background(), "a@example.com", "pw")
		}},
		{"custom token", EndpointVerifyCustomToken, func(c *Client) (*Credential, error) {
			return c.SignInWithCustomToken(context.Background(), "minted")
		}},
	}

	for _, call := range calls {
		for _, body := range []string{`{}`, `null`} {
			t.Run(call.name+" "+body, func(t *testing.T) {
				f := newFakeService(t)
				f.respond(call.endpoint, http.StatusOK, body)
				f.respond(EndpointGetAccountInfo, http.StatusOK, `{"users":[{"localId":"uid"}]}`)

				cred, err := call.call(f.client())
				assert.Nil(t, cred)

				var authErr *AuthError
				require.ErrorAs(t, err, &authErr)
				assert.Equal(t, call.endpoint, authErr.Endpoint)
				assert.Equal(t, KindMalformedResponse, authErr.Kind)
				assert.Equal(t, http.StatusOK, authErr.StatusCode)
				assert.Equal(t, body, authErr.ResponseBody)
				assert.NotEmpty(t, authErr.RequestBody)

				reqs := f.recorded()
				require.Len(t, reqs, 1, "no follow-up request after a malformed response")
				assert.Equal(t, string(call.endpoint), reqs[0].Endpoint)
			})
		}
	}
}

func TestCreateUserWithEmailAndPassword(t *testing.T) {
	signup := `{"idToken":"new-id-token","refreshToken":"new-refresh","expiresIn":"3600","localId":"new-uid","email":"dave@example.com"}`

	t.Run("with display name", func(t *testing.T) {
		f := newFakeService(t)
		f.respond(EndpointSignupNewUser, http.StatusOK, signup)
		f.respond(EndpointSetAccountInfo, http.StatusOK, `{"localId":"new-uid","displayName":"Alice"}`)

		cred, err := f.client().CreateUserWithEmailAndPassword(context.Background(), "dave@example.com", "pw123456", "Alice")
		require.NoError(t, err)

		reqs := f.recorded()
		require.Len(t, reqs, 2)
		assert.Equal(t, "signupNewUser", reqs[0].Endpoint)
		assert.Equal(t, map[string]any{
			"email":             "dave@example.com",
			"password":          "pw123456",
			"returnSecureToken": true,
		}, reqs[0].Body)
		assert.Equal(t, "setAccountInfo", reqs[1].Endpoint)
		assert.Equal(t, map[string]any{
			"displayName":       "Alice",
			"idToken":           "new-id-token",
			"returnSecureToken": true,
		}, reqs[1].Body)

		assert.Equal(t, "Alice", cred.Profile.DisplayName)
		assert.True(t, cred.IsNewUser)
	})

	t.Run("without display name", func(t *testing.T) {
		f := newFakeService(t)
		f.respond(EndpointSignupNewUser, http.StatusOK, signup)

		cred, err := f.client().CreateUserWithEmailAndPassword(context.Background(), "dave@example.com", "pw123456", "")
		require.NoError(t, err)
		assert.Len(t, f.recorded(), 1)
		assert.Empty(t, cred.Profile.DisplayName)
	})

	t.Run("sign-up fails", func(t *testing.T) {
		f := newFakeService(t)
		f.respond(EndpointSignupNewUser, http.StatusBadRequest, `{"error":{"code":400,"message":"EMAIL_EXISTS"}}`)

		cred, err := f.client().CreateUserWithEmailAndPassword(context.Background(), "dave@example.com", "pw123456", "Alice")
		require.Error(t, err)
		assert.Nil(t, cred)
		assert.Len(t, f.recorded(), 1, "display name must not be set when sign-up fails")
	})

	t.Run("display name update fails", func(t *testing.T) {
		f := newFakeService(t)
		f.respond(EndpointSignupNewUser, http.StatusOK, signup)
		f.respond(EndpointSetAccountInfo, http.StatusBadRequest, `{"error":{"code":400,"message":"INVALID_ID_TOKEN"}}`)

		cred, err := f.client().CreateUserWithEmailAndPassword(context.Background(), "dave@example.com", "pw123456", "Alice")

		var authErr *AuthError
		require.ErrorAs(t, err, &authErr)
		assert.Equal(t, EndpointSetAccountInfo, authErr.Endpoint)
		require.NotNil(t, cred, "the created account is still reported")
		assert.Equal(t, "new-id-token", cred.IDToken)
		assert.Empty(t, cred.Profile.DisplayName)
	})
}

func TestSendPasswordResetEmail(t *testing.T) {
	f := newFakeService(t)
	f.respond(EndpointGetOobConfirmationCode, http.StatusOK, `{"kind":"identitytoolkit#GetOobConfirmationCodeResponse","email":"erin@example.com"}`)

	err := f.client().SendPasswordResetEmail(context.Background(), "erin@example.com")
	require.NoError(t, err)

	reqs := f.recorded()
	require.Len(t, reqs, 1)
	assert.Equal(t, "getOobConfirmationCode", reqs[0].Endpoint)
	assert.Equal(t, map[string]any{"requestType": "PASSWORD_RESET", "email": "erin@example.com"}, reqs[0].Body)
}

func TestSendPasswordResetEmail_Non2xx(t *testing.T) {
	f := newFakeService(t)
	f.respond(EndpointGetOobConfirmationCode, http.StatusBadRequest, `{"error":{"code":400,"message":"EMAIL_NOT_FOUND"}}`)

	err := f.client().SendPasswordResetEmail(context.Background(), "nobody@example.com")
	require.Error(t, err)
	assert.Equal(t, ReasonUnknownEmailAddress, ReasonOf(err))
	assert.Len(t, f.recorded(), 1, "no retry")
}

func TestSendEmailVerification(t *testing.T) {
	f := newFakeService(t)
	f.respond(EndpointGetOobConfirmationCode, http.StatusOK, `{"email":"erin@example.com"}`)

	err := f.client().SendEmailVerification(context.Background(), &Credential{IDToken: "id-erin"})
	require.NoError(t, err)

	reqs := f.recorded()
	require.Len(t, reqs, 1)
	assert.Equal(t, map[string]any{"requestType": "VERIFY_EMAIL", "idToken": "id-erin"}, reqs[0].Body)
}

func TestLinkWithEmailAndPassword_PreservesSessionToken(t *testing.T) {
	f := newFakeService(t)
	f.respond(EndpointVerifyPassword, http.StatusOK, signInResponse)
	f.respond(EndpointSetAccountInfo, http.StatusOK, `{"localId":"uid-123","email":"alice@work.example","idToken":"linked-id-token","refreshToken":"linked-refresh","expiresIn":"3600"}`)

	c := f.client()
	cred, err := c.SignInWithEmailAndPassword(context.Background(), "alice@example.com", "s3cret")
	require.NoError(t, err)

	linked, err := c.LinkWithEmailAndPassword(context.Background(), cred, "alice@work.example", "other-pw")
	require.NoError(t, err)

	reqs := f.recorded()
	require.Len(t, reqs, 2)
	assert.Equal(t, "setAccountInfo", reqs[1].Endpoint)
	assert.Equal(t, map[string]any{
		"idToken":           cred.IDToken,
		"email":             "alice@work.example",
		"password":          "other-pw",
		"returnSecureToken": true,
	}, reqs[1].Body)
	assert.Equal(t, "linked-id-token", linked.IDToken)
}

func TestLinkWithOAuth(t *testing.T) {
	f := newFakeService(t)
	f.respond(EndpointVerifyAssertion, http.StatusOK, `{"localId":"uid-123","providerId":"github.com","idToken":"linked","expiresIn":"3600"}`)

	_, err := f.client().LinkWithOAuth(context.Background(), &Credential{IDToken: "session-token"}, Github, "gho_abc")
	require.NoError(t, err)

	reqs := f.recorded()
	require.Len(t, reqs, 1)
	assert.Equal(t, "verifyAssertion", reqs[0].Endpoint)
	assert.Equal(t, map[string]any{
		"postBody":          "access_token=gho_abc&providerId=github.com",
		"requestUri":        "http://localhost",
		"idToken":           "session-token",
		"returnSecureToken": true,
	}, reqs[0].Body)
}

func TestLink_NilCredential(t *testing.T) {
	f := newFakeService(t)
	c := f.client()

	_, err := c.LinkWithEmailAndPassword(context.Background(), nil, "a@example.com", "pw")
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = c.LinkWithOAuth(context.Background(), nil, Google, "tok")
	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.Empty(t, f.recorded())
}

func TestGetLinkedAccounts(t *testing.T) {
	t.Run("response omits email", func(t *testing.T) {
		f := newFakeService(t)
		f.respond(EndpointCreateAuthURI, http.StatusOK, `{
			"kind": "identitytoolkit#CreateAuthUriResponse",
			"allProviders": ["password", "google.com", "example.org"],
			"registered": true,
			"sessionId": "abc"
		}`)

		result, err := f.client().GetLinkedAccounts(context.Background(), "a@b.com")
		require.NoError(t, err)

		reqs := f.recorded()
		require.Len(t, reqs, 1)
		assert.Equal(t, "createAuthUri", reqs[0].Endpoint)
		assert.Equal(t, map[string]any{"identifier": "a@b.com", "continueUri": "http://localhost"}, reqs[0].Body)

		assert.Equal(t, "a@b.com", result.Email)
		assert.True(t, result.Registered)
		assert.Equal(t, []string{"password", "google.com", "example.org"}, result.Providers)
		assert.Equal(t, []ProviderKind{EmailAndPassword, Google}, result.Kinds())
	})

	t.Run("unregistered address", func(t *testing.T) {
		f := newFakeService(t)
		f.respond(EndpointCreateAuthURI, http.StatusOK, `{"registered": false}`)

		result, err := f.client().GetLinkedAccounts(context.Background(), "new@b.com")
		require.NoError(t, err)
		assert.Equal(t, "new@b.com", result.Email)
		assert.False(t, result.Registered)
		assert.Empty(t, result.Providers)
	})
}

func TestPost_ProtocolFailure(t *testing.T) {
	f := newFakeService(t)
	f.respond(EndpointVerifyPassword, http.StatusBadRequest, `{"error":{"code":400,"message":"INVALID_PASSWORD","errors":[]}}`)

	_, err := f.client().SignInWithEmailAndPassword(context.Background(), "alice@example.com", "hunter2")

	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, EndpointVerifyPassword, authErr.Endpoint)
	assert.Equal(t, KindProtocol, authErr.Kind)
	assert.Equal(t, ReasonWrongPassword, authErr.Reason)
	assert.True(t, authErr.Classified())
	assert.Equal(t, http.StatusBadRequest, authErr.StatusCode)
	assert.Contains(t, authErr.ResponseBody, "INVALID_PASSWORD")
	assert.Contains(t, authErr.RequestBody, `"password":"hunter2"`)
	assert.NotContains(t, authErr.Error(), "hunter2", "password must not leak into the message")
}

func TestPost_MalformedResponse(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `<html>ok</html>`},
		{"bad expiresIn", `{"idToken":"t","expiresIn":"soon"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFakeService(t)
			f.respond(EndpointVerifyPassword, http.StatusOK, tt.body)

			cred, err := f.client().SignInWithEmailAndPassword(context.Background(), "a@example.com", "pw")
			assert.Nil(t, cred)

			var authErr *AuthError
			require.ErrorAs(t, err, &authErr)
			assert.Equal(t, KindMalformedResponse, authErr.Kind)
			assert.Equal(t, ReasonUndefined, authErr.Reason)
			assert.Equal(t, tt.body, authErr.ResponseBody)
		})
	}
}

func TestPost_TransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	baseURL := server.URL
	server.Close()

	c := NewClient(testAPIKey, WithBaseURL(baseURL))
	defer c.Close()

	_, err := c.SignInAnonymously(context.Background())

	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, KindTransport, authErr.Kind)
	assert.Equal(t, NoResponseData, authErr.ResponseBody)
	assert.Equal(t, ReasonUndefined, authErr.Reason)
	assert.Equal(t, `{"returnSecureToken":true}`, authErr.RequestBody)
	assert.NotNil(t, authErr.Unwrap())
}

func TestPost_ContextCancelled(t *testing.T) {
	f := newFakeService(t)
	f.respond(EndpointSignupNewUser, http.StatusOK, `{}`)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.client().SignInAnonymously(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, KindTransport, err.(*AuthError).Kind)
}

func TestClose(t *testing.T) {
	f := newFakeService(t)
	f.respond(EndpointVerifyPassword, http.StatusOK, signInResponse)

	c := NewClient(testAPIKey, WithBaseURL(f.server.URL))
	require.NoError(t, c.Close())

	_, err := c.SignInWithEmailAndPassword(context.Background(), "a@example.com", "pw")
	assert.ErrorIs(t, err, ErrClientClosed)
	assert.ErrorIs(t, c.SendPasswordResetEmail(context.Background(), "a@example.com"), ErrClientClosed)
	assert.ErrorIs(t, c.Close(), ErrClientClosed, "second Close is a contract violation")
	assert.Empty(t, f.recorded())
}

func TestClose_ReleasesConnections(t *testing.T) {
	defer goleak.VerifyNone(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		_, _ = w.Write([]byte(signInResponse))
	}))
	defer server.Close()

	c := NewClient(testAPIKey, WithBaseURL(server.URL))
	for range 3 {
		_, err := c.SignInWithEmailAndPassword(context.Background(), "a@example.com", "pw")
		require.NoError(t, err)
	}
	require.NoError(t, c.Close())
}

func TestClient_ConcurrentUse(t *testing.T) {
	f := newFakeService(t)
	f.respond(EndpointVerifyPassword, http.StatusOK, signInResponse)
	f.respond(EndpointCreateAuthURI, http.StatusOK, `{"allProviders":["password"]}`)
	c := f.client()

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := range 20 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var err error
			if i%2 == 0 {
				_, err = c.SignInWithEmailAndPassword(context.Background(), "a@example.com", "pw")
			} else {
				_, err = c.GetLinkedAccounts(context.Background(), "a@example.com")
			}
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Len(t, f.recorded(), 20)
}
