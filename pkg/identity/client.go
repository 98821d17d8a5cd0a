package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/ayanel/kagi/pkg/identity"

// maxResponseBytes bounds how much of a response body is read.
const maxResponseBytes = 1 << 20

// Client talks to the identity service's relyingparty endpoints.
//
// Client is safe for concurrent use by multiple goroutines. It owns its
// *http.Client until Close is called; after that every method returns
// ErrClientClosed.
type Client struct {
	apiKey  string
	baseURL string
	timeout time.Duration
	client  *http.Client
	logger  *slog.Logger
	tracer  trace.Tracer
	closed  atomic.Bool
}

// Option configures the Client
type Option func(*Client)

// WithBaseURL points the client at another service root, e.g. the Auth emulator.
func WithBaseURL(base string) Option {
	return func(c *Client) {
		c.baseURL = normalizeBaseURL(base)
	}
}

// WithTimeout sets the timeout of the client-owned *http.Client.
// Default timeout is 10 seconds. Ignored when WithHTTPClient is used.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithHTTPClient injects the *http.Client used for every exchange. Close
// still releases its idle connections.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.client = hc
	}
}

// WithLogger sets the logger for per-exchange debug records.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// WithTracerProvider overrides the global OpenTelemetry tracer provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *Client) {
		c.tracer = tp.Tracer(tracerName)
	}
}

// NewClient creates a client for the given API key.
//
// Example:
//
//	client := identity.NewClient(apiKey)
//	defer client.Close()
//
//	cred, err := client.SignInWithEmailAndPassword(ctx, "a@example.com", "secret")
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:  apiKey,
		baseURL: DefaultBaseURL,
		timeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.client == nil {
		c.client = &http.Client{
			Timeout: c.timeout,
		}
	}
	if c.logger == nil {
		c.logger = slog.New(slog.DiscardHandler)
	}
	if c.tracer == nil {
		c.tracer = otel.Tracer(tracerName)
	}
	return c
}

// Close releases the client's idle connections. It must be called exactly
// once; a second call returns ErrClientClosed.
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return ErrClientClosed
	}
	c.client.CloseIdleConnections()
	return nil
}

// post sends payload as JSON to ep and decodes a 2xx body into out (unless out
// is nil). A decoded out implementing validator is checked before returning.
// Every failure comes back as *AuthError.
func (c *Client) post(ctx context.Context, ep Endpoint, payload, out any) (err error) {
	if c.closed.Load() {
		return ErrClientClosed
	}

	ctx, span := c.tracer.Start(ctx, "identity."+string(ep),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("identity.endpoint", string(ep))),
	)
	start := time.Now()
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			c.logger.WarnContext(ctx, "identity request failed",
				"endpoint", string(ep),
				"duration", time.Since(start),
				"error", err)
		}
		span.End()
	}()

	body, err := json.Marshal(payload)
	if err != nil {
		return &AuthError{
			Endpoint:     ep,
			ResponseBody: NoResponseData,
			Kind:         KindTransport,
			Err:          fmt.Errorf("failed to marshal request: %w", err),
		}
	}

	fail := func(kind ErrorKind, status int, respBody string, cause error) *AuthError {
		return &AuthError{
			Endpoint:     ep,
			RequestBody:  string(body),
			ResponseBody: respBody,
			StatusCode:   status,
			Kind:         kind,
			Reason:       classifyError([]byte(respBody)),
			Err:          cause,
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url(ep), bytes.NewReader(body))
	if err != nil {
		return fail(KindTransport, 0, NoResponseData, fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fail(KindTransport, 0, NoResponseData, fmt.Errorf("request failed: %w", err))
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fail(KindTransport, resp.StatusCode, NoResponseData, fmt.Errorf("failed to read response: %w", err))
	}

	c.logger.DebugContext(ctx, "identity request",
		"endpoint", string(ep),
		"status", resp.StatusCode,
		"duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		cause := fmt.Errorf("unexpected status: %d", resp.StatusCode)
		if msg := serviceMessage(respBody); msg != "" {
			cause = fmt.Errorf("unexpected status: %d %s", resp.StatusCode, msg)
		}
		return fail(KindProtocol, resp.StatusCode, string(respBody), cause)
	}

	if out == nil {
		return nil
	}
	malformed := func(cause error) *AuthError {
		authErr := fail(KindMalformedResponse, resp.StatusCode, string(respBody), cause)
		authErr.Reason = ReasonUndefined
		return authErr
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return malformed(fmt.Errorf("invalid response format: %w", err))
	}
	if v, ok := out.(validator); ok {
		if err := v.validate(); err != nil {
			return malformed(err)
		}
	}
	return nil
}

// validator is implemented by response types that must carry more than
// whatever happened to decode.
type validator interface {
	validate() error
}

// postCredential is post for the endpoints answering with authResponse.
func (c *Client) postCredential(ctx context.Context, ep Endpoint, payload any) (*Credential, error) {
	var resp authResponse
	if err := c.post(ctx, ep, payload, &resp); err != nil {
		return nil, err
	}
	return resp.credential(), nil
}
