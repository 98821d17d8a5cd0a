package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/ayanel/kagi/internal/admin"
	"github.com/ayanel/kagi/internal/config"
	"github.com/ayanel/kagi/internal/metrics"
	"github.com/ayanel/kagi/internal/store"
	"github.com/ayanel/kagi/internal/user"
	"github.com/ayanel/kagi/pkg/identity"
)

// ErrAdminNotConfigured is returned by the Admin SDK operations when no
// admin section is configured.
var ErrAdminNotConfigured = errors.New("admin SDK is not configured")

// TokenAdmin abstracts admin.Client for testing
type TokenAdmin interface {
	VerifyIDToken(ctx context.Context, idToken string) (*admin.Claims, error)
	CustomToken(ctx context.Context, uid string, devClaims map[string]any) (string, error)
}

// App is the main application orchestrator.
// It owns the identity client and the optional integrations around it: the
// Firestore profile mirror, the Admin SDK and Prometheus metrics.
type App struct {
	config  *config.Config
	client  *identity.Client
	mirror  user.Repository // optional, can be nil
	admin   TokenAdmin      // optional, can be nil
	metrics *metrics.Metrics
	logger  *slog.Logger
	now     func() time.Time
	closers []func() error
	closed  atomic.Bool
}

// Option is a functional option for configuring the App.
type Option func(*App)

// WithMirror sets the repository that receives every returned profile.
func WithMirror(repo user.Repository) Option {
	return func(a *App) {
		a.mirror = repo
	}
}

// WithAdmin sets the Admin SDK client used by Verify and MintCustomToken.
func WithAdmin(t TokenAdmin) Option {
	return func(a *App) {
		a.admin = t
	}
}

// WithMetrics instruments the identity client's transport and operations.
func WithMetrics(m *metrics.Metrics) Option {
	return func(a *App) {
		a.metrics = m
	}
}

// WithLogger sets the logger. Default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(a *App) {
		a.logger = l
	}
}

// WithCloser registers a function run by Close after the identity client
// is released.
func WithCloser(fn func() error) Option {
	return func(a *App) {
		a.closers = append(a.closers, fn)
	}
}

// WithClock overrides time.Now for mirrored timestamps.
func WithClock(now func() time.Time) Option {
	return func(a *App) {
		a.now = now
	}
}

// NewApp creates an App from an already validated configuration.
//
// Example:
//
//	cfg, err := config.Load("kagi.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	app := NewApp(cfg, WithMetrics(metrics.New()))
//	defer app.Close()
//
//	cred, err := app.SignInWithEmailAndPassword(ctx, email, password)
func NewApp(cfg *config.Config, opts ...Option) *App {
	a := &App{
		config: cfg,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}

	// The instrumented RoundTripper hides CloseIdleConnections, so the base
	// transport is released explicitly on Close.
	base := http.DefaultTransport.(*http.Transport).Clone()
	hc := &http.Client{Timeout: cfg.Identity.Timeout, Transport: base}
	if a.metrics != nil {
		hc.Transport = a.metrics.Transport(base)
	}
	a.closers = append([]func() error{func() error {
		base.CloseIdleConnections()
		return nil
	}}, a.closers...)

	a.client = identity.NewClient(cfg.Identity.APIKey,
		identity.WithBaseURL(cfg.Identity.BaseURL),
		identity.WithHTTPClient(hc),
		identity.WithLogger(a.logger.With("component", "identity")),
	)
	return a
}

// Open builds an App with every integration the configuration enables:
// metrics, the Admin SDK and the Firestore profile mirror.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	opts := []Option{WithLogger(logger)}

	if cfg.Metrics.Enabled {
		opts = append(opts, WithMetrics(metrics.New()))
	}

	if cfg.Admin != nil {
		adminClient, err := admin.New(ctx, admin.Config{
			ProjectID:       cfg.Admin.ProjectID,
			CredentialsPath: cfg.Admin.Credentials,
			TenantID:        cfg.Admin.TenantID,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize admin SDK: %w", err)
		}
		opts = append(opts, WithAdmin(adminClient))
	}

	if cfg.Store != nil {
		db, err := store.Open(ctx, store.Config{
			ProjectID:   cfg.Store.ProjectID,
			Database:    cfg.Store.Database,
			Credentials: cfg.Store.Credentials,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize profile store: %w", err)
		}
		logger.Info("profile mirror enabled", "firestore", db)
		opts = append(opts,
			WithMirror(user.NewFirestoreRepository(db.Firestore())),
			WithCloser(db.Close),
		)
	}

	return NewApp(cfg, opts...), nil
}

// Client returns the underlying identity client.
func (a *App) Client() *identity.Client {
	return a.client
}

// Metrics returns the collectors, or nil when metrics are disabled.
func (a *App) Metrics() *metrics.Metrics {
	return a.metrics
}

// Mirror returns the profile repository, or nil.
func (a *App) Mirror() user.Repository {
	return a.mirror
}

// Close releases the identity client and then every registered closer.
// A second call returns identity.ErrClientClosed.
func (a *App) Close() error {
	if !a.closed.CompareAndSwap(false, true) {
		return identity.ErrClientClosed
	}

	errs := []error{a.client.Close()}
	for _, fn := range a.closers {
		errs = append(errs, fn())
	}
	return errors.Join(errs...)
}

func (a *App) observe(op string, err error) {
	if a.metrics != nil {
		a.metrics.Observe(op, err)
	}
	if err != nil {
		a.logger.Debug("operation failed", "operation", op, "outcome", metrics.Outcome(err))
	}
}

// remember mirrors the credential's profile. Mirror failures are logged and
// never fail the sign-in itself.
func (a *App) remember(ctx context.Context, cred *identity.Credential) {
	if a.mirror == nil || cred == nil || cred.LocalID == "" {
		return
	}

	profile := cred.Profile
	if profile.LocalID == "" {
		profile.LocalID = cred.LocalID
	}
	if _, err := a.mirror.Upsert(ctx, user.FromProfile(profile, a.now().UTC())); err != nil {
		a.logger.WarnContext(ctx, "failed to mirror profile", "local_id", cred.LocalID, "error", err)
	}
}

func (a *App) credential(ctx context.Context, op string, cred *identity.Credential, err error) (*identity.Credential, error) {
	a.observe(op, err)
	a.remember(ctx, cred)
	return cred, err
}
