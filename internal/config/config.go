package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ayanel/kagi/internal/security"
	"github.com/ayanel/kagi/pkg/identity"
)

// Defaults applied when neither the file nor the environment sets a value.
const (
	DefaultTimeout   = 10 * time.Second
	DefaultLogFormat = "json"
	DefaultLogLevel  = "info"
	DefaultDatabase  = "(default)"

	// emulatorPath is where the Auth emulator serves the relyingparty API.
	emulatorPath = "/www.googleapis.com/identitytoolkit/v3"
)

// Config represents the application configuration
type Config struct {
	Identity IdentityConfig `yaml:"identity"`
	Log      LogConfig      `yaml:"log"`
	Admin    *AdminConfig   `yaml:"admin,omitempty"`
	Store    *StoreConfig   `yaml:"store,omitempty"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// IdentityConfig configures the identity service client
type IdentityConfig struct {
	APIKey     string        `yaml:"api_key"`
	BaseURL    string        `yaml:"base_url"`
	Timeout    time.Duration `yaml:"timeout"`
	AllowLocal bool          `yaml:"allow_local"` // permit http://localhost (Auth emulator)

	// EmulatorHost is the host:port of the Auth emulator. When set, base_url
	// defaults to the emulator and plain http to that host is accepted.
	EmulatorHost string `yaml:"emulator_host,omitempty"`
}

// LogConfig configures the slog handler
type LogConfig struct {
	Format string `yaml:"format"` // "json" | "text"
	Level  string `yaml:"level"`  // "debug" | "info" | "warn" | "error"
}

// AdminConfig configures the Firebase Admin SDK used for token verification
// and custom token minting
type AdminConfig struct {
	ProjectID   string `yaml:"project_id"`
	Credentials string `yaml:"credentials,omitempty"` // service account JSON; empty uses ADC
	TenantID    string `yaml:"tenant_id,omitempty"`
}

// StoreConfig configures the Firestore profile mirror
type StoreConfig struct {
	ProjectID   string `yaml:"project_id"`
	Database    string `yaml:"database,omitempty"`
	Credentials string `yaml:"credentials,omitempty"`
}

// MetricsConfig toggles the Prometheus transport instrumentation
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Load reads configuration from the specified YAML file.
// If path is empty, it delegates to LoadFromEnv.
// Environment variables override file values:
//   - KAGI_API_KEY, KAGI_BASE_URL, KAGI_TIMEOUT, KAGI_ALLOW_LOCAL
//   - KAGI_LOG_FORMAT, KAGI_LOG_LEVEL
//   - KAGI_ADMIN_PROJECT_ID, KAGI_ADMIN_CREDENTIALS, KAGI_TENANT_ID
//   - KAGI_STORE_PROJECT_ID, KAGI_STORE_DATABASE, KAGI_STORE_CREDENTIALS
//   - KAGI_METRICS_ENABLED
//   - FIREBASE_AUTH_EMULATOR_HOST points the client at the Auth emulator
func Load(path string) (*Config, error) {
	if path == "" {
		return LoadFromEnv()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	return finish(&cfg)
}

// LoadFromEnv builds the configuration from environment variables only.
func LoadFromEnv() (*Config, error) {
	return finish(&Config{})
}

func finish(cfg *Config) (*Config, error) {
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("KAGI_API_KEY"); v != "" {
		c.Identity.APIKey = v
	}
	if v := os.Getenv("KAGI_BASE_URL"); v != "" {
		c.Identity.BaseURL = v
	}
	if v := os.Getenv("KAGI_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid KAGI_TIMEOUT %q: %w", v, err)
		}
		c.Identity.Timeout = d
	}
	if v := os.Getenv("KAGI_ALLOW_LOCAL"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid KAGI_ALLOW_LOCAL %q: %w", v, err)
		}
		c.Identity.AllowLocal = b
	}
	if host := strings.TrimSpace(os.Getenv("FIREBASE_AUTH_EMULATOR_HOST")); host != "" {
		c.Identity.EmulatorHost = host
		c.Identity.BaseURL = emulatorBaseURL(host)
		c.Identity.AllowLocal = true
	}

	if v := os.Getenv("KAGI_LOG_FORMAT"); v != "" {
		c.Log.Format = v
	}
	if v := os.Getenv("KAGI_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}

	if v := os.Getenv("KAGI_ADMIN_PROJECT_ID"); v != "" {
		if c.Admin == nil {
			c.Admin = &AdminConfig{}
		}
		c.Admin.ProjectID = v
	}
	if c.Admin != nil {
		if v := os.Getenv("KAGI_ADMIN_CREDENTIALS"); v != "" {
			c.Admin.Credentials = v
		}
		if v := os.Getenv("KAGI_TENANT_ID"); v != "" {
			c.Admin.TenantID = v
		}
	}

	if v := os.Getenv("KAGI_STORE_PROJECT_ID"); v != "" {
		if c.Store == nil {
			c.Store = &StoreConfig{}
		}
		c.Store.ProjectID = v
	}
	if c.Store != nil {
		if v := os.Getenv("KAGI_STORE_DATABASE"); v != "" {
			c.Store.Database = v
		}
		if v := os.Getenv("KAGI_STORE_CREDENTIALS"); v != "" {
			c.Store.Credentials = v
		}
	}

	if v := os.Getenv("KAGI_METRICS_ENABLED"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid KAGI_METRICS_ENABLED %q: %w", v, err)
		}
		c.Metrics.Enabled = b
	}
	return nil
}

func emulatorBaseURL(host string) string {
	return "http://" + host + emulatorPath
}

func (c *Config) applyDefaults() {
	if c.Identity.BaseURL == "" {
		if c.Identity.EmulatorHost != "" {
			c.Identity.BaseURL = emulatorBaseURL(c.Identity.EmulatorHost)
		} else {
			c.Identity.BaseURL = identity.DefaultBaseURL
		}
	}
	if c.Identity.Timeout == 0 {
		c.Identity.Timeout = DefaultTimeout
	}
	if c.Log.Format == "" {
		c.Log.Format = DefaultLogFormat
	}
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Store != nil && c.Store.Database == "" {
		c.Store.Database = DefaultDatabase
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if err := c.Identity.Validate(); err != nil {
		return err
	}
	if err := c.Log.Validate(); err != nil {
		return err
	}
	if c.Admin != nil {
		if err := c.Admin.Validate(); err != nil {
			return err
		}
	}
	if c.Store != nil {
		if err := c.Store.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks the identity client settings
func (i *IdentityConfig) Validate() error {
	if strings.TrimSpace(i.APIKey) == "" {
		return errors.New("identity.api_key is required")
	}
	if i.EmulatorHost != "" {
		if err := security.ValidateEmulatorURL(i.BaseURL, i.EmulatorHost); err != nil {
			return fmt.Errorf("identity.base_url: %w", err)
		}
	} else if err := security.ValidateEndpointURL(i.BaseURL, i.AllowLocal); err != nil {
		return fmt.Errorf("identity.base_url: %w", err)
	}
	if i.Timeout < 0 {
		return fmt.Errorf("identity.timeout must not be negative, got %s", i.Timeout)
	}
	return nil
}

// Validate checks the log settings
func (l *LogConfig) Validate() error {
	switch l.Format {
	case "json", "text":
	default:
		return fmt.Errorf("log.format %q is not supported (supported: json, text)", l.Format)
	}
	switch strings.ToLower(l.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level %q is not supported (supported: debug, info, warn, error)", l.Level)
	}
	return nil
}

// Validate checks the Admin SDK settings
func (a *AdminConfig) Validate() error {
	if a.ProjectID == "" {
		return errors.New("admin.project_id is required")
	}
	return nil
}

// Validate checks the Firestore settings
func (s *StoreConfig) Validate() error {
	if s.ProjectID == "" {
		return errors.New("store.project_id is required")
	}
	return nil
}
