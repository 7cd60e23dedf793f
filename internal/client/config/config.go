package config

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/cookiecutter/internal/client/store"
)

// Log backends accepted by LogBackend.
const (
	LogBackendSlog = "slog"
	LogBackendZap  = "zap"
)

// Config holds runtime settings for the cookiecutter CLI.
//
// Units: RequestTimeout and NotificationTTL are time.Duration values,
// GenerateRate is requests per second (0 disables the limiter).
type Config struct {
	GeneratorURL string
	IdentityURL  string
	RedirectURL  string

	Store store.Config

	PreviewAddr string
	DownloadDir string

	RequestTimeout  time.Duration
	NotificationTTL time.Duration
	GenerateRate    float64
	GenerateBurst   int

	LogLevel   string
	LogBackend string

	// DeepLink is the URL the client was started from, if any. A recovery
	// token in it switches the CLI into password reset.
	DeepLink string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.GeneratorURL = "http://127.0.0.1:8000"
	c.IdentityURL = "http://127.0.0.1:8001"
	c.RedirectURL = "cookiecutter://reset"
	c.Store = store.Config{
		Backend:     store.BackendSQLite,
		DSN:         "cookiecutter.db",
		RedisPrefix: "cookiecutter:",
	}
	c.PreviewAddr = "127.0.0.1:0"
	c.DownloadDir = "."
	c.RequestTimeout = 60 * time.Second
	c.NotificationTTL = 4 * time.Second
	c.GenerateRate = 1
	c.GenerateBurst = 1
	c.LogLevel = "info"
	c.LogBackend = LogBackendSlog
	c.DeepLink = ""
}

// Validate reports settings the client cannot start with.
func (c *Config) Validate() error {
	if c.GeneratorURL == "" {
		return fmt.Errorf("%w: generator url is empty", ErrInvalid)
	}
	if c.IdentityURL == "" {
		return fmt.Errorf("%w: identity url is empty", ErrInvalid)
	}
	switch c.LogBackend {
	case LogBackendSlog, LogBackendZap:
	default:
		return fmt.Errorf("%w: log backend %q", ErrInvalid, c.LogBackend)
	}
	if c.RequestTimeout < 0 || c.NotificationTTL < 0 || c.GenerateRate < 0 {
		return fmt.Errorf("%w: negative interval or rate", ErrInvalid)
	}
	return nil
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// the environment (and an optional dotenv file), a JSON file and command-line
// flags, in that order. Later sources take precedence over earlier ones.
// args are the command-line arguments without the program name.
func LoadConfig(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseEnv(cfg, args); err != nil {
		return nil, err
	}
	if err := parseJson(cfg, args); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
