package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the root configuration for the jobboard server and clients.
type Config struct {
	Server       ServerConfig
	Database     DatabaseConfig
	Auth         AuthConfig
	Events       EventsConfig
	RateLimit    RateLimitConfig
	Client       ClientConfig
	Notification NotificationConfig
}

// ServerConfig controls the HTTP API.
type ServerConfig struct {
	Addr           string
	RequestTimeout time.Duration
	FeedLimit      int // cap on each notification feed response
}

// DatabaseConfig selects the application store backend.
type DatabaseConfig struct {
	Driver string `yaml:"driver"` // "sqlite" or "pgx"
	DSN    string `yaml:"dsn"`    // file path for sqlite, connection URL for pgx
}

// AuthConfig holds the bearer token settings.
type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

// EventsConfig controls lifecycle event publishing. An empty RedisURL
// disables publishing.
type EventsConfig struct {
	RedisURL string `yaml:"redis_url"`
	Channel  string `yaml:"channel"`
}

// RateLimitConfig throttles repeated apply attempts per (job, applicant).
type RateLimitConfig struct {
	ApplyMinDelay time.Duration
}

// ClientConfig controls the watch session and the thin CLI commands.
type ClientConfig struct {
	BaseURL       string
	Token         string
	PollInterval  time.Duration
	ToastDuration time.Duration
}

// NotificationConfig controls which notifier the headless watcher uses.
type NotificationConfig struct {
	Type       string `yaml:"type"`        // "log" or "slack"
	WebhookURL string `yaml:"webhook_url"` // required if type is "slack"
}

// rawConfig is used for YAML unmarshaling (snake_case fields and duration as string).
type rawConfig struct {
	Server       rawServerConfig    `yaml:"server"`
	Database     DatabaseConfig     `yaml:"database"`
	Auth         rawAuthConfig      `yaml:"auth"`
	Events       EventsConfig       `yaml:"events"`
	RateLimit    rawRateLimitConfig `yaml:"rate_limit"`
	Client       rawClientConfig    `yaml:"client"`
	Notification NotificationConfig `yaml:"notification"`
}

type rawServerConfig struct {
	Addr           string `yaml:"addr"`
	RequestTimeout string `yaml:"request_timeout"`
	FeedLimit      int    `yaml:"feed_limit"`
}

type rawAuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
	TokenTTL  string `yaml:"token_ttl"`
}

type rawRateLimitConfig struct {
	ApplyMinDelay string `yaml:"apply_min_delay"`
}

type rawClientConfig struct {
	BaseURL       string `yaml:"base_url"`
	Token         string `yaml:"token"`
	PollInterval  string `yaml:"poll_interval"`
	ToastDuration string `yaml:"toast_duration"`
}

const (
	defaultAddr           = ":8080"
	defaultBaseURL        = "http://localhost:8080"
	defaultDriver         = "sqlite"
	defaultDSN            = "jobboard.db"
	defaultFeedLimit      = 10
	slackWebhookURLPrefix = "https://hooks.slack.com/"
)

// LoadEnv loads KEY=value pairs from the given .env files into the process
// environment. Missing files are ignored; variables already set win.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// Load reads and parses the YAML config file at path, validates it, and returns Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	var raw rawConfig
	if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	requestTimeout, err := parseDuration("server.request_timeout", raw.Server.RequestTimeout, 15*time.Second)
	if err != nil {
		return nil, err
	}
	tokenTTL, err := parseDuration("auth.token_ttl", raw.Auth.TokenTTL, 24*time.Hour)
	if err != nil {
		return nil, err
	}
	applyMinDelay, err := parseDuration("rate_limit.apply_min_delay", raw.RateLimit.ApplyMinDelay, 2*time.Second)
	if err != nil {
		return nil, err
	}
	pollInterval, err := parseDuration("client.poll_interval", raw.Client.PollInterval, 15*time.Second)
	if err != nil {
		return nil, err
	}
	toastDuration, err := parseDuration("client.toast_duration", raw.Client.ToastDuration, 10*time.Second)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Addr:           withDefault(raw.Server.Addr, defaultAddr),
			RequestTimeout: requestTimeout,
			FeedLimit:      raw.Server.FeedLimit,
		},
		Database: DatabaseConfig{
			Driver: withDefault(raw.Database.Driver, defaultDriver),
			DSN:    withDefault(raw.Database.DSN, defaultDSN),
		},
		Auth: AuthConfig{
			JWTSecret: raw.Auth.JWTSecret,
			TokenTTL:  tokenTTL,
		},
		Events:    raw.Events,
		RateLimit: RateLimitConfig{ApplyMinDelay: applyMinDelay},
		Client: ClientConfig{
			BaseURL:       withDefault(raw.Client.BaseURL, defaultBaseURL),
			Token:         raw.Client.Token,
			PollInterval:  pollInterval,
			ToastDuration: toastDuration,
		},
		Notification: raw.Notification,
	}
	if cfg.Server.FeedLimit == 0 {
		cfg.Server.FeedLimit = defaultFeedLimit
	}
	if cfg.Notification.Type == "" {
		cfg.Notification.Type = "log"
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func parseDuration(key, value string, def time.Duration) (time.Duration, error) {
	if value == "" {
		return def, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("parse %s %q: %w", key, value, err)
	}
	return d, nil
}

func withDefault(value, def string) string {
	if value == "" {
		return def
	}
	return value
}

func validate(cfg *Config) error {
	if cfg.Database.Driver != "sqlite" && cfg.Database.Driver != "pgx" {
		return fmt.Errorf("database.driver must be \"sqlite\" or \"pgx\", got %q", cfg.Database.Driver)
	}
	if cfg.Server.RequestTimeout <= 0 {
		return fmt.Errorf("server.request_timeout must be positive, got %v", cfg.Server.RequestTimeout)
	}
	if cfg.RateLimit.ApplyMinDelay < 0 {
		return fmt.Errorf("rate_limit.apply_min_delay must not be negative, got %v", cfg.RateLimit.ApplyMinDelay)
	}
	if cfg.Client.PollInterval <= 0 {
		return fmt.Errorf("client.poll_interval must be positive, got %v", cfg.Client.PollInterval)
	}
	if cfg.Client.ToastDuration <= 0 {
		return fmt.Errorf("client.toast_duration must be positive, got %v", cfg.Client.ToastDuration)
	}
	if cfg.Server.FeedLimit < 1 || cfg.Server.FeedLimit > 100 {
		return fmt.Errorf("server.feed_limit must be between 1 and 100, got %d", cfg.Server.FeedLimit)
	}

	switch cfg.Notification.Type {
	case "log":
	case "slack":
		if cfg.Notification.WebhookURL == "" {
			return fmt.Errorf("notification.webhook_url is required when type is \"slack\"")
		}
		if !strings.HasPrefix(cfg.Notification.WebhookURL, slackWebhookURLPrefix) {
			return fmt.Errorf("notification.webhook_url must start with %s", slackWebhookURLPrefix)
		}
	default:
		return fmt.Errorf("notification.type must be \"log\" or \"slack\", got %q", cfg.Notification.Type)
	}

	return nil
}

// RequireServer checks the settings only the API server needs.
func (c *Config) RequireServer() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required to serve")
	}
	return nil
}

// RequireClient checks the settings only API clients need.
func (c *Config) RequireClient() error {
	if c.Client.Token == "" {
		return fmt.Errorf("client.token is required (set it in config or JOBBOARD_TOKEN)")
	}
	return nil
}
