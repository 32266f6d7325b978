package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for rxsync-engine.
// Configuration can come from a YAML file (config.yaml) or environment
// variables; environment variables always override YAML values. The database
// password must only come from the environment.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"0.0.0.0"`
	Port     string `yaml:"port" env:"PORT" env-default:"5001"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version  string `yaml:"-"` // Set at load time, not from config

	// Database configuration (PostgreSQL)
	Database DatabaseConfig `yaml:"database"`

	// Watcher configuration (ingestion trigger)
	Watcher WatcherConfig `yaml:"watcher"`

	// Reconciler configuration (header fuzzy matching)
	Reconciler ReconcilerConfig `yaml:"reconciler"`

	// SummaryAPI configures the remote drug summary service.
	SummaryAPI SummaryAPIConfig `yaml:"summary_api"`
}

// DatabaseConfig holds PostgreSQL database configuration. The env variable
// names match the original deployment's .env contract.
type DatabaseConfig struct {
	Host           string `yaml:"host" env:"DB_HOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"DB_PORT" env-default:"5432"`
	User           string `yaml:"user" env:"DB_USER" env-default:"rxsync"`
	Password       string `yaml:"-" env:"DB_PASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"DB_NAME" env-default:"rxsync"`
	SSLMode        string `yaml:"ssl_mode" env:"DB_SSLMODE" env-default:"disable"`
	MaxConnections int32  `yaml:"max_connections" env:"DB_MAX_CONNECTIONS" env-default:"10"`
}

// WatcherConfig holds the watched-directory settings for file ingestion.
type WatcherConfig struct {
	// Dir is the directory watched for inventory drops. Created on startup
	// when missing.
	Dir string `yaml:"dir" env:"WATCH_DIR" env-default:"pharmacy_data"`

	// CooldownSeconds is the debounce window: a second trigger for the same
	// path within this many seconds of the last processed modification is
	// ignored as a duplicate notification.
	CooldownSeconds int `yaml:"cooldown_seconds" env:"WATCH_COOLDOWN_SECONDS" env-default:"5"`
}

// Cooldown returns the debounce window as a duration.
func (c *WatcherConfig) Cooldown() time.Duration {
	return time.Duration(c.CooldownSeconds) * time.Second
}

// ReconcilerConfig holds column reconciliation settings.
type ReconcilerConfig struct {
	// FuzzyThreshold is the minimum 0-100 similarity ratio for a header to be
	// reconciled to a canonical column when no exact synonym matches.
	FuzzyThreshold int `yaml:"fuzzy_threshold" env:"RECONCILER_FUZZY_THRESHOLD" env-default:"80"`
}

// SummaryAPIConfig holds the remote export-summary API settings.
type SummaryAPIConfig struct {
	BaseURL        string `yaml:"base_url" env:"ICHOOSERX_API_BASE_URL" env-default:""`
	TimeoutSeconds int    `yaml:"timeout_seconds" env:"SUMMARY_API_TIMEOUT_SECONDS" env-default:"30"`
	MaxRetries     int    `yaml:"max_retries" env:"SUMMARY_API_MAX_RETRIES" env-default:"3"`
}

// Timeout returns the summary API request timeout as a duration.
func (c *SummaryAPIConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Load reads configuration from config.yaml with environment variable
// overrides; when no config.yaml exists, environment variables alone apply.
// The version parameter is injected at build time.
func Load(version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if _, err := os.Stat("config.yaml"); err == nil {
		if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
			return nil, fmt.Errorf("failed to read config.yaml: %w", err)
		}
	} else {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Watcher.CooldownSeconds < 0 {
		return fmt.Errorf("watcher cooldown_seconds must not be negative")
	}
	if c.Reconciler.FuzzyThreshold < 0 || c.Reconciler.FuzzyThreshold > 100 {
		return fmt.Errorf("reconciler fuzzy_threshold must be between 0 and 100")
	}
	return nil
}

// ConnectionString returns a PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}
