package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for vizly-engine.
// Configuration can come from YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (passwords, keys) must only come from environment variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"8080"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	BaseURL  string `yaml:"base_url" env:"BASE_URL" env-default:""` // Auto-derived from Port if empty
	Version  string `yaml:"-"`                                      // Set at load time, not from config

	// CORSOrigin is the allowed origin for the SPA frontend.
	CORSOrigin string `yaml:"cors_origin" env:"CORS_ORIGIN" env-default:"http://localhost:5173"`

	// Authentication configuration
	Auth AuthConfig `yaml:"auth"`

	// Database configuration for the application store (PostgreSQL)
	Database DatabaseConfig `yaml:"database"`

	// Execute bounds query execution against external databases.
	Execute ExecuteConfig `yaml:"execute"`

	// ConnectionSecretsKey encrypts external connection credentials at rest.
	// Must be a 32-byte key, base64 encoded. Generate with: openssl rand -base64 32
	// Server will fail to start if this is not set.
	ConnectionSecretsKey string `yaml:"-" env:"CONNECTION_SECRETS_KEY"` // Secret - not in YAML

	// ConnectionSecretsRetiredKey optionally holds the previous encryption key
	// during a rotation window; records written under it remain readable.
	ConnectionSecretsRetiredKey string `yaml:"-" env:"CONNECTION_SECRETS_RETIRED_KEY"` // Secret - not in YAML
}

// AuthConfig holds authentication-related configuration.
type AuthConfig struct {
	// JWTSecret signs and verifies bearer tokens (HS256). Env-only.
	JWTSecret string `yaml:"-" env:"JWT_SECRET"`

	// TokenTTLHours is how long issued tokens remain valid.
	TokenTTLHours int `yaml:"token_ttl_hours" env:"AUTH_TOKEN_TTL_HOURS" env-default:"168"`
}

// TokenTTL returns the token lifetime as a duration.
func (a *AuthConfig) TokenTTL() time.Duration {
	return time.Duration(a.TokenTTLHours) * time.Hour
}

// DatabaseConfig holds PostgreSQL configuration for the application store.
type DatabaseConfig struct {
	Host           string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"PGUSER" env-default:"vizly"`
	Password       string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"PGDATABASE" env-default:"vizly_engine"`
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"25"`
	SSLMode        string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
	MigrationsPath string `yaml:"migrations_path" env:"PGMIGRATIONS_PATH" env-default:"migrations"`
}

// ExecuteConfig bounds ad-hoc SQL execution against external databases.
type ExecuteConfig struct {
	// MaxRows caps the number of rows any execute call may return.
	MaxRows int `yaml:"max_rows" env:"EXECUTE_MAX_ROWS" env-default:"1000"`
	// TimeoutSeconds bounds dial + execute for a single call.
	TimeoutSeconds int `yaml:"timeout_seconds" env:"EXECUTE_TIMEOUT_SECONDS" env-default:"30"`
}

// Timeout returns the execution deadline as a duration.
func (e *ExecuteConfig) Timeout() time.Duration {
	return time.Duration(e.TimeoutSeconds) * time.Second
}

// Load reads configuration from config.yaml with environment variable overrides.
// The version parameter is injected at build time and set on the returned Config.
func Load(version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
		return nil, fmt.Errorf("failed to read config.yaml: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Auto-derive BaseURL from Port if not explicitly set
	if cfg.BaseURL == "" {
		cfg.BaseURL = (&url.URL{
			Scheme: "http",
			Host:   "localhost:" + cfg.Port,
		}).String()
	}

	return cfg, nil
}

// Validate checks that required secrets are present.
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET must be set")
	}
	if c.ConnectionSecretsKey == "" {
		return fmt.Errorf("CONNECTION_SECRETS_KEY must be set")
	}
	return nil
}

// ConnectionString returns a PostgreSQL connection string for the app store.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}
