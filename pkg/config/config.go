// Package config loads the application configuration from environment
// variables, with optional .env file support.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
)

// Config represents the application configuration.
type Config struct {
	// Provider configuration
	LinearEndpoint  string `env:"LINEAR_ENDPOINT" default:"https://api.linear.app/graphql"`
	LinearAPIKeyEnc string `env:"LINEAR_API_KEY_ENC" validate:"required"`

	// Credential decryption
	CredentialPassphrase string `env:"CREDENTIAL_PASSPHRASE" validate:"required,min=10"`

	// Storage configuration
	DatabasePath string `env:"DATABASE_PATH" default:"integration.db"`

	// Audit trail configuration; empty SnapshotDir disables snapshots
	SnapshotDir      string `env:"SNAPSHOT_DIR"`
	AuditAuthorName  string `env:"AUDIT_AUTHOR_NAME" default:"integration-bot"`
	AuditAuthorEmail string `env:"AUDIT_AUTHOR_EMAIL" default:"integration@localhost"`

	// HTTP server configuration
	ListenAddr string `env:"LISTEN_ADDR" default:":8080"`

	// Application configuration
	LogLevel string `env:"LOG_LEVEL" validate:"oneof=debug info warn error" default:"info"`
}

// Provider defines the interface for configuration management.
// This enables dependency injection and easy testing.
type Provider interface {
	Load() (*Config, error)
	Validate(*Config) error
	LoadFromEnv() (*Config, error)
}

// Loader implements the Provider interface.
type Loader struct {
	envLoader EnvLoader
}

// EnvLoader defines interface for environment variable loading.
// This allows for testing with mock environment variables.
type EnvLoader interface {
	Getenv(key string) string
	LookupEnv(key string) (string, bool)
}

// OSEnvLoader implements EnvLoader using the os package.
type OSEnvLoader struct{}

func (o *OSEnvLoader) Getenv(key string) string {
	return os.Getenv(key)
}

func (o *OSEnvLoader) LookupEnv(key string) (string, bool) {
	return os.LookupEnv(key)
}

// NewLoader creates a new configuration loader.
func NewLoader() Provider {
	return &Loader{
		envLoader: &OSEnvLoader{},
	}
}

// NewLoaderWithEnv creates a loader with a custom environment loader (for testing).
func NewLoaderWithEnv(envLoader EnvLoader) Provider {
	return &Loader{
		envLoader: envLoader,
	}
}

// Load loads configuration from environment variables.
func (l *Loader) Load() (*Config, error) {
	return l.LoadFromEnv()
}

// LoadFromEnv loads configuration from environment variables.
func (l *Loader) LoadFromEnv() (*Config, error) {
	config := &Config{}

	config.LinearEndpoint = l.getEnvWithDefault("LINEAR_ENDPOINT", "https://api.linear.app/graphql")
	config.LinearAPIKeyEnc = l.envLoader.Getenv("LINEAR_API_KEY_ENC")
	config.CredentialPassphrase = l.envLoader.Getenv("CREDENTIAL_PASSPHRASE")

	config.DatabasePath = l.getEnvWithDefault("DATABASE_PATH", "integration.db")

	config.SnapshotDir = l.envLoader.Getenv("SNAPSHOT_DIR")
	config.AuditAuthorName = l.getEnvWithDefault("AUDIT_AUTHOR_NAME", "integration-bot")
	config.AuditAuthorEmail = l.getEnvWithDefault("AUDIT_AUTHOR_EMAIL", "integration@localhost")

	config.ListenAddr = l.getEnvWithDefault("LISTEN_ADDR", ":8080")
	config.LogLevel = l.getEnvWithDefault("LOG_LEVEL", "info")

	if err := l.Validate(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration.
func (l *Loader) Validate(config *Config) error {
	var errors []string

	if config.LinearEndpoint == "" {
		errors = append(errors, "LINEAR_ENDPOINT is required")
	} else if err := l.validateURL(config.LinearEndpoint); err != nil {
		errors = append(errors, fmt.Sprintf("LINEAR_ENDPOINT is invalid: %v", err))
	}

	if config.LinearAPIKeyEnc == "" {
		errors = append(errors, "LINEAR_API_KEY_ENC is required")
	}

	if config.CredentialPassphrase == "" {
		errors = append(errors, "CREDENTIAL_PASSPHRASE is required")
	} else if len(config.CredentialPassphrase) < 10 {
		errors = append(errors, "CREDENTIAL_PASSPHRASE must be at least 10 characters long")
	}

	if config.DatabasePath == "" {
		errors = append(errors, "DATABASE_PATH cannot be empty")
	}

	if err := l.validateLogLevel(config.LogLevel); err != nil {
		errors = append(errors, fmt.Sprintf("LOG_LEVEL is invalid: %v", err))
	}

	if len(errors) > 0 {
		return fmt.Errorf("%s", strings.Join(errors, "; "))
	}

	return nil
}

func (l *Loader) validateURL(rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return err
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("must use http or https scheme")
	}
	if parsed.Host == "" {
		return fmt.Errorf("must include a host")
	}
	return nil
}

func (l *Loader) validateLogLevel(level string) error {
	switch level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("must be one of: debug, info, warn, error")
	}
}

func (l *Loader) getEnvWithDefault(key, defaultValue string) string {
	if value, exists := l.envLoader.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}
