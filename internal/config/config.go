// Package config provides configuration loading and management for the
// registry sync pipeline.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"
)

// Option defines the interface for configuration options
type Option func(*loaderConfig) error

// loaderConfig defines the configuration for loading a configuration
type loaderConfig struct {
	path string
}

// WithConfigPath loads configuration from a YAML file
func WithConfigPath(path string) Option {
	return func(cfg *loaderConfig) error {
		if path == "" {
			return fmt.Errorf("path is required")
		}

		// Resolve symlinks to prevent symlink attacks.
		// Note that this calls filepath.Clean internally.
		realPath, err := filepath.EvalSymlinks(path)
		if err != nil {
			return fmt.Errorf("failed to evaluate symlinks: %w", err)
		}

		if !filepath.IsAbs(realPath) {
			if !filepath.IsLocal(realPath) {
				return fmt.Errorf("path is not local or contains invalid traversal: %s", path)
			}
		}

		cfg.path = realPath
		return nil
	}
}

// Config represents the root configuration structure
type Config struct {
	// StorageDir is the root directory for version archives and example
	// trees
	StorageDir string `yaml:"storageDir"`

	Sync     SyncConfig      `yaml:"sync,omitempty"`
	Download DownloadConfig  `yaml:"download,omitempty"`
	Database *DatabaseConfig `yaml:"database,omitempty"`
	Cache    *CacheConfig    `yaml:"cache,omitempty"`
}

// SyncConfig defines scheduling and retention policy
type SyncConfig struct {
	// MaxSyncFailures deactivates a library once its consecutive failure
	// count reaches this value; 0 uses the default (50)
	MaxSyncFailures int32 `yaml:"maxSyncFailures,omitempty"`

	// KeepVersions is how many recent versions the cleanup operation
	// retains per library; 0 uses the default (10)
	KeepVersions int `yaml:"keepVersions,omitempty"`
}

// DownloadConfig bounds manifest fetches and source archive downloads
type DownloadConfig struct {
	// MaxManifestSize caps manifest document fetches, in bytes
	MaxManifestSize int64 `yaml:"maxManifestSize,omitempty"`

	// MaxArchiveSize caps source archive downloads, in bytes
	MaxArchiveSize int64 `yaml:"maxArchiveSize,omitempty"`

	// Timeout is the HTTP timeout (e.g., "60s")
	Timeout string `yaml:"timeout,omitempty"`
}

// CacheConfig defines the Redis endpoint used for downstream cache
// invalidation
type CacheConfig struct {
	// Addr is the Redis host:port
	Addr string `yaml:"addr"`

	// DB is the Redis database number
	DB int `yaml:"db,omitempty"`

	// Password is the Redis password, if any
	Password string `yaml:"password,omitempty"`
}

// DatabaseConfig defines database connection settings
type DatabaseConfig struct {
	// Host is the database server hostname or IP address
	Host string `yaml:"host"`

	// Port is the database server port
	Port int `yaml:"port"`

	// User is the database username
	User string `yaml:"user"`

	// PasswordFile is the path to a file containing the database password.
	// The file should contain only the password with optional trailing
	// whitespace.
	PasswordFile string `yaml:"passwordFile,omitempty"`

	// Database is the database name
	Database string `yaml:"database"`

	// SSLMode is the SSL mode for the connection (disable, require, verify-ca, verify-full)
	SSLMode string `yaml:"sslMode,omitempty"`

	// MaxConns is the maximum size of the connection pool
	MaxConns int32 `yaml:"maxConns,omitempty"`
}

// Validate checks the configuration for structural errors.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.StorageDir, validation.Required),
	); err != nil {
		return err
	}
	if c.Database != nil {
		if err := validation.ValidateStruct(c.Database,
			validation.Field(&c.Database.Host, validation.Required),
			validation.Field(&c.Database.Port, validation.Required, validation.Min(1), validation.Max(65535)),
			validation.Field(&c.Database.User, validation.Required),
			validation.Field(&c.Database.Database, validation.Required),
		); err != nil {
			return fmt.Errorf("database: %w", err)
		}
	}
	if c.Cache != nil {
		if err := validation.ValidateStruct(c.Cache,
			validation.Field(&c.Cache.Addr, validation.Required),
		); err != nil {
			return fmt.Errorf("cache: %w", err)
		}
	}
	return nil
}

// GetPassword returns the database password using the following priority:
// 1. Read from PasswordFile if specified
// 2. Read from PIO_DATABASE_PASSWORD environment variable
//
// The password from file will have leading/trailing whitespace trimmed.
func (d *DatabaseConfig) GetPassword() (string, error) {
	if d.PasswordFile != "" {
		// Use filepath.Clean to prevent path traversal attacks
		cleanPath := filepath.Clean(d.PasswordFile)

		data, err := os.ReadFile(cleanPath)
		if err != nil {
			return "", fmt.Errorf("failed to read password from file %s: %w", d.PasswordFile, err)
		}

		password := strings.TrimSpace(string(data))
		return password, nil
	}

	if envPassword := os.Getenv("PIO_DATABASE_PASSWORD"); envPassword != "" {
		return envPassword, nil
	}

	return "", fmt.Errorf(
		"no database password configured: set passwordFile or PIO_DATABASE_PASSWORD environment variable",
	)
}

// GetConnectionString builds a PostgreSQL connection string with proper
// password handling. The password is URL-escaped to handle special
// characters safely.
func (d *DatabaseConfig) GetConnectionString() (string, error) {
	password, err := d.GetPassword()
	if err != nil {
		return "", err
	}

	sslMode := d.SSLMode
	if sslMode == "" {
		sslMode = "require"
	}

	escapedPassword := url.QueryEscape(password)

	connString := fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User,
		escapedPassword,
		d.Host,
		d.Port,
		d.Database,
		sslMode,
	)

	return connString, nil
}

// LoadConfig loads and parses configuration from a YAML file
func LoadConfig(opts ...Option) (*Config, error) {
	loaderCfg := &loaderConfig{}
	for _, opt := range opts {
		if err := opt(loaderCfg); err != nil {
			return nil, err
		}
	}

	if loaderCfg.path == "" {
		return nil, fmt.Errorf("path is required")
	}

	data, err := os.ReadFile(loaderCfg.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}
