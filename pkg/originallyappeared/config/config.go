// Package config loads the reference server configuration and builds the
// storage backend it names.
package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/text/language"

	oa "github.com/krues8dr/originallyappeared/pkg/originallyappeared"
	"github.com/krues8dr/originallyappeared/pkg/originallyappeared/repo/memory"
	repopg "github.com/krues8dr/originallyappeared/pkg/originallyappeared/repo/postgres"
)

// Secrets used when none are configured. Rejected in production.
const (
	devNonceSecret = "development-nonce-secret"
	devJWTSecret   = "development-jwt-secret"
)

// Option applies configuration to a ServerConfig instance.
type Option func(*ServerConfig) error

// Load constructs a ServerConfig by applying the supplied options on top of defaults.
func Load(opts ...Option) (*ServerConfig, error) {
	cfg := defaults()

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func defaults() ServerConfig {
	return ServerConfig{
		Port:          "8080",
		Environment:   "development",
		BaseURL:       "http://localhost:8080",
		DatabaseType:  "memory",
		DBSchema:      "originallyappeared",
		Locale:        "en",
		NonceSecret:   devNonceSecret,
		NonceLifetime: 24 * time.Hour,
		JWTSecret:     devJWTSecret,
		EnableMetrics: true,
	}
}

// ServerConfig represents configuration for the reference server
type ServerConfig struct {
	Port        string
	Environment string // development, production, testing
	BaseURL     string // Public address used for permalinks

	// Database configuration
	DatabaseURL  string
	DatabaseType string // "memory", "postgres"
	DBSchema     string // Postgres schema to use
	AutoMigrate  bool

	// Presentation
	Locale             string // BCP 47 tag for labels and the default message
	SingularPages      bool   // Treat page views as single views
	EscapePlaceholders bool
	DefaultTemplate    string // Overrides the localized default message when set

	// Authentication
	NonceSecret   string
	NonceLifetime time.Duration
	JWTSecret     string
	APIKeySHA256  string // Hex SHA-256 of the key accepted on /api/v1; empty disables the API

	// Integrations
	EventAuditURL string // CloudEvents target for applied saves; empty disables events
	EnableMetrics bool
}

// Validate validates the server configuration
func (c *ServerConfig) Validate() error {
	if c.Port == "" {
		return errors.New("port is required")
	}

	if c.BaseURL == "" {
		return errors.New("base_url is required")
	}

	if c.DatabaseType != "memory" && c.DatabaseType != "postgres" {
		return errors.New("database_type must be 'memory' or 'postgres'")
	}

	if c.DatabaseType == "postgres" && c.DatabaseURL == "" {
		return errors.New("database_url is required when using postgres")
	}

	if _, err := language.Parse(c.Locale); err != nil {
		return fmt.Errorf("invalid locale %q: %w", c.Locale, err)
	}

	if c.NonceSecret == "" {
		return errors.New("nonce_secret is required")
	}
	if c.JWTSecret == "" {
		return errors.New("jwt_secret is required")
	}
	if c.NonceLifetime <= 0 {
		return errors.New("nonce_lifetime must be positive")
	}

	if c.IsProduction() {
		if c.NonceSecret == devNonceSecret {
			return errors.New("nonce_secret must be set in production")
		}
		if c.JWTSecret == devJWTSecret {
			return errors.New("jwt_secret must be set in production")
		}
	}

	return nil
}

// IsProduction reports whether the server runs in production mode
func (c *ServerConfig) IsProduction() bool {
	return c.Environment == "production"
}

// LocaleTag returns the configured locale
func (c *ServerConfig) LocaleTag() language.Tag {
	tag, err := language.Parse(c.Locale)
	if err != nil {
		return language.English
	}
	return tag
}

// BuildRepository creates the storage backend named by the configuration.
// The returned close function releases its connections.
func (c *ServerConfig) BuildRepository(ctx context.Context) (oa.Repository, func(), error) {
	switch c.DatabaseType {
	case "memory":
		return memory.New(), func() {}, nil
	case "postgres":
		pool, err := newPool(ctx, c.DatabaseURL, c.DBSchema)
		if err != nil {
			return nil, nil, err
		}
		if c.AutoMigrate {
			if err := repopg.Migrate(ctx, pool); err != nil {
				pool.Close()
				return nil, nil, fmt.Errorf("failed to migrate schema: %w", err)
			}
		}
		return repopg.NewWithPool(pool), pool.Close, nil
	default:
		return nil, nil, fmt.Errorf("unsupported database type: %s", c.DatabaseType)
	}
}

func newPool(ctx context.Context, databaseURL, schema string) (*pgxpool.Pool, error) {
	if databaseURL == "" {
		return nil, errors.New("database_url is required for postgres")
	}
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DATABASE_URL: %w", err)
	}
	if schema != "" {
		cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
			_, err := conn.Exec(ctx, "SET search_path TO "+pgx.Identifier{schema}.Sanitize())
			return err
		}
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}
	return pool, nil
}

// PingPostgres verifies connectivity to Postgres with the schema as search_path.
func PingPostgres(ctx context.Context, databaseURL, schema string) error {
	pool, err := newPool(ctx, databaseURL, schema)
	if err != nil {
		return err
	}
	defer pool.Close()

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	return nil
}
