package config

import (
	"fmt"
	"time"
)

// WithPort sets the server port
func WithPort(port string) Option {
	return func(c *ServerConfig) error {
		if port == "" {
			return fmt.Errorf("port cannot be empty")
		}
		c.Port = port
		return nil
	}
}

// WithEnvironment sets the environment (development, production, testing)
func WithEnvironment(env string) Option {
	return func(c *ServerConfig) error {
		if env == "" {
			return fmt.Errorf("environment cannot be empty")
		}
		c.Environment = env
		return nil
	}
}

// WithBaseURL sets the public address used for permalinks
func WithBaseURL(baseURL string) Option {
	return func(c *ServerConfig) error {
		if baseURL == "" {
			return fmt.Errorf("base URL cannot be empty")
		}
		c.BaseURL = baseURL
		return nil
	}
}

// WithDatabase configures the database backend
func WithDatabase(dbType, url string) Option {
	return func(c *ServerConfig) error {
		if dbType != "memory" && dbType != "postgres" {
			return fmt.Errorf("database type must be 'memory' or 'postgres', got: %s", dbType)
		}
		if dbType == "postgres" && url == "" {
			return fmt.Errorf("database URL is required for postgres")
		}
		c.DatabaseType = dbType
		c.DatabaseURL = url
		return nil
	}
}

// WithDatabaseSchema sets the database schema (for Postgres)
func WithDatabaseSchema(schema string) Option {
	return func(c *ServerConfig) error {
		c.DBSchema = schema
		return nil
	}
}

// WithAutoMigrate creates the Postgres tables on startup
func WithAutoMigrate(enabled bool) Option {
	return func(c *ServerConfig) error {
		c.AutoMigrate = enabled
		return nil
	}
}

// WithLocale sets the locale of labels and the default message
func WithLocale(locale string) Option {
	return func(c *ServerConfig) error {
		if locale == "" {
			return fmt.Errorf("locale cannot be empty")
		}
		c.Locale = locale
		return nil
	}
}

// WithSingularPages makes page views count as single views
func WithSingularPages(enabled bool) Option {
	return func(c *ServerConfig) error {
		c.SingularPages = enabled
		return nil
	}
}

// WithEscapedPlaceholders HTML-escapes values substituted into the notice
func WithEscapedPlaceholders(enabled bool) Option {
	return func(c *ServerConfig) error {
		c.EscapePlaceholders = enabled
		return nil
	}
}

// WithDefaultTemplate overrides the default notice template
func WithDefaultTemplate(tmpl string) Option {
	return func(c *ServerConfig) error {
		c.DefaultTemplate = tmpl
		return nil
	}
}

// WithSecrets sets the integrity token and JWT signing secrets
func WithSecrets(nonceSecret, jwtSecret string) Option {
	return func(c *ServerConfig) error {
		if nonceSecret == "" || jwtSecret == "" {
			return fmt.Errorf("secrets cannot be empty")
		}
		c.NonceSecret = nonceSecret
		c.JWTSecret = jwtSecret
		return nil
	}
}

// WithNonceLifetime sets how long an integrity token stays valid
func WithNonceLifetime(d time.Duration) Option {
	return func(c *ServerConfig) error {
		if d <= 0 {
			return fmt.Errorf("nonce lifetime must be positive, got: %s", d)
		}
		c.NonceLifetime = d
		return nil
	}
}

// WithAPIKeySHA256 enables the /api/v1 routes for the key with this hash
func WithAPIKeySHA256(hash string) Option {
	return func(c *ServerConfig) error {
		c.APIKeySHA256 = hash
		return nil
	}
}

// WithEventAuditURL sends a CloudEvent to url for every applied save
func WithEventAuditURL(url string) Option {
	return func(c *ServerConfig) error {
		c.EventAuditURL = url
		return nil
	}
}

// WithMetrics enables or disables the /metrics endpoint
func WithMetrics(enabled bool) Option {
	return func(c *ServerConfig) error {
		c.EnableMetrics = enabled
		return nil
	}
}
