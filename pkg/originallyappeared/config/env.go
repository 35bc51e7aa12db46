package config

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// envSettings maps environment variables onto ServerConfig fields.
type envSettings struct {
	Port          string `env:"PORT" env-description:"HTTP listen port"`
	Environment   string `env:"ENVIRONMENT" env-description:"development, production or testing"`
	BaseURL       string `env:"BASE_URL" env-description:"Public address used for permalinks"`
	DatabaseURL   string `env:"DATABASE_URL" env-description:"memory or postgres://..."`
	DBSchema      string `env:"DB_SCHEMA" env-description:"Postgres schema"`
	AutoMigrate   bool   `env:"AUTO_MIGRATE" env-description:"Create tables on startup"`
	Locale        string `env:"LOCALE" env-description:"Locale of labels and the default message"`
	SingularPages bool   `env:"SINGULAR_PAGES" env-description:"Treat page views as single views"`
	EscapeValues  bool   `env:"ESCAPE_PLACEHOLDERS" env-description:"HTML-escape substituted values"`
	Template      string `env:"DEFAULT_TEMPLATE" env-description:"Default notice template"`

	NonceSecret   string        `env:"NONCE_SECRET" env-description:"Integrity token signing key"`
	NonceLifetime time.Duration `env:"NONCE_LIFETIME" env-description:"Integrity token lifetime"`
	JWTSecret     string        `env:"JWT_SECRET" env-description:"Author token signing key"`
	APIKeySHA256  string        `env:"API_KEY_SHA256" env-description:"Hex SHA-256 of the API key"`

	EventAuditURL string `env:"EVENT_AUDIT_URL" env-description:"CloudEvents target for applied saves"`
	EnableMetrics bool   `env:"ENABLE_METRICS" env-description:"Serve /metrics"`
}

// WithEnv applies environment variable overrides using the provided prefix.
// Unset variables keep the current value.
//
// DATABASE_URL selects the backend: empty or "memory" uses the in-memory
// repository, "postgres://" and "postgresql://" URLs use Postgres.
func WithEnv(prefix string) Option {
	return func(c *ServerConfig) error {
		s := settingsFrom(c)
		if err := readEnv(prefix, &s); err != nil {
			return fmt.Errorf("failed to read environment: %w", err)
		}
		return s.apply(c)
	}
}

// Usage describes the recognised variables for prefix
func Usage(prefix string) string {
	root := prefixed(prefix)
	header := "Environment variables:"
	desc, err := cleanenv.GetDescription(root.Interface(), &header)
	if err != nil {
		return err.Error()
	}
	return desc
}

// prefixed wraps envSettings in a struct whose env-prefix tag carries prefix
func prefixed(prefix string) reflect.Value {
	t := reflect.StructOf([]reflect.StructField{{
		Name: "Settings",
		Type: reflect.TypeOf(envSettings{}),
		Tag:  reflect.StructTag(fmt.Sprintf(`env-prefix:"%s"`, prefix)),
	}})
	return reflect.New(t)
}

func readEnv(prefix string, s *envSettings) error {
	if prefix == "" {
		return cleanenv.ReadEnv(s)
	}
	root := prefixed(prefix)
	field := root.Elem().Field(0)
	field.Set(reflect.ValueOf(*s))
	if err := cleanenv.ReadEnv(root.Interface()); err != nil {
		return err
	}
	*s = field.Interface().(envSettings)
	return nil
}

func settingsFrom(c *ServerConfig) envSettings {
	databaseURL := c.DatabaseURL
	if c.DatabaseType == "memory" {
		databaseURL = ""
	}
	return envSettings{
		Port:          c.Port,
		Environment:   c.Environment,
		BaseURL:       c.BaseURL,
		DatabaseURL:   databaseURL,
		DBSchema:      c.DBSchema,
		AutoMigrate:   c.AutoMigrate,
		Locale:        c.Locale,
		SingularPages: c.SingularPages,
		EscapeValues:  c.EscapePlaceholders,
		Template:      c.DefaultTemplate,
		NonceSecret:   c.NonceSecret,
		NonceLifetime: c.NonceLifetime,
		JWTSecret:     c.JWTSecret,
		APIKeySHA256:  c.APIKeySHA256,
		EventAuditURL: c.EventAuditURL,
		EnableMetrics: c.EnableMetrics,
	}
}

func (s envSettings) apply(c *ServerConfig) error {
	if err := applyDatabaseURL(s.DatabaseURL, c); err != nil {
		return err
	}
	c.Port = s.Port
	c.Environment = s.Environment
	c.BaseURL = s.BaseURL
	c.DBSchema = s.DBSchema
	c.AutoMigrate = s.AutoMigrate
	c.Locale = s.Locale
	c.SingularPages = s.SingularPages
	c.EscapePlaceholders = s.EscapeValues
	c.DefaultTemplate = s.Template
	c.NonceSecret = s.NonceSecret
	c.NonceLifetime = s.NonceLifetime
	c.JWTSecret = s.JWTSecret
	c.APIKeySHA256 = s.APIKeySHA256
	c.EventAuditURL = s.EventAuditURL
	c.EnableMetrics = s.EnableMetrics
	return nil
}

// applyDatabaseURL derives the backend type from the URL scheme
func applyDatabaseURL(dbURL string, c *ServerConfig) error {
	switch {
	case dbURL == "" || dbURL == "memory":
		c.DatabaseType = "memory"
		c.DatabaseURL = ""
	case strings.HasPrefix(dbURL, "postgresql://"), strings.HasPrefix(dbURL, "postgres://"):
		c.DatabaseType = "postgres"
		c.DatabaseURL = dbURL
	default:
		return fmt.Errorf("unsupported DATABASE_URL format: %s (use 'memory' or 'postgresql://...')", dbURL)
	}
	return nil
}
