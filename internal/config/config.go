// Package config loads server settings from the environment, reading an
// optional .env file first.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	DriverSQLite = "sqlite"
	DriverMongo  = "mongo"
)

// Config holds every server setting.
type Config struct {
	Port        string `env:"PORT" envDefault:"8080"`
	StoreDriver string `env:"STORE_DRIVER" envDefault:"sqlite"`
	SQLitePath  string `env:"SQLITE_PATH" envDefault:"events.db"`

	MongoURI      string `env:"MONGO_URI" envDefault:"mongodb://localhost:27017"`
	MongoDatabase string `env:"MONGO_DATABASE" envDefault:"tiered_events"`

	JWTSecret   string `env:"AUTH_JWT_SECRET"`
	JWTIssuer   string `env:"AUTH_JWT_ISSUER"`
	JWTAudience string `env:"AUTH_JWT_AUDIENCE"`
	SignInURL   string `env:"AUTH_SIGN_IN_URL" envDefault:"/sign-in"`
	SignUpURL   string `env:"AUTH_SIGN_UP_URL" envDefault:"/sign-up"`

	ProtectedPrefixes []string `env:"PROTECTED_PREFIXES" envSeparator:"," envDefault:"/events,/profile,/api/events,/api/me"`

	IconBaseURL     string `env:"ICON_BASE_URL" envDefault:"https://api.dicebear.com/8.x"`
	TrackAttendance bool   `env:"RSVP_TRACK_ATTENDANCE" envDefault:"false"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogPretty bool   `env:"LOG_PRETTY" envDefault:"false"`

	OTelEndpoint string `env:"OTEL_ENDPOINT"`
	OTelEnabled  bool   `env:"OTEL_ENABLED" envDefault:"true"`

	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load reads the given .env files (or ./.env when none are named), then the
// environment, and validates the result. Variables already set in the
// environment win over file values. Missing files are not an error.
func Load(files ...string) (Config, error) {
	cfg, err := parse(files)
	if err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadStore is Load for tools that only touch the store; session settings
// are not required.
func LoadStore(files ...string) (Config, error) {
	cfg, err := parse(files)
	if err != nil {
		return Config{}, err
	}
	if err := errors.Join(cfg.storeErrors()...); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func parse(files []string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		// godotenv.Load does not override variables that are already set.
		_ = godotenv.Load(f)
	}

	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	cfg.normalize()
	return cfg, nil
}

func (c *Config) normalize() {
	c.StoreDriver = strings.ToLower(strings.TrimSpace(c.StoreDriver))
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))

	prefixes := c.ProtectedPrefixes[:0]
	for _, p := range c.ProtectedPrefixes {
		if p = strings.TrimSpace(p); p != "" {
			prefixes = append(prefixes, p)
		}
	}
	c.ProtectedPrefixes = prefixes
}

// Validate rejects settings the server cannot start with.
func (c Config) Validate() error {
	errs := c.storeErrors()
	if strings.TrimSpace(c.JWTSecret) == "" {
		errs = append(errs, errors.New("AUTH_JWT_SECRET is required"))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("SHUTDOWN_TIMEOUT must be positive"))
	}
	return errors.Join(errs...)
}

func (c Config) storeErrors() []error {
	var errs []error
	switch c.StoreDriver {
	case DriverSQLite:
		if strings.TrimSpace(c.SQLitePath) == "" {
			errs = append(errs, errors.New("SQLITE_PATH is required for the sqlite driver"))
		}
	case DriverMongo:
		if strings.TrimSpace(c.MongoURI) == "" || strings.TrimSpace(c.MongoDatabase) == "" {
			errs = append(errs, errors.New("MONGO_URI and MONGO_DATABASE are required for the mongo driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("STORE_DRIVER %q is not one of sqlite, mongo", c.StoreDriver))
	}
	return errs
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string {
	if strings.Contains(c.Port, ":") {
		return c.Port
	}
	return ":" + c.Port
}
