// Package config handles configuration for the server component:
// defaults, .env and environment variables, a JSON overlay and
// command-line flags, applied in that order.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"
)

const (
	MailProviderLog    = "log"
	MailProviderResend = "resend"
)

// Config holds runtime settings for the sessionkeeper server.
type Config struct {
	EndpointAddrGRPC string
	MetricsAddr      string

	StorageDriver     string
	DatabaseDSN       string
	MongoURI          string
	MongoDatabase     string
	MongoTransactions bool

	AccessTokenSecret         string
	RefreshTokenSecret        string
	EmailVerifyTokenSecret    string
	ForgotPasswordTokenSecret string

	AccessTokenLifetime         time.Duration
	RefreshTokenLifetime        time.Duration
	EmailVerifyTokenLifetime    time.Duration
	ForgotPasswordTokenLifetime time.Duration

	// PruneInterval is how often expired refresh tokens are removed from
	// stores without native expiry.
	PruneInterval time.Duration

	MailProvider string
	ResendAPIKey string
	EmailFrom    string
	AppName      string
	AppURL       string

	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string

	// RateLimit is calls per second per peer on every method but Ping.
	RateLimit float64
	RateBurst int

	LogFormat string
	LogLevel  string
	SentryDSN string
}

// LoadDefaults populates Config with development defaults. The secrets are
// not fit for production.
func (c *Config) LoadDefaults() {
	c.EndpointAddrGRPC = ":50051"
	c.MetricsAddr = ":9090"

	c.StorageDriver = "sqlite"
	c.DatabaseDSN = "file:sessionkeeper.db?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)"
	c.MongoURI = "mongodb://localhost:27017"
	c.MongoDatabase = "sessionkeeper"

	c.AccessTokenSecret = "dev-access-secret"
	c.RefreshTokenSecret = "dev-refresh-secret"
	c.EmailVerifyTokenSecret = "dev-email-verify-secret"
	c.ForgotPasswordTokenSecret = "dev-forgot-password-secret"

	c.AccessTokenLifetime = 15 * time.Minute
	c.RefreshTokenLifetime = 100 * 24 * time.Hour
	c.EmailVerifyTokenLifetime = 10 * time.Minute
	c.ForgotPasswordTokenLifetime = 7 * 24 * time.Hour

	c.PruneInterval = time.Hour

	c.MailProvider = MailProviderLog
	c.EmailFrom = "no-reply@example.com"
	c.AppName = "Sessionkeeper"
	c.AppURL = "http://localhost:3000"

	c.RateLimit = 5
	c.RateBurst = 20

	c.LogFormat = "text"
	c.LogLevel = "info"
}

// Validate reports settings that cannot work together.
func (c *Config) Validate() error {
	var errs []error

	switch c.StorageDriver {
	case "postgres", "sqlite":
		if c.DatabaseDSN == "" {
			errs = append(errs, fmt.Errorf("storage driver %s needs a database DSN", c.StorageDriver))
		}
	case "mongo":
		if c.MongoURI == "" || c.MongoDatabase == "" {
			errs = append(errs, errors.New("storage driver mongo needs a URI and a database"))
		}
	case "memory":
	default:
		errs = append(errs, fmt.Errorf("unknown storage driver %q", c.StorageDriver))
	}

	switch c.MailProvider {
	case MailProviderLog:
	case MailProviderResend:
		if c.ResendAPIKey == "" {
			errs = append(errs, errors.New("mail provider resend needs an API key"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown mail provider %q", c.MailProvider))
	}

	if c.PruneInterval <= 0 {
		errs = append(errs, errors.New("prune interval must be positive"))
	}

	return errors.Join(errs...)
}

// GoogleEnabled reports whether Google sign-in is configured.
func (c *Config) GoogleEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != ""
}

// LoadConfig builds a Config from defaults, then .env and environment
// variables, then the JSON file named by -c/-config, then flags.
func LoadConfig(args []string) (*Config, error) {
	// a missing .env is normal outside development
	_ = godotenv.Load()

	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseEnv(cfg, lookupEnv); err != nil {
		return nil, fmt.Errorf("env: %w", err)
	}
	if err := parseJson(cfg, args); err != nil {
		return nil, fmt.Errorf("json config: %w", err)
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, fmt.Errorf("flags: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
