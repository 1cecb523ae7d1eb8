package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/sessionkeeper/internal/flagx"
	"github.com/dmitrijs2005/sessionkeeper/internal/timex"
)

// JsonConfig is the on-disk shape of the JSON config file. Durations use
// timex.Duration so both "15m" and integer nanoseconds are accepted.
// Absent keys leave the current value untouched.
type JsonConfig struct {
	EndpointAddrGRPC string `json:"endpoint_addr_grpc"`
	MetricsAddr      string `json:"metrics_addr"`

	StorageDriver     string `json:"storage_driver"`
	DatabaseDSN       string `json:"database_dsn"`
	MongoURI          string `json:"mongo_uri"`
	MongoDatabase     string `json:"mongo_database"`
	MongoTransactions *bool  `json:"mongo_transactions"`

	AccessTokenSecret         string `json:"access_token_secret"`
	RefreshTokenSecret        string `json:"refresh_token_secret"`
	EmailVerifyTokenSecret    string `json:"email_verify_token_secret"`
	ForgotPasswordTokenSecret string `json:"forgot_password_token_secret"`

	AccessTokenLifetime         timex.Duration `json:"access_token_lifetime"`
	RefreshTokenLifetime        timex.Duration `json:"refresh_token_lifetime"`
	EmailVerifyTokenLifetime    timex.Duration `json:"email_verify_token_lifetime"`
	ForgotPasswordTokenLifetime timex.Duration `json:"forgot_password_token_lifetime"`
	PruneInterval               timex.Duration `json:"prune_interval"`

	MailProvider string `json:"mail_provider"`
	ResendAPIKey string `json:"resend_api_key"`
	EmailFrom    string `json:"email_from"`
	AppName      string `json:"app_name"`
	AppURL       string `json:"app_url"`

	GoogleClientID     string `json:"google_client_id"`
	GoogleClientSecret string `json:"google_client_secret"`
	GoogleRedirectURL  string `json:"google_redirect_url"`

	RateLimit *float64 `json:"rate_limit"`
	RateBurst *int     `json:"rate_burst"`

	LogFormat string `json:"log_format"`
	LogLevel  string `json:"log_level"`
	SentryDSN string `json:"sentry_dsn"`
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v timex.Duration) {
	if v.Duration != 0 {
		*dst = v.Duration
	}
}

// parseJson loads the file named by -c or -config in args, if any, into
// config.
func parseJson(config *Config, args []string) error {
	path := flagx.ConfigPath(args)
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return err
	}

	setString(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setString(&config.MetricsAddr, c.MetricsAddr)

	setString(&config.StorageDriver, c.StorageDriver)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.MongoURI, c.MongoURI)
	setString(&config.MongoDatabase, c.MongoDatabase)
	if c.MongoTransactions != nil {
		config.MongoTransactions = *c.MongoTransactions
	}

	setString(&config.AccessTokenSecret, c.AccessTokenSecret)
	setString(&config.RefreshTokenSecret, c.RefreshTokenSecret)
	setString(&config.EmailVerifyTokenSecret, c.EmailVerifyTokenSecret)
	setString(&config.ForgotPasswordTokenSecret, c.ForgotPasswordTokenSecret)

	setDuration(&config.AccessTokenLifetime, c.AccessTokenLifetime)
	setDuration(&config.RefreshTokenLifetime, c.RefreshTokenLifetime)
	setDuration(&config.EmailVerifyTokenLifetime, c.EmailVerifyTokenLifetime)
	setDuration(&config.ForgotPasswordTokenLifetime, c.ForgotPasswordTokenLifetime)
	setDuration(&config.PruneInterval, c.PruneInterval)

	setString(&config.MailProvider, c.MailProvider)
	setString(&config.ResendAPIKey, c.ResendAPIKey)
	setString(&config.EmailFrom, c.EmailFrom)
	setString(&config.AppName, c.AppName)
	setString(&config.AppURL, c.AppURL)

	setString(&config.GoogleClientID, c.GoogleClientID)
	setString(&config.GoogleClientSecret, c.GoogleClientSecret)
	setString(&config.GoogleRedirectURL, c.GoogleRedirectURL)

	if c.RateLimit != nil {
		config.RateLimit = *c.RateLimit
	}
	if c.RateBurst != nil {
		config.RateBurst = *c.RateBurst
	}

	setString(&config.LogFormat, c.LogFormat)
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.SentryDSN, c.SentryDSN)
	return nil
}
