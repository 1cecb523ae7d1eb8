package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

func lookupEnv(key string) (string, bool) {
	return os.LookupEnv(key)
}

type envLookup func(key string) (string, bool)

func envString(lookup envLookup, key string, dst *string) {
	if v, ok := lookup(key); ok && v != "" {
		*dst = v
	}
}

func envDuration(lookup envLookup, key string, dst *time.Duration) error {
	v, ok := lookup(key)
	if !ok || v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = d
	return nil
}

func envBool(lookup envLookup, key string, dst *bool) error {
	v, ok := lookup(key)
	if !ok || v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = b
	return nil
}

func envFloat(lookup envLookup, key string, dst *float64) error {
	v, ok := lookup(key)
	if !ok || v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = f
	return nil
}

func envInt(lookup envLookup, key string, dst *int) error {
	v, ok := lookup(key)
	if !ok || v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = n
	return nil
}

// parseEnv overlays the environment onto config. Unset and empty variables
// keep the current value.
func parseEnv(config *Config, lookup envLookup) error {
	envString(lookup, "GRPC_ADDRESS", &config.EndpointAddrGRPC)
	envString(lookup, "METRICS_ADDRESS", &config.MetricsAddr)

	envString(lookup, "STORAGE_DRIVER", &config.StorageDriver)
	envString(lookup, "DATABASE_DSN", &config.DatabaseDSN)
	envString(lookup, "MONGO_URI", &config.MongoURI)
	envString(lookup, "MONGO_DATABASE", &config.MongoDatabase)

	envString(lookup, "ACCESS_TOKEN_SECRET", &config.AccessTokenSecret)
	envString(lookup, "REFRESH_TOKEN_SECRET", &config.RefreshTokenSecret)
	envString(lookup, "EMAIL_VERIFY_TOKEN_SECRET", &config.EmailVerifyTokenSecret)
	envString(lookup, "FORGOT_PASSWORD_TOKEN_SECRET", &config.ForgotPasswordTokenSecret)

	envString(lookup, "MAIL_PROVIDER", &config.MailProvider)
	envString(lookup, "RESEND_API_KEY", &config.ResendAPIKey)
	envString(lookup, "EMAIL_FROM", &config.EmailFrom)
	envString(lookup, "APP_NAME", &config.AppName)
	envString(lookup, "APP_URL", &config.AppURL)

	envString(lookup, "GOOGLE_CLIENT_ID", &config.GoogleClientID)
	envString(lookup, "GOOGLE_CLIENT_SECRET", &config.GoogleClientSecret)
	envString(lookup, "GOOGLE_REDIRECT_URL", &config.GoogleRedirectURL)

	envString(lookup, "LOG_FORMAT", &config.LogFormat)
	envString(lookup, "LOG_LEVEL", &config.LogLevel)
	envString(lookup, "SENTRY_DSN", &config.SentryDSN)

	for _, step := range []error{
		envBool(lookup, "MONGO_TRANSACTIONS", &config.MongoTransactions),
		envDuration(lookup, "ACCESS_TOKEN_LIFETIME", &config.AccessTokenLifetime),
		envDuration(lookup, "REFRESH_TOKEN_LIFETIME", &config.RefreshTokenLifetime),
		envDuration(lookup, "EMAIL_VERIFY_TOKEN_LIFETIME", &config.EmailVerifyTokenLifetime),
		envDuration(lookup, "FORGOT_PASSWORD_TOKEN_LIFETIME", &config.ForgotPasswordTokenLifetime),
		envDuration(lookup, "PRUNE_INTERVAL", &config.PruneInterval),
		envFloat(lookup, "RATE_LIMIT", &config.RateLimit),
		envInt(lookup, "RATE_BURST", &config.RateBurst),
	} {
		if step != nil {
			return step
		}
	}
	return nil
}
