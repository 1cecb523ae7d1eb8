package config

import (
	"flag"
	"io"

	"github.com/dmitrijs2005/sessionkeeper/internal/flagx"
)

var knownFlags = []string{"-a", "-m", "-b", "-d", "-t", "-r", "-v", "-f", "-l", "-o"}

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags:
//
//	-a string     gRPC bind address (e.g., ":50051")
//	-m string     metrics bind address, empty disables /metrics
//	-b string     storage backend: postgres, sqlite, mongo or memory
//	-d string     database DSN for postgres and sqlite
//	-t duration   access token lifetime
//	-r duration   refresh token lifetime
//	-v duration   email verify token lifetime
//	-f duration   forgot password token lifetime
//	-l string     log level
//	-o string     log format: text or json
//
// args is filtered with flagx.FilterArgs first, so flags of other loaders
// (-c/-config) do not trip the parser.
func parseFlags(config *Config, args []string) error {
	args = flagx.FilterArgs(args, knownFlags)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.EndpointAddrGRPC, "a", config.EndpointAddrGRPC, "address and port to run server")
	fs.StringVar(&config.MetricsAddr, "m", config.MetricsAddr, "address and port to serve metrics")
	fs.StringVar(&config.StorageDriver, "b", config.StorageDriver, "storage backend")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.DurationVar(&config.AccessTokenLifetime, "t", config.AccessTokenLifetime, "access token lifetime")
	fs.DurationVar(&config.RefreshTokenLifetime, "r", config.RefreshTokenLifetime, "refresh token lifetime")
	fs.DurationVar(&config.EmailVerifyTokenLifetime, "v", config.EmailVerifyTokenLifetime, "email verify token lifetime")
	fs.DurationVar(&config.ForgotPasswordTokenLifetime, "f", config.ForgotPasswordTokenLifetime, "forgot password token lifetime")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")
	fs.StringVar(&config.LogFormat, "o", config.LogFormat, "log format")

	return fs.Parse(args)
}
