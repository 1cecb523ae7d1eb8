package logging

import (
	"io"
	"log/slog"
	"strings"

	"github.com/getsentry/sentry-go"
	slogmulti "github.com/samber/slog-multi"
	slogsentry "github.com/samber/slog-sentry/v2"
)

// Options describe the process-wide log output.
type Options struct {
	// Format is "json" or "text".
	Format string
	// Level is one of debug, info, warn, error.
	Level string
	// SentryDSN enables error forwarding to Sentry when non-empty.
	SentryDSN string
}

// ParseLevel maps a level name to slog.Level, defaulting to Info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewHandler builds the root slog handler writing to w. Errors are also sent
// to Sentry when a DSN is configured and the client initialises.
func NewHandler(w io.Writer, opts Options) slog.Handler {
	ho := &slog.HandlerOptions{Level: ParseLevel(opts.Level)}

	var base slog.Handler
	if opts.Format == "text" {
		base = slog.NewTextHandler(w, ho)
	} else {
		base = slog.NewJSONHandler(w, ho)
	}

	if opts.SentryDSN == "" {
		return base
	}

	if err := sentry.Init(sentry.ClientOptions{Dsn: opts.SentryDSN}); err != nil {
		slog.New(base).Warn("sentry init failed, continuing without it", "error", err)
		return base
	}

	return slogmulti.Fanout(
		base,
		slogsentry.Option{Level: slog.LevelError}.NewSentryHandler(),
	)
}
