// Package server wires the storage backend, token manager, account service
// and transports together and runs them until shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmitrijs2005/sessionkeeper/internal/logging"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/config"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/mailer"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/metrics"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/models"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/oauth"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/services"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/tokens"
	"github.com/resend/resend-go/v2"
	"golang.org/x/sync/errgroup"

	gs "github.com/dmitrijs2005/sessionkeeper/internal/server/grpc"
)

type App struct {
	config   *config.Config
	logger   logging.Logger
	repos    repomanager.RepositoryManager
	tokens   *tokens.Manager
	accounts *services.AccountService
	metrics  *metrics.Metrics
}

// TokenTable builds the per-kind secrets and lifetimes from c.
func TokenTable(c *config.Config) tokens.Table {
	return tokens.Table{
		models.AccessToken:         {Secret: []byte(c.AccessTokenSecret), Lifetime: c.AccessTokenLifetime},
		models.RefreshToken:        {Secret: []byte(c.RefreshTokenSecret), Lifetime: c.RefreshTokenLifetime},
		models.EmailVerifyToken:    {Secret: []byte(c.EmailVerifyTokenSecret), Lifetime: c.EmailVerifyTokenLifetime},
		models.ForgotPasswordToken: {Secret: []byte(c.ForgotPasswordTokenSecret), Lifetime: c.ForgotPasswordTokenLifetime},
	}
}

func newMailer(c *config.Config, l logging.Logger) mailer.Mailer {
	t := mailer.Templates{AppName: c.AppName, AppURL: c.AppURL}
	if c.MailProvider == config.MailProviderResend {
		return mailer.NewResendMailer(resend.NewClient(c.ResendAPIKey), c.EmailFrom, t)
	}
	return mailer.NewLogMailer(l, t)
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	handler := logging.NewHandler(os.Stdout, logging.Options{Format: c.LogFormat, Level: c.LogLevel, SentryDSN: c.SentryDSN})
	logger := logging.NewSlogLogger(slog.New(handler))

	repos, err := repomanager.Open(ctx, repomanager.Options{
		Driver:            c.StorageDriver,
		DSN:               c.DatabaseDSN,
		MongoURI:          c.MongoURI,
		MongoDatabase:     c.MongoDatabase,
		MongoTransactions: c.MongoTransactions,
	})
	if err != nil {
		return nil, fmt.Errorf("storage init error: %w", err)
	}

	if err := repos.RunMigrations(ctx); err != nil {
		_ = repos.Close(ctx)
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	m := metrics.New()

	tm, err := tokens.NewManager(TokenTable(c), repos.RefreshTokens(), tokens.WithLogger(logger), tokens.WithRecorder(m))
	if err != nil {
		_ = repos.Close(ctx)
		return nil, err
	}

	opts := []services.AccountOption{services.WithAccountLogger(logger)}
	if c.GoogleEnabled() {
		opts = append(opts, services.WithGoogle(oauth.NewGoogle(c.GoogleClientID, c.GoogleClientSecret, c.GoogleRedirectURL)))
	}
	accounts := services.NewAccountService(repos.Users(), tm, newMailer(c, logger), opts...)

	return &App{config: c, logger: logger, repos: repos, tokens: tm, accounts: accounts, metrics: m}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run serves gRPC and metrics, and prunes the ledger when the store needs
// it, until ctx is cancelled, a signal arrives or a component fails.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "storage", app.config.StorageDriver)
	app.initSignalHandler(cancelFunc)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.accounts, app.tokens,
			gs.WithObserver(app.metrics),
			gs.WithRateLimit(app.config.RateLimit, app.config.RateBurst),
		)
		return s.Run(gctx)
	})

	if app.config.MetricsAddr != "" {
		g.Go(func() error {
			app.logger.Info(gctx, "Serving metrics", "address", app.config.MetricsAddr)
			return app.metrics.Serve(gctx, app.config.MetricsAddr)
		})
	}

	if app.repos.NeedsPruning() {
		g.Go(func() error {
			return refreshtokens.NewPruner(app.repos.RefreshTokens(), app.config.PruneInterval, app.logger).Run(gctx)
		})
	}

	err := g.Wait()

	closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if cerr := app.repos.Close(closeCtx); cerr != nil {
		err = errors.Join(err, fmt.Errorf("storage close: %w", cerr))
	}

	app.logger.Info(ctx, "App stopped")
	return err
}
