package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/sessionkeeper/internal/logging"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/auth"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/models"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/services"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/tokens"
	"golang.org/x/time/rate"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Accounts is the account API served over gRPC. *services.AccountService
// implements it.
type Accounts interface {
	Register(ctx context.Context, name, email, password string) (*services.AuthResult, error)
	Login(ctx context.Context, email, password string) (*services.AuthResult, error)
	OAuthGoogle(ctx context.Context, code string) (*services.AuthResult, error)
	Logout(ctx context.Context, refreshToken string) error
	RefreshToken(ctx context.Context, refreshToken string) (*tokens.Pair, error)
	VerifyEmail(ctx context.Context, token string) (*services.VerifyResult, error)
	ResendVerifyEmail(ctx context.Context, userID string) (*services.VerifyResult, error)
	ForgotPassword(ctx context.Context, email string) error
	VerifyForgotPassword(ctx context.Context, token string) error
	ResetPassword(ctx context.Context, token, password string) error
	ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error
	GetMe(ctx context.Context, userID string) (*models.User, error)
}

type AccessVerifier interface {
	VerifyAccess(token string) (*auth.Claims, error)
}

// RPCObserver counts finished calls; *metrics.Metrics implements it.
type RPCObserver interface {
	ObserveRPC(method, code string)
}

type GRPCServer struct {
	address  string
	accounts Accounts
	tokens   AccessVerifier
	logger   logging.Logger
	observer RPCObserver
	limiter  *peerLimiter
}

type ServerOption func(*GRPCServer)

func WithObserver(o RPCObserver) ServerOption {
	return func(s *GRPCServer) { s.observer = o }
}

// WithRateLimit allows each peer r calls per second with the given burst
// on every method but Ping. A zero r disables limiting.
func WithRateLimit(r float64, burst int) ServerOption {
	return func(s *GRPCServer) {
		if r <= 0 {
			s.limiter = nil
			return
		}
		s.limiter = newPeerLimiter(rate.Limit(r), burst)
	}
}

func NewGRPCServer(address string, l logging.Logger, accounts Accounts, tv AccessVerifier, opts ...ServerOption) *GRPCServer {
	s := &GRPCServer{
		address:  address,
		accounts: accounts,
		tokens:   tv,
		logger:   l.With("module", "grpc_server"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewServer builds a grpc.Server with AuthService and the health service
// registered.
func (s *GRPCServer) NewServer() (*grpc.Server, *health.Server) {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(
		s.observeInterceptor,
		s.rateLimitInterceptor,
		s.accessTokenInterceptor,
	))

	RegisterAuthServiceServer(srv, s)

	hs := health.NewServer()
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(srv, hs)

	return srv, hs
}

func (s *GRPCServer) Run(ctx context.Context) error {
	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv, hs := s.NewServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		hs.Shutdown()
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", s.address)

	if err := srv.Serve(listen); err != nil {
		return err
	}
	return nil
}
