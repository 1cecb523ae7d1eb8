package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/dmitrijs2005/sessionkeeper/internal/client/config"
	gs "github.com/dmitrijs2005/sessionkeeper/internal/server/grpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/emptypb"
)

// authAPI is the part of *gs.AuthServiceClient the CLI uses.
type authAPI interface {
	Register(ctx context.Context, in *gs.RegisterRequest, opts ...grpc.CallOption) (*gs.AuthResponse, error)
	Login(ctx context.Context, in *gs.LoginRequest, opts ...grpc.CallOption) (*gs.AuthResponse, error)
	Logout(ctx context.Context, in *gs.RefreshTokenRequest, opts ...grpc.CallOption) (*emptypb.Empty, error)
	RefreshToken(ctx context.Context, in *gs.RefreshTokenRequest, opts ...grpc.CallOption) (*gs.TokenPair, error)
	VerifyEmail(ctx context.Context, in *gs.TokenRequest, opts ...grpc.CallOption) (*gs.VerifyEmailResponse, error)
	ResendVerifyEmail(ctx context.Context, opts ...grpc.CallOption) (*gs.VerifyEmailResponse, error)
	ForgotPassword(ctx context.Context, in *gs.ForgotPasswordRequest, opts ...grpc.CallOption) (*emptypb.Empty, error)
	VerifyForgotPassword(ctx context.Context, in *gs.TokenRequest, opts ...grpc.CallOption) (*emptypb.Empty, error)
	ResetPassword(ctx context.Context, in *gs.ResetPasswordRequest, opts ...grpc.CallOption) (*emptypb.Empty, error)
	ChangePassword(ctx context.Context, in *gs.ChangePasswordRequest, opts ...grpc.CallOption) (*emptypb.Empty, error)
	GetMe(ctx context.Context, opts ...grpc.CallOption) (*gs.UserInfo, error)
	Ping(ctx context.Context, opts ...grpc.CallOption) (*gs.PingResponse, error)
}

type App struct {
	config  *config.Config
	api     authAPI
	conn    io.Closer
	reader  *bufio.Reader
	out     io.Writer
	session *gs.TokenPair
	email   string
}

func NewApp(c *config.Config) (*App, error) {
	conn, err := grpc.NewClient(c.ServerEndpointAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", c.ServerEndpointAddr, err)
	}

	return &App{
		config: c,
		api:    gs.NewAuthServiceClient(conn),
		conn:   conn,
		reader: bufio.NewReader(os.Stdin),
		out:    os.Stdout,
	}, nil
}

func (a *App) isLoggedIn() bool {
	return a.session != nil
}

func (a *App) getStatus() string {
	if a.email == "" {
		return ""
	}
	return fmt.Sprintf(" (%s)", a.email)
}

// Root runs the REPL on stdin until the user exits.
func (a *App) Root(ctx context.Context) {
	log.Println("Welcome to sessionkeeper CLI (type 'help' for commands)")
	runREPL(ctx, a, a.getStatus, a.reader)
}

func (a *App) Run(ctx context.Context) {
	defer a.conn.Close()
	a.Root(ctx)
}
