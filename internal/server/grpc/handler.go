package grpc

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/sessionkeeper/internal/common"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/models"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
)

// toStatus maps service errors to gRPC statuses. Internal details are
// logged and never sent to the caller.
func (s *GRPCServer) toStatus(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, common.ErrRefreshTokenUsed):
		return status.Error(codes.Unauthenticated, common.ErrRefreshTokenUsed.Error())
	case errors.Is(err, common.ErrInvalidToken):
		return status.Error(codes.Unauthenticated, common.ErrInvalidToken.Error())
	case errors.Is(err, common.ErrorUnauthorized):
		return status.Error(codes.Unauthenticated, "unauthorized")
	case errors.Is(err, common.ErrorBanned):
		return status.Error(codes.PermissionDenied, common.ErrorBanned.Error())
	case errors.Is(err, common.ErrorNotFound):
		return status.Error(codes.NotFound, "not found")
	case errors.Is(err, common.ErrorAlreadyExists):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, common.ErrorValidation):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, common.ErrorRateLimited):
		return status.Error(codes.ResourceExhausted, common.ErrorRateLimited.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, "canceled")
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, "deadline exceeded")
	default:
		s.logger.Error(ctx, "request failed", "error", err)
		return status.Error(codes.Internal, "internal error")
	}
}

func (s *GRPCServer) identity(ctx context.Context) (models.Identity, error) {
	id, ok := IdentityFromContext(ctx)
	if !ok {
		return models.Identity{}, status.Error(codes.Unauthenticated, "missing access token")
	}
	return id, nil
}

func (s *GRPCServer) Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error) {
	res, err := s.accounts.Register(ctx, req.Name, req.Email, req.Password)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	s.logger.Info(ctx, "Registered", "user_id", res.User.ID)
	return &AuthResponse{User: toUserInfo(res.User), Tokens: toTokenPair(res.Tokens), NewUser: res.NewUser}, nil
}

func (s *GRPCServer) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	res, err := s.accounts.Login(ctx, req.Email, req.Password)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &AuthResponse{User: toUserInfo(res.User), Tokens: toTokenPair(res.Tokens)}, nil
}

func (s *GRPCServer) OAuthGoogle(ctx context.Context, req *OAuthGoogleRequest) (*AuthResponse, error) {
	res, err := s.accounts.OAuthGoogle(ctx, req.Code)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &AuthResponse{User: toUserInfo(res.User), Tokens: toTokenPair(res.Tokens), NewUser: res.NewUser}, nil
}

func (s *GRPCServer) Logout(ctx context.Context, req *RefreshTokenRequest) (*emptypb.Empty, error) {
	if err := s.accounts.Logout(ctx, req.RefreshToken); err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &emptypb.Empty{}, nil
}

func (s *GRPCServer) RefreshToken(ctx context.Context, req *RefreshTokenRequest) (*TokenPair, error) {
	pair, err := s.accounts.RefreshToken(ctx, req.RefreshToken)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	out := toTokenPair(pair)
	return &out, nil
}

func (s *GRPCServer) VerifyEmail(ctx context.Context, req *TokenRequest) (*VerifyEmailResponse, error) {
	res, err := s.accounts.VerifyEmail(ctx, req.Token)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	resp := &VerifyEmailResponse{AlreadyVerified: res.AlreadyVerified}
	if res.Tokens != nil {
		pair := toTokenPair(res.Tokens)
		resp.Tokens = &pair
	}
	return resp, nil
}

func (s *GRPCServer) ResendVerifyEmail(ctx context.Context, _ *emptypb.Empty) (*VerifyEmailResponse, error) {
	id, err := s.identity(ctx)
	if err != nil {
		return nil, err
	}

	res, err := s.accounts.ResendVerifyEmail(ctx, id.UserID)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &VerifyEmailResponse{AlreadyVerified: res.AlreadyVerified}, nil
}

func (s *GRPCServer) ForgotPassword(ctx context.Context, req *ForgotPasswordRequest) (*emptypb.Empty, error) {
	if err := s.accounts.ForgotPassword(ctx, req.Email); err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &emptypb.Empty{}, nil
}

func (s *GRPCServer) VerifyForgotPassword(ctx context.Context, req *TokenRequest) (*emptypb.Empty, error) {
	if err := s.accounts.VerifyForgotPassword(ctx, req.Token); err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &emptypb.Empty{}, nil
}

func (s *GRPCServer) ResetPassword(ctx context.Context, req *ResetPasswordRequest) (*emptypb.Empty, error) {
	if err := s.accounts.ResetPassword(ctx, req.Token, req.Password); err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &emptypb.Empty{}, nil
}

func (s *GRPCServer) ChangePassword(ctx context.Context, req *ChangePasswordRequest) (*emptypb.Empty, error) {
	id, err := s.identity(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.accounts.ChangePassword(ctx, id.UserID, req.OldPassword, req.NewPassword); err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &emptypb.Empty{}, nil
}

func (s *GRPCServer) GetMe(ctx context.Context, _ *emptypb.Empty) (*UserInfo, error) {
	id, err := s.identity(ctx)
	if err != nil {
		return nil, err
	}

	u, err := s.accounts.GetMe(ctx, id.UserID)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return toUserInfo(u), nil
}

func (s *GRPCServer) Ping(context.Context, *emptypb.Empty) (*PingResponse, error) {
	return &PingResponse{Status: "OK"}, nil
}
