package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
)

const ServiceName = "sessionkeeper.AuthService"

// AuthServiceServer is the server API of ServiceName.
type AuthServiceServer interface {
	Register(context.Context, *RegisterRequest) (*AuthResponse, error)
	Login(context.Context, *LoginRequest) (*AuthResponse, error)
	OAuthGoogle(context.Context, *OAuthGoogleRequest) (*AuthResponse, error)
	Logout(context.Context, *RefreshTokenRequest) (*emptypb.Empty, error)
	RefreshToken(context.Context, *RefreshTokenRequest) (*TokenPair, error)
	VerifyEmail(context.Context, *TokenRequest) (*VerifyEmailResponse, error)
	ResendVerifyEmail(context.Context, *emptypb.Empty) (*VerifyEmailResponse, error)
	ForgotPassword(context.Context, *ForgotPasswordRequest) (*emptypb.Empty, error)
	VerifyForgotPassword(context.Context, *TokenRequest) (*emptypb.Empty, error)
	ResetPassword(context.Context, *ResetPasswordRequest) (*emptypb.Empty, error)
	ChangePassword(context.Context, *ChangePasswordRequest) (*emptypb.Empty, error)
	GetMe(context.Context, *emptypb.Empty) (*UserInfo, error)
	Ping(context.Context, *emptypb.Empty) (*PingResponse, error)
}

func fullMethod(name string) string {
	return "/" + ServiceName + "/" + name
}

// unary builds the MethodDesc of one AuthServiceServer method.
func unary[Req, Resp any](name string, call func(AuthServiceServer, context.Context, *Req) (Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(AuthServiceServer), ctx, req.(*Req))
			}
			if interceptor == nil {
				return handler(ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(name)}
			return interceptor(ctx, in, info, handler)
		},
	}
}

var AuthServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AuthServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("Register", AuthServiceServer.Register),
		unary("Login", AuthServiceServer.Login),
		unary("OAuthGoogle", AuthServiceServer.OAuthGoogle),
		unary("Logout", AuthServiceServer.Logout),
		unary("RefreshToken", AuthServiceServer.RefreshToken),
		unary("VerifyEmail", AuthServiceServer.VerifyEmail),
		unary("ResendVerifyEmail", AuthServiceServer.ResendVerifyEmail),
		unary("ForgotPassword", AuthServiceServer.ForgotPassword),
		unary("VerifyForgotPassword", AuthServiceServer.VerifyForgotPassword),
		unary("ResetPassword", AuthServiceServer.ResetPassword),
		unary("ChangePassword", AuthServiceServer.ChangePassword),
		unary("GetMe", AuthServiceServer.GetMe),
		unary("Ping", AuthServiceServer.Ping),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "sessionkeeper/auth",
}

func RegisterAuthServiceServer(s grpc.ServiceRegistrar, srv AuthServiceServer) {
	s.RegisterService(&AuthServiceDesc, srv)
}

// AuthServiceClient calls ServiceName over the JSON codec.
type AuthServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewAuthServiceClient(cc grpc.ClientConnInterface) *AuthServiceClient {
	return &AuthServiceClient{cc: cc}
}

func invoke[Resp any](ctx context.Context, c *AuthServiceClient, name string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := c.cc.Invoke(ctx, fullMethod(name), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *AuthServiceClient) Register(ctx context.Context, in *RegisterRequest, opts ...grpc.CallOption) (*AuthResponse, error) {
	return invoke[AuthResponse](ctx, c, "Register", in, opts)
}

func (c *AuthServiceClient) Login(ctx context.Context, in *LoginRequest, opts ...grpc.CallOption) (*AuthResponse, error) {
	return invoke[AuthResponse](ctx, c, "Login", in, opts)
}

func (c *AuthServiceClient) OAuthGoogle(ctx context.Context, in *OAuthGoogleRequest, opts ...grpc.CallOption) (*AuthResponse, error) {
	return invoke[AuthResponse](ctx, c, "OAuthGoogle", in, opts)
}

func (c *AuthServiceClient) Logout(ctx context.Context, in *RefreshTokenRequest, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	return invoke[emptypb.Empty](ctx, c, "Logout", in, opts)
}

func (c *AuthServiceClient) RefreshToken(ctx context.Context, in *RefreshTokenRequest, opts ...grpc.CallOption) (*TokenPair, error) {
	return invoke[TokenPair](ctx, c, "RefreshToken", in, opts)
}

func (c *AuthServiceClient) VerifyEmail(ctx context.Context, in *TokenRequest, opts ...grpc.CallOption) (*VerifyEmailResponse, error) {
	return invoke[VerifyEmailResponse](ctx, c, "VerifyEmail", in, opts)
}

func (c *AuthServiceClient) ResendVerifyEmail(ctx context.Context, opts ...grpc.CallOption) (*VerifyEmailResponse, error) {
	return invoke[VerifyEmailResponse](ctx, c, "ResendVerifyEmail", &emptypb.Empty{}, opts)
}

func (c *AuthServiceClient) ForgotPassword(ctx context.Context, in *ForgotPasswordRequest, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	return invoke[emptypb.Empty](ctx, c, "ForgotPassword", in, opts)
}

func (c *AuthServiceClient) VerifyForgotPassword(ctx context.Context, in *TokenRequest, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	return invoke[emptypb.Empty](ctx, c, "VerifyForgotPassword", in, opts)
}

func (c *AuthServiceClient) ResetPassword(ctx context.Context, in *ResetPasswordRequest, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	return invoke[emptypb.Empty](ctx, c, "ResetPassword", in, opts)
}

func (c *AuthServiceClient) ChangePassword(ctx context.Context, in *ChangePasswordRequest, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	return invoke[emptypb.Empty](ctx, c, "ChangePassword", in, opts)
}

func (c *AuthServiceClient) GetMe(ctx context.Context, opts ...grpc.CallOption) (*UserInfo, error) {
	return invoke[UserInfo](ctx, c, "GetMe", &emptypb.Empty{}, opts)
}

func (c *AuthServiceClient) Ping(ctx context.Context, opts ...grpc.CallOption) (*PingResponse, error) {
	return invoke[PingResponse](ctx, c, "Ping", &emptypb.Empty{}, opts)
}
