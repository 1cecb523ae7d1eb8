package grpc

import (
	"time"

	"github.com/dmitrijs2005/sessionkeeper/internal/server/models"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/tokens"
)

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type OAuthGoogleRequest struct {
	Code string `json:"code"`
}

// RefreshTokenRequest is used by Logout and RefreshToken.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// TokenRequest carries an email-verify or forgot-password token.
type TokenRequest struct {
	Token string `json:"token"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

type ResetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

type UserInfo struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Verify    string    `json:"verify"`
	Role      string    `json:"role"`
	Level     string    `json:"level"`
	CreatedAt time.Time `json:"created_at"`
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type AuthResponse struct {
	User    *UserInfo `json:"user"`
	Tokens  TokenPair `json:"tokens"`
	NewUser bool      `json:"new_user,omitempty"`
}

type VerifyEmailResponse struct {
	AlreadyVerified bool       `json:"already_verified"`
	Tokens          *TokenPair `json:"tokens,omitempty"`
}

type PingResponse struct {
	Status string `json:"status"`
}

func toUserInfo(u *models.User) *UserInfo {
	if u == nil {
		return nil
	}
	return &UserInfo{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Verify:    u.Verify.String(),
		Role:      u.Role.String(),
		Level:     u.Level.String(),
		CreatedAt: u.CreatedAt,
	}
}

func toTokenPair(p *tokens.Pair) TokenPair {
	if p == nil {
		return TokenPair{}
	}
	return TokenPair{AccessToken: p.AccessToken, RefreshToken: p.RefreshToken}
}
