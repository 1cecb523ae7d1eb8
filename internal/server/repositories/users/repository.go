// Package users is the credential store: persisted accounts with password
// hashes, verification status and pending email-verify/forgot-password
// tokens.
package users

import (
	"context"

	"github.com/dmitrijs2005/sessionkeeper/internal/server/models"
)

type Repository interface {
	// Create stores u, assigning a UUID when u.ID is empty. A taken email
	// fails with common.ErrorAlreadyExists.
	Create(ctx context.Context, u *models.User) error
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	// MarkVerified sets verify=Verified and clears email_verify_token.
	MarkVerified(ctx context.Context, id string) error
	SetEmailVerifyToken(ctx context.Context, id string, token string) error
	SetForgotPasswordToken(ctx context.Context, id string, token string) error
	// UpdatePassword replaces the hash and clears forgot_password_token.
	UpdatePassword(ctx context.Context, id string, passwordHash string) error
}
