package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/dmitrijs2005/sessionkeeper/internal/common"
	"github.com/dmitrijs2005/sessionkeeper/internal/logging"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/auth"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/mailer"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/models"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/oauth"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/repositories/users"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/tokens"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

// TokenManager is the part of *tokens.Manager the account flows use.
type TokenManager interface {
	IssuePair(ctx context.Context, id models.Identity) (*tokens.Pair, error)
	Rotate(ctx context.Context, oldToken string, id models.Identity, originalExpiry time.Time) (*tokens.Pair, error)
	Revoke(ctx context.Context, token string) error
	RevokeAll(ctx context.Context, userID string) (int64, error)
	IssueEmailVerifyToken(id models.Identity) (string, error)
	IssueForgotPasswordToken(id models.Identity) (string, error)
	VerifyRefresh(token string) (*auth.Claims, error)
	VerifyEmailVerify(token string) (*auth.Claims, error)
	VerifyForgotPassword(token string) (*auth.Claims, error)
}

// AuthResult is returned by the flows that start a session.
type AuthResult struct {
	User    *models.User
	Tokens  *tokens.Pair
	NewUser bool
}

// VerifyResult reports an email verification. Tokens is nil when the
// address had already been verified.
type VerifyResult struct {
	AlreadyVerified bool
	Tokens          *tokens.Pair
}

type AccountService struct {
	users      users.Repository
	tokens     TokenManager
	mailer     mailer.Mailer
	google     oauth.Provider
	logger     logging.Logger
	bcryptCost int
}

type AccountOption func(*AccountService)

// WithGoogle enables OAuthGoogle.
func WithGoogle(p oauth.Provider) AccountOption {
	return func(s *AccountService) { s.google = p }
}

func WithAccountLogger(l logging.Logger) AccountOption {
	return func(s *AccountService) { s.logger = l.With("module", "accounts") }
}

func WithBcryptCost(cost int) AccountOption {
	return func(s *AccountService) { s.bcryptCost = cost }
}

func NewAccountService(u users.Repository, tm TokenManager, m mailer.Mailer, opts ...AccountOption) *AccountService {
	s := &AccountService{
		users:      u,
		tokens:     tm,
		mailer:     m,
		logger:     logging.Nop{},
		bcryptCost: bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func internal(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", common.ErrorInternal, op, err)
}

func invalid(msg string) error {
	return fmt.Errorf("%w: %s", common.ErrorValidation, msg)
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", invalid("malformed email")
	}
	return email, nil
}

func checkPassword(password string) error {
	if len(password) < minPasswordLength {
		return invalid(fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}
	return nil
}

func (s *AccountService) hashPassword(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", internal("hash password", err)
	}
	return string(h), nil
}

func sameToken(stored, candidate string) bool {
	return stored != "" && subtle.ConstantTimeCompare([]byte(stored), []byte(candidate)) == 1
}

// userForToken loads the subject of a verified token. A subject that no
// longer exists makes the token invalid.
func (s *AccountService) userForToken(ctx context.Context, claims *auth.Claims) (*models.User, error) {
	u, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidToken
		}
		return nil, internal("find user", err)
	}
	return u, nil
}

func (s *AccountService) findUser(ctx context.Context, id string) (*models.User, error) {
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, internal("find user", err)
	}
	return u, nil
}

func (s *AccountService) sendVerifyEmail(ctx context.Context, u *models.User) error {
	token, err := s.tokens.IssueEmailVerifyToken(u.Identity())
	if err != nil {
		return internal("issue email verify token", err)
	}
	if err := s.users.SetEmailVerifyToken(ctx, u.ID, token); err != nil {
		return internal("store email verify token", err)
	}
	u.EmailVerifyToken = token
	if err := s.mailer.SendVerifyEmail(ctx, u.Email, u.Name, token); err != nil {
		return internal("send verify email", err)
	}
	return nil
}

// Register creates an unverified account, mails an email-verify token and
// starts a session.
func (s *AccountService) Register(ctx context.Context, name, email, password string) (*AuthResult, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalid("name is required")
	}
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if err := checkPassword(password); err != nil {
		return nil, err
	}

	hash, err := s.hashPassword(password)
	if err != nil {
		return nil, err
	}

	u := &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Verify:       models.Unverified,
		Role:         models.RoleUser,
		Level:        models.Bronze,
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, fmt.Errorf("%w: email is taken", common.ErrorAlreadyExists)
		}
		return nil, internal("create user", err)
	}

	// the account exists at this point; a mail failure is recoverable
	// through ResendVerifyEmail
	if err := s.sendVerifyEmail(ctx, u); err != nil {
		s.logger.Error(ctx, "verify email not sent", "user_id", u.ID, "error", err)
	}

	pair, err := s.tokens.IssuePair(ctx, u.Identity())
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "user registered", "user_id", u.ID)
	return &AuthResult{User: u, Tokens: pair, NewUser: true}, nil
}

// Login checks email and password. Unknown email and wrong password are
// both reported as common.ErrorUnauthorized.
func (s *AccountService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, internal("find user", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, common.ErrorUnauthorized
	}
	if u.Verify == models.Banned {
		return nil, common.ErrorBanned
	}

	pair, err := s.tokens.IssuePair(ctx, u.Identity())
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: u, Tokens: pair}, nil
}

// OAuthGoogle signs in with a Google authorization code, creating a
// verified account on first use.
func (s *AccountService) OAuthGoogle(ctx context.Context, code string) (*AuthResult, error) {
	if s.google == nil {
		return nil, invalid("google login is not configured")
	}

	profile, err := s.google.Exchange(ctx, code)
	if err != nil {
		s.logger.Warn(ctx, "google exchange failed", "error", err)
		return nil, fmt.Errorf("%w: google: %w", common.ErrorUnauthorized, err)
	}
	email, err := normalizeEmail(profile.Email)
	if err != nil {
		return nil, err
	}

	u, err := s.users.FindByEmail(ctx, email)
	switch {
	case err == nil:
		if u.Verify == models.Banned {
			return nil, common.ErrorBanned
		}
		if u.Verify == models.Unverified {
			if err := s.users.MarkVerified(ctx, u.ID); err != nil {
				return nil, internal("mark verified", err)
			}
			u.Verify, u.EmailVerifyToken = models.Verified, ""
		}
		pair, err := s.tokens.IssuePair(ctx, u.Identity())
		if err != nil {
			return nil, err
		}
		return &AuthResult{User: u, Tokens: pair}, nil

	case errors.Is(err, common.ErrorNotFound):
		// not used for login; the account is reachable through Google or
		// ForgotPassword
		random, err := common.MakeRandHexString(32)
		if err != nil {
			return nil, internal("random password", err)
		}
		hash, err := s.hashPassword(random)
		if err != nil {
			return nil, err
		}
		name := strings.TrimSpace(profile.Name)
		if name == "" {
			name = email[:strings.IndexByte(email, '@')]
		}
		u = &models.User{
			Name:         name,
			Email:        email,
			PasswordHash: hash,
			Verify:       models.Verified,
			Role:         models.RoleUser,
			Level:        models.Bronze,
		}
		if err := s.users.Create(ctx, u); err != nil {
			return nil, internal("create user", err)
		}
		pair, err := s.tokens.IssuePair(ctx, u.Identity())
		if err != nil {
			return nil, err
		}
		s.logger.Info(ctx, "user registered via google", "user_id", u.ID)
		return &AuthResult{User: u, Tokens: pair, NewUser: true}, nil

	default:
		return nil, internal("find user", err)
	}
}

// Logout revokes refreshToken. Logging out twice is not an error.
func (s *AccountService) Logout(ctx context.Context, refreshToken string) error {
	if _, err := s.tokens.VerifyRefresh(refreshToken); err != nil {
		return err
	}
	return s.tokens.Revoke(ctx, refreshToken)
}

// RefreshToken rotates refreshToken. The new pair carries the user's
// current claims; the new refresh token keeps the old one's expiry.
func (s *AccountService) RefreshToken(ctx context.Context, refreshToken string) (*tokens.Pair, error) {
	claims, err := s.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		return nil, err
	}

	u, err := s.userForToken(ctx, claims)
	if err != nil {
		return nil, err
	}
	if u.Verify == models.Banned {
		return nil, common.ErrorBanned
	}

	return s.tokens.Rotate(ctx, refreshToken, u.Identity(), claims.ExpiresAtTime())
}

// VerifyEmail consumes an email-verify token.
func (s *AccountService) VerifyEmail(ctx context.Context, token string) (*VerifyResult, error) {
	claims, err := s.tokens.VerifyEmailVerify(token)
	if err != nil {
		return nil, err
	}

	u, err := s.userForToken(ctx, claims)
	if err != nil {
		return nil, err
	}
	if u.Verify == models.Banned {
		return nil, common.ErrorBanned
	}
	if u.EmailVerifyToken == "" {
		return &VerifyResult{AlreadyVerified: true}, nil
	}
	if !sameToken(u.EmailVerifyToken, token) {
		return nil, common.ErrInvalidToken
	}

	if err := s.users.MarkVerified(ctx, u.ID); err != nil {
		return nil, internal("mark verified", err)
	}
	u.Verify, u.EmailVerifyToken = models.Verified, ""

	pair, err := s.tokens.IssuePair(ctx, u.Identity())
	if err != nil {
		return nil, err
	}
	return &VerifyResult{Tokens: pair}, nil
}

// ResendVerifyEmail replaces the pending email-verify token of userID and
// mails it again.
func (s *AccountService) ResendVerifyEmail(ctx context.Context, userID string) (*VerifyResult, error) {
	u, err := s.findUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u.Verify == models.Banned {
		return nil, common.ErrorBanned
	}
	if u.EmailVerifyToken == "" && u.Verify != models.Unverified {
		return &VerifyResult{AlreadyVerified: true}, nil
	}
	if err := s.sendVerifyEmail(ctx, u); err != nil {
		return nil, err
	}
	return &VerifyResult{}, nil
}

// ForgotPassword mails a forgot-password token to the owner of email.
func (s *AccountService) ForgotPassword(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))

	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrorNotFound
		}
		return internal("find user", err)
	}

	token, err := s.tokens.IssueForgotPasswordToken(u.Identity())
	if err != nil {
		return internal("issue forgot password token", err)
	}
	if err := s.users.SetForgotPasswordToken(ctx, u.ID, token); err != nil {
		return internal("store forgot password token", err)
	}
	if err := s.mailer.SendForgotPassword(ctx, u.Email, u.Name, token); err != nil {
		return internal("send forgot password email", err)
	}
	return nil
}

func (s *AccountService) forgotPasswordUser(ctx context.Context, token string) (*models.User, error) {
	claims, err := s.tokens.VerifyForgotPassword(token)
	if err != nil {
		return nil, err
	}
	u, err := s.userForToken(ctx, claims)
	if err != nil {
		return nil, err
	}
	if !sameToken(u.ForgotPasswordToken, token) {
		return nil, common.ErrInvalidToken
	}
	return u, nil
}

// VerifyForgotPassword checks that token is the pending reset of its user.
func (s *AccountService) VerifyForgotPassword(ctx context.Context, token string) error {
	_, err := s.forgotPasswordUser(ctx, token)
	return err
}

// ResetPassword sets a new password with a forgot-password token and ends
// every session of the user.
func (s *AccountService) ResetPassword(ctx context.Context, token, password string) error {
	if err := checkPassword(password); err != nil {
		return err
	}
	u, err := s.forgotPasswordUser(ctx, token)
	if err != nil {
		return err
	}

	hash, err := s.hashPassword(password)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, u.ID, hash); err != nil {
		return internal("update password", err)
	}

	n, err := s.tokens.RevokeAll(ctx, u.ID)
	if err != nil {
		return err
	}
	s.logger.Info(ctx, "password reset", "user_id", u.ID, "revoked_sessions", n)
	return nil
}

func (s *AccountService) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	u, err := s.findUser(ctx, userID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(oldPassword)); err != nil {
		return common.ErrorUnauthorized
	}
	if err := checkPassword(newPassword); err != nil {
		return err
	}

	hash, err := s.hashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, u.ID, hash); err != nil {
		return internal("update password", err)
	}
	return nil
}

// GetMe returns the account of userID without credentials or pending tokens.
func (s *AccountService) GetMe(ctx context.Context, userID string) (*models.User, error) {
	u, err := s.findUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	u.PasswordHash, u.EmailVerifyToken, u.ForgotPasswordToken = "", "", ""
	return u, nil
}
