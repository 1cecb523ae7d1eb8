// Package tokens issues, verifies, rotates and revokes session tokens.
//
// Access, email-verify and forgot-password tokens are stateless. Refresh
// tokens are also recorded in a ledger; a refresh token without a live
// ledger entry has been rotated, revoked or pruned and must not be honoured.
package tokens

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/sessionkeeper/internal/common"
	"github.com/dmitrijs2005/sessionkeeper/internal/logging"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/auth"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/models"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/repositories/refreshtokens"
	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"
	"golang.org/x/sync/errgroup"
)

// Pair is an access token with its refresh token.
type Pair struct {
	AccessToken  string
	RefreshToken string
}

type Manager struct {
	kinds    Table
	ledger   refreshtokens.Store
	now      func() time.Time
	newID    func() string
	logger   logging.Logger
	recorder Recorder
}

type Option func(*Manager)

// WithClock replaces time.Now for issuing and verifying.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

func WithLogger(l logging.Logger) Option {
	return func(m *Manager) { m.logger = l.With("module", "tokens") }
}

func WithRecorder(r Recorder) Option {
	return func(m *Manager) { m.recorder = r }
}

func NewManager(kinds Table, ledger refreshtokens.Store, opts ...Option) (*Manager, error) {
	if err := kinds.Validate(); err != nil {
		return nil, fmt.Errorf("token settings: %w", err)
	}
	if ledger == nil {
		return nil, errors.New("token ledger is required")
	}

	m := &Manager{
		kinds:    kinds,
		ledger:   ledger,
		now:      time.Now,
		newID:    func() string { return ulid.Make().String() },
		logger:   logging.Nop{},
		recorder: nopRecorder{},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// issue signs a token of kind for id. The expiry is now plus the kind's
// lifetime unless fixedExpiry pins it.
func (m *Manager) issue(kind models.TokenKind, id models.Identity, fixedExpiry *time.Time) (string, error) {
	cfg := m.kinds[kind]
	now := m.now()

	exp := now.Add(cfg.Lifetime)
	if fixedExpiry != nil {
		exp = *fixedExpiry
	}

	claims := &auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
			ID:        m.newID(),
		},
		UserID:    id.UserID,
		TokenType: kind,
		Verify:    id.Verify,
		Role:      id.Role,
		Level:     id.Level,
	}

	signed, err := auth.Sign(claims, cfg.Secret)
	if err != nil {
		return "", fmt.Errorf("%w: sign %s token: %w", common.ErrorInternal, kind, err)
	}

	return signed, nil
}

// issued records kinds once their tokens reach the caller.
func (m *Manager) issued(kinds ...models.TokenKind) {
	for _, k := range kinds {
		m.recorder.Issued(k)
	}
}

func (m *Manager) issueAndRecord(kind models.TokenKind, id models.Identity) (string, error) {
	signed, err := m.issue(kind, id, nil)
	if err != nil {
		return "", err
	}
	m.issued(kind)
	return signed, nil
}

// issueRefresh signs a refresh token and records it in repo. The entry's
// iat/exp are read back from the signed token so they match it exactly.
func (m *Manager) issueRefresh(ctx context.Context, repo refreshtokens.Repository, id models.Identity, fixedExpiry *time.Time) (string, error) {
	signed, err := m.issue(models.RefreshToken, id, fixedExpiry)
	if err != nil {
		return "", err
	}

	decoded, err := auth.Decode(signed)
	if err != nil {
		return "", fmt.Errorf("%w: decode issued refresh token: %w", common.ErrorInternal, err)
	}

	entry := &models.LedgerEntry{
		ID:        decoded.ID,
		UserID:    decoded.UserID,
		TokenHash: common.HashToken(signed),
		IssuedAt:  decoded.IssuedAtTime(),
		ExpiresAt: decoded.ExpiresAtTime(),
	}
	if err := repo.Create(ctx, entry); err != nil {
		return "", fmt.Errorf("%w: store refresh token: %w", common.ErrorInternal, err)
	}

	return signed, nil
}

func (m *Manager) IssueAccessToken(id models.Identity) (string, error) {
	return m.issueAndRecord(models.AccessToken, id)
}

// IssueRefreshToken signs and records a refresh token. A non-nil
// fixedExpiry pins exp instead of applying the default lifetime.
func (m *Manager) IssueRefreshToken(ctx context.Context, id models.Identity, fixedExpiry *time.Time) (string, error) {
	signed, err := m.issueRefresh(ctx, m.ledger, id, fixedExpiry)
	if err != nil {
		return "", err
	}
	m.issued(models.RefreshToken)
	return signed, nil
}

func (m *Manager) IssueEmailVerifyToken(id models.Identity) (string, error) {
	return m.issueAndRecord(models.EmailVerifyToken, id)
}

func (m *Manager) IssueForgotPasswordToken(id models.Identity) (string, error) {
	return m.issueAndRecord(models.ForgotPasswordToken, id)
}

// IssuePair signs an access token and a recorded refresh token concurrently.
func (m *Manager) IssuePair(ctx context.Context, id models.Identity) (*Pair, error) {
	var pair Pair

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		pair.AccessToken, err = m.issue(models.AccessToken, id, nil)
		return err
	})
	g.Go(func() error {
		var err error
		pair.RefreshToken, err = m.issueRefresh(gctx, m.ledger, id, nil)
		return err
	})
	if err := g.Wait(); err != nil {
		if pair.RefreshToken != "" {
			_, _ = m.ledger.Delete(ctx, common.HashToken(pair.RefreshToken))
		}
		return nil, err
	}

	m.issued(models.AccessToken, models.RefreshToken)
	return &pair, nil
}

// Rotate exchanges a live refresh token for a new pair. The old ledger entry
// is removed with a compare-and-delete inside one ledger transaction, so of
// several concurrent rotations of the same token exactly one succeeds; the
// others get common.ErrRefreshTokenUsed. The new refresh token expires at
// originalExpiry, capped at the old token's own exp.
func (m *Manager) Rotate(ctx context.Context, oldToken string, id models.Identity, originalExpiry time.Time) (*Pair, error) {
	claims, err := m.VerifyRefresh(oldToken)
	if err != nil {
		return nil, err
	}
	if claims.UserID != id.UserID {
		return nil, common.ErrInvalidToken
	}

	exp := originalExpiry
	if old := claims.ExpiresAtTime(); exp.IsZero() || exp.After(old) {
		exp = old
	}

	var pair Pair
	err = m.ledger.WithTx(ctx, func(ctx context.Context, repo refreshtokens.Repository) error {
		deleted, err := repo.Delete(ctx, common.HashToken(oldToken))
		if err != nil {
			return fmt.Errorf("%w: delete refresh token: %w", common.ErrorInternal, err)
		}
		if !deleted {
			return common.ErrRefreshTokenUsed
		}

		if pair.AccessToken, err = m.issue(models.AccessToken, id, nil); err != nil {
			return err
		}
		pair.RefreshToken, err = m.issueRefresh(ctx, repo, id, &exp)
		return err
	})
	if err != nil {
		if errors.Is(err, common.ErrRefreshTokenUsed) {
			m.recorder.Replayed()
			m.logger.Warn(ctx, "refresh token reuse", "user_id", id.UserID, "jti", claims.ID)
			return nil, common.ErrRefreshTokenUsed
		}
		return nil, err
	}

	m.issued(models.AccessToken, models.RefreshToken)
	m.recorder.Rotated()
	m.logger.Debug(ctx, "refresh token rotated", "user_id", id.UserID, "old_jti", claims.ID)
	return &pair, nil
}

// Revoke removes the ledger entry of token. Revoking an unknown or already
// revoked token is not an error.
func (m *Manager) Revoke(ctx context.Context, token string) error {
	deleted, err := m.ledger.Delete(ctx, common.HashToken(token))
	if err != nil {
		return fmt.Errorf("%w: revoke refresh token: %w", common.ErrorInternal, err)
	}
	if deleted {
		m.recorder.Revoked()
	}
	return nil
}

// RevokeAll removes every ledger entry of userID.
func (m *Manager) RevokeAll(ctx context.Context, userID string) (int64, error) {
	n, err := m.ledger.DeleteByUser(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("%w: revoke sessions: %w", common.ErrorInternal, err)
	}
	for i := int64(0); i < n; i++ {
		m.recorder.Revoked()
	}
	return n, nil
}

// IsLive reports whether token has an unexpired ledger entry.
func (m *Manager) IsLive(ctx context.Context, token string) (bool, error) {
	ok, err := m.ledger.Exists(ctx, common.HashToken(token), m.now())
	if err != nil {
		return false, fmt.Errorf("%w: lookup refresh token: %w", common.ErrorInternal, err)
	}
	return ok, nil
}

// ActiveSessions counts the ledger entries of userID.
func (m *Manager) ActiveSessions(ctx context.Context, userID string) (int64, error) {
	n, err := m.ledger.CountByUser(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("%w: count sessions: %w", common.ErrorInternal, err)
	}
	return n, nil
}

// verify checks signature, expiry and token_type with the secret of kind.
// Every failure is reported as common.ErrInvalidToken.
func (m *Manager) verify(kind models.TokenKind, token string) (*auth.Claims, error) {
	claims, err := auth.Parse(token, m.kinds[kind].Secret, m.now)
	if err != nil {
		m.logger.Debug(context.Background(), "token rejected", "kind", kind.String(), "reason", err)
		return nil, common.ErrInvalidToken
	}
	if claims.TokenType != kind || claims.UserID == "" {
		m.logger.Debug(context.Background(), "token rejected", "kind", kind.String(), "reason", "claims mismatch")
		return nil, common.ErrInvalidToken
	}
	return claims, nil
}

func (m *Manager) VerifyAccess(token string) (*auth.Claims, error) {
	return m.verify(models.AccessToken, token)
}

// VerifyRefresh checks signature and expiry only. Callers that act on the
// token must also check IsLive, or go through Rotate.
func (m *Manager) VerifyRefresh(token string) (*auth.Claims, error) {
	return m.verify(models.RefreshToken, token)
}

func (m *Manager) VerifyEmailVerify(token string) (*auth.Claims, error) {
	return m.verify(models.EmailVerifyToken, token)
}

func (m *Manager) VerifyForgotPassword(token string) (*auth.Claims, error) {
	return m.verify(models.ForgotPasswordToken, token)
}
