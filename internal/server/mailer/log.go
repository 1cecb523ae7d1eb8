package mailer

import (
	"context"

	"github.com/dmitrijs2005/sessionkeeper/internal/logging"
)

// LogMailer writes emails to the log instead of sending them. For local
// development only: the log line contains the token link.
type LogMailer struct {
	logger    logging.Logger
	templates Templates
}

func NewLogMailer(l logging.Logger, t Templates) *LogMailer {
	return &LogMailer{logger: l.With("module", "mailer"), templates: t}
}

func (m *LogMailer) log(ctx context.Context, kind string, msg Message) {
	m.logger.Info(ctx, "email sent (dev mode)", "type", kind, "to", msg.To, "subject", msg.Subject, "url", msg.Link)
}

func (m *LogMailer) SendVerifyEmail(ctx context.Context, to, name, token string) error {
	m.log(ctx, "verify_email", m.templates.VerifyEmail(to, name, token))
	return nil
}

func (m *LogMailer) SendForgotPassword(ctx context.Context, to, name, token string) error {
	m.log(ctx, "forgot_password", m.templates.ForgotPassword(to, name, token))
	return nil
}
