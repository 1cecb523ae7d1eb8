package mailer

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v2"
)

// ResendMailer delivers through the Resend API.
type ResendMailer struct {
	client    *resend.Client
	from      string
	templates Templates
}

func NewResendMailer(client *resend.Client, from string, t Templates) *ResendMailer {
	return &ResendMailer{client: client, from: from, templates: t}
}

func (m *ResendMailer) send(ctx context.Context, msg Message) error {
	params := &resend.SendEmailRequest{
		From:    m.from,
		To:      []string{msg.To},
		Subject: msg.Subject,
		Text:    msg.Text,
	}
	if _, err := m.client.Emails.SendWithContext(ctx, params); err != nil {
		return fmt.Errorf("resend: %w", err)
	}
	return nil
}

func (m *ResendMailer) SendVerifyEmail(ctx context.Context, to, name, token string) error {
	return m.send(ctx, m.templates.VerifyEmail(to, name, token))
}

func (m *ResendMailer) SendForgotPassword(ctx context.Context, to, name, token string) error {
	return m.send(ctx, m.templates.ForgotPassword(to, name, token))
}
