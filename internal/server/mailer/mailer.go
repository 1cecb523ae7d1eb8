// Package mailer delivers the account emails that carry email-verify and
// forgot-password tokens.
package mailer

import (
	"context"
	"fmt"
	"net/url"
)

// Mailer sends account emails. Implementations must not retry on their own.
type Mailer interface {
	SendVerifyEmail(ctx context.Context, to, name, token string) error
	SendForgotPassword(ctx context.Context, to, name, token string) error
}

// Message is a rendered email.
type Message struct {
	To      string
	Subject string
	Text    string
	Link    string
}

// Templates renders account emails that link back to the web client.
type Templates struct {
	AppName string
	AppURL  string
}

func (t Templates) link(path, token string) string {
	return fmt.Sprintf("%s%s?token=%s", t.AppURL, path, url.QueryEscape(token))
}

func (t Templates) VerifyEmail(to, name, token string) Message {
	link := t.link("/verify-email", token)
	return Message{
		To:      to,
		Subject: fmt.Sprintf("Verify your %s email", t.AppName),
		Text: fmt.Sprintf("Hi %s,\n\nConfirm your email address by opening the link below:\n\n%s\n\nIf you did not sign up for %s, ignore this email.\n",
			name, link, t.AppName),
		Link: link,
	}
}

func (t Templates) ForgotPassword(to, name, token string) Message {
	link := t.link("/forgot-password", token)
	return Message{
		To:      to,
		Subject: fmt.Sprintf("Reset your %s password", t.AppName),
		Text: fmt.Sprintf("Hi %s,\n\nSomeone asked to reset your password. Open the link below to choose a new one:\n\n%s\n\nIf it was not you, ignore this email.\n",
			name, link),
		Link: link,
	}
}
