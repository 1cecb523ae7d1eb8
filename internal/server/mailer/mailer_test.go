package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/dmitrijs2005/sessionkeeper/internal/logging"
	"github.com/resend/resend-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var tpl = Templates{AppName: "Forum", AppURL: "https://forum.example.com"}

func TestTemplates_Links(t *testing.T) {
	msg := tpl.VerifyEmail("a@example.com", "Alice", "tok.en+1")
	assert.Equal(t, "https://forum.example.com/verify-email?token=tok.en%2B1", msg.Link)
	assert.Contains(t, msg.Text, msg.Link)
	assert.Contains(t, msg.Text, "Alice")
	assert.Equal(t, "Verify your Forum email", msg.Subject)

	msg = tpl.ForgotPassword("a@example.com", "Alice", "abc")
	assert.Equal(t, "https://forum.example.com/forgot-password?token=abc", msg.Link)
	assert.Equal(t, "a@example.com", msg.To)
}

func TestLogMailer_WritesLink(t *testing.T) {
	var buf bytes.Buffer
	l := logging.NewSlogLogger(slog.New(slog.NewTextHandler(&buf, nil)))

	m := NewLogMailer(l, tpl)
	require.NoError(t, m.SendForgotPassword(context.Background(), "a@example.com", "Alice", "abc"))

	out := buf.String()
	assert.True(t, strings.Contains(out, "type=forgot_password"), out)
	assert.True(t, strings.Contains(out, "forgot-password?token=abc"), out)
}

func TestResendMailer_PostsEmail(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/emails", r.URL.Path)
		assert.Equal(t, "Bearer re_test", r.Header.Get("Authorization"))
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"email-1"}`))
	}))
	defer srv.Close()

	client := resend.NewClient("re_test")
	base, err := url.Parse(srv.URL + "/")
	require.NoError(t, err)
	client.BaseURL = base

	m := NewResendMailer(client, "Forum <no-reply@forum.example.com>", tpl)
	require.NoError(t, m.SendVerifyEmail(context.Background(), "a@example.com", "Alice", "tok"))

	assert.Equal(t, "Forum <no-reply@forum.example.com>", got["from"])
	assert.Equal(t, "Verify your Forum email", got["subject"])
	assert.Contains(t, got["text"], "verify-email?token=tok")
}

func TestResendMailer_PropagatesErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"statusCode":422,"name":"validation_error","message":"bad from"}`))
	}))
	defer srv.Close()

	client := resend.NewClient("re_test")
	base, err := url.Parse(srv.URL + "/")
	require.NoError(t, err)
	client.BaseURL = base

	err = NewResendMailer(client, "x", tpl).SendForgotPassword(context.Background(), "a@example.com", "Alice", "tok")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "resend")
}
