package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/sessionkeeper/internal/common"
	gs "github.com/dmitrijs2005/sessionkeeper/internal/server/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

var errNotLoggedIn = errors.New("not logged in")

// describe turns a gRPC error into the server's message.
func describe(err error) string {
	if st, ok := status.FromError(err); ok {
		return fmt.Sprintf("%s (%s)", st.Message(), st.Code())
	}
	return err.Error()
}

func (a *App) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, a.config.RequestTimeout)
}

func (a *App) startSession(email string, pair gs.TokenPair) {
	a.email = email
	a.session = &pair
}

func (a *App) endSession() {
	a.email = ""
	a.session = nil
}

// authorized calls fn with the access token attached. When the server
// rejects the token, the session is rotated once and fn retried.
func (a *App) authorized(ctx context.Context, fn func(ctx context.Context) error) error {
	if a.session == nil {
		return errNotLoggedIn
	}

	call := func() error {
		ctx, cancel := a.withTimeout(ctx)
		defer cancel()
		return fn(metadata.AppendToOutgoingContext(ctx, common.AccessTokenHeaderName, a.session.AccessToken))
	}

	err := call()
	if status.Code(err) != codes.Unauthenticated {
		return err
	}
	if rerr := a.Refresh(ctx); rerr != nil {
		return rerr
	}
	return call()
}

func (a *App) Register(ctx context.Context) error {
	name, err := getSimpleText(a.reader, "Enter name", a.out)
	if err != nil {
		return err
	}
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword("Enter password", a.out)
	if err != nil {
		return err
	}

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()
	resp, err := a.api.Register(ctx, &gs.RegisterRequest{Name: name, Email: email, Password: password})
	if err != nil {
		return err
	}

	a.startSession(resp.User.Email, resp.Tokens)
	fmt.Fprintln(a.out, "Registered. Check your inbox to verify the email address.")
	return nil
}

func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword("Enter password", a.out)
	if err != nil {
		return err
	}

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()
	resp, err := a.api.Login(ctx, &gs.LoginRequest{Email: email, Password: password})
	if err != nil {
		return err
	}

	a.startSession(resp.User.Email, resp.Tokens)
	fmt.Fprintln(a.out, "Login successful")
	return nil
}

func (a *App) VerifyEmail(ctx context.Context) error {
	token, err := getSimpleText(a.reader, "Paste the token from the verification email", a.out)
	if err != nil {
		return err
	}

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()
	resp, err := a.api.VerifyEmail(ctx, &gs.TokenRequest{Token: token})
	if err != nil {
		return err
	}

	if resp.AlreadyVerified {
		fmt.Fprintln(a.out, "Email already verified")
		return nil
	}
	if resp.Tokens != nil && a.session != nil {
		a.session = resp.Tokens
	}
	fmt.Fprintln(a.out, "Email verified")
	return nil
}

func (a *App) ForgotPassword(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()
	if _, err := a.api.ForgotPassword(ctx, &gs.ForgotPasswordRequest{Email: email}); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "A reset link was sent")
	return nil
}

func (a *App) ResetPassword(ctx context.Context) error {
	token, err := getSimpleText(a.reader, "Paste the token from the reset email", a.out)
	if err != nil {
		return err
	}

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()
	if _, err := a.api.VerifyForgotPassword(ctx, &gs.TokenRequest{Token: token}); err != nil {
		return err
	}

	password, err := getPassword("Enter new password", a.out)
	if err != nil {
		return err
	}
	if _, err := a.api.ResetPassword(ctx, &gs.ResetPasswordRequest{Token: token, Password: password}); err != nil {
		return err
	}

	// every session of the account is gone now, this one included
	a.endSession()
	fmt.Fprintln(a.out, "Password changed, please login again")
	return nil
}

func (a *App) Ping(ctx context.Context) error {
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	resp, err := a.api.Ping(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s in %s\n", resp.Status, time.Since(start).Round(time.Millisecond))
	return nil
}

func (a *App) Me(ctx context.Context) error {
	return a.authorized(ctx, func(ctx context.Context) error {
		u, err := a.api.GetMe(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "%s <%s>\n  id: %s\n  status: %s, role: %s, level: %s\n", u.Name, u.Email, u.ID, u.Verify, u.Role, u.Level)
		return nil
	})
}

func (a *App) ResendVerifyEmail(ctx context.Context) error {
	return a.authorized(ctx, func(ctx context.Context) error {
		resp, err := a.api.ResendVerifyEmail(ctx)
		if err != nil {
			return err
		}
		if resp.AlreadyVerified {
			fmt.Fprintln(a.out, "Email already verified")
		} else {
			fmt.Fprintln(a.out, "Verification email sent")
		}
		return nil
	})
}

func (a *App) ChangePassword(ctx context.Context) error {
	oldPassword, err := getPassword("Enter current password", a.out)
	if err != nil {
		return err
	}
	newPassword, err := getPassword("Enter new password", a.out)
	if err != nil {
		return err
	}

	return a.authorized(ctx, func(ctx context.Context) error {
		if _, err := a.api.ChangePassword(ctx, &gs.ChangePasswordRequest{OldPassword: oldPassword, NewPassword: newPassword}); err != nil {
			return err
		}
		fmt.Fprintln(a.out, "Password changed")
		return nil
	})
}

// Refresh rotates the session's refresh token. A rejected token ends the
// session.
func (a *App) Refresh(ctx context.Context) error {
	if a.session == nil {
		return errNotLoggedIn
	}

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()
	pair, err := a.api.RefreshToken(ctx, &gs.RefreshTokenRequest{RefreshToken: a.session.RefreshToken})
	if err != nil {
		if status.Code(err) == codes.Unauthenticated || status.Code(err) == codes.PermissionDenied {
			a.endSession()
		}
		return err
	}
	a.session = pair
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	if a.session == nil {
		return errNotLoggedIn
	}

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()
	_, err := a.api.Logout(ctx, &gs.RefreshTokenRequest{RefreshToken: a.session.RefreshToken})
	a.endSession()
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Logged out")
	return nil
}
