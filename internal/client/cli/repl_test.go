package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

type fakeExec struct {
	loggedIn bool
	calls    []string
	failOn   string
}

func (f *fakeExec) record(name string) error {
	f.calls = append(f.calls, name)
	if name == f.failOn {
		return errors.New(name + " failed")
	}
	return nil
}

func (f *fakeExec) isLoggedIn() bool                        { return f.loggedIn }
func (f *fakeExec) Register(context.Context) error          { return f.record("register") }
func (f *fakeExec) VerifyEmail(context.Context) error       { return f.record("verify") }
func (f *fakeExec) ForgotPassword(context.Context) error    { return f.record("forgot") }
func (f *fakeExec) ResetPassword(context.Context) error     { return f.record("reset") }
func (f *fakeExec) Ping(context.Context) error              { return f.record("ping") }
func (f *fakeExec) Me(context.Context) error                { return f.record("me") }
func (f *fakeExec) ResendVerifyEmail(context.Context) error { return f.record("resend") }
func (f *fakeExec) ChangePassword(context.Context) error    { return f.record("passwd") }
func (f *fakeExec) Refresh(context.Context) error           { return f.record("refresh") }
func (f *fakeExec) Login(context.Context) error {
	f.loggedIn = true
	return f.record("login")
}
func (f *fakeExec) Logout(context.Context) error {
	f.loggedIn = false
	return f.record("logout")
}

func captureOutput(t *testing.T) *[]string {
	t.Helper()
	var lines []string
	orig := printlnFn
	printlnFn = func(a ...any) (int, error) {
		lines = append(lines, strings.TrimSuffix(fmt.Sprintln(a...), "\n"))
		return 0, nil
	}
	t.Cleanup(func() { printlnFn = orig })
	return &lines
}

func TestRunREPL_LoginFlowAndCommands(t *testing.T) {
	out := captureOutput(t)

	input := strings.Join([]string{
		"me",
		"help",
		"login",
		"help",
		"",
		"me",
		"resend",
		"passwd",
		"refresh",
		"logout",
		"foobar",
		"exit",
		"ping",
	}, "\n")

	exec := &fakeExec{failOn: "refresh"}
	runREPL(context.Background(), exec, func() string { return "" }, bufio.NewReader(strings.NewReader(input)))

	want := []string{"login", "me", "resend", "passwd", "refresh", "logout"}
	if strings.Join(exec.calls, ",") != strings.Join(want, ",") {
		t.Fatalf("calls = %v, want %v", exec.calls, want)
	}

	joined := strings.Join(*out, "\n")
	for _, s := range []string{"Please login first", "Unknown command: foobar", "Error: refresh failed", "Bye!"} {
		if !strings.Contains(joined, s) {
			t.Fatalf("output misses %q:\n%s", s, joined)
		}
	}
}

func TestRunREPL_StopsOnEOF(t *testing.T) {
	captureOutput(t)

	exec := &fakeExec{}
	runREPL(context.Background(), exec, func() string { return "" }, bufio.NewReader(strings.NewReader("ping\nregister")))

	if strings.Join(exec.calls, ",") != "ping,register" {
		t.Fatalf("calls = %v", exec.calls)
	}
}
