// Package cli provides the interactive sessionkeeper command-line client.
//
// It keeps one session (access and refresh token) in memory and exposes the
// account flows of the server as REPL commands. Protected calls that fail
// with Unauthenticated are retried once after rotating the refresh token.
//
// The REPL is started via App.Root(ctx), which blocks until the user exits.
package cli
