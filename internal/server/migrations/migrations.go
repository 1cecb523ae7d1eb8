// Package migrations embeds the goose SQL migrations for the SQL stores.
// The statements stay within the subset shared by PostgreSQL and SQLite.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
