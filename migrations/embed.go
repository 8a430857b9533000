// Package migrations embeds the SQL schema migrations for the user service.
package migrations

import "embed"

// FS holds all .up.sql migration files, applied in filename order at startup.
//
//go:embed *.sql
var FS embed.FS
