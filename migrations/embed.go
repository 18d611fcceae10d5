// Package migrations embeds the PostgreSQL schema migrations.
package migrations

import "embed"

// FS holds the *.up.sql and *.down.sql files in golang-migrate naming
//
//go:embed *.sql
var FS embed.FS
