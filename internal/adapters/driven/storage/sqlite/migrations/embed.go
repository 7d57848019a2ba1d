// Package migrations embeds the SQLite schema migration files.
package migrations

import "embed"

// FS contains the migration SQL files, applied in lexical order.
//
//go:embed *.sql
var FS embed.FS
