package migrations

import "embed"

// FS contains embedded SQLite migrations for session vote storage.
//
//go:embed *.sql
var FS embed.FS
