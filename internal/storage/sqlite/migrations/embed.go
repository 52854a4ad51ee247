package migrations

import "embed"

// FS contains embedded SQLite migrations for event log storage.
//
//go:embed *.sql
var FS embed.FS
