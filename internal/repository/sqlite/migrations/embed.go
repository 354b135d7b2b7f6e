package migrations

import "embed"

// FS contains embedded SQLite migrations for the helpdesk store.
//
//go:embed *.sql
var FS embed.FS
