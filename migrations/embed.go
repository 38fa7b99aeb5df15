// Package migrations embeds the SQL migrations of the generation ledger.
package migrations

import "embed"

// FS holds the versioned *.up.sql and *.down.sql files
//
//go:embed *.sql
var FS embed.FS
