// Package migrations embeds the schema migrations so the server binary can apply
// them without a migrations directory on disk.
package migrations

import "embed"

// FS holds the numbered up and down migrations.
//
//go:embed *.sql
var FS embed.FS
