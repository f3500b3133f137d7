// Package migrations embeds the SQL schema migrations applied when a ledger
// store is opened.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
