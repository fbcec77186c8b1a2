// Package migrations embeds the schema for SQLite reports.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
