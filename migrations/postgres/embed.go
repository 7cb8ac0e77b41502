// Package postgres embeds SQL migration files.
package postgres

import "embed"

// FS contains the schema migrations for the bridge's host store.
//
//go:embed *.sql
var FS embed.FS
