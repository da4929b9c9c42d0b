// Package migrations embeds the schema for each supported dialect.
package migrations

import "embed"

// SQLite holds migrations applied by the built-in SQLite runner.
//
//go:embed sqlite/*.sql
var SQLite embed.FS

// Postgres holds tern migrations.
//
//go:embed postgres/*.sql
var Postgres embed.FS
