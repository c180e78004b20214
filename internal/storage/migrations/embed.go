// Package migrations applies the embedded schema files for both backends.
// Files run in lexical order and every statement is idempotent, so reruns
// against an already-migrated database are safe.
package migrations

import "embed"

// PostgresFS embeds all PostgreSQL migration files.
//
//go:embed postgres/*.sql
var PostgresFS embed.FS

// ClickhouseFS embeds all ClickHouse migration files.
//
//go:embed clickhouse/*.sql
var ClickhouseFS embed.FS
