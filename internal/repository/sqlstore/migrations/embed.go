package migrations

import "embed"

// FS holds one migration directory per SQL dialect.
//
//go:embed postgres/*.sql sqlite/*.sql
var FS embed.FS
