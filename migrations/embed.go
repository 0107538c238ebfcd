package migrations

import "embed"

// FS holds the emulator schema, one directory per database engine.
//
//go:embed sqlite/*.sql
var FS embed.FS
