package database

import "embed"

// EmbeddedMigrations holds the SQL files under migrations/.
//
//go:embed migrations/*.sql
var EmbeddedMigrations embed.FS
