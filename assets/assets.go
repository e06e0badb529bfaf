// Package assets embeds the manifest schema migrations.
package assets

import "embed"

const (
	SqliteMigrationDir   = "migrations/sqlite"
	PostgresMigrationDir = "migrations/postgres"
	MySQLMigrationDir    = "migrations/mysql"
)

//go:embed migrations/*
var EmbedMigrations embed.FS
