// Package migrations embeds the SQL schema files for each supported database.
package migrations

import (
	"embed"
	"io/fs"
)

//go:embed sqlite/*.sql postgres/*.sql
var FS embed.FS

const (
	SQLite   = "sqlite"
	Postgres = "postgres"
)

// Sub returns the migration files for one dialect directory.
func Sub(dialect string) (fs.FS, error) {
	return fs.Sub(FS, dialect)
}
