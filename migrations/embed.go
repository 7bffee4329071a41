// Package migrations embeds the SQL schema for each supported database driver.
package migrations

import (
	"embed"
	"io/fs"
)

//go:embed mysql/*.sql sqlite3/*.sql
var files embed.FS

// ForDriver returns the migration directory for the given sqlx driver name.
func ForDriver(driver string) (fs.FS, error) {
	return fs.Sub(files, driver)
}
