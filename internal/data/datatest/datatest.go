// Package datatest provides a migrated in-memory SQLite database for tests.
package datatest

import (
	"io/fs"
	"testing"

	"go-blog-app/migrations"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

// New opens a private in-memory database with every sqlite3 migration applied.
// The database is closed when the test finishes.
func New(t testing.TB) *sqlx.DB {
	t.Helper()

	// Use a non-shared in-memory database for complete test isolation.
	db, err := sqlx.Connect("sqlite3", "file::memory:?_foreign_keys=on")
	if err != nil {
		t.Fatalf("Failed to connect to sqlite test database: %v", err)
	}
	// Each new connection would get its own empty database.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	source, err := migrations.ForDriver("sqlite3")
	if err != nil {
		t.Fatalf("Failed to open migrations: %v", err)
	}
	files, err := fs.Glob(source, "*.up.sql")
	if err != nil {
		t.Fatalf("Failed to list migrations: %v", err)
	}
	for _, name := range files {
		schema, err := fs.ReadFile(source, name)
		if err != nil {
			t.Fatalf("Failed to read %s: %v", name, err)
		}
		if _, err := db.Exec(string(schema)); err != nil {
			t.Fatalf("Failed to apply %s: %v", name, err)
		}
	}
	return db
}
