package store

import (
	"database/sql"
	"fmt"

	"github.com/golang-migrate/migrate/v4/database/sqlite"
	_ "modernc.org/sqlite"
)

var sqliteQueries = sqlQueries{
	get: `SELECT value FROM kv_entries WHERE profile = ? AND entry_key = ?`,
	set: `
		INSERT INTO kv_entries (profile, entry_key, value, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (profile, entry_key)
		DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`,
	remove: `DELETE FROM kv_entries WHERE profile = ? AND entry_key = ?`,
}

// NewSQLiteStore opens (or creates) the database at dbPath and migrates it.
// ":memory:" gives a private in-memory database.
func NewSQLiteStore(dbPath, profile string) (*SQLStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// one writer; also keeps ":memory:" on a single connection
	db.SetMaxOpenConns(1)

	driver, err := sqlite.WithInstance(db, &sqlite.Config{})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("could not create migration driver: %w", err)
	}
	if err := runMigrations(driver, "sqlite"); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLStore{db: db, profile: profile, queries: sqliteQueries}, nil
}
