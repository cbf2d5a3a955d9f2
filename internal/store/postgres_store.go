package store

import (
	"database/sql"
	"fmt"

	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/lib/pq"
)

var postgresQueries = sqlQueries{
	get: `SELECT value FROM kv_entries WHERE profile = $1 AND entry_key = $2`,
	set: `
		INSERT INTO kv_entries (profile, entry_key, value, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (profile, entry_key)
		DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
	`,
	remove: `DELETE FROM kv_entries WHERE profile = $1 AND entry_key = $2`,
}

type Credentials struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

func (c *Credentials) dsn() string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host,
		c.Port,
		c.User,
		c.Password,
		c.DBName,
		sslMode)
}

func NewPostgresStore(cred *Credentials, profile string) (*SQLStore, error) {
	db, err := sql.Open("postgres", cred.dsn())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)

	driver, err := postgres.WithInstance(db, &postgres.Config{
		MigrationsTable: "storefront_schema_migrations",
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("could not create migration driver: %w", err)
	}
	if err := runMigrations(driver, "postgres"); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLStore{db: db, profile: profile, queries: postgresQueries}, nil
}
