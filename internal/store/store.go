package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// connSettings are applied to every connection before the schema. The run
// log is written by one harness at a time and read by the CLI while a run
// may still be recording, hence WAL.
var connSettings = []struct{ name, value string }{
	{"journal_mode", "WAL"},
	{"synchronous", "NORMAL"},
	{"busy_timeout", "5000"},
	{"foreign_keys", "ON"},
}

// migration upgrades a run log from version-1 to version.
type migration struct {
	version int
	about   string
	stmts   []string
}

// migrations are applied in order to run logs whose user_version is below
// their version. schema.sql always describes version 0.
var migrations = []migration{
	{
		version: 1,
		about:   "index replicate fingerprints for FindByFingerprint",
		stmts: []string{
			`CREATE INDEX IF NOT EXISTS idx_replicates_fingerprint ON replicates(fingerprint)`,
		},
	},
}

// schemaVersion is the user_version of an up-to-date run log.
func schemaVersion() int {
	return migrations[len(migrations)-1].version
}

// Store is the SQLite run log.
type Store struct {
	db *sql.DB
}

// Open creates or opens the run log at path and brings its schema up to
// date. Opening an existing log is safe and leaves recorded runs alone.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open run log: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("open run log %s: %w", path, err)
	}

	// one writer; settings below are per connection
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := configure(db); err != nil {
		db.Close()
		return nil, err
	}
	if err := upgrade(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Query executes a query and returns the resulting rows.
// Callers are responsible for closing the returned rows.
func (s *Store) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return s.db.QueryContext(ctx, query, args...)
}

func configure(db *sql.DB) error {
	for _, c := range connSettings {
		if _, err := db.Exec(fmt.Sprintf("PRAGMA %s = %s", c.name, c.value)); err != nil {
			return fmt.Errorf("configure run log: %s: %w", c.name, err)
		}
	}
	return nil
}

// upgrade creates missing tables and applies pending migrations, each in
// its own transaction together with the version bump.
func upgrade(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("create run log tables: %w", err)
	}

	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read run log version: %w", err)
	}
	for _, m := range migrations {
		if m.version <= version {
			continue
		}
		if err := apply(db, m); err != nil {
			return fmt.Errorf("upgrade run log to v%d (%s): %w", m.version, m.about, err)
		}
	}
	return nil
}

func apply(db *sql.DB, m migration) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range m.stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return err
		}
	}
	// PRAGMA does not take bind parameters
	if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", m.version)); err != nil {
		return err
	}
	return tx.Commit()
}

// pragma reads the current value of a connection setting.
func (s *Store) pragma(name string) (string, error) {
	var value string
	if err := s.db.QueryRow("PRAGMA " + name).Scan(&value); err != nil {
		return "", fmt.Errorf("read %s: %w", name, err)
	}
	return value, nil
}
