// Package storage persists articles and digests through database/sql.
// A postgres:// DSN selects the Postgres driver; any other DSN is opened
// as a SQLite database file. Both schemas carry the unique constraints
// that serialize concurrent writers.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

const defaultQueryTimeout = 10 * time.Second

// DB bundles the connection with the placeholder style its driver expects.
type DB struct {
	conn    *sql.DB
	builder sq.StatementBuilderType
}

// Open connects to the store described by the DSN and ensures the schema.
func Open(dsn string) (*DB, error) {
	driver := "sqlite3"
	var format sq.PlaceholderFormat = sq.Question
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		driver = "postgres"
		format = sq.Dollar
	}

	conn, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", driver, err)
	}

	db := &DB{
		conn:    conn,
		builder: sq.StatementBuilder.PlaceholderFormat(format),
	}

	if err := db.initSchema(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return db, nil
}

// Close releases the underlying connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS articles (
		id TEXT NOT NULL,
		serial_number INTEGER NOT NULL,
		title TEXT NOT NULL,
		summary TEXT NOT NULL,
		link TEXT NOT NULL,
		image TEXT NOT NULL,
		category TEXT NOT NULL,
		source TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		UNIQUE (category, serial_number)
	);

	CREATE INDEX IF NOT EXISTS idx_articles_id ON articles (id);

	CREATE TABLE IF NOT EXISTS digests (
		id TEXT PRIMARY KEY,
		category TEXT NOT NULL,
		day_bucket TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		key_insights TEXT NOT NULL,
		comprehensive_summary TEXT NOT NULL,
		serial_numbers TEXT NOT NULL,
		UNIQUE (category, day_bucket)
	);
	`

	_, err := db.conn.Exec(schema)
	return err
}

// isDuplicate reports whether the driver rejected a write for violating a
// unique constraint.
func isDuplicate(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrConstraint &&
			(sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
				sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey)
	}

	return false
}
