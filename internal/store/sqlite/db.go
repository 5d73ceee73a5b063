// Package sqlite is the persistence layer: connection setup, idempotent
// schema, content-digest dedup, and transactional work/scene/chunk writes.
//
// Grounded on internal/adapters/driven/postgres/db.go's DB/Transaction
// wrapper shape (adapted from Postgres to SQLite) and lore_ingest/persist.py
// for the exact DDL and dedup/insert semantics.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schema string

// DB wraps a sql.DB connection opened against a single SQLite file, with
// foreign keys on, WAL journaling, and synchronous=NORMAL — per spec.md §4.7.
type DB struct {
	*sql.DB
}

// Open opens (and if necessary creates) the SQLite database at path, with
// the PRAGMAs spec.md §4.7 requires. Mirrors lore_ingest/persist.py's
// open_db.
func Open(ctx context.Context, path string) (*DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}
	// A single SQLite writer at a time; WAL allows concurrent readers.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign_keys: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode = WAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA synchronous = NORMAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting synchronous=NORMAL: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite db: %w", err)
	}

	return &DB{DB: db}, nil
}

// EnsureSchema creates all tables/indexes if missing and backfills any
// columns an older database file predates. Idempotent; safe to call on
// every open. Mirrors ensure_ingest_columns_and_tables in persist.py.
func (db *DB) EnsureSchema(ctx context.Context) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	if err := db.backfillColumns(ctx); err != nil {
		return err
	}
	return nil
}

type columnBackfill struct {
	table  string
	column string
	ddl    string
}

var backfills = []columnBackfill{
	{"work", "content_sha1", "ALTER TABLE work ADD COLUMN content_sha1 TEXT"},
	{"work", "ingest_run_id", "ALTER TABLE work ADD COLUMN ingest_run_id TEXT"},
	{"work", "char_count", "ALTER TABLE work ADD COLUMN char_count INTEGER"},
}

func (db *DB) backfillColumns(ctx context.Context) error {
	for _, b := range backfills {
		has, err := db.hasColumn(ctx, b.table, b.column)
		if err != nil {
			return err
		}
		if !has {
			if _, err := db.ExecContext(ctx, b.ddl); err != nil {
				return fmt.Errorf("backfilling %s.%s: %w", b.table, b.column, err)
			}
		}
	}
	// The unique dedup index depends on content_sha1 existing; create last.
	if _, err := db.ExecContext(ctx,
		"CREATE UNIQUE INDEX IF NOT EXISTS uniq_work_content_sha1 ON work(content_sha1)"); err != nil {
		return fmt.Errorf("creating content_sha1 unique index: %w", err)
	}
	return nil
}

func (db *DB) hasColumn(ctx context.Context, table, column string) (bool, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return false, fmt.Errorf("introspecting %s: %w", table, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cid        int
			name       string
			ctype      string
			notnull    int
			dfltValue  sql.NullString
			pk         int
		)
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dfltValue, &pk); err != nil {
			return false, err
		}
		if name == column {
			return true, nil
		}
	}
	return false, rows.Err()
}

// Transaction runs fn within a database transaction, committing on success
// and rolling back on error.
func (db *DB) Transaction(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("tx failed: %w (rollback failed: %v)", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Ping proves the database is actually writable by writing and deleting a
// scratch row inside a transaction, per the /v1/readyz probe in
// service/http_app.py (BEGIN IMMEDIATE + scratch table write/delete).
func (db *DB) Ping(ctx context.Context) error {
	return db.Transaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`CREATE TABLE IF NOT EXISTS _readyz_probe (id INTEGER PRIMARY KEY)`); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO _readyz_probe (id) VALUES (1)`); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM _readyz_probe WHERE id = 1`); err != nil {
			return err
		}
		return nil
	})
}
