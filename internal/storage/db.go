package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	mberrors "mbsearch/internal/errors"
)

// DB is the run history database.
type DB struct {
	conn   *sql.DB
	logger *slog.Logger
	path   string
}

var pragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA synchronous=NORMAL",
	"PRAGMA foreign_keys=ON",
	"PRAGMA busy_timeout=5000",
	"PRAGMA temp_store=MEMORY",
}

// Open opens the database at path, creating the file and its directory when
// missing, and migrates the schema.
func Open(path string, logger *slog.Logger) (*DB, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, mberrors.Wrap(mberrors.StorageFailure, "create database directory", err)
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, mberrors.Wrap(mberrors.StorageFailure, "open database", err)
	}
	// Batch workers record results concurrently; one connection serializes
	// the writes.
	conn.SetMaxOpenConns(1)

	for _, p := range pragmas {
		if _, err := conn.Exec(p); err != nil {
			conn.Close()
			return nil, mberrors.Wrap(mberrors.StorageFailure, p, err)
		}
	}

	db := &DB{conn: conn, logger: logger, path: path}
	if err := db.migrate(context.Background()); err != nil {
		conn.Close()
		return nil, mberrors.Wrap(mberrors.StorageFailure, fmt.Sprintf("migrate %s", path), err)
	}
	return db, nil
}

// Close closes the connection.
func (db *DB) Close() error {
	if db.conn == nil {
		return nil
	}
	return db.conn.Close()
}

// Path returns the database file path.
func (db *DB) Path() string {
	return db.path
}

// WithTx runs fn in a transaction, committing when fn returns nil and rolling
// back otherwise.
func (db *DB) WithTx(ctx context.Context, fn func(*sql.Tx) error) (err error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			db.logger.Error("Rollback failed", "error", err.Error(), "rollback_error", rbErr.Error())
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
