package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// currentSchemaVersion is stored in PRAGMA user_version.
const currentSchemaVersion = 1

// schemaV1 creates the run history tables. pairs keeps both sources zstd
// compressed; patterns holds at most one row per pair.
var schemaV1 = []string{
	`CREATE TABLE IF NOT EXISTS runs (
		id          TEXT PRIMARY KEY,
		source      TEXT NOT NULL,
		started_at  TEXT NOT NULL,
		finished_at TEXT,
		pair_count  INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at)`,

	`CREATE TABLE IF NOT EXISTS pairs (
		run_id      TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		pair_id     TEXT NOT NULL,
		fingerprint TEXT NOT NULL,
		status      TEXT NOT NULL,
		error       TEXT,
		slow_zst    BLOB NOT NULL,
		fast_zst    BLOB NOT NULL,
		PRIMARY KEY (run_id, pair_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_pairs_fingerprint ON pairs(fingerprint)`,
	`CREATE INDEX IF NOT EXISTS idx_pairs_status ON pairs(status)`,

	`CREATE TABLE IF NOT EXISTS patterns (
		run_id           TEXT NOT NULL,
		pair_id          TEXT NOT NULL,
		name             TEXT NOT NULL,
		target_node_kind TEXT NOT NULL,
		pattern_json     TEXT NOT NULL,
		query            TEXT,
		PRIMARY KEY (run_id, pair_id),
		FOREIGN KEY (run_id, pair_id) REFERENCES pairs(run_id, pair_id) ON DELETE CASCADE
	)`,
	`CREATE INDEX IF NOT EXISTS idx_patterns_name ON patterns(name)`,
}

// migrations[v] upgrades a database at version v to v+1.
var migrations = [][]string{
	0: schemaV1,
}

// migrate brings the database up to currentSchemaVersion. A database written
// by a newer build is refused.
func (db *DB) migrate(ctx context.Context) error {
	version, err := db.getSchemaVersion()
	if err != nil {
		return err
	}
	if version > currentSchemaVersion {
		return fmt.Errorf("database schema version %d is newer than supported version %d", version, currentSchemaVersion)
	}
	if version == currentSchemaVersion {
		db.logger.Debug("Database schema is up to date", "version", version)
		return nil
	}

	return db.WithTx(ctx, func(tx *sql.Tx) error {
		for v := version; v < currentSchemaVersion; v++ {
			for _, stmt := range migrations[v] {
				if _, err := tx.ExecContext(ctx, stmt); err != nil {
					return fmt.Errorf("schema v%d: %w", v+1, err)
				}
			}
		}
		// PRAGMA does not accept bound parameters.
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
			return err
		}
		db.logger.Info("Database schema migrated", "from_version", version, "to_version", currentSchemaVersion)
		return nil
	})
}

func (db *DB) getSchemaVersion() (int, error) {
	var version int
	if err := db.conn.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return 0, err
	}
	return version, nil
}
