package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"mbsearch/internal/corpus"
	mberrors "mbsearch/internal/errors"
	"mbsearch/internal/output"
	"mbsearch/internal/pattern"
	"mbsearch/internal/pipeline"
)

const timeLayout = time.RFC3339Nano

// Run is one recorded mining invocation.
type Run struct {
	ID         string     `json:"id"`
	Source     string     `json:"source"`
	StartedAt  time.Time  `json:"startedAt"`
	FinishedAt *time.Time `json:"finishedAt,omitempty"`
	PairCount  int        `json:"pairCount"`
}

// StoredPattern is a pattern row together with its query.
type StoredPattern struct {
	RunID   string           `json:"runId"`
	PairID  string           `json:"pairId"`
	Pattern *pattern.Pattern `json:"pattern"`
	Query   string           `json:"query,omitempty"`
}

// PairRecord is a recorded pair outcome.
type PairRecord struct {
	RunID       string          `json:"runId"`
	PairID      string          `json:"pairId"`
	Fingerprint string          `json:"fingerprint"`
	Status      pipeline.Status `json:"status"`
	Error       string          `json:"error,omitempty"`
}

// CreateRun starts a new run and returns its id.
func (db *DB) CreateRun(ctx context.Context, source string) (*Run, error) {
	run := &Run{
		ID:        uuid.New().String(),
		Source:    source,
		StartedAt: time.Now().UTC(),
	}
	_, err := db.conn.ExecContext(ctx,
		"INSERT INTO runs (id, source, started_at, pair_count) VALUES (?, ?, ?, 0)",
		run.ID, run.Source, run.StartedAt.Format(timeLayout))
	if err != nil {
		return nil, mberrors.Wrap(mberrors.StorageFailure, "create run", err)
	}
	db.logger.Debug("Run created", "run", run.ID, "source", source)
	return run, nil
}

// RecordResult stores one pair outcome and, when present, its pattern.
func (db *DB) RecordResult(ctx context.Context, runID string, pair corpus.Pair, res pipeline.Result) error {
	slow, err := compress(pair.Slow)
	if err != nil {
		return mberrors.Wrap(mberrors.StorageFailure, "compress slow source", err)
	}
	fast, err := compress(pair.Fast)
	if err != nil {
		return mberrors.Wrap(mberrors.StorageFailure, "compress fast source", err)
	}

	var patternJSON []byte
	if res.Pattern != nil {
		patternJSON, err = output.DeterministicEncode(res.Pattern)
		if err != nil {
			return mberrors.Wrap(mberrors.StorageFailure, "encode pattern", err)
		}
	}

	err = db.WithTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT OR REPLACE INTO pairs (run_id, pair_id, fingerprint, status, error, slow_zst, fast_zst)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			runID, pair.ID, pair.Fingerprint(), string(res.Status), nullString(res.Error), slow, fast)
		if err != nil {
			return fmt.Errorf("insert pair: %w", err)
		}
		if res.Pattern == nil {
			return nil
		}
		_, err = tx.ExecContext(ctx, `
			INSERT OR REPLACE INTO patterns (run_id, pair_id, name, target_node_kind, pattern_json, query)
			VALUES (?, ?, ?, ?, ?, ?)`,
			runID, pair.ID, res.Pattern.Name, res.Pattern.TargetNodeKind, string(patternJSON), nullString(res.Query))
		if err != nil {
			return fmt.Errorf("insert pattern: %w", err)
		}
		return nil
	})
	if err != nil {
		return mberrors.Wrap(mberrors.StorageFailure, "record result for pair "+pair.ID, err)
	}
	return nil
}

// FinishRun stamps the run's end time and pair count.
func (db *DB) FinishRun(ctx context.Context, runID string) error {
	res, err := db.conn.ExecContext(ctx, `
		UPDATE runs
		SET finished_at = ?, pair_count = (SELECT COUNT(*) FROM pairs WHERE run_id = ?)
		WHERE id = ?`,
		time.Now().UTC().Format(timeLayout), runID, runID)
	if err != nil {
		return mberrors.Wrap(mberrors.StorageFailure, "finish run", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return mberrors.Newf(mberrors.InvalidInput, "unknown run %q", runID)
	}
	return nil
}

// ListRuns returns runs newest first; limit <= 0 returns all.
func (db *DB) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := "SELECT id, source, started_at, finished_at, pair_count FROM runs ORDER BY started_at DESC, id"
	args := []interface{}{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mberrors.Wrap(mberrors.StorageFailure, "list runs", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, mberrors.Wrap(mberrors.StorageFailure, "list runs", err)
	}
	return runs, nil
}

// GetRun returns one run by id.
func (db *DB) GetRun(ctx context.Context, runID string) (*Run, error) {
	row := db.conn.QueryRowContext(ctx,
		"SELECT id, source, started_at, finished_at, pair_count FROM runs WHERE id = ?", runID)
	run, err := scanRun(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, mberrors.Newf(mberrors.InvalidInput, "unknown run %q", runID)
		}
		return nil, err
	}
	return &run, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row rowScanner) (Run, error) {
	var (
		run      Run
		started  string
		finished sql.NullString
	)
	if err := row.Scan(&run.ID, &run.Source, &started, &finished, &run.PairCount); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return run, err
		}
		return run, mberrors.Wrap(mberrors.StorageFailure, "scan run", err)
	}
	run.StartedAt, _ = time.Parse(timeLayout, started)
	if finished.Valid {
		t, _ := time.Parse(timeLayout, finished.String)
		run.FinishedAt = &t
	}
	return run, nil
}

// ListPairs returns the recorded pair outcomes of a run in pair id order.
func (db *DB) ListPairs(ctx context.Context, runID string) ([]PairRecord, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT pair_id, fingerprint, status, error FROM pairs
		WHERE run_id = ? ORDER BY pair_id`, runID)
	if err != nil {
		return nil, mberrors.Wrap(mberrors.StorageFailure, "list pairs", err)
	}
	defer rows.Close()

	var out []PairRecord
	for rows.Next() {
		rec := PairRecord{RunID: runID}
		var status string
		var errText sql.NullString
		if err := rows.Scan(&rec.PairID, &rec.Fingerprint, &status, &errText); err != nil {
			return nil, mberrors.Wrap(mberrors.StorageFailure, "scan pair", err)
		}
		rec.Status = pipeline.Status(status)
		rec.Error = errText.String
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, mberrors.Wrap(mberrors.StorageFailure, "list pairs", err)
	}
	return out, nil
}

// ListPatterns returns the patterns mined in a run, ordered by name.
func (db *DB) ListPatterns(ctx context.Context, runID string) ([]StoredPattern, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT pair_id, pattern_json, query FROM patterns
		WHERE run_id = ? ORDER BY name, pair_id`, runID)
	if err != nil {
		return nil, mberrors.Wrap(mberrors.StorageFailure, "list patterns", err)
	}
	defer rows.Close()

	var out []StoredPattern
	for rows.Next() {
		sp := StoredPattern{RunID: runID}
		var raw string
		var query sql.NullString
		if err := rows.Scan(&sp.PairID, &raw, &query); err != nil {
			return nil, mberrors.Wrap(mberrors.StorageFailure, "scan pattern", err)
		}
		var p pattern.Pattern
		if err := json.Unmarshal([]byte(raw), &p); err != nil {
			return nil, mberrors.Wrap(mberrors.StorageFailure, "decode stored pattern", err)
		}
		sp.Pattern = &p
		sp.Query = query.String
		out = append(out, sp)
	}
	if err := rows.Err(); err != nil {
		return nil, mberrors.Wrap(mberrors.StorageFailure, "list patterns", err)
	}
	return out, nil
}

// LoadPairSources returns the stored pair with its sources decompressed.
func (db *DB) LoadPairSources(ctx context.Context, runID, pairID string) (corpus.Pair, error) {
	var slow, fast []byte
	err := db.conn.QueryRowContext(ctx,
		"SELECT slow_zst, fast_zst FROM pairs WHERE run_id = ? AND pair_id = ?",
		runID, pairID).Scan(&slow, &fast)
	if err == sql.ErrNoRows {
		return corpus.Pair{}, mberrors.Newf(mberrors.InvalidInput, "no pair %q in run %q", pairID, runID)
	}
	if err != nil {
		return corpus.Pair{}, mberrors.Wrap(mberrors.StorageFailure, "load pair", err)
	}

	pair := corpus.Pair{ID: pairID}
	if pair.Slow, err = decompress(slow); err != nil {
		return corpus.Pair{}, mberrors.Wrap(mberrors.StorageFailure, "decompress slow source", err)
	}
	if pair.Fast, err = decompress(fast); err != nil {
		return corpus.Pair{}, mberrors.Wrap(mberrors.StorageFailure, "decompress fast source", err)
	}
	return pair, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
