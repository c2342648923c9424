package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ScrpTrx-Go/tgprune/internal/domain/model"
	pkg "github.com/ScrpTrx-Go/tgprune/pkg/logger"
	_ "modernc.org/sqlite"
)

const timeLayout = time.RFC3339

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id      TEXT PRIMARY KEY,
	account     TEXT NOT NULL,
	dry_run     INTEGER NOT NULL,
	cutoff      TEXT NOT NULL,
	started_at  TEXT NOT NULL,
	finished_at TEXT NOT NULL,
	pages       INTEGER NOT NULL,
	evaluated   INTEGER NOT NULL,
	kept        INTEGER NOT NULL,
	simulated   INTEGER NOT NULL,
	deleted     INTEGER NOT NULL,
	failed      INTEGER NOT NULL,
	fetch_error TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS post_outcomes (
	run_id     TEXT NOT NULL REFERENCES runs(run_id),
	post_id    INTEGER NOT NULL,
	created_at TEXT NOT NULL,
	decision   TEXT NOT NULL,
	status     TEXT NOT NULL,
	error      TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (run_id, post_id)
);`

// SQLite keeps run outcomes in a local file, for setups without Postgres.
type SQLite struct {
	db  *sql.DB
	log pkg.Logger
}

func NewSQLite(ctx context.Context, log pkg.Logger, path string) (*SQLite, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create db dir: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// A single connection keeps ":memory:" databases shared across calls.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &SQLite{db: db, log: log}, nil
}

func (s *SQLite) SaveRun(ctx context.Context, r model.RunSummary) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (run_id, account, dry_run, cutoff, started_at, finished_at,
			pages, evaluated, kept, simulated, deleted, failed, fetch_error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, r.Account, boolToInt(r.DryRun),
		r.Cutoff.UTC().Format(timeLayout), r.StartedAt.UTC().Format(timeLayout), r.FinishedAt.UTC().Format(timeLayout),
		r.Pages, r.Evaluated, r.Kept, r.Simulated, r.Deleted, r.Failed, errString(r.FetchErr),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

func (s *SQLite) SaveOutcomes(ctx context.Context, runID string, outcomes []model.Outcome) error {
	if len(outcomes) == 0 {
		s.log.Info("No outcomes to save")
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO post_outcomes (run_id, post_id, created_at, decision, status, error)
		 VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, o := range outcomes {
		if _, err := stmt.ExecContext(ctx, runID, o.PostID, o.CreatedAt.UTC().Format(timeLayout),
			string(o.Decision), string(o.Status), o.Error); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert outcome %d: %w", o.PostID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit outcomes: %w", err)
	}
	s.log.Info("Saved outcomes to database", "count", len(outcomes))
	return nil
}

// ListOutcomes returns the stored outcomes of one run ordered by post id,
// newest first.
func (s *SQLite) ListOutcomes(ctx context.Context, runID string) ([]model.Outcome, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT post_id, created_at, decision, status, error
		 FROM post_outcomes WHERE run_id = ? ORDER BY post_id DESC`, runID)
	if err != nil {
		return nil, fmt.Errorf("query outcomes: %w", err)
	}
	defer rows.Close()

	var outcomes []model.Outcome
	for rows.Next() {
		var (
			o         model.Outcome
			createdAt string
			decision  string
			status    string
		)
		if err := rows.Scan(&o.PostID, &createdAt, &decision, &status, &o.Error); err != nil {
			return nil, fmt.Errorf("scan outcome: %w", err)
		}
		t, err := time.Parse(timeLayout, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parse created_at %q: %w", createdAt, err)
		}
		o.CreatedAt = t
		o.Decision = model.Decision(decision)
		o.Status = model.Status(status)
		outcomes = append(outcomes, o)
	}
	return outcomes, rows.Err()
}

func (s *SQLite) Close() {
	if err := s.db.Close(); err != nil {
		s.log.Warn("Failed to close sqlite", "err", err)
	}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
