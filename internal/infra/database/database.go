package database

import (
	"context"
	"fmt"

	"github.com/ScrpTrx-Go/tgprune/internal/config"
	"github.com/ScrpTrx-Go/tgprune/internal/domain/contracts"
	"github.com/ScrpTrx-Go/tgprune/internal/domain/model"
	pkg "github.com/ScrpTrx-Go/tgprune/pkg/logger"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id      TEXT PRIMARY KEY,
	account     TEXT NOT NULL,
	dry_run     BOOLEAN NOT NULL,
	cutoff      TIMESTAMPTZ NOT NULL,
	started_at  TIMESTAMPTZ NOT NULL,
	finished_at TIMESTAMPTZ NOT NULL,
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
	post_id    BIGINT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	decision   TEXT NOT NULL,
	status     TEXT NOT NULL,
	error      TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (run_id, post_id)
);`

// Open returns the outcome store selected by cfg.Driver, or nil when
// persistence is disabled.
func Open(ctx context.Context, log pkg.Logger, cfg config.DatabaseConfig) (contracts.OutcomeStore, error) {
	switch cfg.Driver {
	case "":
		return nil, nil
	case "postgres":
		db, err := NewPostgresPool(ctx, log, cfg)
		if err != nil {
			return nil, err
		}
		return db, nil
	case "sqlite":
		db, err := NewSQLite(ctx, log, cfg.DSN)
		if err != nil {
			return nil, err
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

type Database struct {
	Pool *pgxpool.Pool
	Log  pkg.Logger
}

func NewPostgresPool(ctx context.Context, log pkg.Logger, cfg config.DatabaseConfig) (d *Database, err error) {
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Database{
		Pool: pool,
		Log:  log,
	}, nil
}

func (d *Database) SaveRun(ctx context.Context, s model.RunSummary) error {
	_, err := d.Pool.Exec(ctx,
		`INSERT INTO runs (run_id, account, dry_run, cutoff, started_at, finished_at,
			pages, evaluated, kept, simulated, deleted, failed, fetch_error)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		s.RunID, s.Account, s.DryRun, s.Cutoff, s.StartedAt, s.FinishedAt,
		s.Pages, s.Evaluated, s.Kept, s.Simulated, s.Deleted, s.Failed, errString(s.FetchErr),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

func (d *Database) SaveOutcomes(ctx context.Context, runID string, outcomes []model.Outcome) error {
	if len(outcomes) == 0 {
		d.Log.Info("No outcomes to save")
		return nil
	}

	rows := make([][]interface{}, 0, len(outcomes))
	for _, o := range outcomes {
		rows = append(rows, []interface{}{
			runID,
			o.PostID,
			o.CreatedAt,
			string(o.Decision),
			string(o.Status),
			o.Error,
		})
	}

	_, err := d.Pool.CopyFrom(
		ctx,
		pgx.Identifier{"post_outcomes"},
		[]string{"run_id", "post_id", "created_at", "decision", "status", "error"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		d.Log.Error("CopyFrom failed", "err", err)
		return err
	}

	d.Log.Info("Saved outcomes to database", "count", len(outcomes))
	return nil
}

func (d *Database) Close() {
	d.Pool.Close()
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
