package migration

import (
	"context"

	"panelfit/internal/errors"

	"github.com/jmoiron/sqlx"
)

// Migrator defines the interface for database migration operations
type Migrator interface {
	Run(ctx context.Context, db *sqlx.DB) error
	Version() string
}

// MigrationRunner creates the result store schema. Every statement is
// idempotent and sticks to types both PostgreSQL and SQLite accept.
type MigrationRunner struct {
	version string
}

// NewRunner creates a new migration runner
func NewRunner() *MigrationRunner {
	return &MigrationRunner{
		version: "1.0.0",
	}
}

// Version returns the migration version
func (r *MigrationRunner) Version() string {
	return r.version
}

// Run executes all database migrations in the correct order
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	if err := r.createRunsTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create estimation_runs table")
	}

	if err := r.createResultsTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create estimation_results table")
	}

	if err := r.createIndexes(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create indexes")
	}

	return nil
}

func (r *MigrationRunner) createRunsTable(ctx context.Context, db *sqlx.DB) error {
	query := `
		CREATE TABLE IF NOT EXISTS estimation_runs (
			run_id      TEXT PRIMARY KEY,
			pattern     TEXT NOT NULL,
			seed        BIGINT NOT NULL,
			config_hash TEXT NOT NULL,
			input_hash  TEXT NOT NULL,
			result_hash TEXT NOT NULL,
			manifest    TEXT NOT NULL,
			created_at  TIMESTAMP NOT NULL
		)`
	return r.exec(ctx, db, query)
}

func (r *MigrationRunner) createResultsTable(ctx context.Context, db *sqlx.DB) error {
	query := `
		CREATE TABLE IF NOT EXISTS estimation_results (
			run_id          TEXT NOT NULL REFERENCES estimation_runs(run_id),
			position        INTEGER NOT NULL,
			rate            DOUBLE PRECISION NOT NULL,
			strength        DOUBLE PRECISION NOT NULL,
			direction       DOUBLE PRECISION NOT NULL,
			direction_label TEXT NOT NULL,
			error           DOUBLE PRECISION,
			stage           INTEGER NOT NULL,
			pattern         TEXT NOT NULL,
			PRIMARY KEY (run_id, position)
		)`
	return r.exec(ctx, db, query)
}

func (r *MigrationRunner) createIndexes(ctx context.Context, db *sqlx.DB) error {
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_runs_created_at ON estimation_runs(created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_runs_result_hash ON estimation_runs(result_hash)",
		"CREATE INDEX IF NOT EXISTS idx_results_run_error ON estimation_results(run_id, error)",
	}

	for _, index := range indexes {
		if err := r.exec(ctx, db, index); err != nil {
			return err
		}
	}
	return nil
}

func (r *MigrationRunner) exec(ctx context.Context, db *sqlx.DB, query string) error {
	if _, err := db.ExecContext(ctx, query); err != nil {
		return errors.DatabaseError("migration statement failed", err)
	}
	return nil
}
