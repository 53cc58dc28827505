package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"panelfit/domain/core"
	"panelfit/domain/panel"
	"panelfit/domain/run"
	"panelfit/domain/search"
	"panelfit/internal/errors"
	"panelfit/internal/migration"
	"panelfit/ports"

	"github.com/jmoiron/sqlx"
)

type runRecord struct {
	RunID      string    `db:"run_id"`
	Pattern    string    `db:"pattern"`
	Seed       int64     `db:"seed"`
	ConfigHash string    `db:"config_hash"`
	InputHash  string    `db:"input_hash"`
	ResultHash string    `db:"result_hash"`
	Manifest   string    `db:"manifest"`
	CreatedAt  time.Time `db:"created_at"`
}

type resultRecord struct {
	RunID     string          `db:"run_id"`
	Position  int             `db:"position"`
	Rate      float64         `db:"rate"`
	Strength  float64         `db:"strength"`
	Direction float64         `db:"direction"`
	Label     string          `db:"direction_label"`
	Error     sql.NullFloat64 `db:"error"`
	Stage     int             `db:"stage"`
	Pattern   string          `db:"pattern"`
}

// resultRepository implements ports.ResultRepository on any sqlx driver
// whose bind style sqlx knows (postgres, sqlite3)
type resultRepository struct {
	db *sqlx.DB
}

// NewResultRepository creates a new result repository
func NewResultRepository(db *sqlx.DB) ports.ResultRepository {
	return &resultRepository{db: db}
}

// Open connects to the database. The driver must be registered by the caller.
func Open(ctx context.Context, driver, url string) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, driver, url)
	if err != nil {
		return nil, errors.DatabaseError(fmt.Sprintf("failed to connect with %s", driver), err)
	}
	return db, nil
}

// EnsureSchema runs the migrations. It is safe to call on every start.
func (r *resultRepository) EnsureSchema(ctx context.Context) error {
	return migration.NewRunner().Run(ctx, r.db)
}

// SaveRun stores the manifest and every result row in one transaction
func (r *resultRepository) SaveRun(ctx context.Context, manifest *run.Manifest, table *search.Table) error {
	payload, err := json.Marshal(manifest)
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.DatabaseError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	_, err = tx.NamedExecContext(ctx, `INSERT INTO estimation_runs (
		run_id, pattern, seed, config_hash, input_hash, result_hash, manifest, created_at
	) VALUES (
		:run_id, :pattern, :seed, :config_hash, :input_hash, :result_hash, :manifest, :created_at
	)`, runRecord{
		RunID:      manifest.RunID.String(),
		Pattern:    manifest.Settings.Pattern,
		Seed:       manifest.Settings.Seed,
		ConfigHash: manifest.Fingerprint.ConfigHash.String(),
		InputHash:  manifest.Fingerprint.InputHash.String(),
		ResultHash: manifest.ResultHash.String(),
		Manifest:   string(payload),
		CreatedAt:  manifest.CreatedAt.UTC(),
	})
	if err != nil {
		return errors.DatabaseError("failed to insert run", err)
	}

	stmt, err := tx.PrepareNamedContext(ctx, `INSERT INTO estimation_results (
		run_id, position, rate, strength, direction, direction_label, error, stage, pattern
	) VALUES (
		:run_id, :position, :rate, :strength, :direction, :direction_label, :error, :stage, :pattern
	)`)
	if err != nil {
		return errors.DatabaseError("failed to prepare result insert", err)
	}
	defer stmt.Close()

	for i, row := range table.Rows {
		rec := resultRecord{
			RunID:     manifest.RunID.String(),
			Position:  i,
			Rate:      row.Rate,
			Strength:  row.Strength,
			Direction: row.Direction,
			Label:     row.Label,
			Error:     sql.NullFloat64{Float64: row.Error.Value, Valid: row.Error.Valid},
			Stage:     row.Stage,
			Pattern:   row.Pattern.String(),
		}
		if _, err := stmt.ExecContext(ctx, rec); err != nil {
			return errors.DatabaseError(fmt.Sprintf("failed to insert result row %d", i), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.DatabaseError("failed to commit run", err)
	}
	return nil
}

// GetManifest loads a stored manifest
func (r *resultRepository) GetManifest(ctx context.Context, runID core.RunID) (*run.Manifest, error) {
	var payload string
	err := r.db.GetContext(ctx, &payload, r.db.Rebind(`SELECT manifest FROM estimation_runs WHERE run_id = ?`), runID.String())
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.NotFound("run " + runID.String())
		}
		return nil, errors.DatabaseError("failed to get run", err)
	}

	var manifest run.Manifest
	if err := json.Unmarshal([]byte(payload), &manifest); err != nil {
		return nil, fmt.Errorf("failed to unmarshal manifest: %w", err)
	}
	return &manifest, nil
}

// ListResults returns the stored rows of a run in grid order
func (r *resultRepository) ListResults(ctx context.Context, runID core.RunID) ([]search.Row, error) {
	var records []resultRecord
	err := r.db.SelectContext(ctx, &records, r.db.Rebind(`SELECT
		run_id, position, rate, strength, direction, direction_label, error, stage, pattern
	FROM estimation_results
	WHERE run_id = ?
	ORDER BY position`), runID.String())
	if err != nil {
		return nil, errors.DatabaseError("failed to query results", err)
	}

	rows := make([]search.Row, len(records))
	for i, rec := range records {
		pattern, err := panel.ParsePattern(rec.Pattern)
		if err != nil {
			return nil, errors.DatabaseError(fmt.Sprintf("bad pattern in result row %d", rec.Position), err)
		}
		score := search.Missing
		if rec.Error.Valid {
			score = search.Known(rec.Error.Float64)
		}
		rows[i] = search.Row{
			Rate:      rec.Rate,
			Strength:  rec.Strength,
			Direction: rec.Direction,
			Label:     rec.Label,
			Error:     score,
			Stage:     rec.Stage,
			Pattern:   pattern,
		}
	}
	return rows, nil
}

// ListRuns returns the most recent runs first
func (r *resultRepository) ListRuns(ctx context.Context, limit int) ([]ports.RunSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	var records []runRecord
	err := r.db.SelectContext(ctx, &records, r.db.Rebind(`SELECT
		run_id, pattern, seed, config_hash, input_hash, result_hash, manifest, created_at
	FROM estimation_runs
	ORDER BY created_at DESC
	LIMIT ?`), limit)
	if err != nil {
		return nil, errors.DatabaseError("failed to query runs", err)
	}

	summaries := make([]ports.RunSummary, len(records))
	for i, rec := range records {
		summaries[i] = ports.RunSummary{
			RunID:       core.RunID(rec.RunID),
			Pattern:     rec.Pattern,
			Seed:        rec.Seed,
			Fingerprint: core.Hash(rec.ResultHash),
			CreatedAt:   rec.CreatedAt,
		}
	}
	return summaries, nil
}
