//go:build cgo

package postgres

import (
	"context"
	"testing"
	"time"

	"panelfit/domain/core"
	"panelfit/domain/panel"
	"panelfit/domain/run"
	"panelfit/domain/search"
	"panelfit/internal/errors"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openSQLite(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := Open(context.Background(), "sqlite3", ":memory:")
	require.NoError(t, err)
	// every connection to :memory: is a separate database
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

func storedRun(t *testing.T) (*run.Manifest, *search.Table) {
	t.Helper()
	settings := run.Settings{Pattern: "slopes", Steps: [3]int{30, 120, 400}, Reliability: 0.8, Seed: 9, Workers: 2}
	m := run.NewManifest(core.NewRunID(), settings, run.PanelInfo{Units: 50, Waves: 3, BaseRate: 0.4}, core.Hash("input"))
	threshold := 0.25
	m.AddStage(run.StageSummary{Stage: 1, Tuples: 2100, DrawsEach: 30, Threshold: &threshold, Survivors: 1050, Duration: time.Second})

	table := &search.Table{
		Pattern: panel.PatternSlopes,
		Rows: []search.Row{
			{Rate: 0, Strength: 0.1, Direction: 0, Label: "100% Down", Error: search.Known(0.31), Stage: 1, Pattern: panel.PatternSlopes},
			{Rate: 0, Strength: 0.1, Direction: 0.25, Label: "75% Down-25% Up", Error: search.Missing, Stage: 0, Pattern: panel.PatternSlopes},
			{Rate: 0, Strength: 0.1, Direction: 0.5, Label: "50% Down-50% Up", Error: search.Known(0.12), Stage: 3, Pattern: panel.PatternSlopes},
		},
	}
	m.Complete(table.Fingerprint())
	return m, table
}

func TestResultRepository_RoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewResultRepository(openSQLite(t))
	require.NoError(t, repo.EnsureSchema(ctx))
	require.NoError(t, repo.EnsureSchema(ctx), "schema creation is idempotent")

	manifest, table := storedRun(t)
	require.NoError(t, repo.SaveRun(ctx, manifest, table))

	rows, err := repo.ListResults(ctx, manifest.RunID)
	require.NoError(t, err)
	assert.Equal(t, table.Rows, rows)

	got, err := repo.GetManifest(ctx, manifest.RunID)
	require.NoError(t, err)
	assert.Equal(t, manifest.Fingerprint, got.Fingerprint)
	assert.Equal(t, manifest.ResultHash, got.ResultHash)
	require.Len(t, got.Stages, 1)
	assert.Equal(t, 0.25, *got.Stages[0].Threshold)

	runs, err := repo.ListRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, manifest.RunID, runs[0].RunID)
	assert.Equal(t, "slopes", runs[0].Pattern)
	assert.Equal(t, table.Fingerprint(), runs[0].Fingerprint)
}

func TestResultRepository_DuplicateRunRollsBack(t *testing.T) {
	ctx := context.Background()
	repo := NewResultRepository(openSQLite(t))
	require.NoError(t, repo.EnsureSchema(ctx))

	manifest, table := storedRun(t)
	require.NoError(t, repo.SaveRun(ctx, manifest, table))

	err := repo.SaveRun(ctx, manifest, table)
	require.Error(t, err)
	assert.Equal(t, errors.CodeDatabaseError, errors.GetCode(err))

	rows, err := repo.ListResults(ctx, manifest.RunID)
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}

func TestResultRepository_NotFound(t *testing.T) {
	ctx := context.Background()
	repo := NewResultRepository(openSQLite(t))
	require.NoError(t, repo.EnsureSchema(ctx))

	_, err := repo.GetManifest(ctx, core.NewRunID())
	assert.Equal(t, errors.CodeNotFound, errors.GetCode(err))
}
