package ports

import (
	"context"
	"time"

	"panelfit/domain/core"
	"panelfit/domain/run"
	"panelfit/domain/search"
)

// ResultRepository persists finished runs and their result tables
type ResultRepository interface {
	// EnsureSchema creates the tables if they do not exist yet
	EnsureSchema(ctx context.Context) error

	// SaveRun stores the manifest and every row of the table in one transaction
	SaveRun(ctx context.Context, manifest *run.Manifest, table *search.Table) error

	// GetManifest loads a stored manifest
	GetManifest(ctx context.Context, runID core.RunID) (*run.Manifest, error)

	// ListResults returns the stored rows of a run in grid order
	ListResults(ctx context.Context, runID core.RunID) ([]search.Row, error)

	// ListRuns returns the most recent runs first
	ListRuns(ctx context.Context, limit int) ([]RunSummary, error)
}

// RunSummary is a one-line view of a stored run
type RunSummary struct {
	RunID       core.RunID
	Pattern     string
	Seed        int64
	Fingerprint core.Hash
	CreatedAt   time.Time
}
