package run

import (
	"time"

	"panelfit/domain/core"
)

// PanelInfo describes the cleaned input panel
type PanelInfo struct {
	Observations int     `json:"observations"`
	Dropped      int     `json:"dropped"`
	Units        int     `json:"units"`
	Waves        int     `json:"waves"`
	BaseRate     float64 `json:"base_rate"`
}

// StageSummary records what one stage did
type StageSummary struct {
	Stage       int     `json:"stage"`
	Tuples      int     `json:"tuples"`
	DrawsEach   int     `json:"draws_each"`
	DrawsRun    int     `json:"draws_run"`
	FailedDraws int     `json:"failed_draws"`
	MissingMean int     `json:"missing_mean"`
	Quantile    float64 `json:"quantile,omitempty"`
	// Threshold is nil for the last stage and when every error was missing
	Threshold   *float64      `json:"threshold,omitempty"`
	RetainedAll bool          `json:"retained_all,omitempty"`
	Survivors   int           `json:"survivors"`
	Duration    time.Duration `json:"duration"`
}

// Manifest is the record of one estimation run. It is created before the
// first stage and completed once the result table exists.
type Manifest struct {
	RunID       core.RunID     `json:"run_id"`
	Settings    Settings       `json:"settings"`
	Panel       PanelInfo      `json:"panel"`
	Fingerprint RunFingerprint `json:"fingerprint"` // Determinism fingerprint
	ResultHash  core.Hash      `json:"result_hash,omitempty"`
	Stages      []StageSummary `json:"stages"`
	CreatedAt   time.Time      `json:"created_at"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
}

// NewManifest creates a manifest for a run over a panel with the given hash
func NewManifest(runID core.RunID, settings Settings, info PanelInfo, inputHash core.Hash) *Manifest {
	return &Manifest{
		RunID:       runID,
		Settings:    settings,
		Panel:       info,
		Fingerprint: NewRunFingerprint(inputHash, settings.Hash(), settings.Seed, CodeVersion),
		Stages:      make([]StageSummary, 0, 3),
		CreatedAt:   time.Now(),
	}
}

// AddStage appends a stage summary
func (m *Manifest) AddStage(s StageSummary) {
	m.Stages = append(m.Stages, s)
}

// Complete records the result hash and completion time
func (m *Manifest) Complete(resultHash core.Hash) {
	now := time.Now()
	m.ResultHash = resultHash
	m.CompletedAt = &now
}

// Completed reports whether the run reached DONE
func (m *Manifest) Completed() bool {
	return m.CompletedAt != nil
}

// Duration returns the wall time of a completed run, 0 otherwise
func (m *Manifest) Duration() time.Duration {
	if m.CompletedAt == nil {
		return 0
	}
	return m.CompletedAt.Sub(m.CreatedAt)
}

// Validate checks if the manifest is complete
func (m *Manifest) Validate() error {
	if core.ID(m.RunID).IsEmpty() {
		return core.NewValidationError("run_manifest", "run_id cannot be empty")
	}
	if m.Fingerprint.InputHash.IsEmpty() {
		return core.NewValidationError("run_manifest", "input_hash cannot be empty")
	}
	if m.Fingerprint.ConfigHash.IsEmpty() {
		return core.NewValidationError("run_manifest", "config_hash cannot be empty")
	}
	if m.Settings.Pattern == "" {
		return core.NewValidationError("run_manifest", "pattern cannot be empty")
	}
	return m.Settings.Validate()
}
