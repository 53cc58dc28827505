package app

import (
	"context"
	"time"

	"panelfit/domain/core"
	"panelfit/domain/panel"
	"panelfit/domain/run"
	"panelfit/domain/search"
	"panelfit/internal"
	"panelfit/internal/errors"
	"panelfit/ports"
)

// pruneQuantiles are applied after stage 1 and stage 2
var pruneQuantiles = [2]float64{0.5, 0.2}

// EstimationService runs the staged search:
// INIT -> STAGE1 -> STAGE2 -> STAGE3 -> DONE
type EstimationService struct {
	simulator ports.SimulatorPort
	estimator panel.SlopeEstimator
	rngPort   ports.RNGPort
	logger    *internal.Logger
}

// EstimationRequest defines the inputs of one run
type EstimationRequest struct {
	Observations []panel.Observation
	Settings     run.Settings
	RunID        core.RunID // optional, generated if empty
}

// Prepared is the outcome of INIT: a validated panel, its reference
// signature and the grid built from it
type Prepared struct {
	Panel     *panel.Panel
	Report    panel.CleanReport
	Pattern   panel.Pattern
	Reference panel.Signature
	Grid      *search.Grid
}

// EstimationResult contains the complete output of a run
type EstimationResult struct {
	Manifest  *run.Manifest
	Table     *search.Table
	Grid      *search.Grid
	Reference panel.Signature
	// Cumulative holds the cumulative error column of each stage
	Cumulative [3]search.Column
	// Survivors holds the tuples evaluated in each stage
	Survivors [3][]search.Tuple
}

// NewEstimationService creates the orchestrator
func NewEstimationService(simulator ports.SimulatorPort, estimator panel.SlopeEstimator, rngPort ports.RNGPort, logger *internal.Logger) *EstimationService {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &EstimationService{
		simulator: simulator,
		estimator: estimator,
		rngPort:   rngPort,
		logger:    logger,
	}
}

// Prepare cleans the observations and builds the reference signature and the
// grid. Nothing is simulated.
func (s *EstimationService) Prepare(observations []panel.Observation, pattern string) (*Prepared, error) {
	mode, err := panel.ParsePattern(pattern)
	if err != nil {
		return nil, errors.Validation(err, "pattern must be contingency or slopes, got %q", pattern)
	}

	p, report, err := panel.Clean(observations)
	if err != nil {
		return nil, err
	}
	if report.Dropped > 0 {
		s.logger.Info("dropped %d of %d records with missing values", report.Dropped, report.Observations)
	}

	reference, err := panel.BuildReference(p, mode, s.estimator)
	if err != nil {
		return nil, errors.Validation(err, "cannot build the %s reference signature", mode)
	}

	grid := search.NewGrid(search.Constants{N: p.NumUnits(), T: p.NumWaves(), BaseRate: p.BaseRate()})
	return &Prepared{Panel: p, Report: report, Pattern: mode, Reference: reference, Grid: grid}, nil
}

// Estimate runs all three stages and returns the labeled error table. Input
// problems are reported before any simulation starts.
func (s *EstimationService) Estimate(ctx context.Context, req EstimationRequest) (*EstimationResult, error) {
	s.logger.Warn("records with a missing unit, time or outcome are dropped; no imputation is performed")

	settings := req.Settings
	if settings.Workers < 1 {
		settings.Workers = 1
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	prepared, err := s.Prepare(req.Observations, settings.Pattern)
	if err != nil {
		return nil, err
	}
	settings.Pattern = prepared.Pattern.String()

	runID := req.RunID
	if runID == "" {
		runID = core.NewRunID()
	}
	manifest := run.NewManifest(runID, settings, run.PanelInfo{
		Observations: prepared.Report.Observations,
		Dropped:      prepared.Report.Dropped,
		Units:        prepared.Panel.NumUnits(),
		Waves:        prepared.Panel.NumWaves(),
		BaseRate:     prepared.Panel.BaseRate(),
	}, prepared.Panel.Hash())

	s.logger.Info("run %s: %d units, %d waves, base rate %.4f, %d tuples, pattern %s, seed %d",
		runID, manifest.Panel.Units, manifest.Panel.Waves, manifest.Panel.BaseRate,
		prepared.Grid.Len(), settings.Pattern, settings.Seed)

	result := &EstimationResult{Manifest: manifest, Grid: prepared.Grid, Reference: prepared.Reference}
	scorer := NewScorer(s.simulator, prepared.Reference, prepared.Panel.Times, settings.Reliability)
	runner := NewStageRunner(s.rngPort, settings.Seed, settings.Workers, s.logger)

	draws := settings.Draws()
	survivors := prepared.Grid.Tuples
	var cumulative search.Column
	prevDraws := 0

	for k := 0; k < 3; k++ {
		stage := k + 1
		outcome, err := runner.Run(ctx, scorer, StagePlan{
			Stage:    stage,
			Tuples:   survivors,
			Draws:    draws[k],
			Offset:   prevDraws,
			GridSize: prepared.Grid.Len(),
		})
		if err != nil {
			return nil, errors.Wrapf(err, "stage %d aborted", stage)
		}

		cumulative = search.AggregateColumn(tupleIDs(survivors), cumulative, prevDraws, outcome.Means, draws[k])
		result.Cumulative[k] = cumulative
		result.Survivors[k] = survivors
		prevDraws += draws[k]

		summary := run.StageSummary{
			Stage:       stage,
			Tuples:      len(survivors),
			DrawsEach:   draws[k],
			DrawsRun:    outcome.DrawsRun,
			FailedDraws: outcome.FailedDraws,
			MissingMean: outcome.MissingMean,
			Survivors:   len(survivors),
			Duration:    outcome.Duration,
		}

		if k < len(pruneQuantiles) {
			pruned := search.Prune(survivors, cumulative, pruneQuantiles[k])
			summary.Quantile = pruned.Quantile
			summary.RetainedAll = pruned.RetainedAll
			summary.Survivors = len(pruned.Kept)
			if pruned.Threshold.Valid {
				threshold := pruned.Threshold.Value
				summary.Threshold = &threshold
			}
			if pruned.RetainedAll {
				s.logger.Warn("stage %d: every cumulative error is missing, retaining all %d tuples", stage, len(survivors))
			}
			survivors = pruned.Kept
		}
		manifest.AddStage(summary)
		s.logStage(summary)
	}

	result.Table = search.BuildTable(prepared.Grid, prepared.Pattern, result.Cumulative[:])
	manifest.Complete(result.Table.Fingerprint())

	if best, ok := result.Table.Best(); ok {
		s.logger.Info("run %s done in %s: best rate=%.2f strength=%.1f %s error=%s",
			runID, manifest.Duration().Round(time.Millisecond), best.Rate, best.Strength, best.Label, best.Error)
	} else {
		s.logger.Warn("run %s done: no tuple produced a valid error", runID)
	}
	return result, nil
}

func (s *EstimationService) logStage(sum run.StageSummary) {
	threshold := "none"
	if sum.Threshold != nil {
		threshold = search.Known(*sum.Threshold).String()
	}
	s.logger.Info("stage %d: %d tuples x %d draws (%d failed, %d missing means), threshold %s, %d survivors, %s",
		sum.Stage, sum.Tuples, sum.DrawsEach, sum.FailedDraws, sum.MissingMean, threshold, sum.Survivors,
		sum.Duration.Round(time.Millisecond))
}

func tupleIDs(tuples []search.Tuple) []int {
	ids := make([]int, len(tuples))
	for i, t := range tuples {
		ids[i] = t.ID
	}
	return ids
}
