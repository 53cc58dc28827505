package app

import (
	"context"
	stderrors "errors"
	"time"

	"panelfit/domain/search"
	"panelfit/internal"
	"panelfit/ports"

	"github.com/montanaflynn/stats"
	"golang.org/x/sync/errgroup"
)

// StagePlan is the work of one stage: Draws new draws for every tuple.
// Offset is the number of draws each tuple already had, so draw indices
// continue where the previous stage stopped.
type StagePlan struct {
	Stage    int
	Tuples   []search.Tuple
	Draws    int
	Offset   int
	GridSize int
}

// StageOutcome holds the per-tuple means of one stage
type StageOutcome struct {
	Means       search.Column
	DrawsRun    int
	FailedDraws int
	MissingMean int
	Duration    time.Duration
}

// StageRunner evaluates every (tuple, draw) of a stage on a bounded pool
type StageRunner struct {
	rngPort ports.RNGPort
	seed    int64
	workers int
	logger  *internal.Logger
}

// NewStageRunner creates a new stage runner
func NewStageRunner(rngPort ports.RNGPort, seed int64, workers int, logger *internal.Logger) *StageRunner {
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &StageRunner{
		rngPort: rngPort,
		seed:    seed,
		workers: workers,
		logger:  logger.WithComponent("stage"),
	}
}

// Run executes the plan and waits for every draw. Draw failures are counted
// and excluded from the means; only a cancelled context or an RNG failure
// aborts the stage.
func (r *StageRunner) Run(ctx context.Context, scorer DrawScorer, plan StagePlan) (*StageOutcome, error) {
	start := time.Now()
	n := len(plan.Tuples) * plan.Draws
	values := make([]float64, n)
	ok := make([]bool, n)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)

schedule:
	for i, tuple := range plan.Tuples {
		for d := 0; d < plan.Draws; d++ {
			if gctx.Err() != nil {
				break schedule
			}
			slot := i*plan.Draws + d
			key := ports.StreamKey{Stage: plan.Stage, Tuple: tuple.ID, Draw: plan.Offset + d}
			g.Go(func() error {
				rng, err := r.rngPort.Stream(gctx, key, r.seed)
				if err != nil {
					return err
				}
				v, err := scorer.Score(gctx, tuple, rng)
				if err != nil {
					if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
						return err
					}
					r.logger.Debug("draw %d of %s failed: %v", key.Draw, tuple.Key(), err)
					return nil
				}
				values[slot] = v
				ok[slot] = true
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := &StageOutcome{Means: search.NewColumn(plan.GridSize), DrawsRun: n}
	draws := make([]float64, 0, plan.Draws)
	for i, tuple := range plan.Tuples {
		draws = draws[:0]
		for d := 0; d < plan.Draws; d++ {
			slot := i*plan.Draws + d
			if ok[slot] {
				draws = append(draws, values[slot])
			} else {
				out.FailedDraws++
			}
		}
		mean, err := stats.Mean(draws)
		if err != nil {
			out.MissingMean++
			continue
		}
		out.Means[tuple.ID] = search.Known(mean)
	}
	out.Duration = time.Since(start)
	return out, nil
}
