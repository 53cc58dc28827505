package app

import (
	"context"
	"io"
	"math/rand/v2"
	"testing"

	"panelfit/domain/core"
	"panelfit/domain/search"
	"panelfit/internal"
	"panelfit/internal/testkit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// drawScorer returns the first value of the stream, or an error for tuples
// listed in fail
type drawScorer struct {
	fail map[int]bool
}

func (s drawScorer) Score(ctx context.Context, tuple search.Tuple, rng *rand.Rand) (float64, error) {
	if s.fail[tuple.ID] {
		return 0, core.ErrDegenerateDraw
	}
	return rng.Float64(), nil
}

func quietLogger() *internal.Logger {
	return internal.NewLoggerTo(io.Discard, internal.LogLevelError)
}

func planFor(grid *search.Grid, stage, draws, offset int) StagePlan {
	return StagePlan{Stage: stage, Tuples: grid.Tuples[:40], Draws: draws, Offset: offset, GridSize: grid.Len()}
}

func TestStageRunner_MeansAndCounts(t *testing.T) {
	grid := search.NewGrid(search.Constants{N: 10, T: 3, BaseRate: 0.5})
	rng := testkit.NewRNGAdapter()
	runner := NewStageRunner(rng, 42, 4, quietLogger())

	out, err := runner.Run(context.Background(), drawScorer{fail: map[int]bool{7: true}}, planFor(grid, 1, 5, 0))
	require.NoError(t, err)

	assert.Equal(t, 200, out.DrawsRun)
	assert.Equal(t, 5, out.FailedDraws)
	assert.Equal(t, 1, out.MissingMean)
	assert.Equal(t, int64(200), rng.Streams())
	assert.Equal(t, 200, rng.StageStreams(1))

	assert.Len(t, out.Means, grid.Len())
	assert.False(t, out.Means[7].Valid)
	assert.Equal(t, 39, out.Means.Valid())
	for _, s := range out.Means {
		if s.Valid {
			assert.True(t, s.Value >= 0 && s.Value < 1)
		}
	}
}

func TestStageRunner_IndependentOfWorkerCount(t *testing.T) {
	grid := search.NewGrid(search.Constants{N: 10, T: 3, BaseRate: 0.5})
	plan := planFor(grid, 2, 6, 30)

	single, err := NewStageRunner(testkit.NewRNGAdapter(), 7, 1, quietLogger()).Run(context.Background(), drawScorer{}, plan)
	require.NoError(t, err)
	many, err := NewStageRunner(testkit.NewRNGAdapter(), 7, 8, quietLogger()).Run(context.Background(), drawScorer{}, plan)
	require.NoError(t, err)

	assert.Equal(t, single.Means, many.Means)
}

func TestStageRunner_OffsetSelectsNewDraws(t *testing.T) {
	grid := search.NewGrid(search.Constants{N: 10, T: 3, BaseRate: 0.5})
	runner := NewStageRunner(testkit.NewRNGAdapter(), 7, 2, quietLogger())

	first, err := runner.Run(context.Background(), drawScorer{}, planFor(grid, 1, 3, 0))
	require.NoError(t, err)
	second, err := runner.Run(context.Background(), drawScorer{}, planFor(grid, 1, 3, 3))
	require.NoError(t, err)

	assert.NotEqual(t, first.Means[0], second.Means[0])
}

func TestStageRunner_Cancelled(t *testing.T) {
	grid := search.NewGrid(search.Constants{N: 10, T: 3, BaseRate: 0.5})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewStageRunner(testkit.NewRNGAdapter(), 7, 2, quietLogger()).Run(ctx, drawScorer{}, planFor(grid, 1, 3, 0))
	assert.ErrorIs(t, err, context.Canceled)
}
