package dgp

import (
	"testing"

	"panelfit/domain/core"
	"panelfit/domain/panel"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOLSEstimator_PerUnitSlopes(t *testing.T) {
	p := panel.FromSeries([]float64{0, 0.5, 1}, [][]int{
		{0, 0, 1},
		{1, 1, 0},
		{1, 1, 1},
		{0, 1, 1},
	})

	slopes, err := NewOLSEstimator().Estimate(p)
	require.NoError(t, err)
	require.Len(t, slopes, 4)

	assert.InDelta(t, 1.0, slopes[0], 1e-12)
	assert.InDelta(t, -1.0, slopes[1], 1e-12)
	assert.InDelta(t, 0.0, slopes[2], 1e-12)
	assert.InDelta(t, 1.0, slopes[3], 1e-12)
}

func TestOLSEstimator_SkipsSingleTimeUnits(t *testing.T) {
	p := &panel.Panel{
		Records: []panel.Record{
			{UnitID: "a", Time: 0, Wave: 0, Outcome: 0},
			{UnitID: "a", Time: 1, Wave: 1, Outcome: 1},
			{UnitID: "b", Time: 1, Wave: 1, Outcome: 1},
		},
		Units: []string{"a", "b"},
		Times: []float64{0, 1},
	}

	slopes, err := NewOLSEstimator().Estimate(p)
	require.NoError(t, err)
	assert.Equal(t, []float64{1}, slopes)
}

func TestOLSEstimator_NoUsableUnit(t *testing.T) {
	p := &panel.Panel{
		Records: []panel.Record{{UnitID: "a", Time: 0, Outcome: 1}},
		Units:   []string{"a"},
		Times:   []float64{0},
	}

	_, err := NewOLSEstimator().Estimate(p)
	assert.ErrorIs(t, err, core.ErrInsufficientData)

	_, err = NewOLSEstimator().Estimate(&panel.Panel{})
	assert.ErrorIs(t, err, core.ErrInsufficientData)
}
