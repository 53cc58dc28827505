package app

import (
	"context"
	stderrors "errors"
	"math/rand/v2"
	"testing"

	"panelfit/domain/core"
	"panelfit/domain/panel"
	"panelfit/domain/search"
	"panelfit/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockSimulator is a mock implementation of ports.SimulatorPort
type MockSimulator struct {
	mock.Mock
}

func (m *MockSimulator) Simulate(ctx context.Context, req ports.SimulationRequest, rng *rand.Rand) (panel.Signature, error) {
	args := m.Called(ctx, req, rng)
	sig, _ := args.Get(0).(panel.Signature)
	return sig, args.Error(1)
}

func TestScorer_ContingencyDistance(t *testing.T) {
	reference := panel.Contingency{"00": 5, "01": 3, "11": 2}
	simulated := panel.Contingency{"00": 4, "01": 3, "10": 1, "11": 2}
	tuple := search.Tuple{ID: 3, N: 10, T: 2, Rate: 0.1, Strength: 0.5, Direction: 0.75, BaseRate: 0.35}
	times := []float64{0, 1}

	sim := &MockSimulator{}
	sim.On("Simulate", mock.Anything, ports.SimulationRequest{
		Tuple:       tuple,
		Reliability: 0.9,
		Pattern:     panel.PatternContingency,
		Times:       times,
	}, mock.Anything).Return(simulated, nil).Once()

	got, err := NewScorer(sim, reference, times, 0.9).Score(context.Background(), tuple, rand.New(rand.NewPCG(1, 2)))
	require.NoError(t, err)
	assert.Equal(t, 2.0, got)
	sim.AssertExpectations(t)
}

func TestScorer_PropagatesFailures(t *testing.T) {
	sim := &MockSimulator{}
	sim.On("Simulate", mock.Anything, mock.Anything, mock.Anything).Return(nil, core.ErrDegenerateDraw).Once()
	sim.On("Simulate", mock.Anything, mock.Anything, mock.Anything).Return(panel.Contingency{"0": 1}, nil).Once()

	scorer := NewScorer(sim, panel.Slopes{0.1, 0.2}, []float64{0, 1}, 1)
	rng := rand.New(rand.NewPCG(1, 2))

	_, err := scorer.Score(context.Background(), search.Tuple{}, rng)
	assert.True(t, stderrors.Is(err, core.ErrDegenerateDraw))

	_, err = scorer.Score(context.Background(), search.Tuple{}, rng)
	assert.ErrorIs(t, err, core.ErrSignatureMismatch)
}
