package app

import (
	"context"
	"math/rand/v2"

	"panelfit/domain/panel"
	"panelfit/domain/search"
	"panelfit/ports"
)

// DrawScorer turns one random stream into one distance for a tuple
type DrawScorer interface {
	Score(ctx context.Context, tuple search.Tuple, rng *rand.Rand) (float64, error)
}

// Scorer simulates a panel for a tuple and measures its signature against
// the reference signature
type Scorer struct {
	simulator   ports.SimulatorPort
	reference   panel.Signature
	times       []float64
	reliability float64
}

// NewScorer creates a scorer against reference. times are the reference
// panel's rescaled wave times.
func NewScorer(simulator ports.SimulatorPort, reference panel.Signature, times []float64, reliability float64) *Scorer {
	return &Scorer{
		simulator:   simulator,
		reference:   reference,
		times:       times,
		reliability: reliability,
	}
}

// Score runs one draw. Any error means the draw is missing; the caller
// decides how to count it.
func (s *Scorer) Score(ctx context.Context, tuple search.Tuple, rng *rand.Rand) (float64, error) {
	sig, err := s.simulator.Simulate(ctx, ports.SimulationRequest{
		Tuple:       tuple,
		Reliability: s.reliability,
		Pattern:     s.reference.Pattern(),
		Times:       s.times,
	}, rng)
	if err != nil {
		return 0, err
	}
	return search.Distance(sig, s.reference)
}
