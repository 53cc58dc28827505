package ports

import (
	"context"
	"math/rand/v2"

	"panelfit/domain/panel"
	"panelfit/domain/search"
)

// SimulationRequest describes one synthetic panel draw
type SimulationRequest struct {
	Tuple       search.Tuple
	Reliability float64
	Pattern     panel.Pattern
	// Times are the reference panel's rescaled wave times
	Times []float64
}

// SimulatorPort draws one synthetic panel for a DGP parameterization and
// returns its signature. The signature kind must match req.Pattern.
// Implementations must draw all randomness from rng.
type SimulatorPort interface {
	Simulate(ctx context.Context, req SimulationRequest, rng *rand.Rand) (panel.Signature, error)
}

// SlopeEstimatorPort extracts one linear-trend coefficient per unit
type SlopeEstimatorPort interface {
	panel.SlopeEstimator
}
