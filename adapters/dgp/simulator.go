// Package dgp is the shipped data-generating process: a latent-propensity
// logistic panel in which a share of units follows a linear trend.
package dgp

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"

	"panelfit/domain/core"
	"panelfit/domain/panel"
	"panelfit/ports"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Params shape the DGP beyond the searched tuple
type Params struct {
	// LatentSpread is the standard deviation of the unit baseline log-odds
	LatentSpread float64
	// UpdateScale converts a strength level into a log-odds change over the
	// whole observed time span
	UpdateScale float64
}

// DefaultParams returns the parameters used by the CLI
func DefaultParams() Params {
	return Params{LatentSpread: 2, UpdateScale: 4}
}

// Simulator draws synthetic panels. For each unit:
//
//	l0   ~ Normal(logit(base_rate), LatentSpread)
//	beta = 0, or ±strength*UpdateScale for a changer (P = rate), up with P = direction
//	y_t  ~ Bernoulli(sigmoid(l0 + beta*(t - mean(t))))
//
// and each outcome is flipped with probability 1 - reliability.
type Simulator struct {
	params    Params
	estimator panel.SlopeEstimator
}

// NewSimulator creates a simulator. estimator is only needed for the slopes
// pattern.
func NewSimulator(params Params, estimator panel.SlopeEstimator) *Simulator {
	return &Simulator{params: params, estimator: estimator}
}

// Simulate draws one panel and returns its signature for req.Pattern
func (s *Simulator) Simulate(ctx context.Context, req ports.SimulationRequest, rng *rand.Rand) (panel.Signature, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t := req.Tuple
	if t.N <= 0 || len(req.Times) < 2 {
		return nil, fmt.Errorf("%w: need units and at least two times (n=%d, times=%d)",
			core.ErrInsufficientData, t.N, len(req.Times))
	}

	series, ones := s.draw(req, rng)
	if ones == 0 || ones == t.N*len(req.Times) {
		return nil, core.ErrDegenerateDraw
	}
	synthetic := panel.FromSeries(req.Times, series)

	switch req.Pattern {
	case panel.PatternContingency:
		return panel.ContingencyOf(synthetic), nil
	case panel.PatternSlopes:
		if s.estimator == nil {
			return nil, fmt.Errorf("slopes pattern requires a slope estimator")
		}
		values, err := s.estimator.Estimate(synthetic)
		if err != nil {
			return nil, err
		}
		slopes := panel.NewSlopes(values)
		if len(slopes) == 0 {
			return nil, core.ErrDegenerateDraw
		}
		return slopes, nil
	}
	return nil, fmt.Errorf("%w: %v", core.ErrUnknownPattern, req.Pattern)
}

func (s *Simulator) draw(req ports.SimulationRequest, rng *rand.Rand) ([][]int, int) {
	t := req.Tuple
	center := stat.Mean(req.Times, nil)

	latent := distuv.Normal{Mu: logit(t.BaseRate), Sigma: s.params.LatentSpread, Src: rng}
	changer := distuv.Bernoulli{P: t.Rate, Src: rng}
	up := distuv.Bernoulli{P: t.Direction, Src: rng}
	flip := distuv.Bernoulli{P: 1 - req.Reliability, Src: rng}

	series := make([][]int, t.N)
	ones := 0
	for i := range series {
		l0 := latent.Rand()
		beta := 0.0
		if changer.Rand() == 1 {
			beta = t.Strength * s.params.UpdateScale
			if up.Rand() == 0 {
				beta = -beta
			}
		}

		row := make([]int, len(req.Times))
		for k, tau := range req.Times {
			y := int(distuv.Bernoulli{P: sigmoid(l0 + beta*(tau-center)), Src: rng}.Rand())
			if flip.Rand() == 1 {
				y = 1 - y
			}
			row[k] = y
			ones += y
		}
		series[i] = row
	}
	return series, ones
}

const rateEpsilon = 1e-6

func logit(p float64) float64 {
	p = math.Min(math.Max(p, rateEpsilon), 1-rateEpsilon)
	return math.Log(p / (1 - p))
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

var _ ports.SimulatorPort = (*Simulator)(nil)
