package dgp

import (
	"fmt"

	"panelfit/domain/core"
	"panelfit/domain/panel"

	"gonum.org/v1/gonum/stat"
)

// OLSEstimator fits y = a + b*t per unit by ordinary least squares and
// reports b. Units observed at a single time are skipped.
type OLSEstimator struct{}

// NewOLSEstimator creates the per-unit slope estimator
func NewOLSEstimator() *OLSEstimator {
	return &OLSEstimator{}
}

// Estimate returns one slope per unit with at least two distinct times, in
// unit order
func (e *OLSEstimator) Estimate(p *panel.Panel) ([]float64, error) {
	if p == nil || len(p.Records) == 0 {
		return nil, fmt.Errorf("%w: empty panel", core.ErrInsufficientData)
	}
	slopes := make([]float64, 0, p.NumUnits())
	p.EachUnit(func(_ string, times, outcomes []float64) {
		// times arrive in ascending order
		if len(times) < 2 || times[0] == times[len(times)-1] {
			return
		}
		_, beta := stat.LinearRegression(times, outcomes, nil, false)
		slopes = append(slopes, beta)
	})
	if len(slopes) == 0 {
		return nil, fmt.Errorf("%w: no unit is observed at two distinct times", core.ErrInsufficientData)
	}
	return slopes, nil
}
