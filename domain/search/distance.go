package search

import (
	"fmt"

	"panelfit/domain/core"
	"panelfit/domain/panel"

	"gonum.org/v1/gonum/stat"
)

// Distance compares a simulated signature with the reference one. Both must
// be of the same kind.
func Distance(simulated, reference panel.Signature) (float64, error) {
	switch ref := reference.(type) {
	case panel.Contingency:
		sim, ok := simulated.(panel.Contingency)
		if !ok {
			return 0, fmt.Errorf("%w: want contingency, got %T", core.ErrSignatureMismatch, simulated)
		}
		return Deviation(sim, ref), nil
	case panel.Slopes:
		sim, ok := simulated.(panel.Slopes)
		if !ok {
			return 0, fmt.Errorf("%w: want slopes, got %T", core.ErrSignatureMismatch, simulated)
		}
		if len(sim) == 0 || len(ref) == 0 {
			return 0, fmt.Errorf("%w: empty slope set", core.ErrInsufficientData)
		}
		return KolmogorovSmirnov(sim, ref), nil
	}
	return 0, fmt.Errorf("%w: unsupported reference %T", core.ErrSignatureMismatch, reference)
}

// Deviation sums |simulated - reference| over the union of patterns. A
// pattern absent on either side counts as zero there.
func Deviation(simulated, reference panel.Contingency) float64 {
	total := 0
	for pattern, n := range simulated {
		total += abs(n - reference[pattern])
	}
	for pattern, n := range reference {
		if _, ok := simulated[pattern]; !ok {
			total += n
		}
	}
	return float64(total)
}

// KolmogorovSmirnov returns the two-sample KS statistic D, the largest gap
// between the two empirical CDFs. Both sets must be sorted and non-empty.
func KolmogorovSmirnov(simulated, reference panel.Slopes) float64 {
	return stat.KolmogorovSmirnov(simulated, nil, reference, nil)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
