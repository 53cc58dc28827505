package panel

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"panelfit/domain/core"
)

// Pattern selects which observable signature a run compares panels on
type Pattern int

const (
	PatternContingency Pattern = iota + 1
	PatternSlopes
)

// ParsePattern parses "contingency" or "slopes" (case-insensitive)
func ParsePattern(s string) (Pattern, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "contingency":
		return PatternContingency, nil
	case "slopes":
		return PatternSlopes, nil
	}
	return 0, fmt.Errorf("%w: %q", core.ErrUnknownPattern, s)
}

func (p Pattern) String() string {
	switch p {
	case PatternContingency:
		return "contingency"
	case PatternSlopes:
		return "slopes"
	}
	return fmt.Sprintf("Pattern(%d)", int(p))
}

// Valid reports whether p is one of the two known modes
func (p Pattern) Valid() bool {
	return p == PatternContingency || p == PatternSlopes
}

// Signature is the observable summary of a panel. It is either a Contingency
// or a Slopes value.
type Signature interface {
	Pattern() Pattern
	isSignature()
}

// Contingency counts units per change pattern. A pattern has one '0'/'1'
// character per wave, in wave order.
type Contingency map[string]int

func (Contingency) Pattern() Pattern { return PatternContingency }
func (Contingency) isSignature()     {}

// Keys returns the patterns in lexical order
func (c Contingency) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Total returns the number of units counted
func (c Contingency) Total() int {
	total := 0
	for _, n := range c {
		total += n
	}
	return total
}

// Slopes is an ascending set of per-unit trend coefficients
type Slopes []float64

func (Slopes) Pattern() Pattern { return PatternSlopes }
func (Slopes) isSignature()     {}

// NewSlopes copies values, drops NaN/Inf entries and sorts the rest
func NewSlopes(values []float64) Slopes {
	out := make(Slopes, 0, len(values))
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		out = append(out, v)
	}
	sort.Float64s(out)
	return out
}

// PatternString renders one unit's outcomes as a change pattern
func PatternString(outcomes []int) string {
	var b strings.Builder
	b.Grow(len(outcomes))
	for _, y := range outcomes {
		if y == 1 {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	}
	return b.String()
}

// SlopeEstimator extracts one linear-trend coefficient per unit
type SlopeEstimator interface {
	Estimate(p *Panel) ([]float64, error)
}

// ContingencyOf pivots the panel to one row per unit and one column per wave
// and counts the resulting patterns. Units missing any wave are left out.
func ContingencyOf(p *Panel) Contingency {
	counts := make(Contingency)
	waves := p.NumWaves()
	row := make([]int, waves)
	seen := make([]bool, waves)

	for start := 0; start < len(p.Records); {
		unit := p.Records[start].UnitID
		for k := range seen {
			seen[k] = false
		}
		n := 0
		end := start
		for ; end < len(p.Records) && p.Records[end].UnitID == unit; end++ {
			r := p.Records[end]
			row[r.Wave] = r.Outcome
			seen[r.Wave] = true
			n++
		}
		if n == waves {
			counts[PatternString(row)]++
		}
		start = end
	}
	return counts
}

// BuildReference computes the observed signature for the chosen pattern
func BuildReference(p *Panel, pattern Pattern, estimator SlopeEstimator) (Signature, error) {
	switch pattern {
	case PatternContingency:
		counts := ContingencyOf(p)
		if len(counts) == 0 {
			return nil, fmt.Errorf("%w: no unit is observed at every wave", core.ErrInsufficientData)
		}
		return counts, nil
	case PatternSlopes:
		if estimator == nil {
			return nil, fmt.Errorf("slopes pattern requires a slope estimator")
		}
		values, err := estimator.Estimate(p)
		if err != nil {
			return nil, fmt.Errorf("estimating reference slopes: %w", err)
		}
		slopes := NewSlopes(values)
		if len(slopes) == 0 {
			return nil, fmt.Errorf("%w: no unit yields a slope", core.ErrInsufficientData)
		}
		return slopes, nil
	}
	return nil, fmt.Errorf("%w: %v", core.ErrUnknownPattern, pattern)
}
