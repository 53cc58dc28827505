// Package search holds the pure parts of the staged DGP search: the parameter
// grid, distances between signatures, the weighted running aggregation, the
// quantile pruning rule and the final result table.
package search

import (
	"fmt"
	"math"
)

// Axis levels. Rates are kept to 2 decimals and strengths to 1 decimal so the
// (rate, strength, direction) key is stable across stages.
var (
	RateLevels      = levels(0, 0.05, 21, 2)
	StrengthLevels  = levels(0.1, 0.1, 20, 1)
	DirectionLevels = []float64{0, 0.25, 0.5, 0.75, 1}
)

func levels(start, step float64, n, digits int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = Round(start+float64(i)*step, digits)
	}
	return out
}

// Round rounds x half away from zero to the given number of decimals
func Round(x float64, digits int) float64 {
	scale := math.Pow(10, float64(digits))
	return math.Round(x*scale) / scale
}

// Constants are the structural values every tuple shares. They come from the
// cleaned observed panel.
type Constants struct {
	N        int
	T        int
	BaseRate float64
}

// Key is the join key between stages
type Key struct {
	Rate      float64
	Strength  float64
	Direction float64
}

func (k Key) String() string {
	return fmt.Sprintf("rate=%.2f strength=%.1f direction=%.2f", k.Rate, k.Strength, k.Direction)
}

// Tuple is one candidate DGP parameterization. ID is its position in the
// grid and doubles as the index into every error Column.
type Tuple struct {
	ID        int
	N         int
	T         int
	Rate      float64
	Strength  float64
	Direction float64
	BaseRate  float64
}

// Key returns the tuple's join key
func (t Tuple) Key() Key {
	return Key{Rate: t.Rate, Strength: t.Strength, Direction: t.Direction}
}

// Grid is the full cross product of the varying axes with the constants
type Grid struct {
	Constants Constants
	Tuples    []Tuple
	index     map[Key]int
}

// NewGrid enumerates rate (outer), strength (middle), direction (inner)
func NewGrid(c Constants) *Grid {
	g := &Grid{
		Constants: c,
		Tuples:    make([]Tuple, 0, len(RateLevels)*len(StrengthLevels)*len(DirectionLevels)),
		index:     make(map[Key]int),
	}
	for _, rate := range RateLevels {
		for _, strength := range StrengthLevels {
			for _, direction := range DirectionLevels {
				t := Tuple{
					ID:        len(g.Tuples),
					N:         c.N,
					T:         c.T,
					Rate:      rate,
					Strength:  strength,
					Direction: direction,
					BaseRate:  c.BaseRate,
				}
				g.index[t.Key()] = t.ID
				g.Tuples = append(g.Tuples, t)
			}
		}
	}
	return g
}

// Len returns the number of tuples
func (g *Grid) Len() int { return len(g.Tuples) }

// Lookup finds a tuple by key
func (g *Grid) Lookup(k Key) (Tuple, bool) {
	id, ok := g.index[k]
	if !ok {
		return Tuple{}, false
	}
	return g.Tuples[id], true
}

// DirectionLabel names the share of changing units that move up vs down
func DirectionLabel(direction float64) string {
	switch direction {
	case 0:
		return "100% Down"
	case 0.25:
		return "75% Down-25% Up"
	case 0.5:
		return "50% Down-50% Up"
	case 0.75:
		return "25% Down-75% Up"
	case 1:
		return "100% Up"
	}
	up := math.Round(direction * 100)
	return fmt.Sprintf("%.0f%% Down-%.0f%% Up", 100-up, up)
}
