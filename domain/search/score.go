package search

import (
	"math"
	"strconv"
)

// Score is a distance that may be missing. A missing score is never treated
// as zero.
type Score struct {
	Value float64
	Valid bool
}

// Missing is the zero Score
var Missing = Score{}

// Known wraps v; NaN and infinities become Missing
func Known(v float64) Score {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Missing
	}
	return Score{Value: v, Valid: true}
}

// Or returns s if it is valid, otherwise fallback
func (s Score) Or(fallback Score) Score {
	if s.Valid {
		return s
	}
	return fallback
}

func (s Score) String() string {
	if !s.Valid {
		return "NA"
	}
	return strconv.FormatFloat(s.Value, 'g', -1, 64)
}

// Column holds one Score per grid tuple, indexed by Tuple.ID
type Column []Score

// NewColumn returns an all-missing column for a grid of size n
func NewColumn(n int) Column {
	return make(Column, n)
}

// Valid counts the non-missing entries
func (c Column) Valid() int {
	n := 0
	for _, s := range c {
		if s.Valid {
			n++
		}
	}
	return n
}
