package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGrid_CrossProduct(t *testing.T) {
	g := NewGrid(Constants{N: 250, T: 4, BaseRate: 0.37})

	require.Equal(t, 2100, g.Len())
	assert.Len(t, RateLevels, 21)
	assert.Len(t, StrengthLevels, 20)
	assert.Len(t, DirectionLevels, 5)

	first, last := g.Tuples[0], g.Tuples[g.Len()-1]
	assert.Equal(t, Tuple{ID: 0, N: 250, T: 4, Rate: 0, Strength: 0.1, Direction: 0, BaseRate: 0.37}, first)
	assert.Equal(t, Tuple{ID: 2099, N: 250, T: 4, Rate: 1, Strength: 2, Direction: 1, BaseRate: 0.37}, last)

	// direction is the innermost axis, then strength, then rate
	assert.Equal(t, 0.25, g.Tuples[1].Direction)
	assert.Equal(t, 0.2, g.Tuples[5].Strength)
	assert.Equal(t, 0.05, g.Tuples[100].Rate)

	for i, tuple := range g.Tuples {
		assert.Equal(t, i, tuple.ID)
	}
}

func TestNewGrid_RoundedKeysAreStable(t *testing.T) {
	g := NewGrid(Constants{N: 10, T: 3, BaseRate: 0.5})

	assert.Equal(t, 0.15, RateLevels[3])
	assert.Equal(t, 0.35, RateLevels[7])
	assert.Equal(t, 0.3, StrengthLevels[2])
	assert.Equal(t, 1.7, StrengthLevels[16])

	tuple, ok := g.Lookup(Key{Rate: 0.35, Strength: 1.7, Direction: 0.75})
	require.True(t, ok)
	assert.Equal(t, 0.35, tuple.Rate)
	assert.Equal(t, 1.7, tuple.Strength)
	assert.Equal(t, tuple, g.Tuples[tuple.ID])

	_, ok = g.Lookup(Key{Rate: 0.33, Strength: 1.7, Direction: 0.75})
	assert.False(t, ok)
}

func TestDirectionLabel(t *testing.T) {
	tests := map[float64]string{
		0:    "100% Down",
		0.25: "75% Down-25% Up",
		0.5:  "50% Down-50% Up",
		0.75: "25% Down-75% Up",
		1:    "100% Up",
		0.1:  "90% Down-10% Up",
	}
	for direction, want := range tests {
		assert.Equal(t, want, DirectionLabel(direction))
	}
}
