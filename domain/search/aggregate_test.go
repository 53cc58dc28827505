package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAggregate_WeightsByDrawCount(t *testing.T) {
	got := Aggregate(Known(2.0), 30, Known(3.0), 90)
	assert.True(t, got.Valid)
	assert.Equal(t, 2.75, got.Value)
}

func TestAggregate_FirstStagePassesMeanThrough(t *testing.T) {
	assert.Equal(t, Known(4.5), Aggregate(Missing, 0, Known(4.5), 30))
	assert.Equal(t, Missing, Aggregate(Missing, 0, Missing, 30))
}

func TestAggregate_MissingPropagates(t *testing.T) {
	assert.Equal(t, Missing, Aggregate(Missing, 30, Known(1), 90))
	assert.Equal(t, Missing, Aggregate(Known(1), 30, Missing, 90))
}

func TestAggregateColumn_OnlyTouchesSurvivors(t *testing.T) {
	prev := Column{Known(1), Known(2), Known(3)}
	means := Column{Known(3), Known(4), Known(5)}

	got := AggregateColumn([]int{0, 2}, prev, 10, means, 10)

	assert.Equal(t, Known(2), got[0])
	assert.Equal(t, Missing, got[1])
	assert.Equal(t, Known(4), got[2])
}
