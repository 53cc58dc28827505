package search

import (
	"testing"

	"panelfit/domain/panel"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildTable_UsesMostRefinedStage(t *testing.T) {
	g := NewGrid(Constants{N: 5, T: 2, BaseRate: 0.5})
	n := g.Len()

	stage1, stage2, stage3 := NewColumn(n), NewColumn(n), NewColumn(n)
	for i := range stage1 {
		stage1[i] = Known(10)
	}
	stage2[1], stage2[2] = Known(8), Missing
	stage3[1] = Known(7)
	stage2[3] = Known(6)

	table := BuildTable(g, panel.PatternSlopes, []Column{stage1, stage2, stage3})

	require.Equal(t, n, table.Len())
	assert.Equal(t, Known(10), table.Rows[0].Error)
	assert.Equal(t, 1, table.Rows[0].Stage)
	assert.Equal(t, Known(7), table.Rows[1].Error)
	assert.Equal(t, 3, table.Rows[1].Stage)
	assert.Equal(t, Known(10), table.Rows[2].Error, "missing stage 2 falls back to stage 1")
	assert.Equal(t, Known(6), table.Rows[3].Error)
	assert.Equal(t, 2, table.Rows[3].Stage)

	assert.Equal(t, "25% Down-75% Up", table.Rows[3].Label)
	assert.Equal(t, panel.PatternSlopes, table.Rows[3].Pattern)
	assert.Equal(t, g.Tuples[3].Key(), table.Rows[3].Key())

	summary := table.Summarize()
	assert.Equal(t, n, summary.Valid)
	assert.Equal(t, 6.0, summary.Min)
	assert.Equal(t, 10.0, summary.Max)
	assert.Equal(t, 1, summary.ByStage[3])
	assert.Equal(t, 1, summary.ByStage[2])
}

func TestTable_Best(t *testing.T) {
	table := &Table{Rows: []Row{
		{Rate: 0.1, Error: Missing},
		{Rate: 0.2, Error: Known(3)},
		{Rate: 0.3, Error: Known(1)},
		{Rate: 0.4, Error: Known(1)},
	}}

	best, ok := table.Best()
	require.True(t, ok)
	assert.Equal(t, 0.3, best.Rate)

	_, ok = (&Table{Rows: []Row{{Error: Missing}}}).Best()
	assert.False(t, ok)
}

func TestTable_Ranked(t *testing.T) {
	table := &Table{Rows: []Row{
		{Rate: 0.1, Error: Known(2)},
		{Rate: 0.2, Error: Missing},
		{Rate: 0.3, Error: Known(1)},
		{Rate: 0.4, Error: Known(2)},
	}}

	ranked := table.Ranked(0)
	require.Len(t, ranked, 3)
	assert.Equal(t, []float64{0.3, 0.1, 0.4}, []float64{ranked[0].Rate, ranked[1].Rate, ranked[2].Rate})

	assert.Len(t, table.Ranked(2), 2)
	assert.Len(t, table.Ranked(10), 3)
}

func TestTable_Fingerprint(t *testing.T) {
	a := &Table{Rows: []Row{{Rate: 0.1, Strength: 0.2, Error: Known(1.0000000001), Stage: 1, Pattern: panel.PatternContingency}}}
	b := &Table{Rows: []Row{{Rate: 0.1, Strength: 0.2, Error: Known(1.0000000001), Stage: 1, Pattern: panel.PatternContingency}}}
	c := &Table{Rows: []Row{{Rate: 0.1, Strength: 0.2, Error: Known(1.0000000002), Stage: 1, Pattern: panel.PatternContingency}}}

	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
	assert.NotEqual(t, a.Fingerprint(), c.Fingerprint())
}
