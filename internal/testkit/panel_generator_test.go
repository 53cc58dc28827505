package testkit

import (
	"testing"

	"panelfit/domain/panel"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPanelGenerator_Deterministic(t *testing.T) {
	a := NewPanelGenerator(DefaultPanelConfig()).Generate()
	b := NewPanelGenerator(DefaultPanelConfig()).Generate()
	assert.Equal(t, a, b)
	assert.Len(t, a, 120*4)
}

func TestPanelGenerator_CleansIntoValidPanel(t *testing.T) {
	cfg := DefaultPanelConfig()
	cfg.MissingRow = 0.05

	p, report, err := panel.Clean(NewPanelGenerator(cfg).Generate())
	require.NoError(t, err)

	assert.Greater(t, report.Dropped, 0)
	assert.Equal(t, report.Observations, report.Kept+report.Dropped)
	assert.Equal(t, 4, p.NumWaves())
	assert.Equal(t, []float64{0, 1.0 / 3, 2.0 / 3, 1}, p.Times)
}

func TestPanelGenerator_SwitchersChangeOnce(t *testing.T) {
	cfg := DefaultPanelConfig()
	cfg.ChangeRate = 1
	cfg.UpShare = 1

	p, _, err := panel.Clean(NewPanelGenerator(cfg).Generate())
	require.NoError(t, err)

	for pattern := range panel.ContingencyOf(p) {
		assert.Contains(t, []string{"0001", "0011", "0111"}, pattern)
	}
}
