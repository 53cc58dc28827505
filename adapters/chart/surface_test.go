package chart

import (
	"os"
	"path/filepath"
	"testing"

	"panelfit/domain/panel"
	"panelfit/domain/search"
	"panelfit/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func surfaceTable() *search.Table {
	g := search.NewGrid(search.Constants{N: 10, T: 3, BaseRate: 0.5})
	stage := search.NewColumn(g.Len())
	for _, t := range g.Tuples {
		if t.Direction == 1 {
			continue
		}
		stage[t.ID] = search.Known(t.Rate + t.Strength)
	}
	return search.BuildTable(g, panel.PatternContingency, []search.Column{stage})
}

func TestMinErrorByRate(t *testing.T) {
	series := MinErrorByRate(surfaceTable())

	// direction 1 has no valid error at all
	require.Len(t, series, 4)
	assert.Equal(t, "100% Down", series[0].Label)
	require.Len(t, series[0].Points, 21)
	assert.InDelta(t, 0.1, series[0].Points[0].Y, 1e-12)
	assert.InDelta(t, 1.0, series[0].Points[20].X, 1e-12)
	assert.InDelta(t, 1.1, series[0].Points[20].Y, 1e-12)
}

func TestSaveSurface(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "surface.png")
	require.NoError(t, SaveSurface(path, surfaceTable()))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))

	empty := &search.Table{Rows: []search.Row{{Error: search.Missing}}}
	err = SaveSurface(filepath.Join(dir, "empty.png"), empty)
	assert.Equal(t, errors.CodeExportFailed, errors.GetCode(err))
}
