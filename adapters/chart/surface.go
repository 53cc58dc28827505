// Package chart renders the error surface of a finished search
package chart

import (
	"fmt"
	"image/color"
	"sort"

	"panelfit/domain/search"
	"panelfit/internal/errors"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

var palette = []color.RGBA{
	{R: 200, G: 30, B: 30, A: 255},
	{R: 230, G: 120, B: 20, A: 255},
	{R: 120, G: 120, B: 120, A: 255},
	{R: 40, G: 150, B: 60, A: 255},
	{R: 20, G: 80, B: 200, A: 255},
}

// Series is one line of the surface plot: the lowest error at each rate for
// a single direction
type Series struct {
	Direction float64
	Label     string
	Points    plotter.XYs
}

// MinErrorByRate reduces the table to one series per direction. Each point
// is (rate, min error over strengths); rates with no valid error are skipped.
func MinErrorByRate(table *search.Table) []Series {
	type cell struct {
		direction, rate float64
	}
	best := make(map[cell]float64)
	for _, r := range table.Rows {
		if !r.Error.Valid {
			continue
		}
		c := cell{r.Direction, r.Rate}
		if v, ok := best[c]; !ok || r.Error.Value < v {
			best[c] = r.Error.Value
		}
	}

	series := make([]Series, 0, len(search.DirectionLevels))
	for _, d := range search.DirectionLevels {
		s := Series{Direction: d, Label: search.DirectionLabel(d)}
		for _, rate := range search.RateLevels {
			if v, ok := best[cell{d, rate}]; ok {
				s.Points = append(s.Points, plotter.XY{X: rate, Y: v})
			}
		}
		if len(s.Points) > 0 {
			sort.Slice(s.Points, func(i, j int) bool { return s.Points[i].X < s.Points[j].X })
			series = append(series, s)
		}
	}
	return series
}

// SaveSurface writes the plot to path. The format follows the extension
// (.png, .svg, .pdf, ...).
func SaveSurface(path string, table *search.Table) error {
	series := MinErrorByRate(table)
	if len(series) == 0 {
		return errors.ExportFailed(path, fmt.Errorf("no valid errors to plot"))
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Error surface (%s)", table.Pattern)
	p.X.Label.Text = "rate of change"
	p.Y.Label.Text = "lowest error over strengths"
	p.Add(plotter.NewGrid())

	for i, s := range series {
		line, points, err := plotter.NewLinePoints(s.Points)
		if err != nil {
			return errors.ExportFailed(path, err)
		}
		line.Color = palette[i%len(palette)]
		line.Width = vg.Points(1.2)
		points.Color = palette[i%len(palette)]
		points.Radius = vg.Points(1.5)
		p.Add(line, points)
		p.Legend.Add(s.Label, line, points)
	}
	p.Legend.Top = true

	if best, ok := table.Best(); ok {
		marker, err := plotter.NewScatter(plotter.XYs{{X: best.Rate, Y: best.Error.Value}})
		if err != nil {
			return errors.ExportFailed(path, err)
		}
		marker.Radius = vg.Points(4)
		p.Add(marker)
		p.Legend.Add(fmt.Sprintf("best (strength %.1f)", best.Strength), marker)
	}

	if err := p.Save(8*vg.Inch, 5*vg.Inch, path); err != nil {
		return errors.ExportFailed(path, err)
	}
	return nil
}
