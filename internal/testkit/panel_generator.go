package testkit

import (
	"math"
	"math/rand/v2"
	"strconv"

	"panelfit/domain/panel"
)

// PanelGeneratorConfig configures the synthetic panel generator
type PanelGeneratorConfig struct {
	Units      int       `json:"units"`
	Times      []float64 `json:"times"`
	BaseRate   float64   `json:"base_rate"`
	ChangeRate float64   `json:"change_rate"` // share of units that switch once
	UpShare    float64   `json:"up_share"`    // share of switchers going 0 -> 1
	MissingRow float64   `json:"missing_row"` // probability a record has a missing outcome
	Seed       uint64    `json:"seed"`
}

// DefaultPanelConfig returns a small four-wave panel
func DefaultPanelConfig() PanelGeneratorConfig {
	return PanelGeneratorConfig{
		Units:      120,
		Times:      []float64{2015, 2017, 2019, 2021},
		BaseRate:   0.4,
		ChangeRate: 0.3,
		UpShare:    0.7,
		Seed:       42,
	}
}

// PanelGenerator generates raw observations in long format
type PanelGenerator struct {
	config PanelGeneratorConfig
	rng    *rand.Rand
}

// NewPanelGenerator creates a new panel generator
func NewPanelGenerator(config PanelGeneratorConfig) *PanelGenerator {
	return &PanelGenerator{
		config: config,
		rng:    rand.New(rand.NewPCG(config.Seed, 0x70616e656c)),
	}
}

// Generate returns one observation per unit and time. A switching unit
// holds its start value up to a random wave and the other value after it.
func (g *PanelGenerator) Generate() []panel.Observation {
	c := g.config
	out := make([]panel.Observation, 0, c.Units*len(c.Times))
	for i := 0; i < c.Units; i++ {
		unit := "u" + strconv.Itoa(i)
		start := 0
		if g.rng.Float64() < c.BaseRate {
			start = 1
		}
		switchAt := len(c.Times)
		if g.rng.Float64() < c.ChangeRate {
			switchAt = 1 + g.rng.IntN(len(c.Times)-1)
			if g.rng.Float64() < c.UpShare {
				start = 0
			} else {
				start = 1
			}
		}
		for k, t := range c.Times {
			y := start
			if k >= switchAt {
				y = 1 - start
			}
			outcome := float64(y)
			if g.rng.Float64() < c.MissingRow {
				outcome = math.NaN()
			}
			out = append(out, panel.Observation{UnitID: unit, Time: t, Outcome: outcome})
		}
	}
	return out
}
