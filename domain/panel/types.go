// Package panel holds the observed longitudinal data, its cleaning rules and
// the observable signatures (change-pattern counts or per-unit slopes) that
// real and simulated panels are compared on.
package panel

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"panelfit/domain/core"

	"github.com/montanaflynn/stats"
)

// Observation is one raw input row. Missing values are NaN (time, outcome)
// or the empty string (unit).
type Observation struct {
	UnitID  string
	Time    float64
	Outcome float64
}

// Complete reports whether no field is missing
func (o Observation) Complete() bool {
	return o.UnitID != "" && !math.IsNaN(o.Time) && !math.IsNaN(o.Outcome)
}

// Record is one cleaned observation. Time is rescaled to [0,1]; Wave indexes
// Panel.Times.
type Record struct {
	UnitID  string
	Time    float64
	Wave    int
	Outcome int
}

// Panel is a cleaned, read-only binary panel. Records are ordered by unit,
// then wave.
type Panel struct {
	Records []Record
	Units   []string
	Times   []float64

	// TimeMin and TimeMax are the original-scale bounds used for rescaling
	TimeMin float64
	TimeMax float64
}

// NumUnits returns the number of distinct units
func (p *Panel) NumUnits() int { return len(p.Units) }

// NumWaves returns the number of distinct time points
func (p *Panel) NumWaves() int { return len(p.Times) }

// BaseRate returns the mean outcome over all cleaned records
func (p *Panel) BaseRate() float64 {
	outcomes := make([]float64, len(p.Records))
	for i, r := range p.Records {
		outcomes[i] = float64(r.Outcome)
	}
	mean, err := stats.Mean(outcomes)
	if err != nil {
		return math.NaN()
	}
	return mean
}

// EachUnit calls fn once per unit, in unit order, with that unit's times and
// outcomes in wave order. The slices are reused between calls.
func (p *Panel) EachUnit(fn func(unit string, times, outcomes []float64)) {
	var times, outcomes []float64
	for start := 0; start < len(p.Records); {
		unit := p.Records[start].UnitID
		times, outcomes = times[:0], outcomes[:0]
		end := start
		for ; end < len(p.Records) && p.Records[end].UnitID == unit; end++ {
			times = append(times, p.Records[end].Time)
			outcomes = append(outcomes, float64(p.Records[end].Outcome))
		}
		fn(unit, times, outcomes)
		start = end
	}
}

// FromSeries builds a complete panel from wide data: series[i][k] is the
// outcome of unit i at times[k]. times must already be on the [0,1] scale.
// Unit IDs are zero-padded indices so that their sort order matches i.
func FromSeries(times []float64, series [][]int) *Panel {
	p := &Panel{
		Records: make([]Record, 0, len(series)*len(times)),
		Units:   make([]string, len(series)),
		Times:   append([]float64(nil), times...),
		TimeMin: 0,
		TimeMax: 1,
	}
	width := len(strconv.Itoa(len(series)))
	for i, row := range series {
		id := fmt.Sprintf("%0*d", width, i)
		p.Units[i] = id
		for k, y := range row {
			p.Records = append(p.Records, Record{UnitID: id, Time: times[k], Wave: k, Outcome: y})
		}
	}
	return p
}

// Hash identifies the cleaned panel content in record order. Two identical
// inputs hash the same.
func (p *Panel) Hash() core.Hash {
	lines := make([]string, len(p.Records))
	for i, r := range p.Records {
		lines[i] = r.UnitID + "\t" + strconv.FormatFloat(r.Time, 'g', -1, 64) + "\t" + strconv.Itoa(r.Outcome)
	}
	return core.HashLines(lines)
}

func sortRecords(records []Record) {
	sort.Slice(records, func(i, j int) bool {
		if records[i].UnitID != records[j].UnitID {
			return records[i].UnitID < records[j].UnitID
		}
		return records[i].Time < records[j].Time
	})
}
