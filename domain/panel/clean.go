package panel

import (
	"sort"

	"panelfit/domain/core"
	"panelfit/internal/errors"

	"gonum.org/v1/gonum/floats"
)

// CleanReport summarises what Clean kept and dropped
type CleanReport struct {
	Observations int
	Kept         int
	Dropped      int
}

// Clean drops incomplete observations, validates what remains and rescales
// time to [0,1]. Validation failures are fatal and returned as
// VALIDATION_ERROR app errors wrapping a core sentinel.
func Clean(observations []Observation) (*Panel, CleanReport, error) {
	report := CleanReport{Observations: len(observations)}

	records := make([]Record, 0, len(observations))
	rawTimes := make([]float64, 0, len(observations))
	invalid := map[float64]bool{}
	levels := map[int]bool{}

	for _, obs := range observations {
		if !obs.Complete() {
			report.Dropped++
			continue
		}
		if obs.Outcome != 0 && obs.Outcome != 1 {
			invalid[obs.Outcome] = true
			continue
		}
		y := int(obs.Outcome)
		levels[y] = true
		records = append(records, Record{UnitID: obs.UnitID, Time: obs.Time, Outcome: y})
		rawTimes = append(rawTimes, obs.Time)
	}
	report.Kept = len(records)

	if len(invalid) > 0 {
		return nil, report, errors.Validation(core.ErrNotBinary,
			"outcome needs to be binary (0/1), found %v", sortedKeys(invalid))
	}
	if len(records) == 0 {
		return nil, report, errors.Validation(core.ErrEmptyPanel, "panel has no complete records after dropping missing values")
	}
	if len(levels) < 2 {
		return nil, report, errors.Validation(core.ErrSingleLevel,
			"outcome needs to be binary (0/1) with both levels present")
	}

	distinct := distinctSorted(rawTimes)
	if len(distinct) < 2 {
		return nil, report, errors.Validation(core.ErrTooFewWaves,
			"panel needs at least two distinct time points, found %d", len(distinct))
	}

	sortRecords(records)
	for i := 1; i < len(records); i++ {
		if records[i].UnitID == records[i-1].UnitID && records[i].Time == records[i-1].Time {
			return nil, report, errors.Validation(core.ErrDuplicateRecord,
				"unit %q has more than one record at time %v", records[i].UnitID, records[i].Time)
		}
	}

	lo, hi := floats.Min(distinct), floats.Max(distinct)
	span := hi - lo
	waveOf := make(map[float64]int, len(distinct))
	times := make([]float64, len(distinct))
	for k, t := range distinct {
		waveOf[t] = k
		times[k] = (t - lo) / span
	}

	units := make([]string, 0)
	for i := range records {
		k := waveOf[records[i].Time]
		records[i].Wave = k
		records[i].Time = times[k]
		if i == 0 || records[i].UnitID != records[i-1].UnitID {
			units = append(units, records[i].UnitID)
		}
	}

	return &Panel{
		Records: records,
		Units:   units,
		Times:   times,
		TimeMin: lo,
		TimeMax: hi,
	}, report, nil
}

func distinctSorted(values []float64) []float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	out := sorted[:0]
	for i, v := range sorted {
		if i == 0 || v != sorted[i-1] {
			out = append(out, v)
		}
	}
	return out
}

func sortedKeys(m map[float64]bool) []float64 {
	keys := make([]float64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Float64s(keys)
	return keys
}
