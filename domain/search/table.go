package search

import (
	"sort"
	"strconv"

	"panelfit/domain/core"
	"panelfit/domain/panel"

	"github.com/montanaflynn/stats"
)

// Row is one line of the result table
type Row struct {
	Rate      float64
	Strength  float64
	Direction float64
	Label     string
	Error     Score
	// Stage is the last stage (1-3) the error comes from, 0 if missing
	Stage   int
	Pattern panel.Pattern
}

// Key returns the row's join key
func (r Row) Key() Key {
	return Key{Rate: r.Rate, Strength: r.Strength, Direction: r.Direction}
}

// Table is the labeled error surface, in grid order
type Table struct {
	Pattern panel.Pattern
	Rows    []Row
}

// BuildTable reports, for every grid tuple, the most refined cumulative error
// available: the latest stage column with a value wins.
func BuildTable(grid *Grid, pattern panel.Pattern, stages []Column) *Table {
	table := &Table{Pattern: pattern, Rows: make([]Row, len(grid.Tuples))}
	for i, t := range grid.Tuples {
		row := Row{
			Rate:      t.Rate,
			Strength:  t.Strength,
			Direction: t.Direction,
			Label:     DirectionLabel(t.Direction),
			Pattern:   pattern,
		}
		for s := len(stages) - 1; s >= 0; s-- {
			if stages[s] != nil && stages[s][t.ID].Valid {
				row.Error = stages[s][t.ID]
				row.Stage = s + 1
				break
			}
		}
		table.Rows[i] = row
	}
	return table
}

// Len returns the number of rows
func (t *Table) Len() int { return len(t.Rows) }

// Best returns the row with the lowest error. Ties go to the earlier row, so
// the answer follows grid order. ok is false when every error is missing.
func (t *Table) Best() (best Row, ok bool) {
	for _, r := range t.Rows {
		if !r.Error.Valid {
			continue
		}
		if !ok || r.Error.Value < best.Error.Value {
			best, ok = r, true
		}
	}
	return best, ok
}

// Ranked returns the rows with a valid error, lowest first, ties in grid
// order. n > 0 limits the result to the first n rows.
func (t *Table) Ranked(n int) []Row {
	rows := make([]Row, 0, len(t.Rows))
	for _, r := range t.Rows {
		if r.Error.Valid {
			rows = append(rows, r)
		}
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Error.Value < rows[j].Error.Value })
	if n > 0 && n < len(rows) {
		rows = rows[:n]
	}
	return rows
}

// Fingerprint hashes the rows with full float precision. Two runs with the
// same seed, input and configuration must produce the same fingerprint.
func (t *Table) Fingerprint() core.Hash {
	lines := make([]string, len(t.Rows))
	for i, r := range t.Rows {
		lines[i] = strconv.FormatFloat(r.Rate, 'g', -1, 64) + "," +
			strconv.FormatFloat(r.Strength, 'g', -1, 64) + "," +
			strconv.FormatFloat(r.Direction, 'g', -1, 64) + "," +
			r.Error.String() + "," + strconv.Itoa(r.Stage) + "," + r.Pattern.String()
	}
	return core.HashLines(lines)
}

// Summary describes the distribution of the valid errors
type Summary struct {
	Rows    int
	Valid   int
	Min     float64
	Median  float64
	Max     float64
	ByStage [4]int
}

// Summarize computes min/median/max of the valid errors and how many rows
// were last refined in each stage
func (t *Table) Summarize() Summary {
	s := Summary{Rows: len(t.Rows)}
	values := make([]float64, 0, len(t.Rows))
	for _, r := range t.Rows {
		s.ByStage[r.Stage]++
		if r.Error.Valid {
			values = append(values, r.Error.Value)
		}
	}
	s.Valid = len(values)
	if len(values) == 0 {
		return s
	}
	s.Min, _ = stats.Min(values)
	s.Median, _ = stats.Median(values)
	s.Max, _ = stats.Max(values)
	return s
}
