package search

// PruneResult describes one pruning step
type PruneResult struct {
	Quantile  float64
	Threshold Score
	Kept      []Tuple
	// RetainedAll is set when every cumulative error was missing, so the
	// threshold itself is missing and all remaining tuples move on
	RetainedAll bool
}

// Prune keeps the tuples whose cumulative error is at or below the
// q-quantile of the cumulative errors of tuples. Ties at the threshold are
// kept. Tuples with a missing error are dropped, except when the threshold
// itself is missing, in which case everything is retained.
func Prune(tuples []Tuple, cumulative Column, q float64) PruneResult {
	scores := make([]Score, len(tuples))
	for i, t := range tuples {
		scores[i] = cumulative[t.ID]
	}

	result := PruneResult{Quantile: q, Threshold: Quantile(scores, q)}
	if !result.Threshold.Valid {
		result.RetainedAll = true
		result.Kept = append([]Tuple(nil), tuples...)
		return result
	}

	result.Kept = make([]Tuple, 0, len(tuples))
	for i, t := range tuples {
		if scores[i].Valid && scores[i].Value <= result.Threshold.Value {
			result.Kept = append(result.Kept, t)
		}
	}
	return result
}
