package search

// Aggregate folds a stage mean into the running cumulative error using draw
// counts as weights:
//
//	cum = prevDraws/(prevDraws+draws)*prev + draws/(prevDraws+draws)*mean
//
// With prevDraws == 0 the result is mean itself. Once prev is missing the
// result stays missing, whatever mean is.
func Aggregate(prev Score, prevDraws int, mean Score, draws int) Score {
	if prevDraws == 0 {
		return mean
	}
	if !prev.Valid || !mean.Valid || draws <= 0 {
		return Missing
	}
	total := float64(prevDraws + draws)
	wPrev := float64(prevDraws) / total
	wNew := float64(draws) / total
	return Known(wPrev*prev.Value + wNew*mean.Value)
}

// AggregateColumn applies Aggregate to every tuple in ids. Entries not in ids
// are left missing in the returned column.
func AggregateColumn(ids []int, prev Column, prevDraws int, means Column, draws int) Column {
	out := NewColumn(len(means))
	for _, id := range ids {
		var p Score
		if prev != nil {
			p = prev[id]
		}
		out[id] = Aggregate(p, prevDraws, means[id], draws)
	}
	return out
}
