package search

import "sort"

// Quantile returns the p-quantile of the valid scores using linear
// interpolation between order statistics (h = (n-1)p, the default sample
// quantile in most statistics packages). Missing scores are ignored; if all
// are missing the result is Missing.
func Quantile(scores []Score, p float64) Score {
	values := make([]float64, 0, len(scores))
	for _, s := range scores {
		if s.Valid {
			values = append(values, s.Value)
		}
	}
	if len(values) == 0 || p < 0 || p > 1 {
		return Missing
	}
	sort.Float64s(values)

	h := float64(len(values)-1) * p
	lo := int(h)
	if lo >= len(values)-1 {
		return Known(values[len(values)-1])
	}
	frac := h - float64(lo)
	if frac == 0 || values[lo] == values[lo+1] {
		return Known(values[lo])
	}
	return Known((1-frac)*values[lo] + frac*values[lo+1])
}
