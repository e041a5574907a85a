package recommend

// quantile is a linear-interpolation percentile estimator, applied to
// price samples instead of latency samples. sorted must already be
// ascending.
func quantile(sorted []int64, q float64) int64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := q * float64(len(sorted)-1)
	i := int(idx)
	if i >= len(sorted)-1 {
		return sorted[len(sorted)-1]
	}
	frac := idx - float64(i)
	return int64(float64(sorted[i])*(1-frac) + float64(sorted[i+1])*frac)
}
