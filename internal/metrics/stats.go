package metrics

import (
	"cmp"
	"math"
	"slices"
)

// calculateAverage returns the mean of values, or nil when there are none.
func calculateAverage(values []float64) *float64 {
	if len(values) == 0 {
		return nil
	}

	sum := 0.0
	for _, v := range values {
		sum += v
	}

	avg := sum / float64(len(values))
	return &avg
}

// calculateMedian returns the median of values, or nil when there are none.
func calculateMedian(values []float64) *float64 {
	return calculateQuantile(values, 0.5)
}

// calculateQuantile uses linear interpolation between the closest ranks.
func calculateQuantile(values []float64, q float64) *float64 {
	if len(values) == 0 {
		return nil
	}
	sorted := slices.Clone(values)
	slices.Sort(sorted)

	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	result := sorted[lo] + (sorted[hi]-sorted[lo])*(pos-float64(lo))
	return &result
}

// calculateZScores standardizes values with the population standard deviation.
// A zero deviation is replaced by 1 so constant inputs score 0.
func calculateZScores(values []float64) []float64 {
	if len(values) == 0 {
		return nil
	}
	mean := *calculateAverage(values)

	variance := 0.0
	for _, v := range values {
		variance += (v - mean) * (v - mean)
	}
	std := math.Sqrt(variance / float64(len(values)))
	if std == 0 {
		std = 1
	}

	scores := make([]float64, len(values))
	for i, v := range values {
		scores[i] = (v - mean) / std
	}
	return scores
}

// rollingMean averages the non-missing values in a trailing window. A window
// with fewer than minPeriods values is missing.
func rollingMean(values []*float64, window, minPeriods int) []*float64 {
	out := make([]*float64, len(values))
	for i := range values {
		var present []float64
		for j := max(0, i-window+1); j <= i; j++ {
			if values[j] != nil {
				present = append(present, *values[j])
			}
		}
		if len(present) >= minPeriods {
			out[i] = calculateAverage(present)
		}
	}
	return out
}

func floats(values []*int64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if v != nil {
			out = append(out, float64(*v))
		}
	}
	return out
}

func presentFloats(values []*float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if v != nil {
			out = append(out, *v)
		}
	}
	return out
}

func maxOf(values ...*int64) *int64 {
	var best *int64
	for _, v := range values {
		if v != nil && (best == nil || *v > *best) {
			c := *v
			best = &c
		}
	}
	return best
}

// compareDesc orders pointers descending with missing values last.
func compareDesc[T cmp.Ordered](a, b *T) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}
	return cmp.Compare(*b, *a)
}

// compareAsc orders pointers ascending with missing values last.
func compareAsc[T cmp.Ordered](a, b *T) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}
	return cmp.Compare(*a, *b)
}

func ptr[T any](v T) *T { return &v }
