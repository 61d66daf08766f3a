package temporal

import (
	"math"
	"sort"
)

// percentile returns the p-th percentile (0-100) of sorted values using
// linear interpolation between closest ranks, the same convention as
// numpy's percentile default. The input must be sorted ascending and
// non-empty.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}

// PercentOutliers returns the fraction of values that are statistical
// outliers under the 1.5*IQR rule, along with the inter-quartile range
// itself. A value is an outlier if it lies below Q1 - 1.5*IQR or above
// Q3 + 1.5*IQR, with quartiles computed by linear interpolation. An empty
// input yields a NumericError.
func PercentOutliers(values []float64) (fraction, iqr float64, err error) {
	if len(values) == 0 {
		return 0, 0, &NumericError{
			Op:     "percent outliers",
			Reason: "empty value vector",
		}
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	q1 := percentile(sorted, 25)
	q3 := percentile(sorted, 75)
	iqr = q3 - q1

	low := q1 - 1.5*iqr
	high := q3 + 1.5*iqr

	outliers := 0
	for _, v := range sorted {
		if v < low || v > high {
			outliers++
		}
	}

	return float64(outliers) / float64(len(sorted)), iqr, nil
}
