package temporal

import (
	"github.com/montanaflynn/stats"
)

// SeriesSummary condenses one per-timepoint metric vector (displacement,
// outlier fraction, quality index) into the scalar statistics reported for
// a scan.
type SeriesSummary struct {
	// Mean is the arithmetic mean of the series
	Mean float64

	// Median is the middle value of the series
	Median float64

	// PercentOutliers is the fraction of timepoints flagged by the 1.5*IQR rule
	PercentOutliers float64

	// IQR is the inter-quartile range of the series
	IQR float64
}

// SummarizeSeries computes the per-scan summary of one metric vector. An
// empty series yields a NumericError.
func SummarizeSeries(values []float64) (SeriesSummary, error) {
	frac, iqr, err := PercentOutliers(values)
	if err != nil {
		return SeriesSummary{}, err
	}

	// montanaflynn/stats only errors on empty input, ruled out above.
	mean, err := stats.Mean(values)
	if err != nil {
		return SeriesSummary{}, &NumericError{Op: "series summary", Reason: err.Error()}
	}
	median, err := stats.Median(values)
	if err != nil {
		return SeriesSummary{}, &NumericError{Op: "series summary", Reason: err.Error()}
	}

	return SeriesSummary{
		Mean:            mean,
		Median:          median,
		PercentOutliers: frac,
		IQR:             iqr,
	}, nil
}
