package temporal

import "fmt"

// NumericError reports an ill-defined statistic: an empty input vector, a
// singular transform inverse, a degenerate percentile index, or a z-score
// with no usable voxels. It is fatal to the scan being processed and is
// never substituted with a default value.
type NumericError struct {
	// Op is the computation that failed
	Op string

	// Input identifies the offending input (a filepath or scan ID) when known
	Input string

	// Reason describes why the statistic is undefined
	Reason string
}

func (e *NumericError) Error() string {
	if e.Input != "" {
		return fmt.Sprintf("%s: %s: %s", e.Op, e.Input, e.Reason)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Reason)
}

// MalformedInputError reports a transform-matrix file that cannot be
// reshaped into the expected row/column structure.
type MalformedInputError struct {
	// Path is the offending file
	Path string

	// Line is the 1-based line number of the bad row
	Line int

	// Got and Want are the observed and expected value counts per row
	Got, Want int
}

func (e *MalformedInputError) Error() string {
	return fmt.Sprintf("%s: line %d: expected %d values per row, got %d",
		e.Path, e.Line, e.Want, e.Got)
}
