package temporal

import (
	"math"
	"strconv"
	"strings"
)

// parseLine is a total function from one output line to an optional float.
// Lines that do not parse as a finite number report ok=false.
func parseLine(line string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(line), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// PassFloats parses the multi-line stdout of an AFNI command and returns the
// values it printed, one float per line. Lines that are not a single finite
// number (headers, warnings, "NaN") are silently skipped; this lenient
// per-line contract is what lets callers feed raw tool output straight in.
func PassFloats(output string) []float64 {
	var values []float64
	for _, line := range strings.Split(output, "\n") {
		if v, ok := parseLine(line); ok {
			values = append(values, v)
		}
	}
	return values
}
