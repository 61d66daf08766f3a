// Package temporal computes per-scan temporal quality metrics for functional
// MRI timeseries: Jenkinson framewise displacement from rigid-body transform
// sequences, outlier fractions, global correlation (GCOR), temporal standard
// deviation maps, the estimated CSF nuisance signal, and signal fluctuation
// sensitivity (SFS).
//
// Every function in this package is a pure transform of in-memory arrays.
// The package performs no logging and no retries; errors carry enough
// context for the orchestrating layer to attribute a failure to one scan.
package temporal

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// DefaultRMax is the default radius in mm of the sphere that represents the
// brain in Jenkinson's framewise displacement formula.
const DefaultRMax = 80.0

// affineRowValues is the number of values per row in a 3dvolreg
// -1Dmatrix_save output file (a 3x4 affine, row-major).
const affineRowValues = 12

// FramewiseDisplacement computes Jenkinson's framewise displacement (RMSD)
// for an ordered sequence of 4x4 rigid-body transforms, one per timepoint
// (Jenkinson et al., 2002). The first timepoint has no prior frame and its
// displacement is defined as 0. For each later timepoint i,
//
//	M = T_i * inv(T_{i-1}) - I
//	FD_i = sqrt(rmax^2/5 * trace(A'A) + b'b)
//
// where A is the 3x3 rotational block of M and b its translational column.
// If rmax <= 0, DefaultRMax is used. A singular previous transform yields a
// NumericError.
func FramewiseDisplacement(transforms []*mat.Dense, rmax float64) ([]float64, error) {
	if len(transforms) == 0 {
		return nil, &NumericError{
			Op:     "framewise displacement",
			Reason: "empty transform sequence",
		}
	}
	if rmax <= 0 {
		rmax = DefaultRMax
	}

	fd := make([]float64, 1, len(transforms))
	fd[0] = 0

	// The previous transform is threaded through the loop explicitly; each
	// displacement depends only on the current and prior timepoints.
	prev := transforms[0]
	for i := 1; i < len(transforms); i++ {
		cur := transforms[i]

		var inv mat.Dense
		if err := inv.Inverse(prev); err != nil {
			return nil, &NumericError{
				Op:     "framewise displacement",
				Input:  fmt.Sprintf("timepoint %d", i-1),
				Reason: fmt.Sprintf("singular transform: %v", err),
			}
		}

		var m mat.Dense
		m.Mul(cur, &inv)

		// M - I, split into the rotational block A and translation b.
		// trace(A'A) is the sum of squares of A's entries.
		var sumSqA, sumSqB float64
		for r := 0; r < 3; r++ {
			for c := 0; c < 3; c++ {
				v := m.At(r, c)
				if r == c {
					v -= 1
				}
				sumSqA += v * v
			}
			b := m.At(r, 3)
			sumSqB += b * b
		}

		fd = append(fd, math.Sqrt((rmax*rmax/5)*sumSqA+sumSqB))
		prev = cur
	}

	return fd, nil
}

// LoadAffineMatrixFile reads a plain-text transform file with one timepoint
// per row and 12 whitespace-delimited values per row (a 3x4 affine,
// row-major, as written by 3dvolreg's -1Dmatrix_save). The homogeneous row
// [0 0 0 1] is appended to each transform. Rows with the wrong number of
// values yield a MalformedInputError.
func LoadAffineMatrixFile(path string) ([]*mat.Dense, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading transform file: %w", err)
	}

	var transforms []*mat.Dense
	for n, line := range strings.Split(string(raw), "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if len(fields) != affineRowValues {
			return nil, &MalformedInputError{
				Path: path,
				Line: n + 1,
				Got:  len(fields),
				Want: affineRowValues,
			}
		}

		vals := make([]float64, 16)
		for i, f := range fields {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, &MalformedInputError{
					Path: path,
					Line: n + 1,
					Got:  i,
					Want: affineRowValues,
				}
			}
			vals[i] = v
		}
		vals[15] = 1 // homogeneous row [0 0 0 1]

		transforms = append(transforms, mat.NewDense(4, 4, vals))
	}

	if len(transforms) == 0 {
		return nil, &NumericError{
			Op:     "load transform file",
			Input:  path,
			Reason: "no transform rows found",
		}
	}

	return transforms, nil
}

// IsPrecomputedDisplacement reports whether a motion file already contains
// scalar displacement values rather than transform matrices. MCFLIRT writes
// its relative RMS displacement output with "rel.rms" in the filename; such
// files bypass the estimator and are loaded directly.
func IsPrecomputedDisplacement(path string) bool {
	return strings.Contains(path, "rel.rms")
}

// LoadDisplacementFile reads a precomputed displacement series: plain text,
// one floating-point value per line. This is the alternate input mode for
// motion files produced by tools that emit scalar displacements directly.
func LoadDisplacementFile(path string) ([]float64, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading displacement file: %w", err)
	}

	var series []float64
	for n, line := range strings.Split(string(raw), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		v, err := strconv.ParseFloat(line, 64)
		if err != nil {
			return nil, &MalformedInputError{
				Path: path,
				Line: n + 1,
				Got:  0,
				Want: 1,
			}
		}
		series = append(series, v)
	}

	if len(series) == 0 {
		return nil, &NumericError{
			Op:     "load displacement file",
			Input:  path,
			Reason: "no displacement values found",
		}
	}

	return series, nil
}

// WriteDisplacementFile writes a displacement series as plain text, one
// value per line, in timepoint order.
func WriteDisplacementFile(path string, series []float64) error {
	var sb strings.Builder
	for _, v := range series {
		sb.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
		sb.WriteByte('\n')
	}
	if err := os.WriteFile(path, []byte(sb.String()), 0644); err != nil {
		return fmt.Errorf("writing displacement file: %w", err)
	}
	return nil
}
