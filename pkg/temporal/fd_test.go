package temporal

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"gonum.org/v1/gonum/mat"
)

// identityTransform returns a fresh 4x4 identity matrix
func identityTransform() *mat.Dense {
	m := mat.NewDense(4, 4, nil)
	for i := 0; i < 4; i++ {
		m.Set(i, i, 1)
	}
	return m
}

// translationTransform returns a rigid-body transform that only translates
func translationTransform(tx, ty, tz float64) *mat.Dense {
	m := identityTransform()
	m.Set(0, 3, tx)
	m.Set(1, 3, ty)
	m.Set(2, 3, tz)
	return m
}

func TestFramewiseDisplacementIdentity(t *testing.T) {
	// No motion between identical frames must give zero displacement
	transforms := make([]*mat.Dense, 6)
	for i := range transforms {
		transforms[i] = identityTransform()
	}

	fd, err := FramewiseDisplacement(transforms, DefaultRMax)
	if err != nil {
		t.Fatalf("FramewiseDisplacement failed: %v", err)
	}

	if len(fd) != len(transforms) {
		t.Fatalf("Expected %d displacement values, got %d", len(transforms), len(fd))
	}

	for i, v := range fd {
		if v != 0 {
			t.Errorf("Timepoint %d: expected 0 displacement, got %g", i, v)
		}
	}
}

func TestFramewiseDisplacementFirstValueZero(t *testing.T) {
	transforms := []*mat.Dense{
		translationTransform(1, 2, 3),
		translationTransform(4, 5, 6),
	}

	fd, err := FramewiseDisplacement(transforms, DefaultRMax)
	if err != nil {
		t.Fatalf("FramewiseDisplacement failed: %v", err)
	}

	if fd[0] != 0 {
		t.Errorf("First displacement must be exactly 0, got %g", fd[0])
	}
}

func TestFramewiseDisplacementPureTranslation(t *testing.T) {
	// A pure translation between frames contributes no rotational term, so
	// the displacement is the Euclidean norm of the translation delta
	transforms := []*mat.Dense{
		identityTransform(),
		translationTransform(3, 4, 0),
	}

	fd, err := FramewiseDisplacement(transforms, DefaultRMax)
	if err != nil {
		t.Fatalf("FramewiseDisplacement failed: %v", err)
	}

	if math.Abs(fd[1]-5.0) > 1e-12 {
		t.Errorf("Expected displacement 5.0 for (3,4,0) translation, got %.15f", fd[1])
	}
}

func TestFramewiseDisplacementDeterministic(t *testing.T) {
	transforms := []*mat.Dense{
		identityTransform(),
		translationTransform(0.3, -0.1, 0.25),
		translationTransform(0.7, 0.2, -0.4),
	}

	first, err := FramewiseDisplacement(transforms, DefaultRMax)
	if err != nil {
		t.Fatalf("First run failed: %v", err)
	}
	second, err := FramewiseDisplacement(transforms, DefaultRMax)
	if err != nil {
		t.Fatalf("Second run failed: %v", err)
	}

	for i := range first {
		if first[i] != second[i] {
			t.Errorf("Timepoint %d: runs differ (%g vs %g)", i, first[i], second[i])
		}
	}
}

func TestFramewiseDisplacementSingular(t *testing.T) {
	// A degenerate (singular) previous transform must fail loudly rather
	// than propagate NaN
	singular := mat.NewDense(4, 4, nil)
	singular.Set(3, 3, 1)

	transforms := []*mat.Dense{singular, identityTransform()}

	_, err := FramewiseDisplacement(transforms, DefaultRMax)
	if err == nil {
		t.Fatal("Expected NumericError for singular transform, got nil")
	}

	var numErr *NumericError
	if !errors.As(err, &numErr) {
		t.Errorf("Expected NumericError, got %T: %v", err, err)
	}
}

func TestFramewiseDisplacementEmpty(t *testing.T) {
	_, err := FramewiseDisplacement(nil, DefaultRMax)
	if err == nil {
		t.Fatal("Expected NumericError for empty sequence, got nil")
	}

	var numErr *NumericError
	if !errors.As(err, &numErr) {
		t.Errorf("Expected NumericError, got %T: %v", err, err)
	}
}

func TestLoadAffineMatrixFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("ValidFile", func(t *testing.T) {
		path := filepath.Join(dir, "motion.aff12.1D")
		content := "1 0 0 0 0 1 0 0 0 0 1 0\n" +
			"1 0 0 0.5 0 1 0 -0.25 0 0 1 1.5\n"
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("Failed to write fixture: %v", err)
		}

		transforms, err := LoadAffineMatrixFile(path)
		if err != nil {
			t.Fatalf("LoadAffineMatrixFile failed: %v", err)
		}

		if len(transforms) != 2 {
			t.Fatalf("Expected 2 transforms, got %d", len(transforms))
		}

		// The homogeneous row must be appended to every transform
		for i, tr := range transforms {
			for c, want := range []float64{0, 0, 0, 1} {
				if got := tr.At(3, c); got != want {
					t.Errorf("Transform %d: bottom row [%d] = %g, want %g", i, c, got, want)
				}
			}
		}

		if got := transforms[1].At(1, 3); got != -0.25 {
			t.Errorf("Transform 1 translation y = %g, want -0.25", got)
		}
	})

	t.Run("ShortRow", func(t *testing.T) {
		path := filepath.Join(dir, "short.aff12.1D")
		content := "1 0 0 0 0 1 0 0 0 0 1\n"
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("Failed to write fixture: %v", err)
		}

		_, err := LoadAffineMatrixFile(path)
		if err == nil {
			t.Fatal("Expected MalformedInputError for 11-value row, got nil")
		}

		var malErr *MalformedInputError
		if !errors.As(err, &malErr) {
			t.Fatalf("Expected MalformedInputError, got %T: %v", err, err)
		}
		if malErr.Got != 11 || malErr.Want != 12 {
			t.Errorf("Expected got=11 want=12 in error, got got=%d want=%d", malErr.Got, malErr.Want)
		}
	})

	t.Run("Missing", func(t *testing.T) {
		if _, err := LoadAffineMatrixFile(filepath.Join(dir, "absent.1D")); err == nil {
			t.Error("Expected error for missing file, got nil")
		}
	})
}

func TestDisplacementFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fd.1D")

	series := []float64{0, 0.125, 0.5, 2.25}
	if err := WriteDisplacementFile(path, series); err != nil {
		t.Fatalf("WriteDisplacementFile failed: %v", err)
	}

	loaded, err := LoadDisplacementFile(path)
	if err != nil {
		t.Fatalf("LoadDisplacementFile failed: %v", err)
	}

	if len(loaded) != len(series) {
		t.Fatalf("Expected %d values, got %d", len(series), len(loaded))
	}
	for i := range series {
		if loaded[i] != series[i] {
			t.Errorf("Value %d: expected %g, got %g", i, series[i], loaded[i])
		}
	}
}

func TestIsPrecomputedDisplacement(t *testing.T) {
	testCases := []struct {
		path     string
		expected bool
	}{
		{"/scratch/sub01/func_mcf_rel.rms", true},
		{"/scratch/sub01/rest_rel.rms.txt", true},
		{"/scratch/sub01/motion.aff12.1D", false},
		{"/scratch/sub01/relative.rms", false},
	}

	for _, tc := range testCases {
		if got := IsPrecomputedDisplacement(tc.path); got != tc.expected {
			t.Errorf("IsPrecomputedDisplacement(%s): expected %v, got %v", tc.path, tc.expected, got)
		}
	}
}
