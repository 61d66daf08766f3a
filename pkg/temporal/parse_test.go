package temporal

import (
	"testing"
)

func TestPassFloats(t *testing.T) {
	testCases := []struct {
		name     string
		output   string
		expected []float64
	}{
		{
			name:     "MixedOutput",
			output:   "3.5\n-- warning --\n2.1\nNaN",
			expected: []float64{3.5, 2.1},
		},
		{
			name:     "Empty",
			output:   "",
			expected: nil,
		},
		{
			name:     "OnlyWarnings",
			output:   "++ 3dToutcount: AFNI version=AFNI_17.0.00\n** WARNING: skipped\n",
			expected: nil,
		},
		{
			name:     "LeadingWhitespace",
			output:   "  0.0125\n\t0.25\n",
			expected: []float64{0.0125, 0.25},
		},
		{
			name:     "ScientificNotation",
			output:   "1.5e-3\n-2E2\n",
			expected: []float64{0.0015, -200},
		},
		{
			name:     "InfinitiesDropped",
			output:   "Inf\n-Inf\n+inf\n1\n",
			expected: []float64{1},
		},
		{
			name:     "MultiValueLinesDropped",
			output:   "1.0 2.0\n3.0\n",
			expected: []float64{3},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := PassFloats(tc.output)

			if len(got) != len(tc.expected) {
				t.Fatalf("Expected %d values, got %d (%v)", len(tc.expected), len(got), got)
			}
			for i := range got {
				if got[i] != tc.expected[i] {
					t.Errorf("Value %d: expected %g, got %g", i, tc.expected[i], got[i])
				}
			}
		})
	}
}
