// Package afni invokes the AFNI command-line tools that produce
// per-timepoint quality scalars for a functional scan and parses their
// output through the lenient line-by-line float contract.
//
// AFNI prints one value per timepoint to stdout, interleaved with version
// banners and warnings; non-numeric lines are skipped, never treated as
// errors. Cancellation and timeouts are handled through the caller's
// context.
package afni

import (
	"context"
	"fmt"
	"os/exec"

	"qap/pkg/temporal"
)

// OutlierTimepoints counts the outlier voxels at each timepoint of a 4D
// functional dataset using AFNI's 3dToutcount. With fraction set, the
// values are fractions of the masked voxel count instead of raw counts,
// which is what the fraction-of-outliers metric expects. maskFile may be
// empty to run unmasked.
func OutlierTimepoints(ctx context.Context, funcFile, maskFile string, fraction bool) ([]float64, error) {
	var args []string
	if fraction {
		args = append(args, "-fraction")
	}
	if maskFile != "" {
		args = append(args, "-mask", maskFile)
	}
	args = append(args, funcFile)

	// 3dToutcount mixes warnings into both streams; the lenient parse
	// makes capturing them together safe.
	out, err := exec.CommandContext(ctx, "3dToutcount", args...).CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("running 3dToutcount on %s: %w", funcFile, err)
	}

	return temporal.PassFloats(string(out)), nil
}

// QualityTimepoints computes AFNI 3dTqual's quality index for each
// timepoint of a 4D functional dataset. Low values indicate a timepoint
// close to the norm.
func QualityTimepoints(ctx context.Context, funcFile string) ([]float64, error) {
	out, err := exec.CommandContext(ctx, "3dTqual", funcFile).Output()
	if err != nil {
		return nil, fmt.Errorf("running 3dTqual on %s: %w", funcFile, err)
	}

	return temporal.PassFloats(string(out)), nil
}
