package temporal

import (
	"fmt"

	"gonum.org/v1/gonum/stat"

	"qap/internal/models"
)

// GlobalCorrelation computes GCOR, the average pairwise correlation across
// all masked voxel timeseries ("Correcting Brain-Wide Correlation
// Differences in Resting-State fMRI", Saad et al.).
//
// Each included voxel's timeseries is z-scored (population formula), the
// z-scored series are averaged across voxels into one grand-average
// timeseries, and GCOR is the dot product of that series with itself
// divided by the number of timepoints.
//
// Voxels with zero temporal variance have no defined z-score and carry no
// correlation information; they are excluded from the average. If every
// masked voxel is constant the result is undefined and a NumericError is
// returned.
func GlobalCorrelation(vol *models.Volume4D, mask *models.Mask3D) (float64, error) {
	if err := checkExtent(vol, mask); err != nil {
		return 0, err
	}

	sum := make([]float64, vol.NT)
	voxels := 0

	for z := 0; z < vol.NZ; z++ {
		for y := 0; y < vol.NY; y++ {
			for x := 0; x < vol.NX; x++ {
				if !mask.At(x, y, z) {
					continue
				}
				ts := vol.Series(x, y, z)
				mean := stat.Mean(ts, nil)
				std := stat.PopStdDev(ts, nil)
				if std == 0 {
					continue
				}
				for t, v := range ts {
					sum[t] += (v - mean) / std
				}
				voxels++
			}
		}
	}

	if voxels == 0 {
		return 0, &NumericError{
			Op:     "global correlation",
			Reason: "no masked voxel has non-zero temporal variance",
		}
	}

	gcor := 0.0
	for _, s := range sum {
		avg := s / float64(voxels)
		gcor += avg * avg
	}

	return gcor / float64(vol.NT), nil
}

func checkExtent(vol *models.Volume4D, mask *models.Mask3D) error {
	if vol.NX != mask.NX || vol.NY != mask.NY || vol.NZ != mask.NZ {
		return fmt.Errorf("mask extent %dx%dx%d does not match volume extent %dx%dx%d",
			mask.NX, mask.NY, mask.NZ, vol.NX, vol.NY, vol.NZ)
	}
	return nil
}
