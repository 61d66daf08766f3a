package temporal

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"qap/internal/models"
)

// minNuisanceVoxels is the smallest number of non-zero std voxels for which
// the 98th-percentile cutoff index is meaningful.
const minNuisanceVoxels = 50

// TemporalStdMap computes the temporal standard deviation (population
// formula) of each masked voxel's timeseries. Voxels outside the mask are
// left at zero.
func TemporalStdMap(vol *models.Volume4D, mask *models.Mask3D) (*models.StdMap, error) {
	if err := checkExtent(vol, mask); err != nil {
		return nil, err
	}

	m := models.NewStdMap(vol.NX, vol.NY, vol.NZ)
	for z := 0; z < vol.NZ; z++ {
		for y := 0; y < vol.NY; y++ {
			for x := 0; x < vol.NX; x++ {
				if !mask.At(x, y, z) {
					continue
				}
				m.Set(x, y, z, stat.PopStdDev(vol.Series(x, y, z), nil))
			}
		}
	}

	return m, nil
}

// CreateThresholdMask builds a mask selecting the voxels of m whose value
// is strictly greater than threshold.
func CreateThresholdMask(m *models.StdMap, threshold float64) *models.Mask3D {
	mask := models.NewMask3D(m.NX, m.NY, m.NZ)
	for i, v := range m.Data {
		mask.Data[i] = v > threshold
	}
	return mask
}

// EstimatedNuisance estimates the CSF-driven nuisance signal from a temporal
// std map: the mean temporal std among the top 2% highest-variance voxels,
// which are taken to be CSF-proximate, high-pulsatility tissue.
//
// The non-zero std values are sorted ascending, the cutoff is the value at
// index floor(0.98 * count), and the map is re-thresholded at that cutoff to
// select the nuisance voxels. Fewer than 50 non-zero voxels make the
// percentile index degenerate and yield a NumericError, as does a cutoff
// that selects no voxels (all top-2% values tied).
func EstimatedNuisance(stdMap *models.StdMap) (float64, error) {
	var nonzero []float64
	for _, v := range stdMap.Data {
		if v != 0 {
			nonzero = append(nonzero, v)
		}
	}

	if len(nonzero) < minNuisanceVoxels {
		return 0, &NumericError{
			Op:     "estimated nuisance",
			Reason: "fewer than 50 non-zero std voxels",
		}
	}

	sort.Float64s(nonzero)
	cutoff := nonzero[int(0.98*float64(len(nonzero)))]

	nuisanceMask := CreateThresholdMask(stdMap, cutoff)

	sum, n := 0.0, 0
	for i, selected := range nuisanceMask.Data {
		if selected {
			sum += stdMap.Data[i]
			n++
		}
	}

	if n == 0 {
		return 0, &NumericError{
			Op:     "estimated nuisance",
			Reason: "no voxels above the 98th-percentile cutoff",
		}
	}

	return sum / float64(n), nil
}

// VoxelSFS computes the signal fluctuation sensitivity of one voxel
// ("Signal Fluctuation Sensitivity: An Improved Metric for Optimizing
// Detection of Resting-State fMRI Networks", DeDora et al.):
//
//	SFS = (voxelMean / wholeBrainMean) * (voxelStd / nuisanceMeanStd)
func VoxelSFS(voxelMean, wholeBrainMean, voxelStd, nuisanceMeanStd float64) float64 {
	return (voxelMean / wholeBrainMean) * (voxelStd / nuisanceMeanStd)
}

// SFS computes the signal fluctuation sensitivity of every masked voxel,
// normalized by the whole-brain mean (the mean over the mask of each
// voxel's time-averaged signal) and by the nuisance mean std estimated from
// stdMap. The returned values follow mask iteration order, x axis fastest.
func SFS(vol *models.Volume4D, mask *models.Mask3D, stdMap *models.StdMap) ([]float64, error) {
	if err := checkExtent(vol, mask); err != nil {
		return nil, err
	}

	nuisance, err := EstimatedNuisance(stdMap)
	if err != nil {
		return nil, err
	}

	wholeSum, voxels := 0.0, 0
	for z := 0; z < vol.NZ; z++ {
		for y := 0; y < vol.NY; y++ {
			for x := 0; x < vol.NX; x++ {
				if !mask.At(x, y, z) {
					continue
				}
				wholeSum += stat.Mean(vol.Series(x, y, z), nil)
				voxels++
			}
		}
	}
	if voxels == 0 {
		return nil, &NumericError{
			Op:     "signal fluctuation sensitivity",
			Reason: "empty mask",
		}
	}
	wholeMean := wholeSum / float64(voxels)
	if wholeMean == 0 {
		return nil, &NumericError{
			Op:     "signal fluctuation sensitivity",
			Reason: "whole-brain mean is zero",
		}
	}

	sfs := make([]float64, 0, voxels)
	for z := 0; z < vol.NZ; z++ {
		for y := 0; y < vol.NY; y++ {
			for x := 0; x < vol.NX; x++ {
				if !mask.At(x, y, z) {
					continue
				}
				ts := vol.Series(x, y, z)
				sfs = append(sfs, VoxelSFS(stat.Mean(ts, nil), wholeMean, stat.PopStdDev(ts, nil), nuisance))
			}
		}
	}

	return sfs, nil
}
