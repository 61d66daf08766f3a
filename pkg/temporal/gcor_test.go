package temporal

import (
	"errors"
	"math"
	"testing"

	"qap/internal/models"
)

// singleVoxelVolume builds a 1x1x1 volume holding one timeseries
func singleVoxelVolume(ts []float64) (*models.Volume4D, *models.Mask3D) {
	vol := models.NewVolume4D(1, 1, 1, len(ts))
	vol.SetSeries(0, 0, 0, ts)
	mask := models.NewMask3D(1, 1, 1)
	mask.Set(0, 0, 0, true)
	return vol, mask
}

func TestGlobalCorrelationSingleVoxel(t *testing.T) {
	// A single z-scored series averaged with itself has
	// dot(z,z)/NT == 1 by construction of the z-score
	vol, mask := singleVoxelVolume([]float64{1, 2, 3, 4})

	gcor, err := GlobalCorrelation(vol, mask)
	if err != nil {
		t.Fatalf("GlobalCorrelation failed: %v", err)
	}

	if math.Abs(gcor-1.0) > 1e-12 {
		t.Errorf("Expected GCOR 1.0 for single voxel, got %.15f", gcor)
	}
}

func TestGlobalCorrelationIdenticalVoxels(t *testing.T) {
	// Perfectly correlated voxels must also give GCOR 1
	ts := []float64{2, 4, 6, 8, 10}
	vol := models.NewVolume4D(2, 1, 1, len(ts))
	vol.SetSeries(0, 0, 0, ts)
	vol.SetSeries(1, 0, 0, ts)
	mask := models.NewMask3D(2, 1, 1)
	mask.Set(0, 0, 0, true)
	mask.Set(1, 0, 0, true)

	gcor, err := GlobalCorrelation(vol, mask)
	if err != nil {
		t.Fatalf("GlobalCorrelation failed: %v", err)
	}

	if math.Abs(gcor-1.0) > 1e-12 {
		t.Errorf("Expected GCOR 1.0 for identical voxels, got %.15f", gcor)
	}
}

func TestGlobalCorrelationAnticorrelatedVoxels(t *testing.T) {
	// Two perfectly anticorrelated voxels cancel in the grand average
	vol := models.NewVolume4D(2, 1, 1, 4)
	vol.SetSeries(0, 0, 0, []float64{1, 2, 3, 4})
	vol.SetSeries(1, 0, 0, []float64{4, 3, 2, 1})
	mask := models.NewMask3D(2, 1, 1)
	mask.Set(0, 0, 0, true)
	mask.Set(1, 0, 0, true)

	gcor, err := GlobalCorrelation(vol, mask)
	if err != nil {
		t.Fatalf("GlobalCorrelation failed: %v", err)
	}

	if math.Abs(gcor) > 1e-12 {
		t.Errorf("Expected GCOR 0 for anticorrelated voxels, got %.15f", gcor)
	}
}

func TestGlobalCorrelationExcludesConstantVoxels(t *testing.T) {
	// A zero-variance voxel has no defined z-score; it must be excluded
	// rather than poisoning the average with NaN
	vol := models.NewVolume4D(2, 1, 1, 4)
	vol.SetSeries(0, 0, 0, []float64{1, 2, 3, 4})
	vol.SetSeries(1, 0, 0, []float64{7, 7, 7, 7})
	mask := models.NewMask3D(2, 1, 1)
	mask.Set(0, 0, 0, true)
	mask.Set(1, 0, 0, true)

	gcor, err := GlobalCorrelation(vol, mask)
	if err != nil {
		t.Fatalf("GlobalCorrelation failed: %v", err)
	}

	if math.IsNaN(gcor) {
		t.Fatal("GCOR is NaN; constant voxel was not excluded")
	}
	if math.Abs(gcor-1.0) > 1e-12 {
		t.Errorf("Expected GCOR 1.0 with constant voxel excluded, got %.15f", gcor)
	}
}

func TestGlobalCorrelationAllConstant(t *testing.T) {
	vol, mask := singleVoxelVolume([]float64{5, 5, 5, 5})

	_, err := GlobalCorrelation(vol, mask)
	if err == nil {
		t.Fatal("Expected NumericError for all-constant mask, got nil")
	}

	var numErr *NumericError
	if !errors.As(err, &numErr) {
		t.Errorf("Expected NumericError, got %T: %v", err, err)
	}
}

func TestGlobalCorrelationExtentMismatch(t *testing.T) {
	vol := models.NewVolume4D(2, 2, 2, 4)
	mask := models.NewMask3D(2, 2, 1)

	if _, err := GlobalCorrelation(vol, mask); err == nil {
		t.Error("Expected error for mask/volume extent mismatch, got nil")
	}
}
