package models

import "fmt"

// ScanInfo identifies a single scan within a study: which site collected it,
// which participant it belongs to, and which session and scan/series it is.
type ScanInfo struct {
	// Site is the name of the collection site
	Site string

	// Participant is the participant (subject) ID
	Participant string

	// Session is the session ID within the participant
	Session string

	// Scan is the scan/series ID within the session
	Scan string
}

// Key returns the participant_session_scan identifier used to key per-scan
// output records.
func (s ScanInfo) Key() string {
	return fmt.Sprintf("%s_%s_%s", s.Participant, s.Session, s.Scan)
}

// Volume4D represents a 4D functional timeseries: a 3D spatial grid where
// each voxel holds NT timepoints. Data is stored with the time axis fastest,
// so each voxel's timeseries is a contiguous slice.
type Volume4D struct {
	// Data is the voxel data as a 1D array, time axis fastest
	Data []float64

	// NX, NY, NZ are the spatial dimensions in voxels
	NX, NY, NZ int

	// NT is the number of timepoints per voxel
	NT int
}

// NewVolume4D allocates a zero-filled volume with the given dimensions.
func NewVolume4D(nx, ny, nz, nt int) *Volume4D {
	return &Volume4D{
		Data: make([]float64, nx*ny*nz*nt),
		NX:   nx,
		NY:   ny,
		NZ:   nz,
		NT:   nt,
	}
}

// Series returns the timeseries of the voxel at (x, y, z). The returned
// slice aliases the volume's backing array.
func (v *Volume4D) Series(x, y, z int) []float64 {
	base := (((z*v.NY)+y)*v.NX + x) * v.NT
	return v.Data[base : base+v.NT]
}

// SetSeries copies ts into the voxel at (x, y, z).
func (v *Volume4D) SetSeries(x, y, z int, ts []float64) {
	copy(v.Series(x, y, z), ts)
}

// Mask3D is a boolean spatial grid marking which voxels participate in an
// aggregation. It must share spatial extent with the volume it masks.
type Mask3D struct {
	// Data holds the mask values, x axis fastest
	Data []bool

	// NX, NY, NZ are the spatial dimensions in voxels
	NX, NY, NZ int
}

// NewMask3D allocates an all-false mask with the given dimensions.
func NewMask3D(nx, ny, nz int) *Mask3D {
	return &Mask3D{
		Data: make([]bool, nx*ny*nz),
		NX:   nx,
		NY:   ny,
		NZ:   nz,
	}
}

// At reports whether the voxel at (x, y, z) is included.
func (m *Mask3D) At(x, y, z int) bool {
	return m.Data[(z*m.NY+y)*m.NX+x]
}

// Set marks the voxel at (x, y, z).
func (m *Mask3D) Set(x, y, z int, included bool) {
	m.Data[(z*m.NY+y)*m.NX+x] = included
}

// Count returns the number of included voxels.
func (m *Mask3D) Count() int {
	n := 0
	for _, b := range m.Data {
		if b {
			n++
		}
	}
	return n
}

// StdMap is a 3D scalar grid holding one value per voxel, typically the
// temporal standard deviation of that voxel's timeseries. Voxels outside the
// originating mask hold zero.
type StdMap struct {
	// Data holds the per-voxel values, x axis fastest
	Data []float64

	// NX, NY, NZ are the spatial dimensions in voxels
	NX, NY, NZ int
}

// NewStdMap allocates a zero-filled map with the given dimensions.
func NewStdMap(nx, ny, nz int) *StdMap {
	return &StdMap{
		Data: make([]float64, nx*ny*nz),
		NX:   nx,
		NY:   ny,
		NZ:   nz,
	}
}

// At returns the value of the voxel at (x, y, z).
func (m *StdMap) At(x, y, z int) float64 {
	return m.Data[(z*m.NY+y)*m.NX+x]
}

// Set stores the value of the voxel at (x, y, z).
func (m *StdMap) Set(x, y, z int, v float64) {
	m.Data[(z*m.NY+y)*m.NX+x] = v
}
