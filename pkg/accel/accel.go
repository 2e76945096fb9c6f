// Package accel models the tuning UI's raw accelerometer sample
// record — spec §6's external-interface mention of accel_values. It
// is not on the core's steady-state path; no smoother or kinematics
// operation reads it.
//
// Grounded on original_source/klippy/chelper/accel_values.h/.c
// (accel_values_alloc/_free): a fixed-length struct of four parallel
// arrays (t, ax, ay, az), allocated and zeroed together.
package accel

// Values is one accelerometer capture: N samples of time and the
// three axis accelerations, held as parallel slices.
type Values struct {
	N  int
	T  []float64
	Ax []float64
	Ay []float64
	Az []float64
}

// New returns a Values of length n with all four arrays zeroed,
// mirroring accel_values_alloc's malloc+memset pairing.
func New(n int) *Values {
	return &Values{
		N:  n,
		T:  make([]float64, n),
		Ax: make([]float64, n),
		Ay: make([]float64, n),
		Az: make([]float64, n),
	}
}
