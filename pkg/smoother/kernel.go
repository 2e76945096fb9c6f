// Package smoother implements the catalog of even-polynomial smoother
// kernels, the weighted integrator that convolves a kernel against a
// move's progress curve, and the windowed convolver that walks the
// move queue across a kernel's support.
//
// Kernel coefficients are grounded, verbatim, on the per-family init
// functions in original_source/klippy/chelper/integrate.c
// (init_sifp_05, init_siaf_05, init_dfsf_05, init_dfaf_05,
// init_dfaf_02, init_dfaf_01, init_2ord_shortest, init_2ord_allp); the
// compact ζ-dependent 2nd-order kernel's formula comes from spec §4.1
// directly, since integrate.c's own 2nd-order variants are both
// ζ-independent. Per the spec's Open Question resolution (DESIGN.md),
// this is the single richer catalog: every Kernel carries C0, C1, C2,
// C4, C6, with C1 nonzero only for the compact family.
package smoother

import (
	"github.com/nonanon1/klipper-smoothcore/pkg/errors"
	"github.com/nonanon1/klipper-smoothcore/pkg/scurve"
)

// Compact is the family tag for the ζ-dependent compact 2nd-order
// kernel described by formula in spec §4.1.
const Compact = "compact"

// Shortest and AllPass are the ζ-independent 2nd-order catalog
// entries (init_2ord_shortest / init_2ord_allp in integrate.c).
const (
	Shortest = "shortest"
	AllPass  = "allpass"
)

// Kernel is a frozen, immutable weighting function w(τ) = Σ Ck·τ^k
// (k even, plus C1 for the compact family) supported on [-H, H].
// Kernel parameters are frozen after construction; New never mutates
// an existing Kernel, and callers replace kernels atomically rather
// than mutating one in place (spec §3's Lifecycle invariant).
type Kernel struct {
	Family string
	H      float64
	Hsq    float64

	C0, C1, C2, C4, C6 float64
}

// Poly returns the kernel's weighting function as a scurve.Poly, so
// that the weighted integrator can reuse scurve's antiderivative
// machinery for both the kernel and the move's progress curve.
func (k *Kernel) Poly() scurve.Poly {
	return scurve.Poly{C0: k.C0, C1: k.C1, C2: k.C2, C4: k.C4, C6: k.C6}
}

type familyCoef struct {
	hf             float64
	a0, a2, a4, a6 float64
}

// catalog holds the even higher-order (ζ-independent) families plus
// the two ζ-independent 2nd-order entries. Values copied verbatim
// from integrate.c; they are the solution of a constrained
// optimisation and are not re-derivable from first principles.
var catalog = map[string]familyCoef{
	Shortest: {hf: .29630246, a0: 0.2183076974181258, a2: 2.154923092254376},
	AllPass:  {hf: 0.331293106, a0: 0, a2: 1.5},
	"SIFP05": {hf: .5, a0: 1.226407107944368, a2: -9.681726703406114, a4: 12.50417563262201},
	"SIAF05": {hf: 0.682156695, a0: 0.7264076297522936, a2: -1.00906293169719, a4: 0.5497334040671973},
	"DFSF05": {hf: 0.879442505, a0: 1.693005551405153, a2: -18.8720117988809, a4: 59.4391940955727, a6: -47.53121639625473},
	"DFAF05": {hf: 1.089438525, a0: 1.42427487336909, a2: -5.783771970272312, a4: 7.766315293352271, a6: -3.847297593641651},
	"DFAF02": {hf: 1.282011392, a0: 1.57525352661564, a2: -7.728603566914598, a4: 11.55794321405673, a6: -5.674486863182988},
	"DFAF01": {hf: 1.727828982, a0: 1.561217589994576, a2: -7.310414825115637, a4: 10.09765353406272, a6: -4.507603485713351},
}

// Families returns every catalog tag New accepts.
func Families() []string {
	tags := make([]string, 0, len(catalog)+1)
	tags = append(tags, Compact)
	for tag := range catalog {
		tags = append(tags, tag)
	}
	return tags
}

// New constructs a kernel for the given family, target frequency f
// (Hz, > 0) and damping ratio ζ ∈ [0,1]. An unknown family tag or an
// out-of-range parameter returns an error and no kernel, per spec §7
// ("invalid configuration ... leaves the handle in its prior valid
// state"); callers are expected to keep using the previous kernel.
func New(family string, f, zeta float64) (*Kernel, error) {
	if f <= 0 {
		return nil, errors.KernelBadFreqError(f)
	}
	if zeta < 0 || zeta > 1 {
		return nil, errors.KernelBadDampingError(zeta)
	}
	if family == Compact {
		h := 0.5 * (0.662586 - 0.0945695*zeta*zeta) / f
		invH2 := 1 / (h * h)
		c1 := (1.681147871689192-1.318310718147036*zeta*zeta) * zeta * invH2
		c2 := 1.5 / (h * h * h)
		return &Kernel{Family: family, H: h, Hsq: h * h, C1: c1, C2: c2}, nil
	}
	fc, ok := catalog[family]
	if !ok {
		return nil, errors.KernelUnknownFamilyError(family)
	}
	h := fc.hf / f
	inv := 1 / h
	inv3 := inv * inv * inv
	inv5 := inv3 * inv * inv
	inv7 := inv5 * inv * inv
	return &Kernel{
		Family: family,
		H:      h,
		Hsq:    h * h,
		C0:     fc.a0 * inv,
		C2:     fc.a2 * inv3,
		C4:     fc.a4 * inv5,
		C6:     fc.a6 * inv7,
	}, nil
}

// HalfSmoothTime returns h for the given family/frequency/damping by
// constructing the kernel and returning its H, for planner margin calculations
// (spec §6's get_axis_half_smooth_time).
func HalfSmoothTime(family string, f, zeta float64) (float64, error) {
	k, err := New(family, f, zeta)
	if err != nil {
		return 0, err
	}
	return k.H, nil
}
