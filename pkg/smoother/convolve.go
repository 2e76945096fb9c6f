package smoother

import (
	"github.com/nonanon1/klipper-smoothcore/pkg/scurve"
	"github.com/nonanon1/klipper-smoothcore/pkg/trapq"
)

// MoveCurve extracts the (start value, progress polynomial) pair a
// windowed convolution should integrate against for one move. For
// plain axis smoothing this is just (m.StartPos[axis], m.AxisPoly(axis));
// pkg/padvance supplies a closure that folds the pressure-advance
// derivative term into both pieces instead.
type MoveCurve func(m *trapq.Move) (p0 float64, s scurve.Poly)

// ConvolveChain evaluates
//
//	∫[wStart,wEnd] curveAt(·) · weight(τ + toff₀) dτ
//
// where wStart/wEnd are local-time bounds within m and toff0 = -center
// anchors the weight's own coordinate to center, walking the move
// queue forward and backward from m as the window spills past m's own
// span. This is the shape shared by RangeIntegrate's symmetric-kernel
// walk and pkg/padvance's two asymmetric-ramp walks; grounded on the
// range_integrate walk in
// original_source/klippy/chelper/kin_smooth_axis.c (also the basis for
// kin_extruder.c's pa_range_integrate).
//
// Preconditions (caller's responsibility, not checked here): every
// move touched by [wStart, wEnd] is allocated and linked; the queue is
// stable for the duration of the call. If the window extends past an
// unpopulated queue boundary, ConvolveChain stops at the boundary
// rather than panicking — the result is then only a partial
// convolution, which is the caller's fault per spec §5/§7 ("NaN/Inf in
// inputs propagate and are the caller's fault").
func ConvolveChain(m *trapq.Move, wStart, wEnd, center float64, weight scurve.Poly, hsq float64, curveAt MoveCurve) float64 {
	toff := -center

	curStart, curEnd := wStart, wEnd
	if curStart < 0 {
		curStart = 0
	}
	if curEnd > m.MoveT {
		curEnd = m.MoveT
	}
	p0, s := curveAt(m)
	total := IntegrateWeightedPoly(weight, hsq, p0, s, curStart, curEnd, toff)

	bStart, bToff := wStart, toff
	prev := m
	for bStart < 0 {
		p := prev.Prev()
		if p == nil {
			break
		}
		prev = p
		bStart += prev.MoveT
		bToff -= prev.MoveT
		p0, s = curveAt(prev)
		total += IntegrateWeightedPoly(weight, hsq, p0, s, bStart, prev.MoveT, bToff)
	}

	fEnd, fToff := wEnd, toff
	next := m
	for fEnd > next.MoveT {
		fEnd -= next.MoveT
		fToff += next.MoveT
		n := next.Next()
		if n == nil {
			break
		}
		next = n
		p0, s = curveAt(next)
		total += IntegrateWeightedPoly(weight, hsq, p0, s, 0, fEnd, fToff)
	}

	return total
}

// RangeIntegrate evaluates the convolution of a kernel with the axis
// trajectory over the window [t-h, t+h], walking the move queue
// forward and backward from m as needed. Grounded on the
// range_integrate walk in
// original_source/klippy/chelper/kin_smooth_axis.c, restated in spec
// §4.4.
func RangeIntegrate(m *trapq.Move, axis int, t float64, sm *Kernel) float64 {
	curveAt := func(mv *trapq.Move) (float64, scurve.Poly) {
		return mv.StartPos[axis], mv.AxisPoly(axis)
	}
	return ConvolveChain(m, t-sm.H, t+sm.H, t, sm.Poly(), sm.Hsq, curveAt)
}
