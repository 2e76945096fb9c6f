// Package padvance adapts the windowed convolver into the extruder's
// pressure-advance position query, owning the extruder's own private
// trapezoid queue.
//
// Grounded on extruder_set_smooth_time/extruder_add_move/
// extruder_calc_position/pa_range_integrate in
// original_source/klippy/chelper/kin_extruder.c, restated in spec
// §4.6. The pressure-advance factor is carried on each queued move as
// a dedicated field rather than by overloading trapq.Move's AxesR[Y]
// (the generic axis-smoothing slot) — this package documents its own
// convention instead of folding it into trapq's.
package padvance

import (
	"github.com/nonanon1/klipper-smoothcore/pkg/errors"
	"github.com/nonanon1/klipper-smoothcore/pkg/log"
	"github.com/nonanon1/klipper-smoothcore/pkg/scurve"
	"github.com/nonanon1/klipper-smoothcore/pkg/smoother"
	"github.com/nonanon1/klipper-smoothcore/pkg/trapq"
)

var logger = log.GetLogger("padvance")

// Move is one piecewise-polynomial segment of the extruder's own
// scalar position queue. Curve is already scaled by extrude_r at
// AddMove time (unlike trapq.Move, which defers direction-ratio
// scaling to query time): the extruder has only one effective axis,
// so there is no per-axis projection to defer.
type Move struct {
	// MoveT is the segment's duration in seconds.
	MoveT float64

	// StartPos is the extruder position at local time 0.
	StartPos float64

	// PressureAdvance is this segment's alpha. Zero disables the
	// pressure-advance contribution of this segment; a query anchored
	// on a segment whose PressureAdvance is zero returns the
	// unsmoothed position (see CalcPosition).
	PressureAdvance float64

	// EffectiveStartTime is the de-skewed print_time this segment was
	// enqueued at (spec §8 testable property 8); not used by
	// CalcPosition, recorded for the producer/planner to read back.
	EffectiveStartTime float64

	// Curve is the extrude_r-scaled progress polynomial.
	Curve scurve.Poly

	prev, next *Move
}

// Prev returns the previous move in the queue, or nil if m is the head.
func (m *Move) Prev() *Move { return m.prev }

// Next returns the next move in the queue, or nil if m is the tail.
func (m *Move) Next() *Move { return m.next }

// Queue is the extruder's private doubly-linked trapezoid queue,
// distinct from the axis trapq.Queue — grounded on kin_extruder.c's
// extruder_trapq wrapping its own struct trapq rather than sharing the
// toolhead's.
type Queue struct {
	head, tail *Move
}

// NewQueue returns an empty extruder move queue.
func NewQueue() *Queue { return &Queue{} }

// Append links m onto the tail of the queue.
func (q *Queue) Append(m *Move) {
	m.prev = q.tail
	m.next = nil
	if q.tail != nil {
		q.tail.next = m
	}
	q.tail = m
	if q.head == nil {
		q.head = m
	}
}

// Head returns the first move in the queue, or nil if empty.
func (q *Queue) Head() *Move { return q.head }

// Tail returns the last move in the queue, or nil if empty.
func (q *Queue) Tail() *Move { return q.tail }

// Handle owns the extruder's smooth-time state: h, its precomputed
// square h², and the resulting pre/post active margins. There is
// no cross-query state beyond these parameters (spec §4.6's
// {disabled} ↔ {smoothing} state machine).
type Handle struct {
	smoothTime float64
	h          float64
	hsq        float64
	preMargin  float64
	postMargin float64
}

// New returns a handle in the disabled state (h = 0).
func New() *Handle { return &Handle{} }

// SetSmoothTime sets h = smoothTime/2, precomputes h², and updates
// the pre/post active margins. 1/h² is not stored; CalcPosition forms
// it from h² on each query. smoothTime = 0 returns the handle to
// the disabled state.
func (h *Handle) SetSmoothTime(smoothTime float64) error {
	if smoothTime < 0 {
		return errors.ExtruderBadSmoothTimeError(smoothTime)
	}
	h.smoothTime = smoothTime
	h.h = smoothTime / 2
	if h.h > 0 {
		h.hsq = h.h * h.h
	} else {
		h.hsq = 0
	}
	h.preMargin, h.postMargin = h.h, h.h
	logger.WithFields(log.Fields{"smooth_time": smoothTime, "h": h.h}).Info("extruder smooth time updated")
	return nil
}

// HalfSmoothTime returns h.
func (h *Handle) HalfSmoothTime() float64 { return h.h }

// PreActiveMargin and PostActiveMargin are the scan-ahead/scan-behind
// margins the solver must keep extruder moves available for.
func (h *Handle) PreActiveMargin() float64  { return h.preMargin }
func (h *Handle) PostActiveMargin() float64 { return h.postMargin }

// AddMove is the producer-side API: it de-skews and disables
// acceleration compensation on the extruder's own trapezoid (using
// accel_decel's uncompensated durations rather than its compensated
// ones, per spec §4.6/§8 property 8 and the original's
// `new_accel_decel.accel_comp = 0`), scales start_accel_v, cruise_v,
// effective_accel and effective_decel by extrude_r, and appends the
// resulting accel/cruise/decel segments to q.
func (h *Handle) AddMove(q *Queue, printTime, startEPos, extrudeR, pressureAdvance float64, ad trapq.AccelDecel) ([]*Move, error) {
	if extrudeR <= 0 {
		return nil, errors.AxisBadParamsError("extrude_r must be positive")
	}
	if pressureAdvance < 0 {
		return nil, errors.ExtruderBadPressureAdvError(pressureAdvance)
	}
	if ad.UncompAccelT < 0 || ad.CruiseT < 0 || ad.UncompDecelT < 0 {
		return nil, errors.ExtruderQueueUnderrunError("acceleration trapezoid has a negative segment duration")
	}

	moves := make([]*Move, 0, 3)
	pos := startEPos

	if ad.UncompAccelT > 0 {
		accel := &Move{
			MoveT:              ad.UncompAccelT,
			StartPos:           pos,
			PressureAdvance:    pressureAdvance,
			EffectiveStartTime: printTime + ad.UncompAccelOffsetT - ad.AccelOffsetT,
		}
		accel.Curve.C1 = ad.StartAccelV * extrudeR
		accel.Curve.C2 = ad.EffectiveAccel * extrudeR / 2
		q.Append(accel)
		moves = append(moves, accel)
		pos += accel.Curve.Eval(ad.UncompAccelT)
	}

	if ad.CruiseT > 0 {
		cruise := &Move{
			MoveT:              ad.CruiseT,
			StartPos:           pos,
			PressureAdvance:    pressureAdvance,
			EffectiveStartTime: printTime + ad.UncompAccelT,
		}
		cruise.Curve.C1 = ad.CruiseV * extrudeR
		q.Append(cruise)
		moves = append(moves, cruise)
		pos += cruise.Curve.Eval(ad.CruiseT)
	}

	if ad.UncompDecelT > 0 {
		decel := &Move{
			MoveT:              ad.UncompDecelT,
			StartPos:           pos,
			PressureAdvance:    pressureAdvance,
			EffectiveStartTime: printTime + ad.UncompAccelT + ad.CruiseT + ad.UncompDecelOffsetT - ad.DecelOffsetT,
		}
		decel.Curve.C1 = ad.CruiseV * extrudeR
		decel.Curve.C2 = ad.EffectiveDecel * extrudeR / 2
		q.Append(decel)
		moves = append(moves, decel)
	}

	if len(moves) == 0 {
		return nil, errors.ExtruderQueueUnderrunError("acceleration trapezoid has no segments with positive duration")
	}

	logger.WithFields(log.Fields{"print_time": printTime, "extrude_r": extrudeR, "pressure_advance": pressureAdvance}).
		Debug("extruder move enqueued")
	return moves, nil
}

// CalcPosition is the hot-path pressure-advance position query,
// convolving p_pa(x) = p_nom(x) + α·p_nom′(x) against a unit-area
// triangular window of half-width h, split at t into the two ramps
// spec §4.6 gives explicitly. When α or h is zero there is nothing for
// the window to smooth (the extruder's own position profile needs no
// resonance damping — only the pressure-advance derivative term does),
// so the wrapper falls back to start_pos + distance(t).
func (h *Handle) CalcPosition(m *Move, t float64) (result float64) {
	defer func() {
		if r := recover(); r != nil {
			logger.WithFields(log.Fields{"error": r, "t": t}).Error("recovered panic in CalcPosition")
			result = 0
		}
	}()
	if h.h == 0 || m.PressureAdvance == 0 {
		return m.StartPos + m.Curve.Eval(t)
	}

	invH := 1 / h.h

	curveAt := func(mv *Move) (float64, scurve.Poly) {
		s := mv.Curve
		if mv.PressureAdvance == 0 {
			return mv.StartPos, s
		}
		d := s.Diff()
		combined := scurve.Poly{
			C0: s.C0 + mv.PressureAdvance*d.C0,
			C1: s.C1 + mv.PressureAdvance*d.C1,
			C2: s.C2 + mv.PressureAdvance*d.C2,
			C3: s.C3 + mv.PressureAdvance*d.C3,
			C4: s.C4 + mv.PressureAdvance*d.C4,
			C5: s.C5 + mv.PressureAdvance*d.C5,
			C6: s.C6 + mv.PressureAdvance*d.C6,
		}
		return mv.StartPos, combined
	}

	invHsq := 1 / h.hsq
	rampLeft := scurve.Poly{C0: invH, C1: invHsq}   // (u+h)/h^2,  u = x-t in [-h,0]
	rampRight := scurve.Poly{C0: invH, C1: -invHsq} // (h-u)/h^2, u = x-t in [0,h]

	backward := convolveChain(m, t-h.h, t, t, rampLeft, h.hsq, curveAt)
	forward := convolveChain(m, t, t+h.h, t, rampRight, h.hsq, curveAt)
	return backward + forward
}

// convolveChain adapts pkg/smoother's move-chain walk to padvance's
// Move/Queue types, which are distinct from trapq.Move/Queue (the
// extruder owns its own private queue).
func convolveChain(m *Move, wStart, wEnd, center float64, weight scurve.Poly, hsq float64, curveAt func(*Move) (float64, scurve.Poly)) float64 {
	toff := -center

	curStart, curEnd := wStart, wEnd
	if curStart < 0 {
		curStart = 0
	}
	if curEnd > m.MoveT {
		curEnd = m.MoveT
	}
	p0, s := curveAt(m)
	total := smoother.IntegrateWeightedPoly(weight, hsq, p0, s, curStart, curEnd, toff)

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
		total += smoother.IntegrateWeightedPoly(weight, hsq, p0, s, bStart, prev.MoveT, bToff)
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
		total += smoother.IntegrateWeightedPoly(weight, hsq, p0, s, 0, fEnd, fToff)
	}

	return total
}
