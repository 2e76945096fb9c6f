// Package axiskin adapts the windowed convolver into a
// stepper-kinematics forward-position query, maintaining independent
// smoother kernels for the X and Y axes.
//
// Grounded on smooth_axis_alloc/smooth_axis_set_params/
// smooth_x_calc_position/smooth_y_calc_position/smooth_xy_calc_position/
// smooth_axis_get_half_smooth_time/smooth_axis_set_sk in
// original_source/klippy/chelper/kin_smooth_axis.c, and on
// smooth_axis.py's SetParams call shape for axis naming. Per the
// spec's design note (§9) and DESIGN.md's Open Question decision,
// the DUMMY_T scratch-move trick is dropped in favor of a genuine
// two-method inner-kinematics interface.
package axiskin

import (
	"github.com/nonanon1/klipper-smoothcore/pkg/errors"
	"github.com/nonanon1/klipper-smoothcore/pkg/log"
	"github.com/nonanon1/klipper-smoothcore/pkg/smoother"
	"github.com/nonanon1/klipper-smoothcore/pkg/trapq"
)

var logger = log.GetLogger("axiskin")

// AxisFlags records which Cartesian axes an inner kinematics consumes.
type AxisFlags uint8

const (
	FlagX AxisFlags = 1 << 0
	FlagY AxisFlags = 1 << 1
	FlagZ AxisFlags = 1 << 2
)

func (f AxisFlags) HasX() bool { return f&FlagX != 0 }
func (f AxisFlags) HasY() bool { return f&FlagY != 0 }

// wrapAxisKernelErr adds which axis a kernel construction failure came
// from, preserving the underlying error's code for callers that
// switch on it via errors.Is.
func wrapAxisKernelErr(axis string, err error) error {
	he, ok := err.(*errors.HostError)
	if !ok {
		return err
	}
	return errors.Wrap(he, he.Code, "axis "+axis+": "+he.Message)
}

// InnerKinematics is the underlying forward-kinematics callback the
// wrapper smooths ahead of. It exposes the two calling conventions
// spec §9 identifies in the original scratch-move pattern:
//
//   - CalcPosition evaluates the move at a genuine local time (used
//     directly when no smoother is configured for an axis this
//     kinematics consumes).
//   - PositionFromStart reads only the position vector, ignoring
//     time entirely (used when a smoother is active: the wrapper has
//     already folded the windowed convolution result into pos).
type InnerKinematics interface {
	AxisFlags() AxisFlags
	CalcPosition(m *trapq.Move, t float64) float64
	PositionFromStart(pos [3]float64) float64
}

type dispatchVariant int

const (
	dispatchNone dispatchVariant = iota
	dispatchX
	dispatchY
	dispatchXY
)

// Handle is a kinematics handle owning zero, one, or two smoother
// kernels (X, Y) and a reference to the inner kinematics callback.
type Handle struct {
	kernelX, kernelY *smoother.Kernel
	inner            InnerKinematics
	variant          dispatchVariant
	preMargin        float64
	postMargin       float64
}

// New returns a handle with both axes un-smoothed.
func New() *Handle {
	return &Handle{}
}

// SetSK records the inner forward-kinematics callback and selects a
// dispatch variant based on which axes it consumes. Returns an error
// if inner uses neither X nor Y (spec §4.5's failure mode); the
// handle is left in its prior valid state.
func (h *Handle) SetSK(inner InnerKinematics) error {
	flags := inner.AxisFlags()
	var variant dispatchVariant
	switch {
	case flags.HasX() && flags.HasY():
		variant = dispatchXY
	case flags.HasX():
		variant = dispatchX
	case flags.HasY():
		variant = dispatchY
	default:
		return errors.AxisNoUsableFlagsError()
	}
	h.inner = inner
	h.variant = variant
	logger.WithFields(log.Fields{"flags": flags}).Info("inner kinematics bound")
	return nil
}

// SetParams replaces each axis kernel (or clears it when f=0) and
// recomputes the pre/post active margins as the max of each active
// axis's half-smooth-time. famX/famY name the catalog family for
// each axis (an additive extension of the illustrative external
// interface — see DESIGN.md).
func (h *Handle) SetParams(famX string, fx, zetaX float64, famY string, fy, zetaY float64) error {
	var kx, ky *smoother.Kernel
	if fx != 0 {
		k, err := smoother.New(famX, fx, zetaX)
		if err != nil {
			return wrapAxisKernelErr("x", err)
		}
		kx = k
	}
	if fy != 0 {
		k, err := smoother.New(famY, fy, zetaY)
		if err != nil {
			return wrapAxisKernelErr("y", err)
		}
		ky = k
	}
	h.kernelX, h.kernelY = kx, ky
	h.preMargin, h.postMargin = h.activeMargin(), h.activeMargin()
	logger.WithFields(log.Fields{"fam_x": famX, "f_x": fx, "fam_y": famY, "f_y": fy}).Info("axis smoother params updated")
	return nil
}

func (h *Handle) activeMargin() float64 {
	var flags AxisFlags
	if h.inner != nil {
		flags = h.inner.AxisFlags()
	} else {
		flags = FlagX | FlagY
	}
	var m float64
	if flags.HasX() && h.kernelX != nil && h.kernelX.H > m {
		m = h.kernelX.H
	}
	if flags.HasY() && h.kernelY != nil && h.kernelY.H > m {
		m = h.kernelY.H
	}
	return m
}

// PreActiveMargin and PostActiveMargin are the scan-ahead/scan-behind
// margins the solver must keep moves available for.
func (h *Handle) PreActiveMargin() float64  { return h.preMargin }
func (h *Handle) PostActiveMargin() float64 { return h.postMargin }

// CalcPosition is the hot-path forward-position query. If no
// applicable smoother is configured for the axis/axes this
// kinematics actually uses, it delegates directly to the inner
// kinematics with the real move and time. Otherwise it computes the
// smoothed position for each active axis via RangeIntegrate and
// passes the result through PositionFromStart.
func (h *Handle) CalcPosition(m *trapq.Move, t float64) (result float64) {
	defer func() {
		if r := recover(); r != nil {
			logger.WithFields(log.Fields{"error": r, "t": t}).Error("recovered panic in CalcPosition")
			result = 0
		}
	}()
	if h.inner == nil {
		return 0
	}
	switch h.variant {
	case dispatchX:
		if h.kernelX == nil {
			return h.inner.CalcPosition(m, t)
		}
		pos := m.StartPos
		pos[trapq.AxisX] = smoother.RangeIntegrate(m, trapq.AxisX, t, h.kernelX)
		return h.inner.PositionFromStart(pos)
	case dispatchY:
		if h.kernelY == nil {
			return h.inner.CalcPosition(m, t)
		}
		pos := m.StartPos
		pos[trapq.AxisY] = smoother.RangeIntegrate(m, trapq.AxisY, t, h.kernelY)
		return h.inner.PositionFromStart(pos)
	case dispatchXY:
		if h.kernelX == nil && h.kernelY == nil {
			return h.inner.CalcPosition(m, t)
		}
		pos := m.StartPos
		if h.kernelX != nil {
			pos[trapq.AxisX] = smoother.RangeIntegrate(m, trapq.AxisX, t, h.kernelX)
		}
		if h.kernelY != nil {
			pos[trapq.AxisY] = smoother.RangeIntegrate(m, trapq.AxisY, t, h.kernelY)
		}
		return h.inner.PositionFromStart(pos)
	default:
		return 0
	}
}

// GetHalfSmoothTime exposes h for planner margin calculations
// without mutating any handle (spec §6's get_axis_half_smooth_time).
func GetHalfSmoothTime(family string, f, zeta float64) (float64, error) {
	return smoother.HalfSmoothTime(family, f, zeta)
}
