// Extruder stepper position solver - port of klippy/chelper/kin_extruder.c
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

// Package extruder computes the exact stepper position an extruder must hit
// at any queried instant, compensating for filament compliance with a
// time-smoothed, possibly non-linear function of local extrusion velocity.
//
// Without pressure advance, the extruder stepper position is the nominal
// kinematic position of the queued move. With pressure advance enabled, the
// instantaneous extrusion velocity is averaged over a symmetric triangle-
// weighted window:
//
//	smooth_velocity(t) = (
//	    definitive_integral(velocity(x) * (smooth_time/2 - abs(t-x)) * dx,
//	                        from=t-smooth_time/2, to=t+smooth_time/2)
//	    / ((smooth_time/2)**2))
//
// and the compensation model maps that velocity to a position adjustment.
// All integrals are evaluated from closed analytic antiderivatives of the
// quadratic motion formula, so every query is deterministic and bounded.
package extruder

import (
	"klipper-motion-core/pkg/errors"
	"klipper-motion-core/pkg/itersolve"
	"klipper-motion-core/pkg/trapq"
)

// MaxParams is the static budget for retained pressure-advance parameter
// records. Exceeding it is fatal to the caller; pruning against the flush
// horizon keeps a healthy history far below this.
const MaxParams = 64

// Params is one pressure-advance configuration, effective from
// ActivePrintTime until superseded.
type Params struct {
	Model           Model
	Advance         float64 // linear gain
	Offset          float64 // saturation scale for non-linear models
	RefVelocity     float64 // velocity normalization; never zero
	ActivePrintTime float64
}

// Stepper is the per-extruder-stepper context: the parameter history and
// smoothing window state read by the position solver and mutated only by
// SetPressureAdvance. It embeds the shared kinematics context.
type Stepper struct {
	*itersolve.Kinematics

	params             []Params
	halfSmoothTime     float64
	invHalfSmoothTime2 float64
}

// NewStepper allocates an extruder stepper context with pressure advance
// disabled and a single default linear zero-gain record.
func NewStepper() *Stepper {
	es := &Stepper{
		params: []Params{{Model: ModelLinear, RefVelocity: 1.0}},
	}
	es.Kinematics = itersolve.New(es)
	return es
}

// Free releases the parameter history. The context must not be queried
// afterwards; that discipline is the caller's, as with every stepper
// kinematics teardown.
func (es *Stepper) Free() {
	es.params = nil
}

// SmoothTime returns the currently configured smoothing window duration.
func (es *Stepper) SmoothTime() float64 {
	return 2 * es.halfSmoothTime
}

// History returns a copy of the retained parameter records, oldest first.
func (es *Stepper) History() []Params {
	out := make([]Params, len(es.params))
	copy(out, es.params)
	return out
}

// integrate computes the definitive integral of the motion formula
// position(t) = base + t * (start_v + t * half_accel) over [start, end].
func integrate(base, startV, halfAccel, start, end float64) float64 {
	halfV := 0.5 * startV
	sixthA := (1.0 / 3.0) * halfAccel
	si := start * (base + start*(halfV+start*sixthA))
	ei := end * (base + end*(halfV+end*sixthA))
	return ei - si
}

// integrateTime computes the definitive integral of the time-weighted
// position t * (base + t * (start_v + t * half_accel)) over [start, end].
func integrateTime(base, startV, halfAccel, start, end float64) float64 {
	halfB := 0.5 * base
	thirdV := (1.0 / 3.0) * startV
	eighthA := 0.25 * halfAccel
	si := start * start * (halfB + start*(thirdV+start*eighthA))
	ei := end * end * (halfB + end*(thirdV+end*eighthA))
	return ei - si
}

// moveVelocityIntegrate computes the triangle-weighted velocity integral of
// one move over [start, end] in the move's local time, with the weight apex
// at timeOffset. A move whose extrusion-axis ratio is zero contributes no
// velocity to the window.
func moveVelocityIntegrate(m *trapq.Move, start, end, timeOffset float64) float64 {
	if m.AxesR.Y == 0 {
		return 0
	}
	if start < 0 {
		start = 0
	}
	if end > m.MoveT {
		end = m.MoveT
	}
	// velocity(t) = start_v + 2 * half_accel * t, integrated plainly and
	// time-weighted through the same quadratic antiderivatives.
	ivel := integrate(m.StartV, 2*m.HalfAccel, 0, start, end)
	wgtVel := integrateTime(m.StartV, 2*m.HalfAccel, 0, start, end)
	return wgtVel - timeOffset*ivel
}

// velocityRangeIntegrate accumulates the weighted velocity integral over
// [moveTime-hst, moveTime+hst], walking to neighbor moves when the window
// spills past the queried move. The walk is bounded by the window size
// relative to segment durations; moves beyond either end of the queue
// contribute zero velocity.
func velocityRangeIntegrate(q *trapq.TrapQ, h trapq.MoveHandle,
	moveTime, hst float64) float64 {
	m := q.Move(h)
	start, end := moveTime-hst, moveTime+hst
	res := moveVelocityIntegrate(m, start, moveTime, start)
	res -= moveVelocityIntegrate(m, moveTime, end, end)

	// Earlier moves covered by the leading half of the window.
	ph := h
	for start < 0 {
		prev, ok := q.Prev(ph)
		if !ok {
			break
		}
		ph = prev
		pm := q.Move(ph)
		start += pm.MoveT
		res += moveVelocityIntegrate(pm, start, pm.MoveT, start)
	}

	// Later moves covered by the trailing half.
	nh := h
	for end > m.MoveT {
		end -= m.MoveT
		next, ok := q.Next(nh)
		if !ok {
			break
		}
		nh = next
		m = q.Move(nh)
		res -= moveVelocityIntegrate(m, 0, end, end)
	}
	return res
}

// activeParams selects the newest parameter record whose effective time is
// at or before the move's print time. If every record is newer, the oldest
// retained record applies.
func (es *Stepper) activeParams(printTime float64) *Params {
	for i := len(es.params) - 1; i > 0; i-- {
		if es.params[i].ActivePrintTime <= printTime {
			return &es.params[i]
		}
	}
	return &es.params[0]
}

// CalcPosition returns the compensated stepper position moveTime seconds
// into the queued move. It is pure per call: no state is mutated and no
// error can surface; numeric degeneracies degrade to zero compensation.
func (es *Stepper) CalcPosition(q *trapq.TrapQ, h trapq.MoveHandle,
	moveTime float64) float64 {
	m := q.Move(h)
	basePos := m.StartPos.X + trapq.MoveDistance(m, moveTime)

	hst := es.halfSmoothTime
	if hst == 0 {
		// Pressure advance not enabled
		return basePos
	}

	pa := es.activeParams(m.PrintTime)
	if pa.Advance == 0 && pa.Offset == 0 {
		return basePos
	}

	velocity := velocityRangeIntegrate(q, h, moveTime, hst) * es.invHalfSmoothTime2

	var adj float64
	if pa.Model == ModelLinear {
		if isFinite(velocity) {
			adj = pa.Advance * velocity
		}
	} else {
		adj = nonlinearAdvance(pa.Model, pa.Offset, pa.RefVelocity, velocity)
	}
	return basePos + adj
}

// SetPressureAdvance applies a new pressure-advance configuration effective
// from printTime. The smoothing window change takes effect for all
// subsequent queries immediately; parameter records are pruned against the
// flush horizon and deduplicated against the current tail.
//
// Precondition: calls arrive in non-decreasing printTime order. This is the
// command stream's ordering guarantee and is not checked here.
func (es *Stepper) SetPressureAdvance(printTime, advance, smoothTime float64,
	model Model, offset, refVelocity float64) error {
	hst := 0.5 * smoothTime
	oldHst := es.halfSmoothTime
	es.halfSmoothTime = hst
	es.GenStepsPreActive = hst
	es.GenStepsPostActive = hst

	// Drop records no smoothing query can still reach. The horizon backs
	// off by the larger of the old and new half windows so in-flight step
	// generation keeps the records it started with.
	if lft := es.LastFlushTime; lft > 0 {
		keep := oldHst
		if hst > keep {
			keep = hst
		}
		cleanupTime := lft - keep
		for len(es.params) > 1 && es.params[1].ActivePrintTime < cleanupTime {
			es.params = es.params[1:]
		}
	}

	if hst == 0 {
		// Compensation disabled going forward; retained history stays
		// until pruned.
		return nil
	}
	es.invHalfSmoothTime2 = 1.0 / (hst * hst)

	if refVelocity == 0 {
		refVelocity = 1.0
	}

	last := &es.params[len(es.params)-1]
	if last.Advance == advance && last.Model == model &&
		last.Offset == offset && last.RefVelocity == refVelocity {
		return nil
	}

	if len(es.params) >= MaxParams {
		return errors.HistoryCapacityError(MaxParams)
	}
	es.params = append(es.params, Params{
		Model:           model,
		Advance:         advance,
		Offset:          offset,
		RefVelocity:     refVelocity,
		ActivePrintTime: printTime,
	})
	return nil
}
