// Brute-force reference integration used to cross-check the closed-form
// smoothed velocity solver.
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package extruder

import (
	gonumintegrate "gonum.org/v1/gonum/integrate"

	"klipper-motion-core/pkg/trapq"
)

// refSamples is the per-subinterval sample count for the numeric
// integration. Must be odd so Simpson's rule sees an even pane count.
const refSamples = 2001

// refSmoothedVelocity numerically integrates the triangle-weighted
// instantaneous extrusion velocity over [absTime-hst, absTime+hst] and
// normalizes by hst^2. The integrand is sampled densely per move (it is a
// smooth cubic inside one move) and each piece is additionally split at the
// weight apex, so composite Simpson integration is exact up to rounding.
func refSmoothedVelocity(q *trapq.TrapQ, absTime, hst float64) float64 {
	winStart, winEnd := absTime-hst, absTime+hst
	total := 0.0
	h, ok := q.First()
	for ok {
		m := q.Move(h)
		lo := m.PrintTime
		hi := m.PrintTime + m.MoveT
		if lo < winStart {
			lo = winStart
		}
		if hi > winEnd {
			hi = winEnd
		}
		if hi > lo && m.AxesR.Y != 0 {
			if absTime > lo && absTime < hi {
				total += refIntegrate(m, lo, absTime, absTime, hst)
				total += refIntegrate(m, absTime, hi, absTime, hst)
			} else {
				total += refIntegrate(m, lo, hi, absTime, hst)
			}
		}
		h, ok = q.Next(h)
	}
	return total / (hst * hst)
}

// refIntegrate integrates velocity(x) * (hst - |absTime - x|) over the
// absolute-time interval [lo, hi] of a single move.
func refIntegrate(m *trapq.Move, lo, hi, absTime, hst float64) float64 {
	xs := make([]float64, refSamples)
	fs := make([]float64, refSamples)
	step := (hi - lo) / float64(refSamples-1)
	for i := range xs {
		x := lo + float64(i)*step
		if i == refSamples-1 {
			x = hi
		}
		local := x - m.PrintTime
		v := m.StartV + 2*m.HalfAccel*local
		w := hst - abs(absTime-x)
		xs[i] = x
		fs[i] = v * w
	}
	return gonumintegrate.Simpsons(xs, fs)
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
