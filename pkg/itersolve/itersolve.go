// Stepper kinematics context - port of klippy/chelper/itersolve.c state
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

// Package itersolve holds the per-stepper kinematics context shared by
// position solvers: the attached move queue, commanded position and flush
// bookkeeping. The step-pulse scheduler that repeatedly queries a solver
// lives outside this module; it interacts with the context only through
// these accessors.
package itersolve

import "klipper-motion-core/pkg/trapq"

// PositionSolver maps a move and a query time (relative to the move start)
// to the stepper position the pulse generator must hit. Implementations
// must be pure with respect to the queue: they navigate it read-only and
// never retain segments.
type PositionSolver interface {
	CalcPosition(q *trapq.TrapQ, h trapq.MoveHandle, moveTime float64) float64
}

// Kinematics is the per-stepper context owned by the kinematics subsystem.
// It has exactly one external mutator (the scheduler via NoteFlushTime and
// SetCommandedPos); solvers only read it.
type Kinematics struct {
	queue        *trapq.TrapQ
	stepDist     float64
	commandedPos float64

	// LastFlushTime is the print time up to which steps have been
	// generated. Lifecycle pruning uses it as the reachability horizon.
	LastFlushTime float64

	// GenStepsPreActive and GenStepsPostActive report how far before and
	// after a move the solver still needs queue context (the smoothing
	// half window for an extruder).
	GenStepsPreActive  float64
	GenStepsPostActive float64

	solver PositionSolver
}

// New creates a kinematics context driving the given solver.
func New(solver PositionSolver) *Kinematics {
	return &Kinematics{solver: solver}
}

// SetTrapQ attaches a move queue and the distance of a single step.
func (k *Kinematics) SetTrapQ(q *trapq.TrapQ, stepDist float64) {
	k.queue = q
	k.stepDist = stepDist
}

// TrapQ returns the attached move queue, or nil.
func (k *Kinematics) TrapQ() *trapq.TrapQ {
	return k.queue
}

// StepDist returns the distance of a single step.
func (k *Kinematics) StepDist() float64 {
	return k.stepDist
}

// SetCommandedPos records the most recently commanded stepper position.
func (k *Kinematics) SetCommandedPos(pos float64) {
	k.commandedPos = pos
}

// CommandedPos returns the most recently commanded stepper position.
func (k *Kinematics) CommandedPos() float64 {
	return k.commandedPos
}

// NoteFlushTime advances LastFlushTime; earlier times are ignored.
func (k *Kinematics) NoteFlushTime(t float64) {
	if t > k.LastFlushTime {
		k.LastFlushTime = t
	}
}

// CalcPosition queries the attached solver against the attached queue.
func (k *Kinematics) CalcPosition(h trapq.MoveHandle, moveTime float64) float64 {
	return k.solver.CalcPosition(k.queue, h, moveTime)
}
