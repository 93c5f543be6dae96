// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package itersolve

import (
	"testing"

	"klipper-motion-core/pkg/trapq"
)

// doubler is a trivial solver for testing the context plumbing.
type doubler struct{}

func (doubler) CalcPosition(q *trapq.TrapQ, h trapq.MoveHandle, moveTime float64) float64 {
	m := q.Move(h)
	return 2 * (m.StartPos.X + trapq.MoveDistance(m, moveTime))
}

func TestNoteFlushTimeMonotonic(t *testing.T) {
	k := New(doubler{})
	k.NoteFlushTime(1.5)
	k.NoteFlushTime(1.0)
	if k.LastFlushTime != 1.5 {
		t.Errorf("LastFlushTime = %v, want 1.5", k.LastFlushTime)
	}
	k.NoteFlushTime(2.0)
	if k.LastFlushTime != 2.0 {
		t.Errorf("LastFlushTime = %v, want 2.0", k.LastFlushTime)
	}
}

func TestCalcPositionDelegates(t *testing.T) {
	tq := trapq.New()
	tq.Append(0, 0, 1, 0, trapq.Coord{X: 3}, trapq.Coord{X: 1}, 4, 4, 0)

	k := New(doubler{})
	k.SetTrapQ(tq, 0.0125)
	if k.TrapQ() != tq {
		t.Fatal("TrapQ not attached")
	}
	if k.StepDist() != 0.0125 {
		t.Errorf("StepDist = %v", k.StepDist())
	}

	h, _ := tq.First()
	if got := k.CalcPosition(h, 0.5); got != 2*(3+2) {
		t.Errorf("CalcPosition = %v, want 10", got)
	}
}

func TestCommandedPos(t *testing.T) {
	k := New(doubler{})
	k.SetCommandedPos(12.5)
	if k.CommandedPos() != 12.5 {
		t.Errorf("CommandedPos = %v", k.CommandedPos())
	}
}
