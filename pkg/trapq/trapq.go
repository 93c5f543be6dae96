// Trapezoidal velocity move queue - port of klippy/chelper/trapq.c
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

// Package trapq implements the planner-facing move queue: an ordered,
// navigable sequence of constant-acceleration motion segments. The queue is
// arena backed; moves are addressed by stable handles that survive head
// pruning, and position solvers navigate neighbors through read-only
// Prev/Next accessors without ever owning a segment.
package trapq

// Coord is a position or axis-ratio triple. On an extruder queue, X carries
// the extruder position and a non-zero Y marks segments where pressure
// advance may act.
type Coord struct {
	X, Y, Z float64
}

// Move is one constant-acceleration motion segment. Moves are immutable
// once appended; the solver reads them in place.
type Move struct {
	PrintTime float64 // absolute start time of this segment
	MoveT     float64 // segment duration
	StartV    float64 // velocity along the path at segment start
	HalfAccel float64 // half the constant acceleration
	StartPos  Coord   // position at segment start
	AxesR     Coord   // per-axis direction ratios
}

// MoveHandle addresses a move in a TrapQ. Handles are sequence numbers:
// they stay valid across head pruning and never alias a different move.
type MoveHandle int64

// TrapQ owns the arena of queued moves.
type TrapQ struct {
	moves []Move
	base  MoveHandle // handle of moves[0]
}

// New creates an empty move queue.
func New() *TrapQ {
	return &TrapQ{}
}

// Len returns the number of retained moves.
func (tq *TrapQ) Len() int {
	return len(tq.moves)
}

// First returns the handle of the oldest retained move.
func (tq *TrapQ) First() (MoveHandle, bool) {
	if len(tq.moves) == 0 {
		return 0, false
	}
	return tq.base, true
}

// Last returns the handle of the newest move.
func (tq *TrapQ) Last() (MoveHandle, bool) {
	if len(tq.moves) == 0 {
		return 0, false
	}
	return tq.base + MoveHandle(len(tq.moves)-1), true
}

// Move returns the move for a handle, or nil if the handle is out of range
// (pruned or never appended). The returned move must not be modified.
func (tq *TrapQ) Move(h MoveHandle) *Move {
	i := int(h - tq.base)
	if i < 0 || i >= len(tq.moves) {
		return nil
	}
	return &tq.moves[i]
}

// Prev returns the handle of the move before h.
func (tq *TrapQ) Prev(h MoveHandle) (MoveHandle, bool) {
	if h <= tq.base || tq.Move(h) == nil {
		return 0, false
	}
	return h - 1, true
}

// Next returns the handle of the move after h.
func (tq *TrapQ) Next(h MoveHandle) (MoveHandle, bool) {
	if tq.Move(h) == nil || tq.Move(h+1) == nil {
		return 0, false
	}
	return h + 1, true
}

// MoveDistance returns the distance traveled along the path moveTime
// seconds into a move.
func MoveDistance(m *Move, moveTime float64) float64 {
	return moveTime * (m.StartV + moveTime*m.HalfAccel)
}

// MoveCoord returns the axis position moveTime seconds into a move.
func MoveCoord(m *Move, moveTime float64) Coord {
	d := MoveDistance(m, moveTime)
	return Coord{
		X: m.StartPos.X + m.AxesR.X*d,
		Y: m.StartPos.Y + m.AxesR.Y*d,
		Z: m.StartPos.Z + m.AxesR.Z*d,
	}
}

func (tq *TrapQ) push(m Move) {
	tq.moves = append(tq.moves, m)
}

// Append adds a trapezoidal velocity move to the queue. The trapezoid is
// split into up to three constant-acceleration segments (accelerate,
// cruise, decelerate); zero-duration phases are skipped.
func (tq *TrapQ) Append(printTime, accelT, cruiseT, decelT float64,
	start, axesR Coord, startV, cruiseV, accel float64) {
	if accelT > 0 {
		m := Move{
			PrintTime: printTime,
			MoveT:     accelT,
			StartV:    startV,
			HalfAccel: 0.5 * accel,
			StartPos:  start,
			AxesR:     axesR,
		}
		tq.push(m)
		printTime += accelT
		start = MoveCoord(&m, accelT)
	}
	if cruiseT > 0 {
		m := Move{
			PrintTime: printTime,
			MoveT:     cruiseT,
			StartV:    cruiseV,
			HalfAccel: 0,
			StartPos:  start,
			AxesR:     axesR,
		}
		tq.push(m)
		printTime += cruiseT
		start = MoveCoord(&m, cruiseT)
	}
	if decelT > 0 {
		tq.push(Move{
			PrintTime: printTime,
			MoveT:     decelT,
			StartV:    cruiseV,
			HalfAccel: -0.5 * accel,
			StartPos:  start,
			AxesR:     axesR,
		})
	}
}

// SetPosition forces the queue position. Moves at or after printTime are
// dropped and a zero-duration marker move records the new position, so that
// neighbor navigation across the reset stays well defined.
func (tq *TrapQ) SetPosition(printTime float64, pos Coord) {
	n := len(tq.moves)
	for n > 0 && tq.moves[n-1].PrintTime >= printTime {
		n--
	}
	tq.moves = tq.moves[:n]
	tq.push(Move{
		PrintTime: printTime,
		MoveT:     0,
		StartPos:  pos,
		AxesR:     Coord{},
	})
}

// FinalizeMoves expires moves that completed before freeTime and prunes the
// expired history older than clearHistoryTime from the head of the arena.
// Handles of retained moves remain valid.
func (tq *TrapQ) FinalizeMoves(freeTime, clearHistoryTime float64) {
	limit := clearHistoryTime
	if freeTime < limit {
		limit = freeTime
	}
	drop := 0
	for drop < len(tq.moves) {
		m := &tq.moves[drop]
		if m.PrintTime+m.MoveT > limit {
			break
		}
		drop++
	}
	if drop == 0 {
		return
	}
	tq.moves = append(tq.moves[:0:0], tq.moves[drop:]...)
	tq.base += MoveHandle(drop)
}
