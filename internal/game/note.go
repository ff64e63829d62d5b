package game

import (
	"time"
)

type NoteState int

const (
	StatePending NoteState = iota
	StateHit
	StateMissed
)

// Note is one judged instant of the beat grid. A note leaves StatePending
// exactly once, into StateHit via a matched onset or StateMissed via the
// miss grace rule.
type Note struct {
	Index int
	Time  time.Duration // scheduled time relative to grid start

	// This is state
	State   NoteState
	Offset  time.Duration // signed onset error, only valid once hit
	Quality Quality
	Score   int

	missArmedAt time.Duration
	missArmed   bool
}

func (n *Note) Resolved() bool {
	return n.State != StatePending
}

// Hit resolves the note. It reports false if the note already left
// StatePending.
func (n *Note) Hit(offset time.Duration, quality Quality, score int) bool {
	if n.State != StatePending {
		return false
	}
	n.State = StateHit
	n.Offset = offset
	n.Quality = quality
	n.Score = score
	return true
}

// Miss resolves the note as missed. It reports false if the note already
// left StatePending.
func (n *Note) Miss() bool {
	if n.State != StatePending {
		return false
	}
	n.State = StateMissed
	n.Quality = Miss
	return true
}

// ArmMiss starts the miss grace period. Arming twice keeps the first
// deadline.
func (n *Note) ArmMiss(at time.Duration) {
	if n.missArmed {
		return
	}
	n.missArmed = true
	n.missArmedAt = at
}

func (n *Note) MissArmedAt() (time.Duration, bool) {
	return n.missArmedAt, n.missArmed
}
