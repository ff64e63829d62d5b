package session

import (
	"pocket/internal/beat"
	"pocket/internal/game"
)

type EventKind int

const (
	EventPhase EventKind = iota
	EventBeat
	EventNote
	EventScore
)

// Event is a state-change notification for the presentation layer. Note
// carries a copy so the view never touches live session state.
type Event struct {
	Kind EventKind

	Phase Phase
	Beat  beat.Beat
	Note  game.Note

	Score      int
	Streak     int
	BestStreak int
	Multiplier float64
}
