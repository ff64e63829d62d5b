package game

import (
	"time"
)

// Hit is one entry of the session hit log, one per resolved note in note
// order. Missed notes carry no offset.
type Hit struct {
	NoteIndex int
	Offset    time.Duration
	Missed    bool
	Quality   Quality
	Score     int
}
