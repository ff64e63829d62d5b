package game

import (
	"time"
)

// BeatGrid is the immutable beat-time sequence for one session, relative
// to grid start.
type BeatGrid struct {
	beats []time.Duration
}

// GridFromMillis converts wire beat times (ms offsets) into a grid.
func GridFromMillis(ms []float64) *BeatGrid {
	beats := make([]time.Duration, len(ms))
	for i, m := range ms {
		beats[i] = time.Duration(m * float64(time.Millisecond))
	}
	return &BeatGrid{beats: beats}
}

func (g *BeatGrid) Len() int {
	return len(g.beats)
}

func (g *BeatGrid) Beat(i int) time.Duration {
	return g.beats[i]
}

// Notes builds one pending note per grid entry.
func (g *BeatGrid) Notes() []*Note {
	notes := make([]*Note, len(g.beats))
	for i, t := range g.beats {
		notes[i] = &Note{Index: i, Time: t}
	}
	return notes
}
