package game

import (
	"time"
)

// Windows are the judgement bounds for one session.
type Windows struct {
	Perfect   time.Duration
	Good      time.Duration
	Detection time.Duration
}

// NewWindows derives the detection window from the beat length:
// min(beatDuration/2, good*1.5). It bounds how far from a beat an onset
// or a miss can be attributed.
func NewWindows(perfect, good, beatDuration time.Duration) Windows {
	detection := good + good/2
	if half := beatDuration / 2; half < detection {
		detection = half
	}
	return Windows{Perfect: perfect, Good: good, Detection: detection}
}
