package onset

import (
	"time"
)

const (
	minThreshold       = 15.0
	maxThreshold       = 80.0
	minTriggerInterval = 200 * time.Millisecond
)

// Gate is a hysteretic trigger over the volume stream. An onset fires on
// a rising crossing of threshold while the gate is untriggered; the gate
// only rearms once volume falls below releaseThreshold, so a single
// pluck's sustain cannot retrigger.
type Gate struct {
	threshold        float64
	releaseThreshold float64
	noiseFloor       float64
	triggered        bool
	lastTrigger      time.Time
}

func NewGate(threshold float64) *Gate {
	g := &Gate{}
	g.SetThreshold(threshold)
	return g
}

// SetThreshold clamps to [15,80] and keeps releaseThreshold at half the
// threshold.
func (g *Gate) SetThreshold(t float64) {
	if t < minThreshold {
		t = minThreshold
	}
	if t > maxThreshold {
		t = maxThreshold
	}
	g.threshold = t
	g.releaseThreshold = t * 0.5
}

func (g *Gate) Threshold() float64 {
	return g.threshold
}

func (g *Gate) ReleaseThreshold() float64 {
	return g.releaseThreshold
}

func (g *Gate) SetNoiseFloor(floor float64) {
	g.noiseFloor = floor
}

func (g *Gate) NoiseFloor() float64 {
	return g.noiseFloor
}

// Update feeds one volume sample and reports whether an onset fired.
func (g *Gate) Update(volume float64, now time.Time) bool {
	if g.triggered {
		if volume < g.releaseThreshold {
			g.triggered = false
		}
		return false
	}
	if volume <= g.threshold {
		return false
	}
	if !g.lastTrigger.IsZero() && now.Sub(g.lastTrigger) < minTriggerInterval {
		return false
	}
	g.triggered = true
	g.lastTrigger = now
	return true
}
