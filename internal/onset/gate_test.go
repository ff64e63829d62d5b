package onset

import (
	"testing"
	"time"
)

type gateStep struct {
	AtMs   int64
	Volume float64
	Fire   bool
}

// The gate fires iff volume crosses from <=threshold to >threshold
// while untriggered and at least 200ms passed since the last trigger.
var gateSteps = []gateStep{
	{0, 10, false},    // below threshold
	{10, 50, true},    // rising crossing
	{20, 60, false},   // still triggered on sustain
	{30, 30, false},   // above release, stays triggered
	{40, 15, false},   // drops below release, rearms
	{50, 50, false},   // crossing again, but inside debounce
	{60, 15, false},   // rearmed and quiet
	{250, 50, true},   // 240ms since trigger, fires
	{260, 10, false},  // releases
	{270, 50, false},  // debounce again
	{500, 70, true},   // clear of debounce
}

func TestGateHysteresis(t *testing.T) {
	g := NewGate(40)
	base := time.Unix(0, 0)
	for _, step := range gateSteps {
		fired := g.Update(step.Volume, base.Add(time.Duration(step.AtMs)*time.Millisecond))
		if fired != step.Fire {
			t.Log("at      ", step.AtMs, "ms")
			t.Log("volume  ", step.Volume)
			t.Log("fired   ", fired)
			t.Log("expected", step.Fire)
			t.Fail()
		}
	}
}

var thresholdTests = map[float64]([2]float64){
	5:  {15, 7.5},
	15: {15, 7.5},
	40: {40, 20},
	80: {80, 40},
	90: {80, 40},
}

func TestReleaseThresholdTracksThreshold(t *testing.T) {
	for in, expected := range thresholdTests {
		g := NewGate(30)
		g.SetThreshold(in)
		if g.Threshold() != expected[0] || g.ReleaseThreshold() != expected[1] {
			t.Log("in       ", in)
			t.Log("threshold", g.Threshold(), "release", g.ReleaseThreshold())
			t.Log("expected ", expected)
			t.Fail()
		}
		if g.ReleaseThreshold() != g.Threshold()*0.5 {
			t.Log("release is not half of threshold after SetThreshold", in)
			t.Fail()
		}
	}
}
