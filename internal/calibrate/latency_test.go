package calibrate

import (
	"testing"
	"time"
)

func ms(n int) time.Duration { return time.Duration(n) * time.Millisecond }

func TestEstimateLatency(t *testing.T) {
	clicks := []time.Duration{0, ms(500), ms(1000), ms(1500)}

	// every onset lags its click by 190ms: 190 - 140 baseline = 50
	onsets := []time.Duration{ms(190), ms(690), ms(1190), ms(1690)}
	latency, ok := EstimateLatency(clicks, onsets)
	if !ok || latency != ms(50) {
		t.Fatalf("latency = %v ok=%v, expected 50ms", latency, ok)
	}

	// faster than the reaction baseline clamps to zero
	latency, ok = EstimateLatency(clicks, []time.Duration{ms(100), ms(600)})
	if !ok || latency != 0 {
		t.Fatalf("latency = %v ok=%v, expected clamp to 0", latency, ok)
	}
}

func TestEstimateLatencyNoMatch(t *testing.T) {
	clicks := []time.Duration{0, ms(500)}

	if _, ok := EstimateLatency(clicks, nil); ok {
		t.Fatal("matched with no onsets")
	}
	if _, ok := EstimateLatency(nil, []time.Duration{ms(100)}); ok {
		t.Fatal("matched with no clicks")
	}
	// onsets more than 500ms from every click never match
	if _, ok := EstimateLatency(clicks, []time.Duration{ms(3000)}); ok {
		t.Fatal("matched an onset far outside the click track")
	}
}
