package calibrate

import (
	"time"
)

const (
	// Average human reaction to an audible click; lag beyond this is
	// attributed to the audio system.
	reactionBaseline = 140 * time.Millisecond
	maxLatencyMatch  = 500 * time.Millisecond
)

// EstimateLatency matches each onset of a click play-along to its
// nearest click and returns the mean lag with the human reaction
// baseline removed. The second return is false when nothing matched.
func EstimateLatency(clicks, onsets []time.Duration) (time.Duration, bool) {
	if len(clicks) == 0 || len(onsets) == 0 {
		return 0, false
	}

	lags := []time.Duration{}
	for _, onset := range onsets {
		var best time.Duration
		found := false
		for _, click := range clicks {
			d := onset - click
			if absDuration(d) > maxLatencyMatch {
				continue
			}
			if !found || absDuration(d) < absDuration(best) {
				best = d
				found = true
			}
		}
		if found {
			lags = append(lags, best)
		}
	}
	if len(lags) == 0 {
		return 0, false
	}

	var sum time.Duration
	for _, lag := range lags {
		sum += lag
	}
	latency := sum/time.Duration(len(lags)) - reactionBaseline
	if latency < 0 {
		latency = 0
	}
	return latency, true
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
