package score

import (
	"math"
	"sort"
	"time"

	"pocket/internal/game"
)

// Streak thresholds to score multipliers. Below the first threshold the
// multiplier is 1.0.
var multipliers = map[int]float64{
	5:   1.5,
	10:  2.0,
	20:  2.5,
	50:  3.0,
	100: 4.0,
}

var thresholds = func() []int {
	out := make([]int, 0, len(multipliers))
	for t := range multipliers {
		out = append(out, t)
	}
	sort.Ints(out)
	return out
}()

// Multiplier returns the multiplier of the highest threshold not above
// the current streak. Called once per hit, so the threshold order is
// computed up front.
func Multiplier(streak int) float64 {
	m := 1.0
	for _, t := range thresholds {
		if streak >= t {
			m = multipliers[t]
		}
	}
	return m
}

// Classify grades a signed onset error against the judgement windows.
// Offsets beyond the detection window are early or late by sign; those
// can only be produced by the relaxed first-note bound.
func Classify(offset time.Duration, w game.Windows) game.Quality {
	a := offset
	if a < 0 {
		a = -a
	}
	switch {
	case a <= w.Perfect:
		return game.Perfect
	case a <= w.Good:
		return game.Good
	case a <= w.Detection:
		return game.Okay
	case offset < 0:
		return game.Early
	default:
		return game.Late
	}
}

// Stats is the aggregate of one session's hit log.
type Stats struct {
	TotalScore         int
	TotalNotes         int
	PerfectHits        int
	GoodHits           int
	OkHits             int
	EarlyHits          int
	LateHits           int
	MissedNotes        int
	BestStreak         int
	FinalStreak        int
	AccuracyPercentage float64
	AverageTimingMs    float64
}

// Summarize replays the ordered hit log through the streak and
// multiplier rules. The server runs this on completion and the client
// runs it as the submission fallback; both must produce identical
// numbers, so all scoring goes through here or through the identical
// per-hit path in the session.
func Summarize(hits []game.Hit) Stats {
	var s Stats
	var offsetSum time.Duration
	windowed := 0

	for _, h := range hits {
		s.TotalNotes++
		switch h.Quality {
		case game.Perfect:
			s.PerfectHits++
		case game.Good:
			s.GoodHits++
		case game.Okay:
			s.OkHits++
		case game.Early:
			s.EarlyHits++
		case game.Late:
			s.LateHits++
		default:
			s.MissedNotes++
		}

		if h.Quality.Windowed() {
			s.FinalStreak++
			offsetSum += h.Offset
			windowed++
		} else {
			s.FinalStreak = 0
		}
		if s.FinalStreak > s.BestStreak {
			s.BestStreak = s.FinalStreak
		}

		base := h.Quality.BaseScore()
		s.TotalScore += int(math.Floor(float64(base) * Multiplier(s.FinalStreak)))
	}

	if s.TotalNotes > 0 {
		hit := float64(s.PerfectHits + s.GoodHits + s.OkHits)
		s.AccuracyPercentage = math.Round(hit/float64(s.TotalNotes)*1000) / 10
	}
	if windowed > 0 {
		mean := float64(offsetSum.Microseconds()) / float64(windowed) / 1000.0
		s.AverageTimingMs = math.Round(mean*100) / 100
	}
	return s
}

// RecommendDifficulty nudges the difficulty ladder based on recent
// accuracy.
func RecommendDifficulty(recentAccuracy float64, current int) int {
	switch {
	case recentAccuracy >= 90:
		return min(5, current+1)
	case recentAccuracy >= 75:
		return current
	case recentAccuracy >= 50:
		return max(1, current-1)
	default:
		return max(1, current-2)
	}
}
