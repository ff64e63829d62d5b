package score

import (
	"strings"
	"testing"
)

var tipTests = map[string]struct {
	Stats    Stats
	Contains string
}{
	"rushing": {
		Stats{TotalNotes: 10, EarlyHits: 5, LateHits: 1},
		"rushing",
	},
	"dragging": {
		Stats{TotalNotes: 10, EarlyHits: 1, LateHits: 5},
		"dragging",
	},
	"missed": {
		Stats{TotalNotes: 10, MissedNotes: 4},
		"missed notes",
	},
	"early trend": {
		Stats{TotalNotes: 10, AverageTimingMs: -15},
		"trend early",
	},
	"late trend": {
		Stats{TotalNotes: 10, AverageTimingMs: 15},
		"trend late",
	},
	"streak": {
		Stats{TotalNotes: 32, BestStreak: 24},
		"streak",
	},
	"accuracy": {
		Stats{TotalNotes: 32, AccuracyPercentage: 96},
		"difficulty level",
	},
	"default": {
		Stats{TotalNotes: 10, AccuracyPercentage: 80},
		"Solid session",
	},
}

func TestTips(t *testing.T) {
	for name, test := range tipTests {
		tips := Tips(test.Stats)
		if len(tips) == 0 {
			t.Log(name, "produced no tips")
			t.Fail()
			continue
		}
		found := false
		for _, tip := range tips {
			if strings.Contains(tip, test.Contains) {
				found = true
			}
		}
		if !found {
			t.Log("case    ", name)
			t.Log("tips    ", tips)
			t.Log("expected", test.Contains)
			t.Fail()
		}
	}
}
