package api

import (
	"time"

	"pocket/internal/game"
	"pocket/internal/score"
)

// StartRequest asks the session service for a new exercise.
type StartRequest struct {
	GameMode     string `json:"gameMode"`
	Difficulty   int    `json:"difficulty"`
	TempoBpm     int    `json:"tempoBpm"`
	DurationBars int    `json:"durationBars"`
}

// StartResponse carries the beat grid and judgement windows for one
// session. BeatTimes are ms offsets from grid start, strictly
// increasing.
type StartResponse struct {
	SessionID       string    `json:"sessionId"`
	GameMode        string    `json:"gameMode"`
	ModeName        string    `json:"modeName"`
	Difficulty      int       `json:"difficulty"`
	Tempo           int       `json:"tempo"`
	PerfectWindowMs float64   `json:"perfectWindowMs"`
	GoodWindowMs    float64   `json:"goodWindowMs"`
	BeatTimes       []float64 `json:"beatTimes"`
	TotalNotes      int       `json:"totalNotes"`
	DurationMs      float64   `json:"durationMs"`
}

// Hit is the wire form of one hit-log entry. OffsetMs is null for a
// miss.
type Hit struct {
	NoteIndex int      `json:"noteIndex"`
	OffsetMs  *float64 `json:"offsetMs"`
	Quality   string   `json:"quality"`
	Score     int      `json:"score"`
}

type CompleteRequest struct {
	SessionID       string  `json:"sessionId"`
	DurationSeconds float64 `json:"durationSeconds"`
	Hits            []Hit   `json:"hits"`
}

type Stats struct {
	TotalScore         int     `json:"totalScore"`
	TotalNotes         int     `json:"totalNotes"`
	PerfectHits        int     `json:"perfectHits"`
	GoodHits           int     `json:"goodHits"`
	OkHits             int     `json:"okHits"`
	EarlyHits          int     `json:"earlyHits"`
	LateHits           int     `json:"lateHits"`
	MissedNotes        int     `json:"missedNotes"`
	BestStreak         int     `json:"bestStreak"`
	AccuracyPercentage float64 `json:"accuracyPercentage"`
	AverageTimingMs    float64 `json:"averageTimingMs"`
}

type CompleteResponse struct {
	Stats          Stats    `json:"stats"`
	Tips           []string `json:"tips"`
	IsNewHighScore bool     `json:"isNewHighScore"`
}

// HitsToWire converts a session hit log for submission.
func HitsToWire(hits []game.Hit) []Hit {
	out := make([]Hit, len(hits))
	for i, h := range hits {
		wire := Hit{
			NoteIndex: h.NoteIndex,
			Quality:   h.Quality.String(),
			Score:     h.Score,
		}
		if !h.Missed {
			ms := float64(h.Offset.Microseconds()) / 1000.0
			wire.OffsetMs = &ms
		}
		out[i] = wire
	}
	return out
}

// HitsFromWire converts a submitted hit log back into the domain form
// for recomputation.
func HitsFromWire(hits []Hit) []game.Hit {
	out := make([]game.Hit, len(hits))
	for i, h := range hits {
		quality, ok := game.ParseQuality(h.Quality)
		if !ok {
			quality = game.Miss
		}
		g := game.Hit{
			NoteIndex: h.NoteIndex,
			Quality:   quality,
			Score:     h.Score,
			Missed:    nil == h.OffsetMs,
		}
		if nil != h.OffsetMs {
			g.Offset = time.Duration(*h.OffsetMs * float64(time.Millisecond))
		}
		out[i] = g
	}
	return out
}

// StatsToWire converts a score summary for the result payload.
func StatsToWire(s score.Stats) Stats {
	return Stats{
		TotalScore:         s.TotalScore,
		TotalNotes:         s.TotalNotes,
		PerfectHits:        s.PerfectHits,
		GoodHits:           s.GoodHits,
		OkHits:             s.OkHits,
		EarlyHits:          s.EarlyHits,
		LateHits:           s.LateHits,
		MissedNotes:        s.MissedNotes,
		BestStreak:         s.BestStreak,
		AccuracyPercentage: s.AccuracyPercentage,
		AverageTimingMs:    s.AverageTimingMs,
	}
}
