package api

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"pocket/internal/exercise"
	"pocket/internal/score"
	"pocket/internal/store"
)

// cacheLimit bounds the active-session cache; the oldest entries are
// pruned past it.
const cacheLimit = 50

// Local serves sessions in-process so `pocket play` needs no server.
// The HTTP service wraps the same type, which keeps client fallback and
// server numbers identical.
type Local struct {
	gen   *exercise.Generator
	store *store.Store

	mu    sync.Mutex
	cache map[string]exercise.Exercise
	order []string
}

func NewLocal(gen *exercise.Generator, st *store.Store) *Local {
	return &Local{
		gen:   gen,
		store: st,
		cache: map[string]exercise.Exercise{},
	}
}

func (l *Local) Start(ctx context.Context, req StartRequest) (*StartResponse, error) {
	ex := l.gen.Generate(req.GameMode, req.Difficulty, req.TempoBpm, req.DurationBars)
	id := uuid.NewString()

	l.mu.Lock()
	l.cache[id] = ex
	l.order = append(l.order, id)
	for len(l.order) > cacheLimit {
		delete(l.cache, l.order[0])
		l.order = l.order[1:]
	}
	l.mu.Unlock()

	return &StartResponse{
		SessionID:       id,
		GameMode:        ex.GameMode,
		ModeName:        ex.ModeName,
		Difficulty:      ex.Difficulty,
		Tempo:           ex.Tempo,
		PerfectWindowMs: ex.PerfectWindowMs,
		GoodWindowMs:    ex.GoodWindowMs,
		BeatTimes:       ex.BeatTimes,
		TotalNotes:      ex.TotalNotes,
		DurationMs:      ex.DurationMs,
	}, nil
}

func (l *Local) Complete(ctx context.Context, req CompleteRequest) (*CompleteResponse, error) {
	l.mu.Lock()
	ex, ok := l.cache[req.SessionID]
	if ok {
		delete(l.cache, req.SessionID)
		for i, id := range l.order {
			if id == req.SessionID {
				l.order = append(l.order[:i], l.order[i+1:]...)
				break
			}
		}
	}
	l.mu.Unlock()
	if !ok {
		return nil, ErrSessionNotFound
	}

	// Recompute stats from the submitted hit log; the client's own
	// numbers are never trusted as the persisted record.
	stats := score.Summarize(HitsFromWire(req.Hits))
	tips := score.Tips(stats)

	rec := store.SessionRecord{
		GameMode:        ex.GameMode,
		Difficulty:      ex.Difficulty,
		TempoBpm:        ex.Tempo,
		TotalNotes:      stats.TotalNotes,
		PerfectHits:     stats.PerfectHits,
		GoodHits:        stats.GoodHits,
		OkHits:          stats.OkHits,
		EarlyHits:       stats.EarlyHits,
		LateHits:        stats.LateHits,
		MissedNotes:     stats.MissedNotes,
		BestStreak:      stats.BestStreak,
		Score:           stats.TotalScore,
		Accuracy:        stats.AccuracyPercentage,
		AverageTimingMs: stats.AverageTimingMs,
		DurationSeconds: req.DurationSeconds,
	}
	if err := l.store.SaveSession(rec); nil != err {
		return nil, err
	}
	isNew, err := l.store.UpsertHighScore(rec)
	if nil != err {
		return nil, err
	}

	log.Info().
		Str("session_id", req.SessionID).
		Int("score", stats.TotalScore).
		Float64("accuracy", stats.AccuracyPercentage).
		Bool("high_score", isNew).
		Msg("session completed")

	return &CompleteResponse{
		Stats:          StatsToWire(stats),
		Tips:           tips,
		IsNewHighScore: isNew,
	}, nil
}
