package session

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"pocket/internal/api"
	"pocket/internal/beat"
	"pocket/internal/game"
	"pocket/internal/score"
)

// Phase is the session lifecycle: Selecting → Countdown → Playing →
// Complete.
type Phase int32

const (
	Selecting Phase = iota
	Countdown
	Playing
	Complete
)

const (
	tickPeriod     = 10 * time.Millisecond
	missGrace      = 100 * time.Millisecond
	countdownBeats = 4
	leadBeats      = 2
)

// OnsetSource is the slice of the onset detector a session needs.
type OnsetSource interface {
	SetOnsetHandler(func(time.Time))
	DetachOnsetHandler()
}

// BeatSource drives the metronome and supplies the monotonic clock
// reading used for all session timing.
type BeatSource interface {
	Start(tempoBpm float64, onBeat func(beat.Beat)) error
	Stop()
	Now() time.Time
}

// Clicker renders the metronome click. Nil disables audio.
type Clicker interface {
	Play(accent bool)
}

// Session owns one play-through: countdown, hit matching, miss
// detection, scoring and result submission. All state is mutated only
// inside the Run loop goroutine; the detector and scheduler deliver
// events through buffered channels.
type Session struct {
	provider api.Provider
	onsets   OnsetSource
	beats    BeatSource
	clock    clockwork.Clock
	click    Clicker

	phase atomic.Int32

	id         string
	tempo      int
	interval   time.Duration
	windows    game.Windows
	leadTime   time.Duration
	latency    time.Duration
	notes      []*game.Note
	resolved   int
	startedAt  time.Time
	gridStart  time.Time
	totalScore int
	streak     int
	bestStreak int
	hits       []game.Hit

	onsetCh chan time.Time
	beatCh  chan beat.Beat
	events  chan Event
}

// New wires a session. latencyMs is the calibration offset applied to
// every onset timestamp.
func New(provider api.Provider, onsets OnsetSource, beats BeatSource, clock clockwork.Clock, click Clicker, latencyMs float64) *Session {
	return &Session{
		provider: provider,
		onsets:   onsets,
		beats:    beats,
		clock:    clock,
		click:    click,
		latency:  time.Duration(latencyMs * float64(time.Millisecond)),
		onsetCh:  make(chan time.Time, 64),
		beatCh:   make(chan beat.Beat, 16),
		events:   make(chan Event, 128),
	}
}

func (s *Session) Phase() Phase {
	return Phase(s.phase.Load())
}

// Active reports whether a play-through is running; calibration is
// rejected while it is.
func (s *Session) Active() bool {
	p := s.Phase()
	return p == Countdown || p == Playing
}

// Events is the presentation stream. The core never renders; a view
// subscribes here.
func (s *Session) Events() <-chan Event {
	return s.events
}

// Start requests a beat grid from the provider and begins the 4-beat
// countdown. A malformed grid is fatal: scoring cannot proceed without
// one.
func (s *Session) Start(ctx context.Context, req api.StartRequest) (*api.StartResponse, error) {
	if s.Phase() != Selecting {
		return nil, fmt.Errorf("session: already started")
	}

	resp, err := s.provider.Start(ctx, req)
	if nil != err {
		return nil, err
	}
	if err := api.ValidateGrid(resp.BeatTimes); nil != err {
		return nil, err
	}

	s.id = resp.SessionID
	s.tempo = resp.Tempo
	s.interval = beat.BeatInterval(float64(resp.Tempo))
	s.windows = game.NewWindows(
		time.Duration(resp.PerfectWindowMs*float64(time.Millisecond)),
		time.Duration(resp.GoodWindowMs*float64(time.Millisecond)),
		s.interval,
	)
	s.leadTime = time.Duration(leadBeats) * s.interval
	s.notes = game.GridFromMillis(resp.BeatTimes).Notes()

	s.onsets.SetOnsetHandler(func(t time.Time) {
		select {
		case s.onsetCh <- t:
		default:
			log.Warn().Msg("onset dropped: channel full")
		}
	})

	if err := s.beats.Start(float64(resp.Tempo), s.onBeat); nil != err {
		s.onsets.DetachOnsetHandler()
		return nil, err
	}

	s.startedAt = s.beats.Now()
	s.gridStart = s.startedAt.Add(time.Duration(countdownBeats) * s.interval)
	s.setPhase(Countdown)

	log.Info().
		Str("session_id", s.id).
		Str("mode", resp.GameMode).
		Int("tempo", resp.Tempo).
		Int("notes", len(s.notes)).
		Msg("session started")
	return resp, nil
}

// onBeat runs on the scheduler's emit path: play the click and forward
// the event. Never used for scoring.
func (s *Session) onBeat(b beat.Beat) {
	if nil != s.click {
		s.click.Play(b.Accent)
	}
	select {
	case s.beatCh <- b:
	default:
	}
}

// Run drives the session to completion and returns the result. On
// submission failure the result is recomputed locally so a result
// screen is always available.
func (s *Session) Run(ctx context.Context) (*api.CompleteResponse, error) {
	if s.Phase() != Countdown {
		return nil, fmt.Errorf("session: not started")
	}
	defer close(s.events)
	defer s.onsets.DetachOnsetHandler()
	defer s.beats.Stop()

	ticker := s.clock.NewTicker(tickPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.setPhase(Complete)
			return nil, ctx.Err()

		case b := <-s.beatCh:
			s.emit(Event{Kind: EventBeat, Beat: b})

		case t := <-s.onsetCh:
			if s.Phase() == Playing {
				s.handleOnset(t)
			}

		case <-ticker.Chan():
			now := s.clock.Now()
			if s.Phase() == Countdown && !now.Before(s.gridStart) {
				s.setPhase(Playing)
			}
			if s.Phase() != Playing {
				continue
			}
			s.checkMisses(now)
			if s.resolved == len(s.notes) {
				s.setPhase(Complete)
				return s.endGame(ctx), nil
			}
		}
	}
}

// scorableTime is when a note is judged: its grid time shifted by the
// lead time that gives the player a visible approach window.
func (s *Session) scorableTime(n *game.Note) time.Time {
	return s.gridStart.Add(n.Time + s.leadTime)
}

// handleOnset matches one onset against the unconsumed grid. No
// eligible note is not an error; the onset is dropped.
func (s *Session) handleOnset(onsetAt time.Time) {
	calibrated := onsetAt.Add(-s.latency)

	var best *game.Note
	var bestOffset time.Duration
	for _, n := range s.notes {
		if n.Resolved() {
			continue
		}
		offset := calibrated.Sub(s.scorableTime(n))

		// The very first note accepts anticipatory hits up to a full
		// beat early; once per session, not once per pass.
		earlyBound := s.windows.Detection
		if n.Index == 0 {
			earlyBound = s.interval
		}

		if offset < -earlyBound {
			// notes are ordered; everything later is even earlier
			break
		}
		if offset > s.windows.Detection {
			continue
		}
		if nil == best || absDuration(offset) < absDuration(bestOffset) {
			best = n
			bestOffset = offset
		}
	}
	if nil == best {
		return
	}

	quality := score.Classify(bestOffset, s.windows)
	if quality.Windowed() {
		s.streak++
		if s.streak > s.bestStreak {
			s.bestStreak = s.streak
		}
	} else {
		s.streak = 0
	}
	points := int(math.Floor(float64(quality.BaseScore()) * score.Multiplier(s.streak)))

	if !best.Hit(bestOffset, quality, points) {
		return
	}
	s.resolved++
	s.totalScore += points
	s.hits = append(s.hits, game.Hit{
		NoteIndex: best.Index,
		Offset:    bestOffset,
		Quality:   quality,
		Score:     points,
	})

	s.emit(Event{Kind: EventNote, Note: *best})
	s.emitScore()
}

// checkMisses finalizes notes whose window has passed. A note is first
// armed, then only marked missed after an extra grace period with no
// resolving onset, which absorbs scheduler jitter at the window
// boundary.
func (s *Session) checkMisses(now time.Time) {
	for _, n := range s.notes {
		if n.Resolved() {
			continue
		}
		deadline := s.scorableTime(n).Add(s.windows.Detection)
		if now.Before(deadline) {
			break
		}
		armedAt, armed := n.MissArmedAt()
		if !armed {
			n.ArmMiss(now.Sub(s.gridStart))
			continue
		}
		if now.Sub(s.gridStart)-armedAt < missGrace {
			continue
		}
		if !n.Miss() {
			continue
		}
		s.resolved++
		s.streak = 0
		s.hits = append(s.hits, game.Hit{
			NoteIndex: n.Index,
			Missed:    true,
			Quality:   game.Miss,
		})
		s.emit(Event{Kind: EventNote, Note: *n})
		s.emitScore()
	}
}

// endGame submits the ordered hit log. NetworkError is recovered by
// recomputing the aggregate locally; the server record is best-effort.
func (s *Session) endGame(ctx context.Context) *api.CompleteResponse {
	s.beats.Stop()
	duration := s.clock.Now().Sub(s.startedAt)

	sort.Slice(s.hits, func(i, j int) bool {
		return s.hits[i].NoteIndex < s.hits[j].NoteIndex
	})

	resp, err := s.provider.Complete(ctx, api.CompleteRequest{
		SessionID:       s.id,
		DurationSeconds: duration.Seconds(),
		Hits:            api.HitsToWire(s.hits),
	})
	if nil != err {
		log.Warn().Err(err).Msg("submission failed, recomputing result locally")
		stats := score.Summarize(s.hits)
		resp = &api.CompleteResponse{
			Stats: api.StatsToWire(stats),
			Tips:  score.Tips(stats),
		}
	}
	return resp
}

func (s *Session) setPhase(p Phase) {
	s.phase.Store(int32(p))
	s.emit(Event{Kind: EventPhase, Phase: p})
}

func (s *Session) emitScore() {
	s.emit(Event{
		Kind:       EventScore,
		Score:      s.totalScore,
		Streak:     s.streak,
		BestStreak: s.bestStreak,
		Multiplier: score.Multiplier(s.streak),
	})
}

func (s *Session) emit(e Event) {
	select {
	case s.events <- e:
	default:
	}
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
