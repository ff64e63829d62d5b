package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"pocket/internal/api"
	"pocket/internal/beat"
	"pocket/internal/game"
	"pocket/internal/score"
	"pocket/internal/testdata"
)

type fakeProvider struct {
	start       *api.StartResponse
	startErr    error
	completeErr error
	completed   *api.CompleteRequest
}

func (p *fakeProvider) Start(ctx context.Context, req api.StartRequest) (*api.StartResponse, error) {
	return p.start, p.startErr
}

func (p *fakeProvider) Complete(ctx context.Context, req api.CompleteRequest) (*api.CompleteResponse, error) {
	if nil != p.completeErr {
		return nil, p.completeErr
	}
	p.completed = &req
	stats := score.Summarize(api.HitsFromWire(req.Hits))
	return &api.CompleteResponse{
		Stats: api.StatsToWire(stats),
		Tips:  score.Tips(stats),
	}, nil
}

type fakeOnsets struct {
	handler func(time.Time)
}

func (f *fakeOnsets) SetOnsetHandler(fn func(time.Time)) { f.handler = fn }
func (f *fakeOnsets) DetachOnsetHandler()                { f.handler = nil }

type fakeBeats struct {
	clock clockwork.Clock
	tempo float64
}

func (f *fakeBeats) Start(tempoBpm float64, onBeat func(beat.Beat)) error {
	f.tempo = tempoBpm
	return nil
}
func (f *fakeBeats) Stop()          {}
func (f *fakeBeats) Now() time.Time { return f.clock.Now() }

func newTestSession(t *testing.T, provider *fakeProvider, latencyMs float64) *Session {
	t.Helper()
	if nil == provider.start {
		grid, err := testdata.Grid()
		if nil != err {
			t.Fatalf("test grid: %v", err)
		}
		provider.start = grid
	}
	clock := clockwork.NewFakeClock()
	s := New(provider, &fakeOnsets{}, &fakeBeats{clock: clock}, clock, nil, latencyMs)
	if _, err := s.Start(context.Background(), api.StartRequest{}); nil != err {
		t.Fatalf("start: %v", err)
	}
	if s.Phase() != Countdown || !s.Active() {
		t.Fatalf("phase after start = %v", s.Phase())
	}
	return s
}

func TestPerfectRun(t *testing.T) {
	provider := &fakeProvider{}
	s := newTestSession(t, provider, 0)

	for _, n := range s.notes {
		s.handleOnset(s.scorableTime(n))
	}

	if s.resolved != len(s.notes) {
		t.Fatalf("resolved %v of %v", s.resolved, len(s.notes))
	}
	if s.totalScore != 6400 {
		t.Fatalf("score = %v, expected 6400", s.totalScore)
	}
	if s.bestStreak != 32 || s.streak != 32 {
		t.Fatalf("streaks = %v/%v, expected 32/32", s.bestStreak, s.streak)
	}
	for _, n := range s.notes {
		if n.State != game.StateHit || n.Quality != game.Perfect {
			t.Fatalf("note %v: state %v quality %v", n.Index, n.State, n.Quality)
		}
	}

	resp := s.endGame(context.Background())
	if resp.Stats.TotalScore != s.totalScore {
		t.Fatalf("submitted recompute = %v, session = %v", resp.Stats.TotalScore, s.totalScore)
	}
	if nil == provider.completed {
		t.Fatal("no completion submitted")
	}
	for i := 1; i < len(provider.completed.Hits); i++ {
		if provider.completed.Hits[i].NoteIndex <= provider.completed.Hits[i-1].NoteIndex {
			t.Fatal("submitted hit log not ordered by note index")
		}
	}
}

func TestSilentRunMissesEverything(t *testing.T) {
	s := newTestSession(t, &fakeProvider{}, 0)

	last := s.notes[len(s.notes)-1]
	pastAll := s.scorableTime(last).Add(s.windows.Detection + time.Millisecond)
	s.checkMisses(pastAll) // arms every overdue note
	if s.resolved != 0 {
		t.Fatalf("resolved %v before the grace period", s.resolved)
	}
	s.checkMisses(pastAll.Add(missGrace))

	if s.resolved != len(s.notes) {
		t.Fatalf("resolved %v of %v", s.resolved, len(s.notes))
	}
	if s.totalScore != 0 || s.streak != 0 || s.bestStreak != 0 {
		t.Fatalf("silent run scored %v streak %v/%v", s.totalScore, s.streak, s.bestStreak)
	}
	for _, h := range s.hits {
		if !h.Missed || h.Quality != game.Miss {
			t.Fatalf("hit %+v, expected a miss", h)
		}
	}
}

func TestNoteResolvesOnce(t *testing.T) {
	s := newTestSession(t, &fakeProvider{}, 0)

	at := s.scorableTime(s.notes[0])
	s.handleOnset(at)
	s.handleOnset(at) // same instant again: note 0 taken, note 1 too far out

	if s.resolved != 1 {
		t.Fatalf("resolved = %v, expected 1", s.resolved)
	}
	if len(s.hits) != 1 {
		t.Fatalf("hit log has %v entries, expected 1", len(s.hits))
	}
}

func TestFirstNoteRelaxedEarlyBound(t *testing.T) {
	s := newTestSession(t, &fakeProvider{}, 0)

	// 600ms early is outside the 225ms detection window but inside the
	// full-beat bound the first note alone gets
	s.handleOnset(s.scorableTime(s.notes[0]).Add(-600 * time.Millisecond))
	if s.notes[0].State != game.StateHit || s.notes[0].Quality != game.Early {
		t.Fatalf("note 0: state %v quality %v", s.notes[0].State, s.notes[0].Quality)
	}
	if s.notes[0].Score != 10 || s.streak != 0 {
		t.Fatalf("early hit scored %v streak %v", s.notes[0].Score, s.streak)
	}

	// the second note gets no such relaxation
	s.handleOnset(s.scorableTime(s.notes[1]).Add(-300 * time.Millisecond))
	if s.resolved != 1 {
		t.Fatalf("resolved = %v, onset outside the window matched a note", s.resolved)
	}
}

func TestMissGraceAllowsLateResolution(t *testing.T) {
	s := newTestSession(t, &fakeProvider{}, 0)

	deadline := s.scorableTime(s.notes[0]).Add(s.windows.Detection)
	s.checkMisses(deadline.Add(time.Millisecond))
	if s.notes[0].Resolved() {
		t.Fatal("note missed without a grace period")
	}

	// a late onset inside the detection window still wins during grace
	s.handleOnset(s.scorableTime(s.notes[0]).Add(200 * time.Millisecond))
	if s.notes[0].State != game.StateHit || s.notes[0].Quality != game.Okay {
		t.Fatalf("note 0: state %v quality %v", s.notes[0].State, s.notes[0].Quality)
	}

	s.checkMisses(deadline.Add(missGrace + 2*time.Millisecond))
	for _, h := range s.hits {
		if h.Missed {
			t.Fatal("resolved note was also marked missed")
		}
	}
}

func TestLatencyShiftsOnsets(t *testing.T) {
	s := newTestSession(t, &fakeProvider{}, 50)

	// the raw onset arrives 50ms after the beat; calibration removes it
	s.handleOnset(s.scorableTime(s.notes[0]).Add(50 * time.Millisecond))
	if s.notes[0].Quality != game.Perfect || s.notes[0].Offset != 0 {
		t.Fatalf("quality %v offset %v, expected a dead-on perfect", s.notes[0].Quality, s.notes[0].Offset)
	}
}

func TestSubmissionFallback(t *testing.T) {
	provider := &fakeProvider{completeErr: errors.New("connection refused")}
	s := newTestSession(t, provider, 0)

	for _, n := range s.notes {
		s.handleOnset(s.scorableTime(n))
	}
	resp := s.endGame(context.Background())
	if resp.Stats.TotalScore != 6400 {
		t.Fatalf("fallback score = %v, expected 6400", resp.Stats.TotalScore)
	}
	if resp.IsNewHighScore {
		t.Fatal("fallback claimed a high score")
	}
	if len(resp.Tips) == 0 {
		t.Fatal("fallback produced no tips")
	}
}

func TestRunCancellation(t *testing.T) {
	s := newTestSession(t, &fakeProvider{}, 0)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := s.Run(ctx)
		done <- err
	}()
	cancel()

	select {
	case err := <-done:
		if err != context.Canceled {
			t.Fatalf("run = %v, expected context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("run did not return after cancellation")
	}
	if s.Phase() != Complete || s.Active() {
		t.Fatalf("phase = %v after cancellation", s.Phase())
	}
}

func TestStartRejectsMalformedGrid(t *testing.T) {
	grid, err := testdata.Grid()
	if nil != err {
		t.Fatalf("test grid: %v", err)
	}
	grid.BeatTimes[5] = grid.BeatTimes[4] // not strictly increasing

	clock := clockwork.NewFakeClock()
	s := New(&fakeProvider{start: grid}, &fakeOnsets{}, &fakeBeats{clock: clock}, clock, nil, 0)
	if _, err := s.Start(context.Background(), api.StartRequest{}); !errors.Is(err, api.ErrInvalidGrid) {
		t.Fatalf("start = %v, expected ErrInvalidGrid", err)
	}
	if s.Active() {
		t.Fatal("session active after a rejected start")
	}
}
