package beat

import (
	"errors"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

const (
	lookahead     = 25 * time.Millisecond
	scheduleAhead = 100 * time.Millisecond
	beatsPerBar   = 4
)

var ErrRunning = errors.New("beat: scheduler already running")

// Beat is one metronome event. Index 0 of every bar is the accent.
type Beat struct {
	Index  int
	Time   time.Time
	Accent bool
}

// BeatInterval converts a tempo to one quarter-note duration.
func BeatInterval(tempoBpm float64) time.Duration {
	return time.Duration(float64(time.Minute) / tempoBpm)
}

// Scheduler emits drift-free beats against a monotonic clock. A coarse
// wake every lookahead period schedules every beat that falls inside
// the scheduleAhead window at its exact clock time, so emission
// precision is bound to the clock rather than ticker punctuality. Each
// beat's time is previous + interval, never now + interval, so error
// does not accumulate.
type Scheduler struct {
	clock clockwork.Clock

	mu       sync.Mutex
	interval time.Duration
	next     time.Time
	index    int
	onBeat   func(Beat)
	done     chan struct{}
}

func NewScheduler(clock clockwork.Clock) *Scheduler {
	return &Scheduler{clock: clock}
}

// Now exposes the scheduler's monotonic clock. All session timing reads
// this clock, never the wall clock.
func (s *Scheduler) Now() time.Time {
	return s.clock.Now()
}

// Start begins scheduling from the current clock reading; beat 0 fires
// immediately. The onBeat callback runs near in-time with each beat and
// is decorative: it must never be used for scoring.
func (s *Scheduler) Start(tempoBpm float64, onBeat func(Beat)) error {
	if tempoBpm <= 0 {
		return errors.New("beat: tempo must be positive")
	}
	s.mu.Lock()
	if nil != s.done {
		s.mu.Unlock()
		return ErrRunning
	}
	s.interval = BeatInterval(tempoBpm)
	s.next = s.clock.Now()
	s.index = 0
	s.onBeat = onBeat
	s.done = make(chan struct{})
	done := s.done
	s.mu.Unlock()

	s.schedule(done)
	go s.run(done)
	return nil
}

// Stop cancels pending wake-ups; no further beats are emitted.
// Idempotent.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if nil == s.done {
		return
	}
	close(s.done)
	s.done = nil
}

// SetTempo takes effect for beats scheduled after the call; beats
// already inside the lookahead window keep their time.
func (s *Scheduler) SetTempo(tempoBpm float64) {
	if tempoBpm <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.interval = BeatInterval(tempoBpm)
}

func (s *Scheduler) run(done chan struct{}) {
	ticker := s.clock.NewTicker(lookahead)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.Chan():
			s.schedule(done)
		}
	}
}

func (s *Scheduler) schedule(done chan struct{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	horizon := s.clock.Now().Add(scheduleAhead)
	for !s.next.After(horizon) {
		b := Beat{Index: s.index, Time: s.next, Accent: s.index%beatsPerBar == 0}
		onBeat := s.onBeat
		delay := s.next.Sub(s.clock.Now())
		if delay < 0 {
			delay = 0
		}
		s.clock.AfterFunc(delay, func() {
			select {
			case <-done:
				return
			default:
			}
			if nil != onBeat {
				onBeat(b)
			}
		})
		s.next = s.next.Add(s.interval)
		s.index++
	}
}
