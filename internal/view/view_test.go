package view

import (
	"testing"
	"time"

	"pocket/internal/session"
	"pocket/internal/theme"
)

// The detector closes the volume stream when its source ends; the view
// must keep serving events without consuming the closed channel.
func TestRunSurvivesVolumeStreamClose(t *testing.T) {
	term := New(&theme.DefaultTheme{}, "Groove Lock", 100, 4)

	events := make(chan session.Event, 8)
	volumes := make(chan float64, 1)

	done := make(chan struct{})
	go func() {
		term.Run(events, volumes)
		close(done)
	}()

	volumes <- 42
	close(volumes)

	events <- session.Event{Kind: session.EventScore, Score: 100, Streak: 1, Multiplier: 1}
	events <- session.Event{Kind: session.EventPhase, Phase: session.Complete}
	close(events)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("view did not return after the event stream closed")
	}
	if term.volume != 42 {
		t.Fatalf("volume = %v, expected the last sample before close", term.volume)
	}
	if term.score != 100 || term.phase != session.Complete {
		t.Fatalf("events not applied after volume close: score %v phase %v", term.score, term.phase)
	}
}
