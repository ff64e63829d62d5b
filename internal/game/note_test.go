package game

import (
	"testing"
	"time"
)

func TestNoteResolvesOnce(t *testing.T) {
	n := &Note{Index: 0}
	if n.Resolved() {
		t.Fatal("pending note reports resolved")
	}
	if !n.Hit(10*time.Millisecond, Perfect, 100) {
		t.Fatal("first hit rejected")
	}
	if n.Hit(0, Good, 50) {
		t.Fatal("second hit accepted")
	}
	if n.Miss() {
		t.Fatal("miss accepted on a hit note")
	}
	if n.State != StateHit || n.Quality != Perfect || n.Score != 100 {
		t.Fatalf("note = %+v", n)
	}
}

func TestMissArmKeepsFirstDeadline(t *testing.T) {
	n := &Note{Index: 0}
	n.ArmMiss(time.Second)
	n.ArmMiss(2 * time.Second)
	at, armed := n.MissArmedAt()
	if !armed || at != time.Second {
		t.Fatalf("armed=%v at=%v, expected first deadline kept", armed, at)
	}
	if !n.Miss() {
		t.Fatal("miss rejected on a pending note")
	}
	if n.Hit(0, Perfect, 100) {
		t.Fatal("hit accepted on a missed note")
	}
	if n.State != StateMissed || n.Quality != Miss {
		t.Fatalf("note = %+v", n)
	}
}

func TestGridNotes(t *testing.T) {
	grid := GridFromMillis([]float64{0, 500, 1000})
	notes := grid.Notes()
	if len(notes) != grid.Len() {
		t.Fatalf("%v notes from %v beats", len(notes), grid.Len())
	}
	for i, n := range notes {
		if n.Index != i || n.Time != grid.Beat(i) || n.Resolved() {
			t.Fatalf("note %v = %+v", i, n)
		}
	}
	if grid.Beat(1) != 500*time.Millisecond {
		t.Fatalf("beat 1 = %v", grid.Beat(1))
	}
}

var windowTests = []struct {
	Good      time.Duration
	Beat      time.Duration
	Detection time.Duration
}{
	{150 * time.Millisecond, 750 * time.Millisecond, 225 * time.Millisecond},  // good*1.5 wins
	{150 * time.Millisecond, 400 * time.Millisecond, 200 * time.Millisecond},  // beat/2 wins
	{40 * time.Millisecond, 375 * time.Millisecond, 60 * time.Millisecond},    // expert windows
}

func TestDetectionWindow(t *testing.T) {
	for _, test := range windowTests {
		w := NewWindows(test.Good/2, test.Good, test.Beat)
		if w.Detection != test.Detection {
			t.Log("good    ", test.Good, "beat", test.Beat)
			t.Log("got     ", w.Detection)
			t.Log("expected", test.Detection)
			t.Fail()
		}
	}
}
