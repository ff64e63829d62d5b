package onset

import (
	"io"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
)

type deriveTest struct {
	Samples   []float64
	Floor     float64
	Threshold float64
}

func makeRange(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(i)
	}
	return out
}

func TestDeriveThreshold(t *testing.T) {
	tests := []deriveTest{
		{nil, 0, 12},
		{[]float64{3, 3, 3, 3}, 3, 15},
		{makeRange(100), 94, 106}, // 95th percentile of 0..99
	}
	for _, test := range tests {
		floor, threshold := deriveThreshold(test.Samples)
		if floor != test.Floor || threshold != test.Threshold {
			t.Log("samples ", len(test.Samples))
			t.Log("got     ", floor, threshold)
			t.Log("expected", test.Floor, test.Threshold)
			t.Fail()
		}
	}
}

// scriptSource feeds one "volume" per buffer; the detector's level
// function is overridden to read it back directly.
type scriptSource struct {
	levels chan float64
}

func (s *scriptSource) SampleRate() float64 { return 44100 }

func (s *scriptSource) Read() ([]float64, error) {
	v, ok := <-s.levels
	if !ok {
		return nil, io.EOF
	}
	return []float64{v}, nil
}

func (s *scriptSource) Close() error { return nil }

func TestDetectorFiresInOrder(t *testing.T) {
	clock := clockwork.NewFakeClock()
	d := NewDetector(clock)
	d.level = func(samples []float64) float64 { return samples[0] }
	d.SetThreshold(40)

	onsets := make(chan time.Time, 8)
	d.SetOnsetHandler(func(ts time.Time) { onsets <- ts })

	src := &scriptSource{levels: make(chan float64)}
	if err := d.Connect(src); nil != err {
		t.Fatalf("connect: %v", err)
	}

	expectOnset := func(want bool) time.Time {
		select {
		case ts := <-onsets:
			if !want {
				t.Fatalf("unexpected onset at %v", ts)
			}
			return ts
		case <-time.After(200 * time.Millisecond):
			if want {
				t.Fatal("expected an onset, got none")
			}
			return time.Time{}
		}
	}

	src.levels <- 10
	expectOnset(false)
	src.levels <- 50
	first := expectOnset(true)
	src.levels <- 60 // sustain must not retrigger
	expectOnset(false)
	src.levels <- 10 // release
	clock.Advance(300 * time.Millisecond)
	src.levels <- 70
	second := expectOnset(true)

	if !second.After(first) {
		t.Log("first ", first)
		t.Log("second", second)
		t.Fatal("onsets not in increasing timestamp order")
	}
	if d.CurrentVolume() != 70 {
		t.Fatalf("current volume = %v, expected 70", d.CurrentVolume())
	}

	close(src.levels) // source ends, detector disconnects itself
	for i := 0; i < 100 && d.Connected(); i++ {
		time.Sleep(time.Millisecond)
	}
	if d.Connected() {
		t.Fatal("detector still connected after source ended")
	}
}

func TestCalibrateRequiresConnection(t *testing.T) {
	d := NewDetector(clockwork.NewFakeClock())
	if _, err := d.CalibrateThreshold(nil); err != ErrNotConnected {
		t.Fatalf("expected ErrNotConnected, got %v", err)
	}
}
