package audio

import (
	"math"
	"testing"
)

func sine(freq, sampleRate float64, n int, amplitude float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = amplitude * math.Sin(2*math.Pi*freq*float64(i)/sampleRate)
	}
	return out
}

func TestLevelSilenceIsZero(t *testing.T) {
	m := NewMeter(1024)
	if l := m.Level(make([]float64, 1024)); l != 0 {
		t.Fatalf("silence measured %v", l)
	}
	if l := m.Level(nil); l != 0 {
		t.Fatalf("empty buffer measured %v", l)
	}
}

func TestLevelTracksBassAmplitude(t *testing.T) {
	m := NewMeter(1024)
	// low E on a bass guitar
	quiet := m.Level(sine(41.2, 44100, 1024, 0.05))
	loud := m.Level(sine(41.2, 44100, 1024, 0.8))
	if quiet <= 0 {
		t.Fatalf("quiet bass note measured %v", quiet)
	}
	if loud <= quiet {
		t.Fatalf("loud %v not above quiet %v", loud, quiet)
	}
	if loud > 100 {
		t.Fatalf("level %v above the 100 cap", loud)
	}
}

func TestLevelWindowsPartialBuffers(t *testing.T) {
	m := NewMeter(1024)
	short := sine(41.2, 44100, 512, 0.5)

	// a short frame (a wav tail) is windowed against its own length,
	// identical to a meter sized for it
	if got, want := m.Level(short), NewMeter(512).Level(short); got != want {
		t.Fatalf("short frame measured %v, expected %v", got, want)
	}

	single := m.Level([]float64{0.5})
	if math.IsNaN(single) || math.IsInf(single, 0) {
		t.Fatalf("single-sample buffer measured %v", single)
	}
}

func TestLevelIgnoresTreble(t *testing.T) {
	m := NewMeter(1024)
	// 8kHz is far above the bass bins the meter keeps
	bass := m.Level(sine(41.2, 44100, 1024, 0.5))
	treble := m.Level(sine(8000, 44100, 1024, 0.5))
	if treble >= bass {
		t.Fatalf("treble %v not below bass %v", treble, bass)
	}
}
