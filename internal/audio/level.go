package audio

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// bassBinFraction keeps only the lowest slice of the spectrum, which is
// where a bass guitar's fundamental energy lives.
const bassBinFraction = 0.05

// Meter converts sample buffers into a normalized [0,100] volume
// reading focused on the bass register.
type Meter struct {
	window []float64
}

func NewMeter(size int) *Meter {
	return &Meter{window: hamming(size)}
}

// Level runs a windowed FFT over the buffer and averages the magnitude
// of the lowest ~5% of bins.
func (m *Meter) Level(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	// partial buffers (a wav tail, a short device read) get a window
	// sized to the frame, not a truncated one
	window := m.window
	if len(samples) != len(window) {
		window = hamming(len(samples))
	}
	frame := make([]float64, len(samples))
	for i, s := range samples {
		frame[i] = s * window[i]
	}

	spectrum := fft.FFTReal(frame)
	half := len(spectrum) / 2
	bins := int(float64(half) * bassBinFraction)
	if bins < 1 {
		bins = 1
	}

	sum := 0.0
	for i := 0; i < bins; i++ {
		sum += cmplx.Abs(spectrum[i])
	}
	mean := sum / float64(bins)

	// A full-scale sine concentrates N/2 of magnitude in its bin; the
	// square root spreads the usable range over quiet signals.
	norm := mean / (float64(len(frame)) / 2)
	level := math.Sqrt(norm) * 100
	if level > 100 {
		level = 100
	}
	return level
}

func hamming(n int) []float64 {
	w := make([]float64, n)
	if n == 1 {
		w[0] = 1
		return w
	}
	for i := 0; i < n; i++ {
		w[i] = 0.54 - 0.46*math.Cos(2*math.Pi*float64(i)/float64(n-1))
	}
	return w
}
