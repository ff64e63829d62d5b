package beat

import (
	"math"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/speaker"
)

const (
	clickSampleRate = beep.SampleRate(44100)
	clickDuration   = 50 * time.Millisecond
	accentFreq      = 1000.0
	normalFreq      = 800.0
)

// ClickTrack plays metronome clicks: 1000 Hz for the bar accent, 800 Hz
// for the other beats. Both are rendered into buffers up front so the
// playback path does no allocation.
type ClickTrack struct {
	accent *beep.Buffer
	normal *beep.Buffer
}

func NewClickTrack() (*ClickTrack, error) {
	if err := speaker.Init(clickSampleRate, clickSampleRate.N(time.Second/60)); nil != err {
		return nil, err
	}
	return &ClickTrack{
		accent: renderClick(accentFreq, 0.8),
		normal: renderClick(normalFreq, 0.6),
	}, nil
}

func (c *ClickTrack) Play(accent bool) {
	buf := c.normal
	if accent {
		buf = c.accent
	}
	speaker.Play(buf.Streamer(0, buf.Len()))
}

func (c *ClickTrack) Close() {
	speaker.Close()
}

// renderClick pre-renders a decaying sine burst.
func renderClick(freq, gain float64) *beep.Buffer {
	format := beep.Format{SampleRate: clickSampleRate, NumChannels: 2, Precision: 2}
	buf := beep.NewBuffer(format)
	buf.Append(&clickStreamer{n: clickSampleRate.N(clickDuration), freq: freq, gain: gain})
	return buf
}

type clickStreamer struct {
	pos  int
	n    int
	freq float64
	gain float64
}

func (c *clickStreamer) Stream(samples [][2]float64) (int, bool) {
	if c.pos >= c.n {
		return 0, false
	}
	filled := 0
	for i := range samples {
		if c.pos >= c.n {
			break
		}
		t := float64(c.pos) / float64(clickSampleRate)
		v := math.Sin(2*math.Pi*c.freq*t) * math.Exp(-t*30) * c.gain
		samples[i][0] = v
		samples[i][1] = v
		c.pos++
		filled++
	}
	return filled, true
}

func (c *clickStreamer) Err() error {
	return nil
}
