package onset

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"pocket/internal/audio"
)

var ErrNotConnected = errors.New("onset: detector not connected")

const (
	defaultThreshold  = 30.0
	calibrationWindow = 1500 * time.Millisecond
	noiseFloorMargin  = 12.0
	meterFrame        = 1024
)

// Detector turns a noisy continuous amplitude stream into discrete,
// debounced onset events. It exclusively owns the gate state; the
// calibration controller and sessions only reach it through this API.
// At most one onset subscriber is supported: SetOnsetHandler replaces,
// DetachOnsetHandler clears.
type Detector struct {
	clock clockwork.Clock
	meter *audio.Meter
	level func([]float64) float64

	mu       sync.Mutex
	src      audio.Source
	gate     *Gate
	volume   float64
	onOnset  func(time.Time)
	volumeCh chan float64
	done     chan struct{}
}

func NewDetector(clock clockwork.Clock) *Detector {
	meter := audio.NewMeter(meterFrame)
	return &Detector{
		clock: clock,
		meter: meter,
		level: meter.Level,
		gate:  NewGate(defaultThreshold),
	}
}

// Connect starts the sampling loop over the given source. The source is
// owned by the detector from here on and is closed on Disconnect.
func (d *Detector) Connect(src audio.Source) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if nil != d.src {
		return errors.New("onset: already connected")
	}
	d.src = src
	d.done = make(chan struct{})
	d.volumeCh = make(chan float64, 16)
	go d.loop(src, d.done)
	return nil
}

// Disconnect releases the source and stops the loop. Idempotent.
func (d *Detector) Disconnect() {
	d.mu.Lock()
	if nil == d.src {
		d.mu.Unlock()
		return
	}
	src := d.src
	d.src = nil
	close(d.done)
	close(d.volumeCh)
	d.mu.Unlock()

	if err := src.Close(); nil != err {
		log.Debug().Err(err).Msg("source close failed")
	}
}

func (d *Detector) Connected() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return nil != d.src
}

func (d *Detector) loop(src audio.Source, done chan struct{}) {
	for {
		select {
		case <-done:
			return
		default:
		}

		samples, err := src.Read()
		if nil != err {
			select {
			case <-done:
			default:
				log.Debug().Err(err).Msg("sample source ended")
				d.Disconnect()
			}
			return
		}

		volume := d.level(samples)
		now := d.clock.Now()

		d.mu.Lock()
		if nil == d.src {
			d.mu.Unlock()
			return
		}
		d.volume = volume
		fired := d.gate.Update(volume, now)
		handler := d.onOnset
		select {
		case d.volumeCh <- volume:
		default:
		}
		d.mu.Unlock()

		if fired && nil != handler {
			handler(now)
		}
	}
}

// CurrentVolume returns the latest bass-band volume sample in [0,100].
func (d *Detector) CurrentVolume() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.volume
}

// Volumes exposes the per-tick volume stream for meters and the
// calibration UI. Single subscriber; samples are dropped when the
// subscriber lags. The channel closes on disconnect.
func (d *Detector) Volumes() <-chan float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.volumeCh
}

func (d *Detector) SetOnsetHandler(fn func(time.Time)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.onOnset = fn
}

func (d *Detector) DetachOnsetHandler() {
	d.SetOnsetHandler(nil)
}

func (d *Detector) Threshold() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.gate.Threshold()
}

func (d *Detector) ReleaseThreshold() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.gate.ReleaseThreshold()
}

func (d *Detector) SetThreshold(t float64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.gate.SetThreshold(t)
}

func (d *Detector) NoiseFloor() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.gate.NoiseFloor()
}

// CalibrateThreshold samples ambient volume for 1.5s, takes the 95th
// percentile as the noise floor and derives the gate threshold from it.
// onProgress receives the fraction of the window elapsed.
func (d *Detector) CalibrateThreshold(onProgress func(float64)) (float64, error) {
	d.mu.Lock()
	if nil == d.src {
		d.mu.Unlock()
		return 0, ErrNotConnected
	}
	ch := d.volumeCh
	d.mu.Unlock()

	start := d.clock.Now()
	timeout := d.clock.After(calibrationWindow)
	samples := []float64{}

sampling:
	for {
		select {
		case v, ok := <-ch:
			if !ok {
				return 0, ErrNotConnected
			}
			samples = append(samples, v)
			if nil != onProgress {
				frac := float64(d.clock.Since(start)) / float64(calibrationWindow)
				if frac > 1 {
					frac = 1
				}
				onProgress(frac)
			}
		case <-timeout:
			break sampling
		}
	}

	floor, threshold := deriveThreshold(samples)
	d.mu.Lock()
	if nil == d.src {
		d.mu.Unlock()
		return 0, ErrNotConnected
	}
	d.gate.SetNoiseFloor(floor)
	d.gate.SetThreshold(threshold)
	applied := d.gate.Threshold()
	d.mu.Unlock()

	log.Info().
		Float64("noise_floor", floor).
		Float64("threshold", applied).
		Msg("threshold calibrated")
	return applied, nil
}

// deriveThreshold takes the 95th percentile of the ambient samples as
// the noise floor and places the threshold a fixed margin above it.
// SetThreshold clamps the result to [15,80].
func deriveThreshold(samples []float64) (floor, threshold float64) {
	if len(samples) > 0 {
		sorted := append([]float64(nil), samples...)
		sort.Float64s(sorted)
		idx := int(0.95 * float64(len(sorted)-1))
		floor = sorted[idx]
	}
	return floor, floor + noiseFloorMargin
}
