package calibrate

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

var (
	ErrInterrupted   = errors.New("calibrate: cancelled before completion")
	ErrSessionActive = errors.New("calibrate: a timing session is in progress")
	ErrNoResult      = errors.New("calibrate: no result to apply")
)

// Settings keys in the durable store. Absence implies defaults.
const (
	KeyLatency   = "timing_system_latency"
	KeyThreshold = "timing_threshold"
)

const (
	DefaultLatencyMs = 50.0
	requiredConfirms = 3
)

type State int

const (
	Idle State = iota
	AmbientSampling
	SignalConfirm
	Results
)

// Settings is the durable key-value store for calibration values.
type Settings interface {
	Setting(key string) (float64, bool, error)
	SetSetting(key string, value float64) error
}

// Detector is the slice of the onset detector the controller needs. The
// controller never touches gate state directly.
type Detector interface {
	CalibrateThreshold(onProgress func(float64)) (float64, error)
	SetOnsetHandler(func(time.Time))
	DetachOnsetHandler()
	SetThreshold(float64)
	Threshold() float64
}

// Result is a completed calibration, persisted on Apply.
type Result struct {
	SystemLatencyMs float64
	Threshold       float64
}

// Controller runs the guided calibration procedure:
// idle → ambient-sampling → signal-confirm → results → idle.
// Calibration and an active timing session are mutually exclusive.
type Controller struct {
	det      Detector
	settings Settings

	// SessionActive guards against calibrating mid-session. Nil means
	// no session can be active.
	SessionActive func() bool

	mu     sync.Mutex
	state  State
	result *Result
}

func New(det Detector, settings Settings) *Controller {
	return &Controller{det: det, settings: settings}
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Start resets in-progress state and runs the ambient-sampling phase.
// It returns with the controller in SignalConfirm.
func (c *Controller) Start(onProgress func(float64)) error {
	if nil != c.SessionActive && c.SessionActive() {
		return ErrSessionActive
	}
	c.mu.Lock()
	c.state = AmbientSampling
	c.result = nil
	c.mu.Unlock()

	if _, err := c.det.CalibrateThreshold(onProgress); nil != err {
		c.mu.Lock()
		c.state = Idle
		c.mu.Unlock()
		return err
	}

	c.mu.Lock()
	c.state = SignalConfirm
	c.mu.Unlock()
	return nil
}

// ConfirmSignal waits for the player to play three notes that clear the
// new threshold, then moves to Results. Cancelling the context cancels
// the whole calibration.
func (c *Controller) ConfirmSignal(ctx context.Context, onConfirm func(done, required int)) error {
	c.mu.Lock()
	if c.state != SignalConfirm {
		c.mu.Unlock()
		return ErrInterrupted
	}
	c.mu.Unlock()

	onsets := make(chan time.Time, requiredConfirms)
	c.det.SetOnsetHandler(func(t time.Time) {
		select {
		case onsets <- t:
		default:
		}
	})
	defer c.det.DetachOnsetHandler()

	for confirms := 0; confirms < requiredConfirms; {
		select {
		case <-ctx.Done():
			c.Cancel()
			return ErrInterrupted
		case <-onsets:
			confirms++
			if nil != onConfirm {
				onConfirm(confirms, requiredConfirms)
			}
		}
	}

	c.mu.Lock()
	c.state = Results
	c.result = &Result{
		SystemLatencyMs: DefaultLatencyMs,
		Threshold:       c.det.Threshold(),
	}
	c.mu.Unlock()
	return nil
}

// SetMeasuredLatency replaces the default latency estimate with a
// measured one. Only meaningful in Results.
func (c *Controller) SetMeasuredLatency(ms float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if nil != c.result {
		c.result.SystemLatencyMs = ms
	}
}

func (c *Controller) Result() (Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if nil == c.result {
		return Result{}, false
	}
	return *c.result, true
}

// Apply persists the result. The release threshold needs no separate
// persistence: it is recomputed from the threshold on every load.
func (c *Controller) Apply() error {
	c.mu.Lock()
	if c.state != Results || nil == c.result {
		c.mu.Unlock()
		return ErrNoResult
	}
	result := *c.result
	c.state = Idle
	c.result = nil
	c.mu.Unlock()

	if err := c.settings.SetSetting(KeyThreshold, result.Threshold); nil != err {
		return err
	}
	if err := c.settings.SetSetting(KeyLatency, result.SystemLatencyMs); nil != err {
		return err
	}
	log.Info().
		Float64("threshold", result.Threshold).
		Float64("latency_ms", result.SystemLatencyMs).
		Msg("calibration applied")
	return nil
}

// Cancel discards in-progress state without touching persisted values.
func (c *Controller) Cancel() {
	c.det.DetachOnsetHandler()
	c.mu.Lock()
	c.state = Idle
	c.result = nil
	c.mu.Unlock()
}

// LoadApply reads any persisted calibration and applies it to the
// detector. It returns the system latency to use; absence of persisted
// data leaves detector defaults in effect and returns the default
// latency.
func LoadApply(settings Settings, det Detector) (latencyMs float64, err error) {
	latencyMs = DefaultLatencyMs

	if threshold, ok, terr := settings.Setting(KeyThreshold); nil != terr {
		return latencyMs, terr
	} else if ok {
		det.SetThreshold(threshold)
	}
	if latency, ok, lerr := settings.Setting(KeyLatency); nil != lerr {
		return latencyMs, lerr
	} else if ok {
		latencyMs = latency
	}
	return latencyMs, nil
}
