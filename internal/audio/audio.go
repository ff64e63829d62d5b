package audio

import (
	"errors"
)

var (
	ErrNoInputDevice     = errors.New("audio: no matching input device")
	ErrDeviceUnavailable = errors.New("audio: input device unavailable")
)

// Source yields successive buffers of mono samples in [-1, 1]. Read
// blocks until a buffer is available; a permanent failure or end of
// input ends the stream with an error.
type Source interface {
	SampleRate() float64
	Read() ([]float64, error)
	Close() error
}

// Device identifies a selectable audio input.
type Device struct {
	ID    string
	Label string
}
