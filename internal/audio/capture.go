package audio

import (
	"errors"
	"fmt"
	"time"

	"github.com/gordonklaus/portaudio"
	"github.com/rs/zerolog/log"
)

const (
	captureSampleRate = 44100
	captureFrames     = 1024
	openRetries       = 3
)

// Capture is a live portaudio input stream.
type Capture struct {
	stream *portaudio.Stream
	buf    []float32
	out    []float64
}

// Devices enumerates input-capable devices. Enumeration failure is
// reported as an empty list, not an error.
func Devices() []Device {
	if err := portaudio.Initialize(); nil != err {
		log.Debug().Err(err).Msg("portaudio init failed during enumeration")
		return []Device{}
	}
	defer terminate()

	infos, err := portaudio.Devices()
	if nil != err {
		log.Debug().Err(err).Msg("device enumeration failed")
		return []Device{}
	}
	devices := []Device{}
	for _, info := range infos {
		if info.MaxInputChannels < 1 {
			continue
		}
		devices = append(devices, Device{
			ID:    info.Name,
			Label: fmt.Sprintf("%v (%v)", info.Name, info.HostApi.Name),
		})
	}
	return devices
}

// Open acquires an input stream. An empty deviceID selects the default
// input device.
func Open(deviceID string) (*Capture, error) {
	if err := portaudio.Initialize(); nil != err {
		return nil, fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}

	c := &Capture{
		buf: make([]float32, captureFrames),
		out: make([]float64, captureFrames),
	}

	var err error
	for attempt := 0; attempt < openRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(time.Duration(100*(1<<attempt)) * time.Millisecond)
		}
		c.stream, err = openStream(deviceID, c.buf)
		if nil != err {
			if errors.Is(err, ErrNoInputDevice) {
				terminate()
				return nil, err
			}
			continue
		}
		if err = c.stream.Start(); nil != err {
			c.stream.Close()
			c.stream = nil
			continue
		}
		return c, nil
	}

	terminate()
	return nil, fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
}

func openStream(deviceID string, buf []float32) (*portaudio.Stream, error) {
	if deviceID == "" {
		return portaudio.OpenDefaultStream(1, 0, captureSampleRate, len(buf), buf)
	}
	infos, err := portaudio.Devices()
	if nil != err {
		return nil, fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}
	for _, info := range infos {
		if info.Name != deviceID || info.MaxInputChannels < 1 {
			continue
		}
		params := portaudio.LowLatencyParameters(info, nil)
		params.Input.Channels = 1
		params.SampleRate = captureSampleRate
		params.FramesPerBuffer = len(buf)
		return portaudio.OpenStream(params, buf)
	}
	return nil, ErrNoInputDevice
}

func (c *Capture) SampleRate() float64 {
	return captureSampleRate
}

// Read blocks for one buffer period (~23ms at 44.1kHz/1024), which is
// what paces the detection loop.
func (c *Capture) Read() ([]float64, error) {
	if nil == c.stream {
		return nil, ErrDeviceUnavailable
	}
	if err := c.stream.Read(); nil != err {
		return nil, fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}
	for i, s := range c.buf {
		c.out[i] = float64(s)
	}
	return c.out, nil
}

func (c *Capture) Close() error {
	if nil == c.stream {
		return nil
	}
	if err := c.stream.Stop(); nil != err {
		log.Debug().Err(err).Msg("stream stop failed")
	}
	err := c.stream.Close()
	c.stream = nil
	terminate()
	return err
}

func terminate() {
	if err := portaudio.Terminate(); nil != err {
		log.Debug().Err(err).Msg("portaudio terminate failed")
	}
}
