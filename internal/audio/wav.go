package audio

import (
	"fmt"
	"io"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const wavChunkFrames = 1024

// FileSource replays a wav file as if it were live input. It exists for
// rig testing and latency experiments without a microphone.
type FileSource struct {
	f     *os.File
	dec   *wav.Decoder
	buf   *goaudio.IntBuffer
	out   []float64
	scale float64
}

func OpenFile(path string) (*FileSource, error) {
	f, err := os.Open(path)
	if nil != err {
		return nil, err
	}
	dec := wav.NewDecoder(f)
	dec.ReadInfo()
	if !dec.IsValidFile() {
		f.Close()
		return nil, fmt.Errorf("audio: %v is not a valid wav file", path)
	}
	return &FileSource{
		f:   f,
		dec: dec,
		buf: &goaudio.IntBuffer{
			Format: &goaudio.Format{NumChannels: int(dec.NumChans), SampleRate: int(dec.SampleRate)},
			Data:   make([]int, wavChunkFrames*int(dec.NumChans)),
		},
		out:   make([]float64, wavChunkFrames),
		scale: float64(int(1) << (dec.BitDepth - 1)),
	}, nil
}

func (s *FileSource) SampleRate() float64 {
	return float64(s.dec.SampleRate)
}

// Read returns the next chunk, downmixed to mono. io.EOF ends the
// stream.
func (s *FileSource) Read() ([]float64, error) {
	n, err := s.dec.PCMBuffer(s.buf)
	if nil != err {
		return nil, err
	}
	if n == 0 {
		return nil, io.EOF
	}
	channels := s.buf.Format.NumChannels
	frames := n / channels
	out := s.out[:0]
	for i := 0; i < frames; i++ {
		sum := 0.0
		for ch := 0; ch < channels; ch++ {
			sum += float64(s.buf.Data[i*channels+ch])
		}
		out = append(out, sum/float64(channels)/s.scale)
	}
	return out, nil
}

func (s *FileSource) Close() error {
	return s.f.Close()
}
