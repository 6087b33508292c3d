package capture

import (
	"context"
	"sync"
	"time"

	"github.com/jsphweid/strumdex/file"
)

// WAVFile plays a recording through the tuner. Each Snapshot returns the
// window ending at the current position and then moves one hop forward, so
// a tuner ticking at FrameRate walks the file in real time.
type WAVFile struct {
	Path      string
	FrameRate float64

	audio file.Audio
}

func OpenWAV(path string, frameRate float64) (*WAVFile, error) {
	a, err := file.ReadWAV(path)
	if err != nil {
		return nil, err
	}
	return &WAVFile{Path: path, FrameRate: frameRate, audio: a}, nil
}

func (w *WAVFile) Duration() time.Duration {
	if w.audio.SampleRate == 0 {
		return 0
	}
	return time.Duration(float64(w.audio.Frames()) / float64(w.audio.SampleRate) * float64(time.Second))
}

func (w *WAVFile) Open(ctx context.Context) (Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	hop := int(float64(w.audio.SampleRate) / w.FrameRate)
	if hop < 1 {
		hop = 1
	}
	return &fileStream{
		rate:    float64(w.audio.SampleRate),
		samples: w.audio.Mono(),
		hop:     hop,
	}, nil
}

type fileStream struct {
	mu      sync.Mutex
	rate    float64
	samples []float32
	hop     int
	pos     int
}

func (s *fileStream) SampleRate() float64 { return s.rate }

func (s *fileStream) Snapshot(dst []float32) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pos = min(s.pos+s.hop, len(s.samples))
	start := max(s.pos-len(dst), 0)
	return copy(dst, s.samples[start:s.pos])
}

func (s *fileStream) Close() error { return nil }
