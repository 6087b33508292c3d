package capture

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gordonklaus/portaudio"
	"github.com/jsphweid/strumdex/constants"
)

// The PortAudio host is initialised once for the whole process and shared by
// every microphone stream.
var (
	hostMu    sync.Mutex
	hostReady bool
)

func initHost() error {
	hostMu.Lock()
	defer hostMu.Unlock()
	if hostReady {
		return nil
	}
	if err := portaudio.Initialize(); err != nil {
		return err
	}
	hostReady = true
	return nil
}

// Shutdown releases the PortAudio host. Streams must be closed first.
func Shutdown() {
	hostMu.Lock()
	defer hostMu.Unlock()
	if !hostReady {
		return
	}
	if err := portaudio.Terminate(); err != nil {
		slog.Warn("capture: terminate failed", "err", err)
	}
	hostReady = false
}

// Microphone reads the default input device.
type Microphone struct {
	Rate            float64
	FramesPerBuffer int
}

func (m Microphone) Open(ctx context.Context) (Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := initHost(); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNoInput, err)
	}
	frames := m.FramesPerBuffer
	if frames == 0 {
		frames = 512
	}

	ms := &micStream{rate: m.Rate, ring: NewRing(constants.DetectorBufferSize * 2)}
	stream, err := portaudio.OpenDefaultStream(1, 0, m.Rate, frames, func(in []float32) {
		ms.ring.Write(in)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNoInput, err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		return nil, fmt.Errorf("%w: %s", ErrNoInput, err)
	}
	ms.stream = stream
	slog.Debug("capture: microphone open", "rate", m.Rate, "frames", frames)
	return ms, nil
}

type micStream struct {
	rate   float64
	ring   *Ring
	stream *portaudio.Stream
	once   sync.Once
}

func (s *micStream) SampleRate() float64 { return s.rate }

func (s *micStream) Snapshot(dst []float32) int { return s.ring.Snapshot(dst) }

func (s *micStream) Close() error {
	var err error
	s.once.Do(func() {
		if stopErr := s.stream.Stop(); stopErr != nil {
			err = stopErr
		}
		if closeErr := s.stream.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
		slog.Debug("capture: microphone closed")
	})
	return err
}
