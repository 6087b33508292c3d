package sound

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/jsphweid/strumdex/model"
)

// The speaker is a process-wide device; it is initialised once and every
// Speaker module plays into it.
var (
	deviceMu   sync.Mutex
	deviceRate beep.SampleRate
	deviceErr  error
	deviceOpen bool
)

func openDevice(rate beep.SampleRate, latency time.Duration) error {
	deviceMu.Lock()
	defer deviceMu.Unlock()
	if deviceOpen {
		if rate != deviceRate {
			return fmt.Errorf("speaker already running at %d Hz", deviceRate)
		}
		return nil
	}
	if deviceErr != nil {
		return deviceErr
	}
	if err := speaker.Init(rate, rate.N(latency)); err != nil {
		deviceErr = err
		return err
	}
	deviceOpen = true
	deviceRate = rate
	return nil
}

// CloseDevice shuts the speaker down at exit.
func CloseDevice() {
	deviceMu.Lock()
	defer deviceMu.Unlock()
	if deviceOpen {
		speaker.Close()
		deviceOpen = false
	}
}

// Speaker plays an Engine through the default output device.
type Speaker struct {
	engine  *Engine
	latency time.Duration

	mu    sync.Mutex
	ready bool
	err   error
}

func NewSpeaker(engine *Engine, latency time.Duration) *Speaker {
	if latency <= 0 {
		latency = 50 * time.Millisecond
	}
	return &Speaker{engine: engine, latency: latency}
}

// EnsureReady opens the device on the first call. A failure is remembered
// and returned again; there is no retry.
func (s *Speaker) EnsureReady(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ready || s.err != nil {
		return s.err
	}
	if err := openDevice(beep.SampleRate(s.engine.SampleRate()), s.latency); err != nil {
		s.err = fmt.Errorf("%w: %s", ErrDeviceUnavailable, err)
		slog.Error("sound: speaker unavailable", "err", err)
		return s.err
	}
	speaker.Play(s.engine)
	s.ready = true
	slog.Debug("sound: speaker ready", "rate", s.engine.SampleRate(), "latency", s.latency)
	return nil
}

func (s *Speaker) PlayPitch(ev model.NoteEvent) {
	s.engine.Play(ev)
}

func (s *Speaker) StartReferenceTone(freq float64) error {
	if err := s.EnsureReady(context.Background()); err != nil {
		return err
	}
	s.engine.SetTone(freq)
	return nil
}

func (s *Speaker) StopReferenceTone() {
	s.engine.ClearTone()
}
