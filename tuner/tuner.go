package tuner

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/bep/debounce"
	"github.com/jsphweid/strumdex/capture"
	"github.com/jsphweid/strumdex/clock"
	"github.com/jsphweid/strumdex/constants"
)

const DefaultSettle = 400 * time.Millisecond

type Config struct {
	Source    capture.Source
	Clock     clock.Clock
	FrameRate float64
	// Settle is how long a note must hold before OnSettled fires.
	Settle time.Duration
}

// Tuner polls a capture stream once per frame and publishes what it hears.
type Tuner struct {
	source    capture.Source
	clock     clock.Clock
	frameRate float64
	settle    func(func())

	mu        sync.Mutex
	running   bool
	stream    capture.Stream
	timer     clock.Timer
	gen       int
	buf       []float32
	last      Observation
	hasLast   bool
	signal    bool
	onUpdate  func(Observation)
	onSettled func(Observation)
}

func New(cfg Config) *Tuner {
	if cfg.Clock == nil {
		cfg.Clock = clock.Real{}
	}
	if cfg.FrameRate <= 0 {
		cfg.FrameRate = 60
	}
	if cfg.Settle <= 0 {
		cfg.Settle = DefaultSettle
	}
	return &Tuner{
		source:    cfg.Source,
		clock:     cfg.Clock,
		frameRate: cfg.FrameRate,
		settle:    debounce.New(cfg.Settle),
		buf:       make([]float32, constants.DetectorBufferSize),
	}
}

// OnUpdate is called with every observation that carries a signal.
func (t *Tuner) OnUpdate(fn func(Observation)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onUpdate = fn
}

// OnSettled is called once the detected note has stopped changing.
func (t *Tuner) OnSettled(fn func(Observation)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onSettled = fn
}

// Start opens the capture stream and begins polling. Starting a running
// tuner does nothing. If the input cannot be opened the tuner stays stopped.
func (t *Tuner) Start(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.running {
		return nil
	}
	stream, err := t.source.Open(ctx)
	if err != nil {
		return fmt.Errorf("tuner: %w", err)
	}
	t.stream = stream
	t.running = true
	t.gen++
	gen := t.gen
	t.timer = t.clock.Every(time.Duration(float64(time.Second)/t.frameRate), func() { t.tick(gen) })
	slog.Info("tuner: started", "sample_rate", stream.SampleRate(), "frame_rate", t.frameRate)
	return nil
}

// Stop halts polling, releases the input and clears the last observation.
func (t *Tuner) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.running {
		return
	}
	t.running = false
	t.gen++
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	if err := t.stream.Close(); err != nil {
		slog.Warn("tuner: closing input failed", "err", err)
	}
	t.stream = nil
	t.last = Observation{}
	t.hasLast = false
	t.signal = false
	slog.Info("tuner: stopped")
}

func (t *Tuner) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

// Last returns the most recent observation. ok is false when nothing has
// been heard since the tuner started.
func (t *Tuner) Last() (Observation, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.last, t.hasLast
}

// Signal reports whether the latest frame carried a pitch. Last keeps the
// previous reading through silent frames.
func (t *Tuner) Signal() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.signal
}

func (t *Tuner) tick(gen int) {
	t.mu.Lock()
	if !t.running || gen != t.gen {
		t.mu.Unlock()
		return
	}
	n := t.stream.Snapshot(t.buf)
	obs, ok := Detect(t.buf[:n], t.stream.SampleRate())
	t.signal = ok
	if !ok {
		// no signal: keep showing the previous reading
		t.mu.Unlock()
		return
	}
	changed := !t.hasLast || obs.Pitch != t.last.Pitch
	t.last = obs
	t.hasLast = true
	onUpdate, onSettled := t.onUpdate, t.onSettled
	t.mu.Unlock()

	if onUpdate != nil {
		onUpdate(obs)
	}
	if changed && onSettled != nil {
		t.settle(func() {
			if last, ok := t.Last(); ok && last.Pitch == obs.Pitch && t.Running() {
				onSettled(last)
			}
		})
	}
}
