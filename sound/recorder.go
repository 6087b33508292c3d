package sound

import (
	"context"
	"sync"
	"time"

	"github.com/jsphweid/strumdex/clock"
	"github.com/jsphweid/strumdex/model"
)

type Recorded struct {
	At    time.Time
	Event model.NoteEvent
}

// Start is the absolute time the note begins to sound.
func (r Recorded) Start() time.Time {
	return r.At.Add(time.Duration(r.Event.Onset * float64(time.Second)))
}

// Recorder keeps every event it is handed, stamped with the clock time of
// dispatch. It backs the offline renderer and tests.
type Recorder struct {
	Clock clock.Clock
	// Fail makes EnsureReady report an unavailable device.
	Fail bool

	mu     sync.Mutex
	events []Recorded
	tone   float64
	readyN int
}

func NewRecorder(clk clock.Clock) *Recorder {
	return &Recorder{Clock: clk}
}

func (r *Recorder) EnsureReady(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if r.Fail {
		return ErrDeviceUnavailable
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.readyN++
	return nil
}

func (r *Recorder) PlayPitch(ev model.NoteEvent) {
	at := time.Now()
	if r.Clock != nil {
		at = r.Clock.Now()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, Recorded{At: at, Event: ev})
}

func (r *Recorder) StartReferenceTone(freq float64) error {
	if r.Fail {
		return ErrDeviceUnavailable
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tone = freq
	return nil
}

func (r *Recorder) StopReferenceTone() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tone = 0
}

// Tone returns the reference tone frequency, 0 when silent.
func (r *Recorder) Tone() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tone
}

func (r *Recorder) Events() []Recorded {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Recorded(nil), r.events...)
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}
