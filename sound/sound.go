// Package sound plays note events and reference tones.
//
// Every backend implements Module. Onset and duration of a NoteEvent are
// interpreted by the backend, so the caller can hand over a whole strum at
// once and return without waiting.
package sound

import (
	"context"
	"errors"

	"github.com/jsphweid/strumdex/model"
)

var ErrDeviceUnavailable = errors.New("audio device unavailable")

type Module interface {
	// EnsureReady opens the output device on first use. It is safe to call
	// repeatedly.
	EnsureReady(ctx context.Context) error
	PlayPitch(ev model.NoteEvent)
	StartReferenceTone(freq float64) error
	StopReferenceTone()
}

// Null accepts everything and plays nothing.
type Null struct{}

func (Null) EnsureReady(ctx context.Context) error { return ctx.Err() }

func (Null) PlayPitch(model.NoteEvent) {}

func (Null) StartReferenceTone(float64) error { return nil }

func (Null) StopReferenceTone() {}
