// Package strum turns one rhythmic step of a voicing into timed note events.
package strum

import (
	"math"

	"github.com/jsphweid/strumdex/chord"
	"github.com/jsphweid/strumdex/constants"
	"github.com/jsphweid/strumdex/model"
	"github.com/jsphweid/strumdex/util"
)

// Timing holds the playback parameters shared by every step. Durations are
// in seconds, Swing is a fraction of a beat.
type Timing struct {
	BPM      float64 `json:"bpm"`
	Swing    float64 `json:"swing"`
	StrumGap float64 `json:"strum_gap"`
	Sustain  float64 `json:"sustain"`
}

func DefaultTiming() Timing {
	return Timing{BPM: 92, Swing: 0, StrumGap: 0.012, Sustain: 0.24}
}

// BeatSeconds is the length of one quarter-note beat.
func (t Timing) BeatSeconds() float64 {
	return 60 / t.BPM
}

// StepSeconds is the length of one eighth-note step.
func (t Timing) StepSeconds() float64 {
	return t.BeatSeconds() / 2
}

// SwingPush is the delay applied to odd steps.
func (t Timing) SwingPush(step int) float64 {
	if step%2 == 0 {
		return 0
	}
	return t.Swing * t.BeatSeconds() / 2
}

// Schedule computes the events for one stroke at the given step. Down strokes
// visit strings low to high, up strokes high to low. Muted strings produce
// no event and take no gap. Rest returns nil.
func Schedule(v model.Voicing, accents [constants.StepsPerBar]bool, stroke model.Stroke, step int, timing Timing) []model.NoteEvent {
	if stroke == model.Rest {
		return nil
	}

	accent := constants.UnaccentedFactor
	if accents[((step%constants.StepsPerBar)+constants.StepsPerBar)%constants.StepsPerBar] {
		accent = 1.0
	}
	decay := constants.DownDecay
	if stroke == model.Up {
		decay = constants.UpDecay
	}
	push := timing.SwingPush(step)

	var events []model.NoteEvent
	i := 0
	for n := 0; n < constants.NumStrings; n++ {
		s := n
		if stroke == model.Up {
			s = constants.NumStrings - 1 - n
		}
		fret := v[s]
		if fret.IsMuted() {
			continue
		}
		velocity := constants.BaseVelocity * (1 - float64(i)*decay) * accent
		events = append(events, model.NoteEvent{
			Pitch:    constants.ReferenceTuning[s] + int(fret),
			Onset:    float64(i)*timing.StrumGap + push,
			Duration: timing.Sustain,
			Velocity: util.Clamp(velocity, constants.MinVelocity, constants.MaxVelocity),
		})
		i++
	}
	return events
}

// Root is the single low root hit fired on the first step of every bar. ok
// is false when the voicing has no playable string.
func Root(v model.Voicing, rootClass int, timing Timing) (model.NoteEvent, bool) {
	p, ok := chord.RootPitch(v, rootClass)
	if !ok {
		return model.NoteEvent{}, false
	}
	return model.NoteEvent{
		Pitch:    p,
		Onset:    0,
		Duration: math.Max(constants.MinRootSustain, timing.Sustain),
		Velocity: 1.0,
	}, true
}
