package sound

import (
	"time"
)

// Render plays recorded events through inst offline, starting the output at
// start, and returns interleaved stereo samples. tail is extra silence left
// after the last note ends so the instrument can ring out.
func Render(events []Recorded, start time.Time, inst Instrument, rate int, tail time.Duration) []float32 {
	e := NewEngine(rate, inst)

	var end time.Duration
	for _, r := range events {
		at := r.At.Sub(start)
		e.Schedule(r.Event, e.frames(at.Seconds()))
		noteEnd := at + time.Duration((r.Event.Onset+r.Event.Duration)*float64(time.Second))
		end = max(end, noteEnd)
	}
	if len(events) == 0 {
		return nil
	}

	total := int(e.frames((end + tail).Seconds()))
	left, right := e.Render(total)
	out := make([]float32, 0, 2*total)
	for i := range left {
		out = append(out, left[i], right[i])
	}
	return out
}
