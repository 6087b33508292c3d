// Package tuner estimates the pitch of a single sung or played note.
package tuner

import (
	"math"

	"github.com/jsphweid/strumdex/constants"
	"github.com/jsphweid/strumdex/pitch"
	"github.com/jsphweid/strumdex/sample"
)

type Observation struct {
	Frequency float64 `json:"frequency"`
	Pitch     int     `json:"pitch"`
	Note      string  `json:"note"`
	Octave    int     `json:"octave"`
	Cents     int     `json:"cents"`
}

// Name is note plus octave, e.g. "A4".
func (o Observation) Name() string {
	return pitch.Name(o.Pitch)
}

// Detect estimates the fundamental of the first DetectorBufferSize samples
// of buf. ok is false when the buffer is too short, too quiet, or has no
// periodic candidate.
//
// The lag search scores each offset by the mean absolute difference between
// the window and its shifted copy. The first offset that scores above the
// threshold and above its predecessor becomes the candidate and is replaced
// while the score keeps rising; the first drop ends the search. This is a
// local search rather than a global best-lag search and can land an octave
// off on low or harmonically rich notes.
func Detect(buf []float32, sampleRate float64) (Observation, bool) {
	if len(buf) < constants.DetectorBufferSize {
		return Observation{}, false
	}
	buf = buf[:constants.DetectorBufferSize]
	if sample.RMS(buf) < constants.DetectorMinRMS {
		return Observation{}, false
	}

	bestOffset := -1
	bestScore := 0.0
	prev := 0.0
	found := false
	for offset := constants.DetectorMinOffset; offset < constants.DetectorWindow; offset++ {
		var diff float64
		for i := 0; i < constants.DetectorWindow; i++ {
			diff += math.Abs(float64(buf[i]) - float64(buf[i+offset]))
		}
		score := 1 - diff/constants.DetectorWindow

		if score > constants.DetectorGoodScore && score > prev {
			found = true
			bestOffset = offset
			bestScore = score
		} else if found {
			break
		}
		prev = score
	}

	if bestScore <= constants.DetectorMinScore || bestOffset <= 0 {
		return Observation{}, false
	}

	freq := sampleRate / float64(bestOffset)
	p := int(math.Round(pitch.FromFrequency(freq)))
	return Observation{
		Frequency: freq,
		Pitch:     p,
		Note:      pitch.ClassName(p),
		Octave:    pitch.Octave(p),
		Cents:     pitch.CentsDeviation(freq, p),
	}, true
}
