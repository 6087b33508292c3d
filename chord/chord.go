package chord

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jsphweid/strumdex/constants"
	"github.com/jsphweid/strumdex/model"
	"github.com/jsphweid/strumdex/pitch"
	"github.com/jsphweid/strumdex/util"
)

// PlayablePitches lists the sounding pitches of v from the lowest string up.
func PlayablePitches(v model.Voicing) []int {
	var res []int
	for s, fret := range v {
		if fret.IsMuted() {
			continue
		}
		res = append(res, constants.ReferenceTuning[s]+int(fret))
	}
	return res
}

// RootPitch picks the lowest playable pitch whose class is rootClass. When no
// string sounds the root it falls back to the lowest playable pitch, so a
// root hit is always audible. ok is false only if every string is muted.
func RootPitch(v model.Voicing, rootClass int) (p int, ok bool) {
	pitches := PlayablePitches(v)
	if len(pitches) == 0 {
		return 0, false
	}

	lowest := pitches[0]
	found := false
	for _, candidate := range pitches {
		if candidate < lowest {
			lowest = candidate
		}
		if pitch.Class(candidate) == pitch.Class(rootClass) && (!found || candidate < p) {
			p = candidate
			found = true
		}
	}
	if found {
		return p, true
	}
	return lowest, true
}

// Variant returns the shape at idx, clamping stale indexes to the last
// valid variant. The entry must have at least one variant.
func Variant(entry model.ChordEntry, idx int) (model.Shape, int) {
	idx = util.ClampIndex(idx, len(entry.Variants))
	return entry.Variants[idx], idx
}

func Validate(shape model.Shape) error {
	sounding := 0
	for s, fret := range shape.Frets {
		if fret < model.Muted {
			return fmt.Errorf("string %d: invalid fret %d", s, fret)
		}
		if !fret.IsMuted() {
			sounding++
		}
	}
	if sounding == 0 {
		return fmt.Errorf("all strings muted")
	}
	for s, finger := range shape.Fingers {
		if finger < model.Free || finger > 4 {
			return fmt.Errorf("string %d: invalid finger %d", s, finger)
		}
	}
	if b := shape.Barre; b != nil {
		if b.From < 0 || b.To >= constants.NumStrings || b.From > b.To {
			return fmt.Errorf("barre string range %d-%d out of bounds", b.From, b.To)
		}
	}
	return nil
}

// Diagram renders frets low to high, e.g. "x32010". Frets above 9 are
// wrapped in parentheses.
func Diagram(v model.Voicing) string {
	var sb strings.Builder
	for _, fret := range v {
		switch {
		case fret.IsMuted():
			sb.WriteByte('x')
		case fret > 9:
			sb.WriteString("(" + strconv.Itoa(int(fret)) + ")")
		default:
			sb.WriteString(strconv.Itoa(int(fret)))
		}
	}
	return sb.String()
}
