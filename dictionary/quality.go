package dictionary

import (
	"fmt"
	"strings"

	"github.com/jsphweid/strumdex/constants"
	"github.com/jsphweid/strumdex/model"
	"github.com/jsphweid/strumdex/pitch"
)

// Chord keys are spelled with these roots.
var spelling = [12]string{"C", "C#", "D", "Eb", "E", "F", "F#", "G", "G#", "A", "Bb", "B"}

func Spell(class int) string {
	return spelling[pitch.Class(class)]
}

type Quality struct {
	Suffix string
	Name   string
	shapes []movable
}

const mute = -1 // muted string in a movable template

// movable is a barre shape with frets relative to the barre. lowest is the
// string carrying the root.
type movable struct {
	lowest  int
	frets   [constants.NumStrings]int
	fingers [constants.NumStrings]model.Finger
}

var (
	Major = Quality{Suffix: "", Name: "major", shapes: []movable{
		{lowest: 0, frets: [6]int{0, 2, 2, 1, 0, 0}, fingers: [6]model.Finger{1, 3, 4, 2, 1, 1}},
		{lowest: 1, frets: [6]int{mute, 0, 2, 2, 2, 0}, fingers: [6]model.Finger{0, 1, 2, 3, 4, 1}},
	}}
	Minor = Quality{Suffix: "m", Name: "minor", shapes: []movable{
		{lowest: 0, frets: [6]int{0, 2, 2, 0, 0, 0}, fingers: [6]model.Finger{1, 3, 4, 1, 1, 1}},
		{lowest: 1, frets: [6]int{mute, 0, 2, 2, 1, 0}, fingers: [6]model.Finger{0, 1, 3, 4, 2, 1}},
	}}
	Dominant7 = Quality{Suffix: "7", Name: "dominant 7", shapes: []movable{
		{lowest: 0, frets: [6]int{0, 2, 0, 1, 0, 0}, fingers: [6]model.Finger{1, 3, 1, 2, 1, 1}},
		{lowest: 1, frets: [6]int{mute, 0, 2, 0, 2, 0}, fingers: [6]model.Finger{0, 1, 3, 1, 4, 1}},
	}}
	Minor7 = Quality{Suffix: "m7", Name: "minor 7", shapes: []movable{
		{lowest: 0, frets: [6]int{0, 2, 0, 0, 0, 0}, fingers: [6]model.Finger{1, 3, 1, 1, 1, 1}},
		{lowest: 1, frets: [6]int{mute, 0, 2, 0, 1, 0}, fingers: [6]model.Finger{0, 1, 3, 1, 2, 1}},
	}}
	Major7 = Quality{Suffix: "maj7", Name: "major 7", shapes: []movable{
		{lowest: 0, frets: [6]int{0, mute, 1, 1, 0, mute}, fingers: [6]model.Finger{1, 0, 3, 4, 2, 0}},
		{lowest: 1, frets: [6]int{mute, 0, 2, 1, 2, 0}, fingers: [6]model.Finger{0, 1, 3, 2, 4, 1}},
	}}
	Diminished = Quality{Suffix: "dim", Name: "diminished", shapes: []movable{
		{lowest: 1, frets: [6]int{mute, 0, 1, 2, 1, mute}, fingers: [6]model.Finger{0, 1, 2, 4, 3, 0}},
	}}
)

// Longest suffixes first so "m7" is not read as "m".
var qualities = []Quality{Major7, Minor7, Diminished, Dominant7, Minor, Major}

// ParseKey splits a chord key such as "F#m7" or "Bbmaj7" into root pitch
// class and quality.
func ParseKey(key string) (int, Quality, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return 0, Quality{}, fmt.Errorf("%w: empty key", ErrUnknownChord)
	}
	n := 1
	if len(key) > 1 && (key[1] == '#' || key[1] == 'b') {
		n = 2
	}
	root, err := pitch.ParseClass(key[:n])
	if err != nil {
		return 0, Quality{}, fmt.Errorf("%w: %s", ErrUnknownChord, key)
	}
	rest := key[n:]
	for _, q := range qualities {
		if rest == q.Suffix {
			return root, q, nil
		}
	}
	return 0, Quality{}, fmt.Errorf("%w: %s", ErrUnknownChord, key)
}

// Key spells the canonical chord key for root and quality.
func Key(root int, q Quality) string {
	return Spell(root) + q.Suffix
}

// barreShapes places every movable template of q so its root lands on root,
// keeping the barre between fret 1 and 12.
func barreShapes(root int, q Quality) []model.Shape {
	var res []model.Shape
	for _, mv := range q.shapes {
		fret := pitch.Class(root - constants.ReferenceTuning[mv.lowest])
		if fret == 0 {
			fret = 12
		}
		var shape model.Shape
		top := mv.lowest
		for s, rel := range mv.frets {
			if rel == mute {
				shape.Frets[s] = model.Muted
				continue
			}
			shape.Frets[s] = model.Fret(fret + rel)
			shape.Fingers[s] = mv.fingers[s]
			top = s
		}
		shape.Barre = &model.Barre{Finger: 1, Fret: fret, From: mv.lowest, To: top}
		res = append(res, shape)
	}
	return res
}
