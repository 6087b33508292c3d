package model

import "github.com/jsphweid/strumdex/constants"

// Fret is the fret held on one string. Muted strings are not sounded,
// Open (0) sounds the open string.
type Fret int

const (
	Muted Fret = -1
	Open  Fret = 0
)

func (f Fret) IsMuted() bool { return f < 0 }

// Finger labels the fretting finger: 1-4, or Free when no finger is used.
type Finger int

const Free Finger = 0

// Voicing is indexed by string, 0 = lowest pitched.
type Voicing [constants.NumStrings]Fret

// Barre is display-only metadata; playback never reads it.
type Barre struct {
	Finger Finger `json:"finger" yaml:"finger"`
	Fret   int    `json:"fret" yaml:"fret"`
	From   int    `json:"from" yaml:"from"`
	To     int    `json:"to" yaml:"to"`
}

// Shape is one playable variant of a chord.
type Shape struct {
	Frets   Voicing                      `json:"frets"`
	Fingers [constants.NumStrings]Finger `json:"fingers"`
	Barre   *Barre                       `json:"barre,omitempty"`
}

type ChordEntry struct {
	Key      string  `json:"key"`
	Name     string  `json:"name"`
	Root     int     `json:"root"` // pitch class
	Variants []Shape `json:"variants"`
}
