package model

// NoDegree marks a sequence item that was not generated from a progression.
const NoDegree = -1

type SequenceItem struct {
	ID      string `json:"id"`
	Chord   string `json:"chord"`
	Variant int    `json:"variant"`
	Degree  int    `json:"degree"`
}

// NoteEvent is one note handed to the sound module. Onset and Duration are
// seconds; Onset is relative to the moment of dispatch.
type NoteEvent struct {
	Pitch    int     `json:"pitch"`
	Onset    float64 `json:"onset"`
	Duration float64 `json:"duration"`
	Velocity float64 `json:"velocity"`
}
