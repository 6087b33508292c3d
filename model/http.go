package model

type ErrorResponse struct {
	Error string `json:"detail"`
}

type PlayChordRequest struct {
	Chord   string `json:"chord"`
	Variant int    `json:"variant"`
}

type StopRequest struct {
	// Player is "chord", "sequence" or empty for both.
	Player string `json:"player"`
}

type ItemRequest struct {
	Chord   string `json:"chord"`
	Variant int    `json:"variant"`
	// Position inserts before the given index instead of appending.
	Position *int `json:"position,omitempty"`
}

type ProgressionRequest struct {
	Key         string `json:"key"`
	Progression string `json:"progression"`
}

type SequenceResponse struct {
	Items []SequenceItem `json:"items"`
}

type AlternativesResponse struct {
	Item   SequenceItem `json:"item"`
	Chords []string     `json:"chords"`
}

type ToneRequest struct {
	// Tone is a note name ("A4") or a frequency in Hz ("440").
	Tone string `json:"tone"`
}

type ToneResponse struct {
	Frequency float64 `json:"frequency"`
}
