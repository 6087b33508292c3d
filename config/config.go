// Package config loads the user's practice settings from a YAML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-yaml"
	"github.com/jsphweid/strumdex/strum"
)

var ErrInvalidSettings = errors.New("invalid settings")

const (
	MinBPM   = 30
	MaxBPM   = 300
	MaxSwing = 0.5
)

const (
	BackendSpeaker   = "speaker"
	BackendMIDI      = "midi"
	BackendSoundFont = "soundfont"
	BackendNone      = "none"
)

type SequenceEntry struct {
	Chord   string `yaml:"chord" json:"chord"`
	Variant int    `yaml:"variant" json:"variant"`
}

type Sound struct {
	Backend    string `yaml:"backend" json:"backend"`
	SampleRate int    `yaml:"sample_rate" json:"sample_rate"`
	MIDIPort   string `yaml:"midi_port" json:"midi_port"`
	SoundFont  string `yaml:"soundfont" json:"soundfont"`
	Program    int    `yaml:"program" json:"program"`
}

type Tuner struct {
	SampleRate int `yaml:"sample_rate" json:"sample_rate"`
	FrameRate  int `yaml:"frame_rate" json:"frame_rate"`
}

type Settings struct {
	BPM          float64         `yaml:"bpm" json:"bpm"`
	Swing        float64         `yaml:"swing" json:"swing"`
	StrumGap     float64         `yaml:"strum_gap" json:"strum_gap"`
	Sustain      float64         `yaml:"sustain" json:"sustain"`
	LoopChord    bool            `yaml:"loop_chord" json:"loop_chord"`
	LoopSequence bool            `yaml:"loop_sequence" json:"loop_sequence"`
	Pattern      string          `yaml:"pattern" json:"pattern"`
	Chord        string          `yaml:"chord" json:"chord"`
	Variant      int             `yaml:"variant" json:"variant"`
	Sequence     []SequenceEntry `yaml:"sequence" json:"sequence"`
	Sound        Sound           `yaml:"sound" json:"sound"`
	Tuner        Tuner           `yaml:"tuner" json:"tuner"`
	Listen       string          `yaml:"listen" json:"listen"`
}

func Default() Settings {
	t := strum.DefaultTiming()
	return Settings{
		BPM:          t.BPM,
		Swing:        t.Swing,
		StrumGap:     t.StrumGap,
		Sustain:      t.Sustain,
		LoopChord:    true,
		LoopSequence: true,
		Pattern:      "folk",
		Chord:        "C",
		Sequence: []SequenceEntry{
			{Chord: "C"}, {Chord: "G"}, {Chord: "Am"}, {Chord: "F"},
		},
		Sound: Sound{
			Backend:    BackendSpeaker,
			SampleRate: 44100,
			Program:    25,
		},
		Tuner:  Tuner{SampleRate: 44100, FrameRate: 60},
		Listen: ":8080",
	}
}

// Timing is the strum timing part of the settings.
func (s Settings) Timing() strum.Timing {
	return strum.Timing{BPM: s.BPM, Swing: s.Swing, StrumGap: s.StrumGap, Sustain: s.Sustain}
}

func invalid(field string, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %s", ErrInvalidSettings, field, fmt.Sprintf(format, args...))
}

func (s Settings) Validate() error {
	if s.BPM < MinBPM || s.BPM > MaxBPM {
		return invalid("bpm", "%v not in %d..%d", s.BPM, MinBPM, MaxBPM)
	}
	if s.Swing < 0 || s.Swing > MaxSwing {
		return invalid("swing", "%v not in 0..%v", s.Swing, MaxSwing)
	}
	if s.StrumGap < 0 || s.StrumGap > 0.1 {
		return invalid("strum_gap", "%v not in 0..0.1", s.StrumGap)
	}
	if s.Sustain <= 0 {
		return invalid("sustain", "must be positive")
	}
	if s.Variant < 0 {
		return invalid("variant", "must not be negative")
	}
	switch s.Sound.Backend {
	case BackendSpeaker, BackendMIDI, BackendSoundFont, BackendNone:
	default:
		return invalid("sound.backend", "unknown backend %q", s.Sound.Backend)
	}
	if s.Sound.Backend == BackendSoundFont && s.Sound.SoundFont == "" {
		return invalid("sound.soundfont", "required by the soundfont backend")
	}
	if s.Sound.SampleRate <= 0 {
		return invalid("sound.sample_rate", "must be positive")
	}
	if s.Sound.Program < 0 || s.Sound.Program > 127 {
		return invalid("sound.program", "%d not in 0..127", s.Sound.Program)
	}
	if s.Tuner.SampleRate <= 0 {
		return invalid("tuner.sample_rate", "must be positive")
	}
	if s.Tuner.FrameRate <= 0 {
		return invalid("tuner.frame_rate", "must be positive")
	}
	return nil
}

// Load reads settings from path. Fields missing from the file keep their
// defaults, and a missing file gives the defaults.
func Load(path string) (Settings, error) {
	s := Default()
	if path == "" {
		return s, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return s, fmt.Errorf("read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Default(), fmt.Errorf("parse %s: %w", path, err)
	}
	if err := s.Validate(); err != nil {
		return Default(), fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

func Save(path string, s Settings) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// Patch is a partial settings update. Nil fields are left alone.
type Patch struct {
	BPM          *float64 `json:"bpm,omitempty"`
	Swing        *float64 `json:"swing,omitempty"`
	StrumGap     *float64 `json:"strum_gap,omitempty"`
	Sustain      *float64 `json:"sustain,omitempty"`
	LoopChord    *bool    `json:"loop_chord,omitempty"`
	LoopSequence *bool    `json:"loop_sequence,omitempty"`
	Pattern      *string  `json:"pattern,omitempty"`
}

// Apply returns s with the patch applied, or an error if the result is not
// valid. s itself is not modified.
func (p Patch) Apply(s Settings) (Settings, error) {
	if p.BPM != nil {
		s.BPM = *p.BPM
	}
	if p.Swing != nil {
		s.Swing = *p.Swing
	}
	if p.StrumGap != nil {
		s.StrumGap = *p.StrumGap
	}
	if p.Sustain != nil {
		s.Sustain = *p.Sustain
	}
	if p.LoopChord != nil {
		s.LoopChord = *p.LoopChord
	}
	if p.LoopSequence != nil {
		s.LoopSequence = *p.LoopSequence
	}
	if p.Pattern != nil {
		s.Pattern = *p.Pattern
	}
	s.Sequence = append([]SequenceEntry(nil), s.Sequence...)
	if err := s.Validate(); err != nil {
		return s, err
	}
	return s, nil
}
