// Package practice is the state behind every front end: the current
// settings, the editable chord sequence, the single-chord and sequence
// players and the tuner. The CLI and the HTTP API are thin layers over a
// Session.
package practice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/bep/debounce"
	"github.com/google/uuid"
	"github.com/hako/durafmt"
	"github.com/jsphweid/strumdex/capture"
	"github.com/jsphweid/strumdex/clock"
	"github.com/jsphweid/strumdex/config"
	"github.com/jsphweid/strumdex/dictionary"
	"github.com/jsphweid/strumdex/model"
	"github.com/jsphweid/strumdex/pitch"
	"github.com/jsphweid/strumdex/player"
	"github.com/jsphweid/strumdex/sequence"
	"github.com/jsphweid/strumdex/sound"
	"github.com/jsphweid/strumdex/tuner"
)

const (
	ChordPlayer    = "chord"
	SequencePlayer = "sequence"
)

var (
	ErrUnknownPlayer = errors.New("unknown player")
	ErrInvalidTone   = errors.New("invalid reference tone")
)

// Reference tones outside this range are rejected.
const (
	MinToneHz = 20.0
	MaxToneHz = 5000.0
)

const sequenceSettle = 750 * time.Millisecond

type Config struct {
	Settings   config.Settings
	Dictionary *dictionary.Dictionary
	Sound      sound.Module
	// Input feeds the tuner. A nil Input makes StartTuner fail with
	// capture.ErrNoInput.
	Input capture.Source
	Clock clock.Clock
}

type Session struct {
	id      string
	started time.Time
	clock   clock.Clock
	dict    *dictionary.Dictionary
	out     sound.Module

	seq      *sequence.Sequence
	group    *player.Group
	chordP   *player.Player
	sequence *player.Player
	tuner    *tuner.Tuner

	mu       sync.Mutex
	settings config.Settings
	key      string
	tone     float64
}

func New(cfg Config) (*Session, error) {
	if cfg.Clock == nil {
		cfg.Clock = clock.Real{}
	}
	if cfg.Dictionary == nil {
		cfg.Dictionary = dictionary.Default()
	}
	if cfg.Sound == nil {
		cfg.Sound = sound.Null{}
	}
	if err := cfg.Settings.Validate(); err != nil {
		return nil, err
	}
	pattern, ok := cfg.Dictionary.Pattern(cfg.Settings.Pattern)
	if !ok {
		return nil, fmt.Errorf("%w: %s", dictionary.ErrUnknownPattern, cfg.Settings.Pattern)
	}

	s := &Session{
		id:       uuid.NewString(),
		started:  cfg.Clock.Now(),
		clock:    cfg.Clock,
		dict:     cfg.Dictionary,
		out:      cfg.Sound,
		group:    player.NewGroup(),
		settings: cfg.Settings,
	}

	var items []model.SequenceItem
	for _, e := range cfg.Settings.Sequence {
		key, err := s.chordKey(e.Chord)
		if err != nil {
			return nil, err
		}
		items = append(items, sequence.NewItem(key, e.Variant, model.NoDegree))
	}
	s.seq = sequence.New(sequence.DefaultPlaceholder, items...)

	timing := cfg.Settings.Timing()
	s.chordP = player.New(player.Config{
		Name: ChordPlayer, Clock: cfg.Clock, Out: cfg.Sound, Group: s.group,
		Pattern: pattern, Timing: timing, Loop: cfg.Settings.LoopChord,
	})
	s.sequence = player.New(player.Config{
		Name: SequencePlayer, Clock: cfg.Clock, Out: cfg.Sound, Group: s.group,
		Pattern: pattern, Timing: timing, Loop: cfg.Settings.LoopSequence,
	})

	notify := debounce.New(sequenceSettle)
	s.seq.OnChange(func(items []model.SequenceItem) {
		notify(func() {
			slog.Info("practice: sequence changed", "bars", len(items), "chords", chordList(items))
		})
	})

	if cfg.Input != nil {
		s.tuner = tuner.New(tuner.Config{
			Source:    cfg.Input,
			Clock:     cfg.Clock,
			FrameRate: float64(cfg.Settings.Tuner.FrameRate),
		})
		s.tuner.OnSettled(func(obs tuner.Observation) {
			slog.Info("practice: tuner settled", "note", obs.Name(), "cents", obs.Cents, "hz", obs.Frequency)
		})
	}

	slog.Debug("practice: session created", "id", s.id, "pattern", pattern.ID, "bars", s.seq.Len())
	return s, nil
}

func chordList(items []model.SequenceItem) string {
	names := make([]string, len(items))
	for i, item := range items {
		names[i] = item.Chord
	}
	return strings.Join(names, " ")
}

func (s *Session) ID() string { return s.id }

// chordKey checks key against the dictionary and returns its canonical
// spelling.
func (s *Session) chordKey(key string) (string, error) {
	entry, ok := s.dict.Chord(key)
	if !ok {
		return "", fmt.Errorf("%w: %s", dictionary.ErrUnknownChord, key)
	}
	return entry.Key, nil
}

func (s *Session) bar(key string, variant int) (player.Bar, error) {
	entry, shape, _, err := s.dict.Resolve(key, variant)
	if err != nil {
		return player.Bar{}, err
	}
	return player.Bar{Voicing: shape.Frets, RootClass: entry.Root, Label: entry.Key}, nil
}

// PlayChord loops one chord shape, replacing whatever was playing. The
// chord becomes the session's current chord.
func (s *Session) PlayChord(ctx context.Context, key string, variant int) error {
	b, err := s.bar(key, variant)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.settings.Chord = b.Label
	s.settings.Variant = variant
	s.mu.Unlock()
	return s.chordP.Play(ctx, player.Fixed(b))
}

// PlaySequence plays the sequence from its first bar.
func (s *Session) PlaySequence(ctx context.Context) error {
	return s.sequence.Play(ctx, sequenceSource{s})
}

// Stop stops the named player, or both when name is empty.
func (s *Session) Stop(name string) error {
	switch name {
	case "":
		s.group.StopAll()
	case ChordPlayer:
		s.chordP.Stop()
	case SequencePlayer:
		s.sequence.Stop()
	default:
		return fmt.Errorf("%w: %s", ErrUnknownPlayer, name)
	}
	return nil
}

// Close stops all playback, the tuner and the reference tone.
func (s *Session) Close() {
	s.group.StopAll()
	s.StopTuner()
	s.StopReferenceTone()
}

// sequenceSource reads the live sequence, resolving each bar through the
// dictionary when the player reaches it.
type sequenceSource struct{ s *Session }

func (src sequenceSource) Len() int { return src.s.seq.Len() }

func (src sequenceSource) Bar(i int) (player.Bar, error) {
	item, ok := src.s.seq.At(i)
	if !ok {
		return player.Bar{}, fmt.Errorf("bar %d: %w", i, sequence.ErrNotFound)
	}
	return src.s.bar(item.Chord, item.Variant)
}

// TunerStatus carries the last reading heard. Signal is false when the
// latest frame was silent and Reading is being held.
type TunerStatus struct {
	Running bool               `json:"running"`
	Signal  bool               `json:"signal"`
	Reading *tuner.Observation `json:"reading,omitempty"`
}

type Status struct {
	ID       string          `json:"id"`
	Uptime   string          `json:"uptime"`
	Active   string          `json:"active,omitempty"`
	Chord    player.Status   `json:"chord"`
	Sequence player.Status   `json:"sequence"`
	Key      string          `json:"key,omitempty"`
	Tone     float64         `json:"tone,omitempty"`
	Tuner    TunerStatus     `json:"tuner"`
	Settings config.Settings `json:"settings"`
}

func (s *Session) Status() Status {
	s.mu.Lock()
	st := Status{
		ID:       s.id,
		Uptime:   durafmt.Parse(s.clock.Now().Sub(s.started).Round(time.Second)).LimitFirstN(2).String(),
		Key:      s.key,
		Tone:     s.tone,
		Settings: s.settingsLocked(),
	}
	s.mu.Unlock()

	st.Chord = s.chordP.Status()
	st.Sequence = s.sequence.Status()
	if p := s.group.Active(); p != nil {
		st.Active = p.Name()
	}
	st.Tuner = s.Tuner()
	return st
}

func (s *Session) settingsLocked() config.Settings {
	res := s.settings
	res.Sequence = nil
	for _, item := range s.seq.Items() {
		res.Sequence = append(res.Sequence, config.SequenceEntry{Chord: item.Chord, Variant: item.Variant})
	}
	return res
}

// Settings returns the current settings, including the live sequence.
func (s *Session) Settings() config.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settingsLocked()
}

// UpdateSettings applies patch and pushes the new pattern, timing and loop
// flags to both players. Running players pick up the change at their next
// step.
func (s *Session) UpdateSettings(patch config.Patch) (config.Settings, error) {
	s.mu.Lock()
	next, err := patch.Apply(s.settings)
	if err != nil {
		s.mu.Unlock()
		return config.Settings{}, err
	}
	pattern, ok := s.dict.Pattern(next.Pattern)
	if !ok {
		s.mu.Unlock()
		return config.Settings{}, fmt.Errorf("%w: %s", dictionary.ErrUnknownPattern, next.Pattern)
	}
	s.settings = next
	res := s.settingsLocked()
	s.mu.Unlock()

	timing := next.Timing()
	for _, p := range []*player.Player{s.chordP, s.sequence} {
		p.SetPattern(pattern)
		p.SetTiming(timing)
	}
	s.chordP.SetLoop(next.LoopChord)
	s.sequence.SetLoop(next.LoopSequence)
	slog.Info("practice: settings updated", "bpm", next.BPM, "swing", next.Swing, "pattern", next.Pattern)
	return res, nil
}

func (s *Session) Sequence() []model.SequenceItem {
	return s.seq.Items()
}

func (s *Session) AppendItem(chord string, variant int) (model.SequenceItem, error) {
	key, err := s.chordKey(chord)
	if err != nil {
		return model.SequenceItem{}, err
	}
	return s.seq.Append(key, variant), nil
}

func (s *Session) InsertItem(at int, chord string, variant int) (model.SequenceItem, error) {
	key, err := s.chordKey(chord)
	if err != nil {
		return model.SequenceItem{}, err
	}
	return s.seq.Insert(at, key, variant), nil
}

// UpdateItem changes an item's chord and variant. An empty chord keeps the
// item's chord and only changes the variant.
func (s *Session) UpdateItem(id, chord string, variant int) (model.SequenceItem, error) {
	if chord != "" {
		key, err := s.chordKey(chord)
		if err != nil {
			return model.SequenceItem{}, err
		}
		chord = key
	}
	return s.seq.Update(id, chord, variant)
}

func (s *Session) RemoveItem(id string) error {
	return s.seq.Remove(id)
}

// ReplaceSequence swaps in a new list of chords. The progression key is
// forgotten since the new items carry no degrees.
func (s *Session) ReplaceSequence(entries []config.SequenceEntry) ([]model.SequenceItem, error) {
	items := make([]model.SequenceItem, 0, len(entries))
	for _, e := range entries {
		key, err := s.chordKey(e.Chord)
		if err != nil {
			return nil, err
		}
		items = append(items, sequence.NewItem(key, e.Variant, model.NoDegree))
	}
	s.mu.Lock()
	s.key = ""
	s.mu.Unlock()
	return s.seq.Replace(items), nil
}

// LoadProgression replaces the sequence with a progression expanded in key.
func (s *Session) LoadProgression(key, id string) ([]model.SequenceItem, error) {
	items, err := s.dict.Expand(key, id)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.key = key
	s.mu.Unlock()
	slog.Info("practice: progression loaded", "id", id, "key", key)
	return s.seq.Replace(items), nil
}

// Alternatives suggests chords to swap in for an item. Items that came from
// a progression get substitutes for their degree, others get the other
// qualities on the same root.
func (s *Session) Alternatives(itemID string) ([]string, error) {
	item, err := s.seq.Get(itemID)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	key := s.key
	s.mu.Unlock()
	if item.Degree != model.NoDegree && key != "" {
		return s.dict.Alternatives(key, item.Degree)
	}
	return s.dict.Variations(item.Chord)
}

// StartTuner begins listening. It does nothing if the tuner is already
// running.
func (s *Session) StartTuner(ctx context.Context) error {
	if s.tuner == nil {
		return capture.ErrNoInput
	}
	return s.tuner.Start(ctx)
}

func (s *Session) StopTuner() {
	if s.tuner != nil {
		s.tuner.Stop()
	}
}

func (s *Session) Tuner() TunerStatus {
	if s.tuner == nil {
		return TunerStatus{}
	}
	st := TunerStatus{Running: s.tuner.Running(), Signal: s.tuner.Signal()}
	if obs, ok := s.tuner.Last(); ok {
		st.Reading = &obs
	}
	return st
}

// ParseTone reads a reference tone given as a note name ("A4") or a
// frequency in Hz ("440").
func ParseTone(tone string) (float64, error) {
	tone = strings.TrimSpace(tone)
	freq, err := strconv.ParseFloat(strings.TrimSuffix(strings.ToLower(tone), "hz"), 64)
	if err != nil {
		p, perr := pitch.Parse(tone)
		if perr != nil {
			return 0, fmt.Errorf("%w: %q is not a note or frequency", ErrInvalidTone, tone)
		}
		freq = pitch.ToFrequency(float64(p))
	}
	if math.IsNaN(freq) || freq < MinToneHz || freq > MaxToneHz {
		return 0, fmt.Errorf("%w: %.1f Hz not in %.0f..%.0f", ErrInvalidTone, freq, MinToneHz, MaxToneHz)
	}
	return freq, nil
}

// StartReferenceTone plays a steady tone until StopReferenceTone. A new tone
// replaces the old one.
func (s *Session) StartReferenceTone(ctx context.Context, tone string) (float64, error) {
	freq, err := ParseTone(tone)
	if err != nil {
		return 0, err
	}
	if err := s.out.EnsureReady(ctx); err != nil {
		return 0, err
	}
	if err := s.out.StartReferenceTone(freq); err != nil {
		return 0, err
	}
	s.mu.Lock()
	s.tone = freq
	s.mu.Unlock()
	slog.Info("practice: reference tone", "hz", freq)
	return freq, nil
}

func (s *Session) StopReferenceTone() {
	s.mu.Lock()
	playing := s.tone != 0
	s.tone = 0
	s.mu.Unlock()
	if playing {
		s.out.StopReferenceTone()
	}
}
