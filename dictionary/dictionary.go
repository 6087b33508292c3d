// Package dictionary holds the chord shapes, strum patterns and progressions
// the practice tools draw from. The tables are read from embedded YAML once
// and never change afterwards.
package dictionary

import (
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"github.com/goccy/go-yaml"
	"github.com/jsphweid/strumdex/chord"
	"github.com/jsphweid/strumdex/constants"
	"github.com/jsphweid/strumdex/model"
	"github.com/jsphweid/strumdex/pattern"
	"github.com/jsphweid/strumdex/pitch"
	"github.com/jsphweid/strumdex/sequence"
	"github.com/jsphweid/strumdex/util"
)

var (
	ErrUnknownChord       = errors.New("unknown chord")
	ErrUnknownPattern     = errors.New("unknown pattern")
	ErrUnknownProgression = errors.New("unknown progression")
)

//go:embed data/*.yaml
var data embed.FS

type Progression struct {
	ID       string   `json:"id" yaml:"id"`
	Label    string   `json:"label" yaml:"label"`
	Numerals []string `json:"numerals" yaml:"numerals"`
}

type Dictionary struct {
	chords       map[string]model.ChordEntry
	patterns     map[string]model.RhythmPattern
	patternOrder []string
	progressions map[string]Progression
}

// fretList reads frets written as numbers with x for a muted string.
type fretList [constants.NumStrings]model.Fret

func (f *fretList) UnmarshalYAML(unmarshal func(any) error) error {
	var values []any
	if err := unmarshal(&values); err != nil {
		return err
	}
	if len(values) != constants.NumStrings {
		return fmt.Errorf("want %d frets, got %d", constants.NumStrings, len(values))
	}
	for i, value := range values {
		text := fmt.Sprint(value)
		if text == "x" || text == "X" {
			f[i] = model.Muted
			continue
		}
		v, err := strconv.Atoi(text)
		if err != nil {
			return fmt.Errorf("invalid fret %q", text)
		}
		f[i] = model.Fret(v)
	}
	return nil
}

type rawShape struct {
	Frets   fretList                           `yaml:"frets"`
	Fingers [constants.NumStrings]model.Finger `yaml:"fingers"`
	Barre   *model.Barre                       `yaml:"barre"`
}

type rawChords struct {
	Chords []struct {
		Key      string     `yaml:"key"`
		Variants []rawShape `yaml:"variants"`
	} `yaml:"chords"`
}

type rawPatterns struct {
	Patterns []struct {
		ID      string `yaml:"id"`
		Label   string `yaml:"label"`
		Steps   string `yaml:"steps"`
		Accents []int  `yaml:"accents"`
	} `yaml:"patterns"`
}

type rawProgressions struct {
	Progressions []Progression `yaml:"progressions"`
}

var (
	defaultOnce sync.Once
	defaultDict *Dictionary
)

// Default returns the embedded dictionary. The embedded tables are part of
// the binary, so a failure to read them is a programming error.
func Default() *Dictionary {
	defaultOnce.Do(func() {
		chords, _ := data.ReadFile("data/chords.yaml")
		patterns, _ := data.ReadFile("data/patterns.yaml")
		progressions, _ := data.ReadFile("data/progressions.yaml")
		d, err := Load(chords, patterns, progressions)
		if err != nil {
			panic("Could not load embedded dictionary: " + err.Error())
		}
		defaultDict = d
	})
	return defaultDict
}

// Load builds a dictionary from the three YAML tables. Every root gets
// generated barre shapes for every quality, after any shapes listed in the
// chords table.
func Load(chordsYAML, patternsYAML, progressionsYAML []byte) (*Dictionary, error) {
	d := &Dictionary{
		chords:       make(map[string]model.ChordEntry),
		patterns:     make(map[string]model.RhythmPattern),
		progressions: make(map[string]Progression),
	}

	var rc rawChords
	if err := yaml.Unmarshal(chordsYAML, &rc); err != nil {
		return nil, fmt.Errorf("chords: %w", err)
	}
	listed := make(map[string][]model.Shape)
	for _, c := range rc.Chords {
		root, q, err := ParseKey(c.Key)
		if err != nil {
			return nil, err
		}
		key := Key(root, q)
		for i, v := range c.Variants {
			shape := model.Shape{Frets: model.Voicing(v.Frets), Fingers: v.Fingers, Barre: v.Barre}
			if err := chord.Validate(shape); err != nil {
				return nil, fmt.Errorf("chord %s variant %d: %w", key, i, err)
			}
			listed[key] = append(listed[key], shape)
		}
	}

	for root := 0; root < 12; root++ {
		for _, q := range qualities {
			key := Key(root, q)
			variants := listed[key]
			for _, shape := range barreShapes(root, q) {
				if !hasFrets(variants, shape.Frets) {
					variants = append(variants, shape)
				}
			}
			d.chords[key] = model.ChordEntry{
				Key:      key,
				Name:     Spell(root) + " " + q.Name,
				Root:     root,
				Variants: variants,
			}
		}
	}

	var rp rawPatterns
	if err := yaml.Unmarshal(patternsYAML, &rp); err != nil {
		return nil, fmt.Errorf("patterns: %w", err)
	}
	for _, p := range rp.Patterns {
		parsed, err := pattern.Parse(p.ID, p.Label, p.Steps, p.Accents)
		if err != nil {
			return nil, err
		}
		if _, dup := d.patterns[p.ID]; dup {
			return nil, fmt.Errorf("pattern %s listed twice", p.ID)
		}
		d.patterns[p.ID] = parsed
		d.patternOrder = append(d.patternOrder, p.ID)
	}

	var rg rawProgressions
	if err := yaml.Unmarshal(progressionsYAML, &rg); err != nil {
		return nil, fmt.Errorf("progressions: %w", err)
	}
	for _, p := range rg.Progressions {
		for _, n := range p.Numerals {
			if _, err := ParseNumeral(n); err != nil {
				return nil, fmt.Errorf("progression %s: %w", p.ID, err)
			}
		}
		d.progressions[p.ID] = p
	}

	slog.Debug("dictionary: loaded", "chords", len(d.chords), "patterns", len(d.patterns), "progressions", len(d.progressions))
	return d, nil
}

func hasFrets(shapes []model.Shape, frets model.Voicing) bool {
	for _, s := range shapes {
		if s.Frets == frets {
			return true
		}
	}
	return false
}

// Chord looks up a chord by key. Enharmonic spellings resolve to the same
// entry ("Db" finds "C#").
func (d *Dictionary) Chord(key string) (model.ChordEntry, bool) {
	root, q, err := ParseKey(key)
	if err != nil {
		return model.ChordEntry{}, false
	}
	entry, ok := d.chords[Key(root, q)]
	return entry, ok
}

// Chords lists every chord key in sorted order.
func (d *Dictionary) Chords() []string {
	return util.GetKeys(d.chords)
}

func (d *Dictionary) Pattern(id string) (model.RhythmPattern, bool) {
	p, ok := d.patterns[id]
	return p, ok
}

// Patterns lists patterns in the order they were defined.
func (d *Dictionary) Patterns() []model.RhythmPattern {
	res := make([]model.RhythmPattern, 0, len(d.patternOrder))
	for _, id := range d.patternOrder {
		res = append(res, d.patterns[id])
	}
	return res
}

func (d *Dictionary) Progression(id string) (Progression, bool) {
	p, ok := d.progressions[id]
	return p, ok
}

func (d *Dictionary) Progressions() []Progression {
	res := make([]Progression, 0, len(d.progressions))
	for _, id := range util.GetKeys(d.progressions) {
		res = append(res, d.progressions[id])
	}
	return res
}

// Expand turns a progression into sequence items in the given key. Each item
// remembers its scale degree so alternatives can be offered later.
func (d *Dictionary) Expand(key, progressionID string) ([]model.SequenceItem, error) {
	tonic, err := pitch.ParseClass(key)
	if err != nil {
		return nil, fmt.Errorf("key %q: %w", key, err)
	}
	prog, ok := d.progressions[progressionID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProgression, progressionID)
	}

	items := make([]model.SequenceItem, 0, len(prog.Numerals))
	for _, n := range prog.Numerals {
		num, err := ParseNumeral(n)
		if err != nil {
			return nil, err
		}
		chordKey := Key(DegreeRoot(tonic, num.Degree), num.Quality)
		if _, ok := d.chords[chordKey]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownChord, chordKey)
		}
		items = append(items, sequence.NewItem(chordKey, 0, num.Degree))
	}
	return items, nil
}

// Alternatives offers chords that can stand in for the given degree of key:
// its diatonic triad and seventh, then the diatonic triads a third above
// and below, which share two notes with it.
func (d *Dictionary) Alternatives(key string, degree int) ([]string, error) {
	tonic, err := pitch.ParseClass(key)
	if err != nil {
		return nil, fmt.Errorf("key %q: %w", key, err)
	}
	if degree < 0 || degree > 6 {
		return nil, fmt.Errorf("degree %d out of range", degree)
	}

	var candidates []string
	candidates = append(candidates,
		Key(DegreeRoot(tonic, degree), diatonicTriads[degree]),
		Key(DegreeRoot(tonic, degree), diatonicSevenths[degree]),
	)
	for _, offset := range []int{2, -2} {
		other := ((degree+offset)%7 + 7) % 7
		candidates = append(candidates, Key(DegreeRoot(tonic, other), diatonicTriads[other]))
	}
	return d.known(candidates), nil
}

// Variations lists the other qualities built on the same root as chordKey.
func (d *Dictionary) Variations(chordKey string) ([]string, error) {
	root, _, err := ParseKey(chordKey)
	if err != nil {
		return nil, err
	}
	var candidates []string
	for _, q := range []Quality{Major, Minor, Dominant7, Major7, Minor7, Diminished} {
		candidates = append(candidates, Key(root, q))
	}
	return d.known(candidates), nil
}

func (d *Dictionary) known(candidates []string) []string {
	var res []string
	seen := make(map[string]bool)
	for _, c := range candidates {
		if _, ok := d.chords[c]; ok && !seen[c] {
			seen[c] = true
			res = append(res, c)
		}
	}
	return res
}

// Resolve looks up the shape to play for a chord key and variant index. Stale
// variant indexes are clamped to the last variant.
func (d *Dictionary) Resolve(key string, variant int) (model.ChordEntry, model.Shape, int, error) {
	entry, ok := d.Chord(key)
	if !ok {
		return model.ChordEntry{}, model.Shape{}, 0, fmt.Errorf("%w: %s", ErrUnknownChord, key)
	}
	shape, idx := chord.Variant(entry, variant)
	return entry, shape, idx, nil
}
