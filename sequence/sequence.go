// Package sequence holds the editable list of bars played by the sequence
// player. The list is shared: the player reads it live at bar boundaries
// while edits arrive from the CLI or the HTTP API.
package sequence

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/jsphweid/strumdex/model"
	"golang.org/x/exp/slices"
)

var ErrNotFound = errors.New("sequence item not found")

const DefaultPlaceholder = "C"

type Sequence struct {
	mu          sync.RWMutex
	items       []model.SequenceItem
	placeholder string
	onChange    func([]model.SequenceItem)
}

// New creates a sequence holding items. An empty list is replaced by a single
// placeholder bar.
func New(placeholder string, items ...model.SequenceItem) *Sequence {
	if placeholder == "" {
		placeholder = DefaultPlaceholder
	}
	s := &Sequence{placeholder: placeholder}
	s.items = s.withIDs(items)
	if len(s.items) == 0 {
		s.items = []model.SequenceItem{NewItem(placeholder, 0, model.NoDegree)}
	}
	return s
}

// NewItem returns an item with a fresh ID that is not part of any sequence.
func NewItem(chord string, variant, degree int) model.SequenceItem {
	return model.SequenceItem{ID: uuid.NewString(), Chord: chord, Variant: variant, Degree: degree}
}

func (s *Sequence) withIDs(items []model.SequenceItem) []model.SequenceItem {
	res := make([]model.SequenceItem, len(items))
	for i, item := range items {
		if item.ID == "" {
			item.ID = uuid.NewString()
		}
		res[i] = item
	}
	return res
}

// OnChange registers fn to be called with a copy of the list after every
// edit. fn runs outside the sequence lock.
func (s *Sequence) OnChange(fn func([]model.SequenceItem)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = fn
}

func (s *Sequence) changed() {
	s.mu.RLock()
	fn := s.onChange
	items := slices.Clone(s.items)
	s.mu.RUnlock()
	if fn != nil {
		fn(items)
	}
}

func (s *Sequence) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

func (s *Sequence) Items() []model.SequenceItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.items)
}

// At returns the item at i. ok is false when i is outside the current list.
func (s *Sequence) At(i int) (model.SequenceItem, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i < 0 || i >= len(s.items) {
		return model.SequenceItem{}, false
	}
	return s.items[i], true
}

func (s *Sequence) Get(id string) (model.SequenceItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.index(id)
	if i < 0 {
		return model.SequenceItem{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s.items[i], nil
}

func (s *Sequence) index(id string) int {
	return slices.IndexFunc(s.items, func(item model.SequenceItem) bool {
		return item.ID == id
	})
}

func (s *Sequence) Append(chord string, variant int) model.SequenceItem {
	item := NewItem(chord, variant, model.NoDegree)
	s.mu.Lock()
	s.items = append(s.items, item)
	s.mu.Unlock()
	s.changed()
	return item
}

// Insert places a new item before position at. Positions past the end
// append.
func (s *Sequence) Insert(at int, chord string, variant int) model.SequenceItem {
	item := NewItem(chord, variant, model.NoDegree)
	s.mu.Lock()
	if at < 0 {
		at = 0
	}
	if at > len(s.items) {
		at = len(s.items)
	}
	s.items = slices.Insert(s.items, at, item)
	s.mu.Unlock()
	s.changed()
	return item
}

// Update changes the chord and variant of an existing item. An empty chord
// keeps the current one. The progression degree is kept so alternatives can
// still be offered after swapping in one of them.
func (s *Sequence) Update(id, chord string, variant int) (model.SequenceItem, error) {
	s.mu.Lock()
	i := s.index(id)
	if i < 0 {
		s.mu.Unlock()
		return model.SequenceItem{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	item := &s.items[i]
	if chord != "" {
		item.Chord = chord
	}
	item.Variant = variant
	res := *item
	s.mu.Unlock()
	s.changed()
	return res, nil
}

// Remove deletes the item with the given ID. Removing the only item leaves a
// single placeholder bar in its place.
func (s *Sequence) Remove(id string) error {
	s.mu.Lock()
	i := s.index(id)
	if i < 0 {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	s.items = slices.Delete(s.items, i, i+1)
	if len(s.items) == 0 {
		s.items = append(s.items, NewItem(s.placeholder, 0, model.NoDegree))
	}
	s.mu.Unlock()
	s.changed()
	return nil
}

// Replace swaps in a whole new list, e.g. an expanded progression.
func (s *Sequence) Replace(items []model.SequenceItem) []model.SequenceItem {
	s.mu.Lock()
	s.items = s.withIDs(items)
	if len(s.items) == 0 {
		s.items = []model.SequenceItem{NewItem(s.placeholder, 0, model.NoDegree)}
	}
	res := slices.Clone(s.items)
	s.mu.Unlock()
	s.changed()
	return res
}
