package model

import (
	"fmt"

	"github.com/jsphweid/strumdex/constants"
)

type Stroke int

const (
	Rest Stroke = iota
	Down
	Up
)

func (s Stroke) String() string {
	switch s {
	case Down:
		return "down"
	case Up:
		return "up"
	default:
		return "rest"
	}
}

func (s Stroke) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Stroke) UnmarshalText(b []byte) error {
	switch string(b) {
	case "down", "D", "d":
		*s = Down
	case "up", "U", "u":
		*s = Up
	case "rest", ".", "-", "":
		*s = Rest
	default:
		return fmt.Errorf("invalid stroke %q", string(b))
	}
	return nil
}

type RhythmPattern struct {
	ID      string                        `json:"id"`
	Label   string                        `json:"label"`
	Steps   [constants.StepsPerBar]Stroke `json:"steps"`
	Accents []int                         `json:"accents"`
}

// AccentMap expands the accent set into one flag per step.
func (p RhythmPattern) AccentMap() [constants.StepsPerBar]bool {
	var m [constants.StepsPerBar]bool
	for _, i := range p.Accents {
		if i >= 0 && i < constants.StepsPerBar {
			m[i] = true
		}
	}
	return m
}
