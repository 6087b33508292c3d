// Package pattern reads and formats 8-step strum patterns.
package pattern

import (
	"fmt"
	"strings"

	"github.com/jsphweid/strumdex/constants"
	"github.com/jsphweid/strumdex/model"
)

// Parse builds a pattern from a step string such as "D.DU.UDU", where D is a
// down stroke, U an up stroke and "." or "-" a rest. Bar separators ("|")
// and spaces are ignored.
func Parse(id, label, steps string, accents []int) (model.RhythmPattern, error) {
	p := model.RhythmPattern{ID: id, Label: label}

	n := 0
	for _, r := range steps {
		if r == '|' || r == ' ' {
			continue
		}
		if n >= constants.StepsPerBar {
			return p, fmt.Errorf("pattern %s: more than %d steps in %q", id, constants.StepsPerBar, steps)
		}
		var s model.Stroke
		if err := s.UnmarshalText([]byte(string(r))); err != nil {
			return p, fmt.Errorf("pattern %s: %w", id, err)
		}
		p.Steps[n] = s
		n++
	}
	if n != constants.StepsPerBar {
		return p, fmt.Errorf("pattern %s: want %d steps, got %d", id, constants.StepsPerBar, n)
	}

	for _, a := range accents {
		if a < 0 || a >= constants.StepsPerBar {
			return p, fmt.Errorf("pattern %s: accent %d out of range", id, a)
		}
	}
	p.Accents = accents
	return p, nil
}

// Format renders p as a two-beat grid, e.g. "|D.dU|.uDu|". Accented strokes
// are upper case.
func Format(p model.RhythmPattern) string {
	accents := p.AccentMap()
	str := "|"
	for i, s := range p.Steps {
		var c string
		switch s {
		case model.Down:
			c = "d"
		case model.Up:
			c = "u"
		default:
			c = "."
		}
		if accents[i] {
			c = strings.ToUpper(c)
		}
		str += c
		if (i+1)%4 == 0 {
			str += "|"
		}
	}
	return str
}

// Compact writes the steps back in the form Parse reads, without accents.
func Compact(p model.RhythmPattern) string {
	var sb strings.Builder
	for _, s := range p.Steps {
		switch s {
		case model.Down:
			sb.WriteByte('D')
		case model.Up:
			sb.WriteByte('U')
		default:
			sb.WriteByte('.')
		}
	}
	return sb.String()
}
