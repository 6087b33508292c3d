// Package pitch converts between frequencies, MIDI pitch numbers and note names.
package pitch

import (
	"fmt"
	"math"
	"strings"

	"github.com/jsphweid/strumdex/constants"
)

var noteNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// ToFrequency returns the frequency in Hz of pitch number p.
func ToFrequency(p float64) float64 {
	return constants.ReferenceFrequency * math.Pow(2, (p-constants.ReferencePitch)/12)
}

// FromFrequency returns the continuous pitch number of f. f must be positive.
func FromFrequency(f float64) float64 {
	return constants.ReferencePitch + 12*math.Log2(f/constants.ReferenceFrequency)
}

// Class returns p modulo 12, normalized to 0..11.
func Class(p int) int {
	return ((p % 12) + 12) % 12
}

func ClassName(p int) string {
	return noteNames[Class(p)]
}

func Octave(p int) int {
	return int(math.Floor(float64(p)/12)) - 1
}

// Name formats p as note name plus octave, e.g. 69 -> "A4".
func Name(p int) string {
	return fmt.Sprintf("%s%d", ClassName(p), Octave(p))
}

// CentsDeviation is the rounded distance in cents from f to the exact
// frequency of nearest.
func CentsDeviation(f float64, nearest int) int {
	return int(math.Round(1200 * math.Log2(f/ToFrequency(float64(nearest)))))
}

var naturals = map[byte]int{'C': 0, 'D': 2, 'E': 4, 'F': 5, 'G': 7, 'A': 9, 'B': 11}

// ParseClass reads a pitch class spelled like "C", "F#", "Bb" or "Ebb".
func ParseClass(name string) (int, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, fmt.Errorf("empty note name")
	}
	base, ok := naturals[strings.ToUpper(name[:1])[0]]
	if !ok {
		return 0, fmt.Errorf("invalid note name %q", name)
	}
	for _, r := range name[1:] {
		switch r {
		case '#', '♯':
			base++
		case 'b', '♭':
			base--
		default:
			return 0, fmt.Errorf("invalid note name %q", name)
		}
	}
	return Class(base), nil
}

// Parse reads a note name with octave, e.g. "A4" or "F#2".
func Parse(name string) (int, error) {
	name = strings.TrimSpace(name)
	i := strings.IndexFunc(name, func(r rune) bool {
		return r == '-' || (r >= '0' && r <= '9')
	})
	if i <= 0 {
		return 0, fmt.Errorf("invalid note %q", name)
	}
	class, err := ParseClass(name[:i])
	if err != nil {
		return 0, err
	}
	var octave int
	if _, err := fmt.Sscanf(name[i:], "%d", &octave); err != nil {
		return 0, fmt.Errorf("invalid octave in %q: %w", name, err)
	}
	// spellings like Cb4 or B#3 cross the octave boundary
	letter := naturals[strings.ToUpper(name[:1])[0]]
	shift := class - letter
	if shift > 6 {
		shift -= 12
	} else if shift < -6 {
		shift += 12
	}
	return (octave+1)*12 + letter + shift, nil
}
