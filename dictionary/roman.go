package dictionary

import (
	"fmt"
	"strings"
)

// Semitones above the tonic for each degree of the major scale.
var majorScale = [7]int{0, 2, 4, 5, 7, 9, 11}

var numerals = []string{"vii", "iii", "vi", "iv", "ii", "v", "i"}

var numeralDegree = map[string]int{"i": 0, "ii": 1, "iii": 2, "iv": 3, "v": 4, "vi": 5, "vii": 6}

// Diatonic triad and seventh qualities per degree in a major key.
var (
	diatonicTriads   = [7]Quality{Major, Minor, Minor, Major, Major, Minor, Diminished}
	diatonicSevenths = [7]Quality{Major7, Minor7, Minor7, Major7, Dominant7, Minor7, Diminished}
)

// Numeral is one parsed roman numeral, e.g. "ii7" -> degree 1, minor 7.
type Numeral struct {
	Degree  int
	Quality Quality
}

func ParseNumeral(s string) (Numeral, error) {
	lower := strings.ToLower(s)
	for _, n := range numerals {
		if !strings.HasPrefix(lower, n) {
			continue
		}
		head, suffix := s[:len(n)], s[len(n):]
		upper := head == strings.ToUpper(head)
		if !upper && head != strings.ToLower(head) {
			return Numeral{}, fmt.Errorf("mixed case numeral %q", s)
		}
		num := Numeral{Degree: numeralDegree[n]}
		switch {
		case suffix == "" && upper:
			num.Quality = Major
		case suffix == "":
			num.Quality = Minor
		case suffix == "7" && upper:
			num.Quality = Dominant7
		case suffix == "7":
			num.Quality = Minor7
		case suffix == "maj7":
			num.Quality = Major7
		case suffix == "dim" || suffix == "°":
			num.Quality = Diminished
		default:
			return Numeral{}, fmt.Errorf("unknown numeral suffix in %q", s)
		}
		return num, nil
	}
	return Numeral{}, fmt.Errorf("invalid numeral %q", s)
}

// DegreeRoot is the pitch class of degree in the major key on tonic.
func DegreeRoot(tonic, degree int) int {
	d := ((degree % 7) + 7) % 7
	return tonic + majorScale[d]
}
