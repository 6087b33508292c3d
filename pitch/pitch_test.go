package pitch

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToFrequency(t *testing.T) {
	assert := assert.New(t)
	assert.InDelta(440.0, ToFrequency(69), 1e-9)
	assert.InDelta(220.0, ToFrequency(57), 1e-9)
	assert.InDelta(82.4069, ToFrequency(40), 1e-3)
}

func TestFromFrequency(t *testing.T) {
	assert := assert.New(t)
	assert.InDelta(69.0, FromFrequency(440), 1e-9)
	assert.InDelta(81.0, FromFrequency(880), 1e-9)
	assert.Equal(69.0, math.Round(FromFrequency(441)))
}

func TestRoundTrip(t *testing.T) {
	for _, f := range []float64{0.5, 20, 82.41, 261.63, 440, 1000, 15000.5} {
		t.Run(fmt.Sprintf("%v Hz", f), func(t *testing.T) {
			assert.InDelta(t, f, ToFrequency(FromFrequency(f)), f*1e-12)
		})
	}
}

func TestClassName(t *testing.T) {
	assert := assert.New(t)
	assert.Equal("C", ClassName(60))
	assert.Equal("A", ClassName(69))
	assert.Equal("B", ClassName(-1))
	assert.Equal("E", ClassName(40))
}

func TestNameAndOctave(t *testing.T) {
	assert := assert.New(t)
	assert.Equal("A4", Name(69))
	assert.Equal("E2", Name(40))
	assert.Equal("C-1", Name(0))
	assert.Equal(-2, Octave(-1))
}

func TestCentsDeviation(t *testing.T) {
	assert := assert.New(t)
	assert.Equal(0, CentsDeviation(440, 69))
	assert.Equal(4, CentsDeviation(441, 69))
	assert.Equal(-50, CentsDeviation(ToFrequency(68.5), 69))
}

func TestParseClass(t *testing.T) {
	cases := map[string]int{"C": 0, "C#": 1, "Db": 1, "Bb": 10, "B": 11, "e": 4, "Cb": 11, "F#": 6}
	for name, want := range cases {
		t.Run(name, func(t *testing.T) {
			got, err := ParseClass(name)
			assert.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}

	_, err := ParseClass("H")
	assert.Error(t, err)
	_, err = ParseClass("C+")
	assert.Error(t, err)
}

func TestParse(t *testing.T) {
	assert := assert.New(t)

	p, err := Parse("A4")
	assert.NoError(err)
	assert.Equal(69, p)

	p, err = Parse("F#2")
	assert.NoError(err)
	assert.Equal(42, p)

	p, err = Parse("B#3")
	assert.NoError(err)
	assert.Equal(60, p)

	_, err = Parse("A")
	assert.Error(err)
}
