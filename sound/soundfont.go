package sound

import (
	"bytes"
	"fmt"
	"os"

	"github.com/jsphweid/strumdex/midi"
	"github.com/sinshu/go-meltysynth/meltysynth"
)

// DefaultProgram is General MIDI acoustic guitar (steel).
const DefaultProgram = 25

const soundFontChannel = 0

// SoundFont renders notes with a General MIDI soundfont.
type SoundFont struct {
	synth *meltysynth.Synthesizer
}

func LoadSoundFont(path string, rate int, program int) (*SoundFont, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("soundfont missing: %w", err)
	}
	sf, err := meltysynth.NewSoundFont(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("soundfont %s: %w", path, err)
	}
	settings := meltysynth.NewSynthesizerSettings(int32(rate))
	settings.BlockSize = blockSize
	synth, err := meltysynth.NewSynthesizer(sf, settings)
	if err != nil {
		return nil, fmt.Errorf("soundfont synthesizer: %w", err)
	}
	synth.ProcessMidiMessage(soundFontChannel, 0xC0, int32(program), 0)
	return &SoundFont{synth: synth}, nil
}

func (s *SoundFont) NoteOn(key int, velocity float64) {
	s.synth.NoteOn(soundFontChannel, int32(midi.Key(key)), int32(midi.Velocity(velocity)))
}

func (s *SoundFont) NoteOff(key int) {
	s.synth.NoteOff(soundFontChannel, int32(midi.Key(key)))
}

func (s *SoundFont) Render(left, right []float32) {
	s.synth.Render(left, right)
}
