// Package file reads and writes the WAV files used by the detect and render
// commands.
package file

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/jsphweid/strumdex/sample"
)

const BitDepth = 16

var ErrInvalidWAV = errors.New("not a valid wav file")

// Audio is decoded PCM as float32 in [-1, 1], interleaved when Channels > 1.
type Audio struct {
	Samples    []float32
	SampleRate int
	Channels   int
}

func (a Audio) Frames() int {
	if a.Channels == 0 {
		return 0
	}
	return len(a.Samples) / a.Channels
}

// Mono returns the samples averaged down to one channel.
func (a Audio) Mono() []float32 {
	return sample.Mono(a.Samples, a.Channels)
}

func ReadWAV(path string) (Audio, error) {
	f, err := os.Open(path)
	if err != nil {
		return Audio{}, fmt.Errorf("error reading wav file: %w", err)
	}
	defer f.Close()

	decoder := wav.NewDecoder(f)
	if !decoder.IsValidFile() {
		return Audio{}, fmt.Errorf("%s: %w", path, ErrInvalidWAV)
	}
	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return Audio{}, fmt.Errorf("error decoding wav file: %w", err)
	}

	bitDepth := int(decoder.BitDepth)
	if bitDepth == 0 {
		bitDepth = BitDepth
	}
	return Audio{
		Samples:    sample.FromInt(buf.Data, bitDepth),
		SampleRate: int(decoder.SampleRate),
		Channels:   int(decoder.NumChans),
	}, nil
}

// WriteWAV encodes a as 16-bit PCM.
func WriteWAV(path string, a Audio) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating wav file: %w", err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, a.SampleRate, BitDepth, a.Channels, 1)
	buf := &audio.IntBuffer{
		Data:           sample.ToInt(a.Samples, BitDepth),
		Format:         &audio.Format{SampleRate: a.SampleRate, NumChannels: a.Channels},
		SourceBitDepth: BitDepth,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("error writing wav file: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("error finishing wav file: %w", err)
	}
	return nil
}
