package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/jsphweid/strumdex/capture"
	"github.com/jsphweid/strumdex/config"
	"github.com/jsphweid/strumdex/midi"
	"github.com/jsphweid/strumdex/practice"
	"github.com/jsphweid/strumdex/sound"
	"github.com/spf13/cobra"
)

const speakerLatency = 50 * time.Millisecond

// instrument builds the software instrument for the speaker and offline
// backends.
func instrument(s config.Settings) (sound.Instrument, error) {
	if s.Sound.Backend == config.BackendSoundFont {
		return sound.LoadSoundFont(s.Sound.SoundFont, s.Sound.SampleRate, s.Sound.Program)
	}
	return sound.NewPluck(s.Sound.SampleRate), nil
}

// openSound builds the sound module named by the settings. The returned
// func releases the device.
func openSound(s config.Settings) (sound.Module, func(), error) {
	switch s.Sound.Backend {
	case config.BackendNone:
		return sound.Null{}, func() {}, nil
	case config.BackendMIDI:
		out := &sound.MIDIOut{PortName: s.Sound.MIDIPort, Program: s.Sound.Program}
		return out, func() {
			if err := out.Close(); err != nil {
				slog.Warn("cmd: closing midi port failed", "err", err)
			}
			midi.CloseDriver()
		}, nil
	default:
		inst, err := instrument(s)
		if err != nil {
			return nil, nil, err
		}
		engine := sound.NewEngine(s.Sound.SampleRate, inst)
		return sound.NewSpeaker(engine, speakerLatency), sound.CloseDevice, nil
	}
}

// newSession opens the configured sound backend and builds a session on it.
// input may be nil when the command does not use the tuner.
func newSession(s config.Settings, input capture.Source) (*practice.Session, func(), error) {
	out, closeSound, err := openSound(s)
	if err != nil {
		return nil, nil, err
	}
	sess, err := practice.New(practice.Config{Settings: s, Sound: out, Input: input})
	if err != nil {
		closeSound()
		return nil, nil, err
	}
	return sess, func() {
		sess.Close()
		closeSound()
	}, nil
}

// interruptContext is cancelled on Ctrl-C.
func interruptContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(cmd.Context(), os.Interrupt)
}

// waitWhilePlaying blocks until ctx is done or nothing is playing any more.
func waitWhilePlaying(ctx context.Context, sess *practice.Session) {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if sess.Status().Active == "" {
				return
			}
		}
	}
}

// timingFlags lets a command override the tempo and pattern from the
// settings file.
type timingFlags struct {
	bpm     float64
	swing   float64
	pattern string
}

func (f *timingFlags) register(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&f.bpm, "bpm", 0, "tempo in beats per minute")
	cmd.Flags().Float64Var(&f.swing, "swing", -1, "swing amount, 0 to 0.5")
	cmd.Flags().StringVar(&f.pattern, "pattern", "", "strum pattern id")
}

func (f *timingFlags) apply(s config.Settings) (config.Settings, error) {
	var patch config.Patch
	if f.bpm > 0 {
		patch.BPM = &f.bpm
	}
	if f.swing >= 0 {
		patch.Swing = &f.swing
	}
	if f.pattern != "" {
		patch.Pattern = &f.pattern
	}
	s, err := patch.Apply(s)
	if err != nil {
		return s, fmt.Errorf("flags: %w", err)
	}
	return s, nil
}
