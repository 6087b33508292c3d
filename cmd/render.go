package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/hako/durafmt"
	"github.com/jsphweid/strumdex/clock"
	"github.com/jsphweid/strumdex/config"
	"github.com/jsphweid/strumdex/constants"
	"github.com/jsphweid/strumdex/file"
	"github.com/jsphweid/strumdex/player"
	"github.com/jsphweid/strumdex/practice"
	"github.com/jsphweid/strumdex/sample"
	"github.com/jsphweid/strumdex/sound"
	"github.com/spf13/cobra"
)

const (
	renderTail = time.Second
	// loud renders are scaled down to this peak instead of clipping
	renderPeak = 0.95
)

var (
	renderTiming      timingFlags
	renderOut         string
	renderBars        int
	renderProgression string
	renderKey         string
)

func init() {
	renderTiming.register(renderCmd)
	renderCmd.Flags().StringVarP(&renderOut, "out", "o", "strum.wav", "output wav file")
	renderCmd.Flags().IntVar(&renderBars, "bars", 0, "bars to render (default: one pass of the sequence)")
	renderCmd.Flags().StringVar(&renderProgression, "progression", "", "progression id to expand instead of listing chords")
	renderCmd.Flags().StringVar(&renderKey, "key", "C", "key for --progression")
	rootCmd.AddCommand(renderCmd)
}

// renderSequence plays the sequence on a manual clock into a recorder and
// mixes the recorded events offline.
func renderSequence(s config.Settings, args []string, bars int) (file.Audio, error) {
	s.LoopSequence = true
	clk := clock.NewManual(time.Unix(0, 0))
	rec := sound.NewRecorder(clk)
	sess, err := practice.New(practice.Config{Settings: s, Sound: rec, Clock: clk})
	if err != nil {
		return file.Audio{}, err
	}
	defer sess.Close()

	items, err := loadSequence(sess, args, renderProgression, renderKey)
	if err != nil {
		return file.Audio{}, err
	}
	if bars <= 0 {
		bars = len(items)
	}

	start := clk.Now()
	if err := sess.PlaySequence(context.Background()); err != nil {
		return file.Audio{}, err
	}
	// the first step fires on play
	clk.Advance(time.Duration(bars*constants.StepsPerBar-1) * player.StepInterval(s.BPM))
	if err := sess.Stop(""); err != nil {
		return file.Audio{}, err
	}

	inst, err := instrument(s)
	if err != nil {
		return file.Audio{}, err
	}
	samples := sound.Render(rec.Events(), start, inst, s.Sound.SampleRate, renderTail)
	if peak := sample.Peak(samples); peak > renderPeak {
		sample.Gain(samples, renderPeak/peak)
	}
	return file.Audio{Samples: samples, SampleRate: s.Sound.SampleRate, Channels: 2}, nil
}

var renderCmd = &cobra.Command{
	Use:   "render [chord[:variant]...]",
	Short: "Renders strummed bars to a wav file",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := renderTiming.apply(settings)
		if err != nil {
			return err
		}
		audio, err := renderSequence(s, args, renderBars)
		if err != nil {
			return err
		}
		if err := file.WriteWAV(renderOut, audio); err != nil {
			return err
		}
		length := time.Duration(float64(audio.Frames()) / float64(audio.SampleRate) * float64(time.Second))
		fmt.Printf("wrote %s (%s)\n", renderOut, durafmt.Parse(length.Round(time.Millisecond)).LimitFirstN(2))
		return nil
	},
}
