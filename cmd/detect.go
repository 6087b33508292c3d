package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/jsphweid/strumdex/capture"
	"github.com/jsphweid/strumdex/clock"
	"github.com/jsphweid/strumdex/tuner"
	"github.com/spf13/cobra"
)

var detectAll bool

func init() {
	detectCmd.Flags().BoolVar(&detectAll, "all", false, "print every frame, not only note changes")
	rootCmd.AddCommand(detectCmd)
}

// detect runs the tuner over a recording as fast as it can, stepping a
// manual clock one frame at a time.
func detect(path string, frameRate float64, every bool, report func(at time.Duration, obs tuner.Observation)) error {
	wav, err := capture.OpenWAV(path, frameRate)
	if err != nil {
		return err
	}
	start := time.Unix(0, 0)
	clk := clock.NewManual(start)
	t := tuner.New(tuner.Config{Source: wav, Clock: clk, FrameRate: frameRate})

	last := -1
	t.OnUpdate(func(obs tuner.Observation) {
		if every || obs.Pitch != last {
			report(clk.Now().Sub(start), obs)
		}
		last = obs.Pitch
	})
	if err := t.Start(context.Background()); err != nil {
		return err
	}
	defer t.Stop()

	frame := time.Duration(float64(time.Second) / frameRate)
	frames := int(wav.Duration() / frame)
	for i := 0; i < frames; i++ {
		clk.Advance(frame)
	}
	return nil
}

var detectCmd = &cobra.Command{
	Use:   "detect <file.wav>",
	Short: "Prints the notes heard in a recording",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return detect(args[0], float64(settings.Tuner.FrameRate), detectAll, func(at time.Duration, obs tuner.Observation) {
			fmt.Printf("%8.3fs  %-4s %+4d cents  %8.2f Hz\n", at.Seconds(), obs.Name(), obs.Cents, obs.Frequency)
		})
	},
}
