package cmd

import (
	"fmt"

	"github.com/jsphweid/strumdex/chord"
	"github.com/jsphweid/strumdex/dictionary"
	"github.com/jsphweid/strumdex/pattern"
	"github.com/spf13/cobra"
)

var (
	playTiming  timingFlags
	playVariant int
	playOnce    bool
)

func init() {
	playTiming.register(playCmd)
	playCmd.Flags().IntVar(&playVariant, "variant", 0, "shape variant index")
	playCmd.Flags().BoolVar(&playOnce, "once", false, "play a single bar instead of looping")
	rootCmd.AddCommand(playCmd)
}

var playCmd = &cobra.Command{
	Use:   "play <chord>",
	Short: "Loops one chord with the strum pattern",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := playTiming.apply(settings)
		if err != nil {
			return err
		}
		if playOnce {
			s.LoopChord = false
		}
		sess, closeSession, err := newSession(s, nil)
		if err != nil {
			return err
		}
		defer closeSession()

		ctx, cancel := interruptContext(cmd)
		defer cancel()
		if err := sess.PlayChord(ctx, args[0], playVariant); err != nil {
			return err
		}

		dict := dictionary.Default()
		entry, shape, idx, err := dict.Resolve(args[0], playVariant)
		if err != nil {
			return err
		}
		p, _ := dict.Pattern(s.Pattern)
		fmt.Printf("%s  %s  variant %d/%d  %.0f bpm  %s %s\n",
			entry.Key, chord.Diagram(shape.Frets), idx+1, len(entry.Variants), s.BPM, p.ID, pattern.Compact(p))
		waitWhilePlaying(ctx, sess)
		return nil
	},
}
