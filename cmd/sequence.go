package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jsphweid/strumdex/config"
	"github.com/jsphweid/strumdex/model"
	"github.com/jsphweid/strumdex/practice"
	"github.com/spf13/cobra"
)

var (
	sequenceTiming      timingFlags
	sequenceProgression string
	sequenceKey         string
	sequenceOnce        bool
)

func init() {
	sequenceTiming.register(sequenceCmd)
	sequenceCmd.Flags().StringVar(&sequenceProgression, "progression", "", "progression id to expand instead of listing chords")
	sequenceCmd.Flags().StringVar(&sequenceKey, "key", "C", "key for --progression")
	sequenceCmd.Flags().BoolVar(&sequenceOnce, "once", false, "play the sequence once instead of looping")
	rootCmd.AddCommand(sequenceCmd)
}

// parseChordArgs reads chords written as "Am" or "G:1" (chord:variant).
func parseChordArgs(args []string) ([]config.SequenceEntry, error) {
	var entries []config.SequenceEntry
	for _, arg := range args {
		e := config.SequenceEntry{Chord: arg}
		if key, variant, ok := strings.Cut(arg, ":"); ok {
			e.Chord = key
			n, err := strconv.Atoi(variant)
			if err != nil || n < 0 {
				return nil, fmt.Errorf("chord %q: bad variant", arg)
			}
			e.Variant = n
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// loadSequence fills the session's sequence from chord arguments or a
// progression. With neither, the sequence from the settings is kept.
func loadSequence(sess *practice.Session, args []string, progression, key string) ([]model.SequenceItem, error) {
	switch {
	case progression != "":
		return sess.LoadProgression(key, progression)
	case len(args) > 0:
		entries, err := parseChordArgs(args)
		if err != nil {
			return nil, err
		}
		return sess.ReplaceSequence(entries)
	default:
		return sess.Sequence(), nil
	}
}

var sequenceCmd = &cobra.Command{
	Use:   "sequence [chord[:variant]...]",
	Short: "Plays a chord sequence, one chord per bar",
	Long: `Plays a chord sequence, one chord per bar. Chords come from the
arguments, from --progression expanded in --key, or from the settings file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := sequenceTiming.apply(settings)
		if err != nil {
			return err
		}
		if sequenceOnce {
			s.LoopSequence = false
		}
		sess, closeSession, err := newSession(s, nil)
		if err != nil {
			return err
		}
		defer closeSession()

		items, err := loadSequence(sess, args, sequenceProgression, sequenceKey)
		if err != nil {
			return err
		}
		ctx, cancel := interruptContext(cmd)
		defer cancel()
		if err := sess.PlaySequence(ctx); err != nil {
			return err
		}

		names := make([]string, len(items))
		for i, item := range items {
			names[i] = item.Chord
		}
		fmt.Printf("| %s |  %.0f bpm  %s\n", strings.Join(names, " | "), s.BPM, s.Pattern)
		waitWhilePlaying(ctx, sess)
		return nil
	},
}
