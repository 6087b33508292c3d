package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var toneDuration time.Duration

func init() {
	toneCmd.Flags().DurationVar(&toneDuration, "duration", 0, "stop after this long (default: until Ctrl-C)")
	rootCmd.AddCommand(toneCmd)
}

var toneCmd = &cobra.Command{
	Use:   "tone <note|Hz>",
	Short: "Plays a steady reference tone",
	Long:  `Plays a steady reference tone given as a note name such as A4 or E2, or as a frequency in Hz.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, closeSession, err := newSession(settings, nil)
		if err != nil {
			return err
		}
		defer closeSession()

		ctx, cancel := interruptContext(cmd)
		defer cancel()
		freq, err := sess.StartReferenceTone(ctx, args[0])
		if err != nil {
			return err
		}
		defer sess.StopReferenceTone()
		fmt.Printf("%.2f Hz\n", freq)

		var timeout <-chan time.Time
		if toneDuration > 0 {
			timeout = time.After(toneDuration)
		}
		select {
		case <-ctx.Done():
		case <-timeout:
		}
		return nil
	},
}
