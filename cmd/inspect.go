package cmd

import (
	"fmt"
	"strings"

	"github.com/jsphweid/strumdex/chord"
	"github.com/jsphweid/strumdex/dictionary"
	"github.com/jsphweid/strumdex/model"
	"github.com/jsphweid/strumdex/pitch"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(inspectCmd)
}

var inspectCmd = &cobra.Command{
	Use:   "inspect <chord>",
	Short: "Shows every shape of a chord",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		entry, ok := dictionary.Default().Chord(args[0])
		if !ok {
			return fmt.Errorf("%w: %s", dictionary.ErrUnknownChord, args[0])
		}
		fmt.Print(inspect(entry))
		return nil
	},
}

func inspect(entry model.ChordEntry) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s (%s)\n", entry.Key, entry.Name)
	for i, shape := range entry.Variants {
		fmt.Fprintf(&sb, "%2d  %-14s", i, chord.Diagram(shape.Frets))

		fingers := make([]string, len(shape.Fingers))
		for s, f := range shape.Fingers {
			fingers[s] = "-"
			if f != model.Free {
				fingers[s] = fmt.Sprint(int(f))
			}
		}
		fmt.Fprintf(&sb, "fingers %s", strings.Join(fingers, ""))
		if b := shape.Barre; b != nil {
			fmt.Fprintf(&sb, "  barre fret %d strings %d-%d", b.Fret, b.From+1, b.To+1)
		}

		var names []string
		for _, p := range chord.PlayablePitches(shape.Frets) {
			names = append(names, pitch.Name(p))
		}
		fmt.Fprintf(&sb, "\n    %s", strings.Join(names, " "))
		if root, ok := chord.RootPitch(shape.Frets, entry.Root); ok {
			fmt.Fprintf(&sb, "  root %s", pitch.Name(root))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
