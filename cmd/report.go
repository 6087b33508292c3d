package cmd

import (
	"fmt"
	"strings"

	"github.com/jsphweid/strumdex/dictionary"
	"github.com/jsphweid/strumdex/pattern"
	"github.com/jsphweid/strumdex/util"
	"github.com/spf13/cobra"
)

var reportKey string

func init() {
	reportCmd.Flags().StringVar(&reportKey, "key", "C", "key progressions are spelled in")
	rootCmd.AddCommand(reportCmd)
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Summarises the chord, pattern and progression tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := report(dictionary.Default(), reportKey)
		if err != nil {
			return err
		}
		fmt.Print(r)
		return nil
	},
}

type chordsReport struct {
	numChords   int
	numShapes   int
	numBarre    int
	mostShapes  string
	maxVariants int
}

func analyzeChords(d *dictionary.Dictionary) chordsReport {
	var r chordsReport
	var counts []int
	for _, key := range d.Chords() {
		entry, _ := d.Chord(key)
		r.numChords++
		counts = append(counts, len(entry.Variants))
		for _, v := range entry.Variants {
			if v.Barre != nil {
				r.numBarre++
			}
		}
		if len(entry.Variants) > r.maxVariants {
			r.maxVariants = len(entry.Variants)
			r.mostShapes = key
		}
	}
	r.numShapes = util.Sum(counts)
	return r
}

func report(d *dictionary.Dictionary, key string) (string, error) {
	var sb strings.Builder

	c := analyzeChords(d)
	fmt.Fprintf(&sb, "chords: %d, shapes: %d (%d barre), most shapes: %s (%d)\n",
		c.numChords, c.numShapes, c.numBarre, c.mostShapes, c.maxVariants)

	sb.WriteString("\npatterns:\n")
	for _, p := range d.Patterns() {
		fmt.Fprintf(&sb, "  %-10s %s  %s\n", p.ID, pattern.Format(p), p.Label)
	}

	fmt.Fprintf(&sb, "\nprogressions in %s:\n", key)
	for _, p := range d.Progressions() {
		items, err := d.Expand(key, p.ID)
		if err != nil {
			return "", err
		}
		names := make([]string, len(items))
		for i, item := range items {
			names[i] = item.Chord
		}
		fmt.Fprintf(&sb, "  %-10s %s\n", p.ID, strings.Join(names, " "))
	}
	return sb.String(), nil
}
