package cmd

import (
	"fmt"

	"github.com/jsphweid/strumdex/midi"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(portsCmd)
}

var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "Lists MIDI output ports for the midi sound backend",
	Run: func(cmd *cobra.Command, args []string) {
		defer midi.CloseDriver()
		outs := midi.ListOuts()
		if len(outs) == 0 {
			fmt.Println("no midi output ports")
			return
		}
		for i, name := range outs {
			fmt.Printf("%d: %s\n", i, name)
		}
	},
}
