package cmd

import (
	"fmt"

	"github.com/goccy/go-yaml"
	"github.com/jsphweid/strumdex/config"
	"github.com/spf13/cobra"
)

var settingsWrite bool

func init() {
	settingsCmd.Flags().BoolVar(&settingsWrite, "write", false, "write the effective settings to the --config file")
	rootCmd.AddCommand(settingsCmd)
}

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Prints the effective settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		if settingsWrite {
			if err := config.Save(configPath, settings); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", configPath)
			return nil
		}
		out, err := yaml.Marshal(settings)
		if err != nil {
			return err
		}
		fmt.Print(string(out))
		return nil
	},
}
