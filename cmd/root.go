package cmd

import (
	"log/slog"
	"os"

	"github.com/jsphweid/strumdex/config"
	"github.com/jsphweid/strumdex/constants"
	"github.com/spf13/cobra"
)

var (
	configPath string
	debug      bool
	settings   config.Settings
)

var rootCmd = &cobra.Command{
	Use:   "strumdex",
	Short: "Guitar strumming practice",
	Long: `strumdex loops chords and chord sequences with a strum pattern,
plays reference tones and listens to your guitar as a tuner.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		initLogger(debug)
		s, err := config.Load(configPath)
		if err != nil {
			return err
		}
		settings = s
		slog.Debug("cmd: settings loaded", "path", configPath, "backend", s.Sound.Backend)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", constants.GetConfigPath(), "settings file")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "debug logging")
}

// initLogger sets the default slog logger. Debug mode lowers the level and
// adds source locations.
func initLogger(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level:     level,
		AddSource: debug,
	})
	slog.SetDefault(slog.New(h))
}

func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}
