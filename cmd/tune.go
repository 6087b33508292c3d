package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/jsphweid/strumdex/capture"
	"github.com/jsphweid/strumdex/tuner"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"
)

// The readout is redrawn at most this often however fast the tuner runs.
const tuneRedraw = 100 * time.Millisecond

// Cents within this of zero count as in tune.
const inTuneCents = 5

var (
	noteStyle  = lipgloss.NewStyle().Bold(true).Width(4)
	tuneStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#00ff9f"))
	flatStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffb86c"))
	sharpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff5555"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6e7681"))
)

func init() {
	rootCmd.AddCommand(tuneCmd)
}

// meter draws cents from -50 to +50 as a row of cells with a marker.
func meter(cents int) string {
	const half = 10
	pos := max(-half, min(half, cents/5)) + half
	var sb strings.Builder
	for i := 0; i <= 2*half; i++ {
		switch {
		case i == pos:
			sb.WriteString("|")
		case i == half:
			sb.WriteString("+")
		default:
			sb.WriteString("-")
		}
	}
	return sb.String()
}

func readout(obs tuner.Observation) string {
	style := tuneStyle
	switch {
	case obs.Cents < -inTuneCents:
		style = flatStyle
	case obs.Cents > inTuneCents:
		style = sharpStyle
	}
	return lipgloss.JoinHorizontal(lipgloss.Center,
		noteStyle.Render(obs.Name()),
		style.Render(meter(obs.Cents)),
		dimStyle.Render(fmt.Sprintf(" %+3d cents %7.2f Hz", obs.Cents, obs.Frequency)),
	)
}

var tuneCmd = &cobra.Command{
	Use:   "tune",
	Short: "Listens to the microphone and shows the nearest note",
	RunE: func(cmd *cobra.Command, args []string) error {
		mic := capture.Microphone{Rate: float64(settings.Tuner.SampleRate)}
		defer capture.Shutdown()

		sess, closeSession, err := newSession(settings, mic)
		if err != nil {
			return err
		}
		defer closeSession()

		ctx, cancel := interruptContext(cmd)
		defer cancel()
		if err := sess.StartTuner(ctx); err != nil {
			return err
		}
		fmt.Println(dimStyle.Render("listening, Ctrl-C to stop"))

		limiter := rate.NewLimiter(rate.Every(tuneRedraw), 1)
		ticker := time.NewTicker(time.Second / time.Duration(settings.Tuner.FrameRate))
		defer ticker.Stop()
		var shown tuner.Observation
		for {
			select {
			case <-ctx.Done():
				fmt.Println()
				return nil
			case <-ticker.C:
				reading := sess.Tuner().Reading
				if reading == nil || *reading == shown || !limiter.Allow() {
					continue
				}
				shown = *reading
				fmt.Printf("\r%s", readout(shown))
			}
		}
	},
}
