// Package midi opens MIDI output ports and converts practice events to MIDI
// values.
package midi

import (
	"fmt"

	"github.com/jsphweid/strumdex/util"
	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // autoregisters driver
)

// BendRange is the pitch bend range in semitones assumed for reference tones.
const BendRange = 2.0

// Port is an open output with a send function.
type Port struct {
	Name string
	out  drivers.Out
	send func(msg gomidi.Message) error
}

// OpenOut opens the first output port whose name contains name, or port 0
// when name is empty.
func OpenOut(name string) (*Port, error) {
	var out drivers.Out
	var err error
	if name == "" {
		out, err = gomidi.OutPort(0)
	} else {
		out, err = gomidi.FindOutPort(name)
	}
	if err != nil {
		return nil, fmt.Errorf("Error finding midi out port %q... %w", name, err)
	}
	send, err := gomidi.SendTo(out)
	if err != nil {
		return nil, fmt.Errorf("Error opening midi out port %s... %w", out.String(), err)
	}
	return &Port{Name: out.String(), out: out, send: send}, nil
}

// ListOuts names the available output ports.
func ListOuts() []string {
	var names []string
	for _, out := range gomidi.GetOutPorts() {
		names = append(names, out.String())
	}
	return names
}

func (p *Port) Send(msg gomidi.Message) error {
	return p.send(msg)
}

func (p *Port) Close() error {
	return p.out.Close()
}

// CloseDriver releases the MIDI driver at exit.
func CloseDriver() {
	gomidi.CloseDriver()
}

// Velocity maps a 0..1 gain onto 1..127.
func Velocity(v float64) uint8 {
	return uint8(util.Clamp(int(v*127+0.5), 1, 127))
}

// Key clamps a pitch number into the MIDI key range.
func Key(pitch int) uint8 {
	return uint8(util.Clamp(pitch, 0, 127))
}

// Bend converts a deviation in semitones into a 14-bit pitch bend value,
// assuming a bend range of BendRange semitones.
func Bend(semitones float64) int16 {
	v := int(semitones / BendRange * 8192)
	return int16(util.Clamp(v, -8192, 8191))
}
