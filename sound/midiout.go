package sound

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/jsphweid/strumdex/midi"
	"github.com/jsphweid/strumdex/model"
	"github.com/jsphweid/strumdex/pitch"
	gomidi "gitlab.com/gomidi/midi/v2"
)

// MIDIOut sends notes to an external synth. Strums go out on Channel; the
// reference tone uses the next channel so its pitch bend leaves strums alone.
type MIDIOut struct {
	PortName string
	Channel  uint8
	Program  int

	mu      sync.Mutex
	port    *midi.Port
	err     error
	toneKey int
	toneOn  bool
}

func (m *MIDIOut) toneChannel() uint8 {
	return (m.Channel + 1) % 16
}

func (m *MIDIOut) EnsureReady(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.port != nil || m.err != nil {
		return m.err
	}
	port, err := midi.OpenOut(m.PortName)
	if err != nil {
		m.err = fmt.Errorf("%w: %s", ErrDeviceUnavailable, err)
		return m.err
	}
	m.port = port
	if m.Program >= 0 {
		m.sendLocked(gomidi.ProgramChange(m.Channel, uint8(m.Program)))
		m.sendLocked(gomidi.ProgramChange(m.toneChannel(), uint8(m.Program)))
	}
	slog.Info("sound: midi out ready", "port", port.Name, "channel", m.Channel)
	return nil
}

func (m *MIDIOut) sendLocked(msg gomidi.Message) {
	if m.port == nil {
		return
	}
	if err := m.port.Send(msg); err != nil {
		slog.Warn("sound: midi send failed", "msg", msg.String(), "err", err)
	}
}

func (m *MIDIOut) send(msg gomidi.Message) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sendLocked(msg)
}

func (m *MIDIOut) PlayPitch(ev model.NoteEvent) {
	key := midi.Key(ev.Pitch)
	on := gomidi.NoteOn(m.Channel, key, midi.Velocity(ev.Velocity))
	off := gomidi.NoteOff(m.Channel, key)
	onset := time.Duration(ev.Onset * float64(time.Second))
	length := time.Duration(ev.Duration * float64(time.Second))

	if onset <= 0 {
		m.send(on)
	} else {
		time.AfterFunc(onset, func() { m.send(on) })
	}
	time.AfterFunc(onset+length, func() { m.send(off) })
}

// StartReferenceTone holds the nearest key, bent onto freq.
func (m *MIDIOut) StartReferenceTone(freq float64) error {
	if err := m.EnsureReady(context.Background()); err != nil {
		return err
	}
	exact := pitch.FromFrequency(freq)
	key := int(math.Round(exact))

	m.mu.Lock()
	defer m.mu.Unlock()
	ch := m.toneChannel()
	if m.toneOn {
		m.sendLocked(gomidi.NoteOff(ch, midi.Key(m.toneKey)))
	}
	m.sendLocked(gomidi.Pitchbend(ch, midi.Bend(exact-float64(key))))
	m.sendLocked(gomidi.NoteOn(ch, midi.Key(key), 100))
	m.toneKey = key
	m.toneOn = true
	return nil
}

func (m *MIDIOut) StopReferenceTone() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.toneOn {
		return
	}
	ch := m.toneChannel()
	m.sendLocked(gomidi.NoteOff(ch, midi.Key(m.toneKey)))
	m.sendLocked(gomidi.Pitchbend(ch, 0))
	m.toneOn = false
}

func (m *MIDIOut) Close() error {
	m.StopReferenceTone()
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.port == nil {
		return nil
	}
	err := m.port.Close()
	m.port = nil
	return err
}
