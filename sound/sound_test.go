package sound

import (
	"context"
	"testing"
	"time"

	"github.com/jsphweid/strumdex/clock"
	"github.com/jsphweid/strumdex/model"
	"github.com/jsphweid/strumdex/sample"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type noteLog struct {
	frame int64
	on    bool
	pitch int
}

// logInstrument records which block each command lands in.
type logInstrument struct {
	frame int64
	log   []noteLog
}

func (l *logInstrument) NoteOn(p int, _ float64) {
	l.log = append(l.log, noteLog{frame: l.frame, on: true, pitch: p})
}

func (l *logInstrument) NoteOff(p int) {
	l.log = append(l.log, noteLog{frame: l.frame, pitch: p})
}

func (l *logInstrument) Render(left, right []float32) {
	for i := range left {
		left[i], right[i] = 0, 0
	}
	l.frame += int64(len(left))
}

func TestEngineDispatchesInOrder(t *testing.T) {
	inst := &logInstrument{}
	e := NewEngine(1000, inst)

	e.Play(model.NoteEvent{Pitch: 64, Onset: 0.1, Duration: 0.2, Velocity: 0.5})
	e.Play(model.NoteEvent{Pitch: 40, Onset: 0, Duration: 0.05, Velocity: 1})
	assert.Equal(t, 4, e.Pending())

	e.Render(400)

	assert := assert.New(t)
	assert.Equal(0, e.Pending())
	assert.Equal(int64(400), e.Frame())
	// 64-frame blocks: 0, 64 (50), 64 (100), 256 (300)
	assert.Equal([]noteLog{
		{frame: 0, on: true, pitch: 40},
		{frame: 0, pitch: 40},
		{frame: 64, on: true, pitch: 64},
		{frame: 256, pitch: 64},
	}, inst.log)
}

func TestEngineScheduleFromBase(t *testing.T) {
	inst := &logInstrument{}
	e := NewEngine(1000, inst)
	e.Schedule(model.NoteEvent{Pitch: 50, Onset: 0.01, Duration: 1}, 500)

	e.Render(500)
	assert.Empty(t, inst.log)
	e.Render(64)
	require.Len(t, inst.log, 1)
	assert.Equal(t, 50, inst.log[0].pitch)
}

func TestEngineStreamAndTone(t *testing.T) {
	e := NewEngine(44100, NewPluck(44100))
	samples := make([][2]float64, 1000)

	n, ok := e.Stream(samples)
	assert.Equal(t, 1000, n)
	assert.True(t, ok)
	assert.Equal(t, [2]float64{0, 0}, samples[999])

	e.SetTone(440)
	left, _ := e.Render(4410)
	assert.InDelta(t, toneGain/1.414, sample.RMS(left), 0.01)

	e.ClearTone()
	left, _ = e.Render(512)
	assert.Equal(t, 0.0, sample.RMS(left))
}

func TestPluckRingsAndReleases(t *testing.T) {
	p := NewPluck(44100)
	left := make([]float32, 4410)
	right := make([]float32, 4410)

	p.NoteOn(45, 1)
	p.Render(left, right)
	loud := sample.RMS(left)
	assert.Greater(t, loud, 0.01)
	assert.Equal(t, left, right)

	p.NoteOff(45)
	for i := 0; i < 20; i++ {
		p.Render(left, right)
	}
	assert.Less(t, sample.RMS(left), loud/100)
	assert.Equal(t, 0, p.Voices())
}

func TestPluckStealsOldestVoice(t *testing.T) {
	p := NewPluck(8000)
	for i := 0; i < maxPluckVoices+5; i++ {
		p.NoteOn(40+i, 0.5)
	}
	assert.Equal(t, maxPluckVoices, p.Voices())
}

func TestRender(t *testing.T) {
	start := time.Unix(0, 0)
	events := []Recorded{
		{At: start, Event: model.NoteEvent{Pitch: 48, Duration: 0.25, Velocity: 1}},
		{At: start.Add(500 * time.Millisecond), Event: model.NoteEvent{Pitch: 52, Onset: 0.012, Duration: 0.24, Velocity: 0.9}},
	}
	out := Render(events, start, NewPluck(8000), 8000, 250*time.Millisecond)

	// last note ends at 0.752s, plus 0.25s tail, stereo
	assert.Equal(t, 2*8016, len(out))
	assert.Greater(t, sample.Peak(out), 0.01)
	assert.Nil(t, Render(nil, start, NewPluck(8000), 8000, 0))
}

func TestRecorder(t *testing.T) {
	clk := clock.NewManual(time.Unix(100, 0))
	r := NewRecorder(clk)

	require.NoError(t, r.EnsureReady(context.Background()))
	r.PlayPitch(model.NoteEvent{Pitch: 40, Onset: 0.5})
	clk.Advance(time.Second)
	r.PlayPitch(model.NoteEvent{Pitch: 45})

	events := r.Events()
	require.Len(t, events, 2)

	assert := assert.New(t)
	assert.Equal(time.Unix(100, 0), events[0].At)
	assert.Equal(time.Unix(100, 0).Add(500*time.Millisecond), events[0].Start())
	assert.Equal(time.Unix(101, 0), events[1].At)

	require.NoError(t, r.StartReferenceTone(440))
	assert.Equal(440.0, r.Tone())
	r.StopReferenceTone()
	assert.Equal(0.0, r.Tone())

	r.Fail = true
	assert.ErrorIs(r.EnsureReady(context.Background()), ErrDeviceUnavailable)
}

func TestNull(t *testing.T) {
	var m Module = Null{}
	assert.NoError(t, m.EnsureReady(context.Background()))
	assert.NoError(t, m.StartReferenceTone(440))
}
