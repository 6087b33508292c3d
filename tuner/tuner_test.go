package tuner

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jsphweid/strumdex/capture"
	"github.com/jsphweid/strumdex/clock"
	"github.com/jsphweid/strumdex/sample"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const rate = 44100

func TestDetectPureTones(t *testing.T) {
	cases := []struct {
		freq   float64
		pitch  int
		note   string
		octave int
	}{
		{440, 69, "A", 4},
		{220, 57, "A", 3},
		{329.63, 64, "E", 4},
	}
	for _, c := range cases {
		t.Run(fmt.Sprintf("%.2f Hz", c.freq), func(t *testing.T) {
			obs, ok := Detect(sample.Sine(c.freq, rate, 2048, 0.8), rate)
			require.True(t, ok)

			assert := assert.New(t)
			assert.Equal(c.pitch, obs.Pitch)
			assert.Equal(c.note, obs.Note)
			assert.Equal(c.octave, obs.Octave)
			assert.InDelta(0, obs.Cents, 5)
			assert.InDelta(c.freq, obs.Frequency, c.freq*0.01)
		})
	}
}

func TestDetect440(t *testing.T) {
	obs, ok := Detect(sample.Sine(440, rate, 4096, 0.8), rate)
	require.True(t, ok)

	assert := assert.New(t)
	assert.Equal(441.0, obs.Frequency)
	assert.Equal("A4", obs.Name())
	assert.Equal(4, obs.Cents)
}

func TestDetectNoSignal(t *testing.T) {
	assert := assert.New(t)

	_, ok := Detect(make([]float32, 2048), rate)
	assert.False(ok, "silence")

	_, ok = Detect(sample.Sine(440, rate, 2048, 0.005), rate)
	assert.False(ok, "below the rms floor")

	_, ok = Detect(sample.Sine(440, rate, 1000, 0.8), rate)
	assert.False(ok, "short buffer")
}

type fakeSource struct {
	mu      sync.Mutex
	samples []float32
	err     error
	opened  int
	closed  int
}

func (f *fakeSource) Open(context.Context) (capture.Stream, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.opened++
	return &fakeStream{src: f}, nil
}

func (f *fakeSource) set(samples []float32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.samples = samples
}

type fakeStream struct {
	src *fakeSource
}

func (s *fakeStream) SampleRate() float64 { return rate }

func (s *fakeStream) Snapshot(dst []float32) int {
	s.src.mu.Lock()
	defer s.src.mu.Unlock()
	return copy(dst, s.src.samples)
}

func (s *fakeStream) Close() error {
	s.src.mu.Lock()
	defer s.src.mu.Unlock()
	s.src.closed++
	return nil
}

const frame = 17 * time.Millisecond

func TestTunerPublishesAndHolds(t *testing.T) {
	clk := clock.NewManual(time.Unix(0, 0))
	src := &fakeSource{samples: sample.Sine(440, rate, 2048, 0.8)}
	tn := New(Config{Source: src, Clock: clk, FrameRate: 60})

	var updates []Observation
	tn.OnUpdate(func(o Observation) { updates = append(updates, o) })

	require.NoError(t, tn.Start(context.Background()))
	require.NoError(t, tn.Start(context.Background()))

	assert := assert.New(t)
	assert.True(tn.Running())
	assert.Equal(1, src.opened)

	_, ok := tn.Last()
	assert.False(ok)
	assert.False(tn.Signal())

	clk.Advance(frame)
	last, ok := tn.Last()
	assert.True(ok)
	assert.True(tn.Signal())
	assert.Equal("A4", last.Name())
	assert.Len(updates, 1)

	// silence withholds the update
	src.set(make([]float32, 2048))
	clk.Advance(3 * frame)
	last, ok = tn.Last()
	assert.True(ok)
	assert.Equal("A4", last.Name())
	assert.Len(updates, 1)
	assert.False(tn.Signal())

	src.set(sample.Sine(220, rate, 2048, 0.8))
	clk.Advance(frame)
	last, _ = tn.Last()
	assert.Equal("A3", last.Name())
	assert.True(tn.Signal())
}

func TestTunerStopReleasesInput(t *testing.T) {
	clk := clock.NewManual(time.Unix(0, 0))
	src := &fakeSource{samples: sample.Sine(440, rate, 2048, 0.8)}
	tn := New(Config{Source: src, Clock: clk})

	require.NoError(t, tn.Start(context.Background()))
	clk.Advance(frame)
	tn.Stop()
	tn.Stop()

	assert := assert.New(t)
	assert.False(tn.Running())
	assert.Equal(1, src.closed)
	assert.Equal(0, clk.Active())
	_, ok := tn.Last()
	assert.False(ok)
	assert.False(tn.Signal())

	clk.Advance(10 * frame)
	_, ok = tn.Last()
	assert.False(ok)
}

func TestTunerStartFailure(t *testing.T) {
	clk := clock.NewManual(time.Unix(0, 0))
	src := &fakeSource{err: capture.ErrNoInput}
	tn := New(Config{Source: src, Clock: clk})

	err := tn.Start(context.Background())
	assert.ErrorIs(t, err, capture.ErrNoInput)
	assert.False(t, tn.Running())
	assert.Equal(t, 0, clk.Active())
}

func TestTunerSettles(t *testing.T) {
	clk := clock.NewManual(time.Unix(0, 0))
	src := &fakeSource{samples: sample.Sine(440, rate, 2048, 0.8)}
	tn := New(Config{Source: src, Clock: clk, Settle: 10 * time.Millisecond})

	settled := make(chan Observation, 4)
	tn.OnSettled(func(o Observation) { settled <- o })

	require.NoError(t, tn.Start(context.Background()))
	defer tn.Stop()
	clk.Advance(5 * frame)

	select {
	case o := <-settled:
		assert.Equal(t, "A4", o.Name())
	case <-time.After(time.Second):
		t.Fatal("note never settled")
	}
}
