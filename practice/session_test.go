package practice

import (
	"context"
	"testing"
	"time"

	"github.com/jsphweid/strumdex/capture"
	"github.com/jsphweid/strumdex/clock"
	"github.com/jsphweid/strumdex/config"
	"github.com/jsphweid/strumdex/dictionary"
	"github.com/jsphweid/strumdex/model"
	"github.com/jsphweid/strumdex/player"
	"github.com/jsphweid/strumdex/sample"
	"github.com/jsphweid/strumdex/sequence"
	"github.com/jsphweid/strumdex/sound"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 120 bpm: one step every 250ms
const step = 250 * time.Millisecond

type toneSource struct{ freq float64 }

func (s toneSource) Open(ctx context.Context) (capture.Stream, error) {
	return toneStream{buf: sample.Sine(s.freq, 44100, 2048, 0.8)}, ctx.Err()
}

type toneStream struct{ buf []float32 }

func (s toneStream) SampleRate() float64 { return 44100 }

func (s toneStream) Snapshot(dst []float32) int { return copy(dst, s.buf) }

func (s toneStream) Close() error { return nil }

type fixture struct {
	clk  *clock.Manual
	rec  *sound.Recorder
	sess *Session
}

func newFixture(t *testing.T, input capture.Source) fixture {
	t.Helper()
	settings := config.Default()
	settings.BPM = 120
	clk := clock.NewManual(time.Unix(0, 0))
	rec := sound.NewRecorder(clk)
	sess, err := New(Config{Settings: settings, Sound: rec, Clock: clk, Input: input})
	require.NoError(t, err)
	t.Cleanup(sess.Close)
	return fixture{clk: clk, rec: rec, sess: sess}
}

func chords(items []model.SequenceItem) []string {
	var res []string
	for _, item := range items {
		res = append(res, item.Chord)
	}
	return res
}

func TestNewRejectsBadSettings(t *testing.T) {
	settings := config.Default()
	settings.Pattern = "polka"
	_, err := New(Config{Settings: settings})
	assert.ErrorIs(t, err, dictionary.ErrUnknownPattern)

	settings = config.Default()
	settings.Sequence = []config.SequenceEntry{{Chord: "C"}, {Chord: "Hm"}}
	_, err = New(Config{Settings: settings})
	assert.ErrorIs(t, err, dictionary.ErrUnknownChord)

	settings = config.Default()
	settings.BPM = 5
	_, err = New(Config{Settings: settings})
	assert.ErrorIs(t, err, config.ErrInvalidSettings)
}

func TestPlayersAreExclusive(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	assert := assert.New(t)

	require.NoError(t, f.sess.PlayChord(ctx, "C", 0))
	events := f.rec.Events()
	require.NotEmpty(t, events)
	// root of the open C shape on the A string, then the strum
	assert.Equal(48, events[0].Event.Pitch)

	st := f.sess.Status()
	assert.Equal(ChordPlayer, st.Active)
	assert.Equal(player.Playing, st.Chord.State)
	assert.Equal("C", st.Chord.Label)
	assert.Equal("C", st.Settings.Chord)

	require.NoError(t, f.sess.PlaySequence(ctx))
	st = f.sess.Status()
	assert.Equal(SequencePlayer, st.Active)
	assert.Equal(player.Idle, st.Chord.State)
	assert.Equal(player.Playing, st.Sequence.State)

	require.NoError(t, f.sess.Stop(""))
	st = f.sess.Status()
	assert.Empty(st.Active)
	assert.Equal(player.Idle, st.Sequence.State)
	assert.Zero(f.clk.Active())

	assert.ErrorIs(f.sess.Stop("drums"), ErrUnknownPlayer)
	assert.ErrorIs(f.sess.PlayChord(ctx, "Hm", 0), dictionary.ErrUnknownChord)
}

func TestDeviceFailureLeavesPlayersIdle(t *testing.T) {
	f := newFixture(t, nil)
	f.rec.Fail = true

	err := f.sess.PlayChord(context.Background(), "G", 0)
	assert.ErrorIs(t, err, sound.ErrDeviceUnavailable)
	assert.Equal(t, player.Idle, f.sess.Status().Chord.State)
	assert.Empty(t, f.rec.Events())

	_, err = f.sess.StartReferenceTone(context.Background(), "A4")
	assert.ErrorIs(t, err, sound.ErrDeviceUnavailable)
}

func TestSequencePicksUpEdits(t *testing.T) {
	f := newFixture(t, nil)
	require.NoError(t, f.sess.PlaySequence(context.Background()))

	items := f.sess.Sequence()
	require.Equal(t, []string{"C", "G", "Am", "F"}, chords(items))
	_, err := f.sess.UpdateItem(items[1].ID, "Em", 0)
	require.NoError(t, err)

	f.clk.Advance(7 * step)
	st := f.sess.Status().Sequence
	assert.Equal(t, 1, st.Bar)
	assert.Equal(t, "Em", st.Label)
}

func TestUpdateSettingsReachesPlayers(t *testing.T) {
	f := newFixture(t, nil)
	require.NoError(t, f.sess.PlayChord(context.Background(), "C", 0))
	before := len(f.rec.Events())

	bpm, pattern := 60.0, "reggae"
	s, err := f.sess.UpdateSettings(config.Patch{BPM: &bpm, Pattern: &pattern})
	require.NoError(t, err)
	assert := assert.New(t)
	assert.Equal(60.0, s.BPM)
	assert.Equal("reggae", f.sess.Settings().Pattern)

	// the step timer restarts at the slower tempo: 500ms per step
	f.clk.Advance(step)
	assert.Equal(before, len(f.rec.Events()))
	f.clk.Advance(step)
	assert.Greater(len(f.rec.Events()), before)

	tooFast := 900.0
	_, err = f.sess.UpdateSettings(config.Patch{BPM: &tooFast})
	assert.ErrorIs(err, config.ErrInvalidSettings)

	polka := "polka"
	_, err = f.sess.UpdateSettings(config.Patch{Pattern: &polka})
	assert.ErrorIs(err, dictionary.ErrUnknownPattern)
	assert.Equal(60.0, f.sess.Settings().BPM)
	assert.Equal("reggae", f.sess.Settings().Pattern)

	loop := false
	_, err = f.sess.UpdateSettings(config.Patch{LoopChord: &loop})
	require.NoError(t, err)
	f.clk.Advance(8 * 2 * step)
	assert.Equal(player.Idle, f.sess.Status().Chord.State)
}

func TestSequenceEditing(t *testing.T) {
	f := newFixture(t, nil)
	assert := assert.New(t)

	item, err := f.sess.AppendItem("Db", 0)
	require.NoError(t, err)
	assert.Equal("C#", item.Chord)

	_, err = f.sess.AppendItem("Hm", 0)
	assert.ErrorIs(err, dictionary.ErrUnknownChord)

	first, err := f.sess.InsertItem(0, "D", 1)
	require.NoError(t, err)
	assert.Equal([]string{"D", "C", "G", "Am", "F", "C#"}, chords(f.sess.Sequence()))

	require.NoError(t, f.sess.RemoveItem(first.ID))
	assert.ErrorIs(f.sess.RemoveItem(first.ID), sequence.ErrNotFound)

	updated, err := f.sess.UpdateItem(item.ID, "", 1)
	require.NoError(t, err)
	assert.Equal("C#", updated.Chord)
	assert.Equal(1, updated.Variant)

	_, err = f.sess.UpdateItem(item.ID, "Q", 0)
	assert.ErrorIs(err, dictionary.ErrUnknownChord)

	assert.Equal([]config.SequenceEntry{
		{Chord: "C"}, {Chord: "G"}, {Chord: "Am"}, {Chord: "F"}, {Chord: "C#", Variant: 1},
	}, f.sess.Settings().Sequence)

	items, err := f.sess.ReplaceSequence(nil)
	require.NoError(t, err)
	assert.Equal([]string{sequence.DefaultPlaceholder}, chords(items))
}

func TestProgressionAlternatives(t *testing.T) {
	f := newFixture(t, nil)
	assert := assert.New(t)

	items, err := f.sess.LoadProgression("C", "pop")
	require.NoError(t, err)
	assert.Equal([]string{"C", "G", "Am", "F"}, chords(items))
	assert.Equal("C", f.sess.Status().Key)

	alts, err := f.sess.Alternatives(items[2].ID)
	require.NoError(t, err)
	assert.Equal([]string{"Am", "Am7", "C", "F"}, alts)

	// swapping in an alternative keeps the degree
	_, err = f.sess.UpdateItem(items[2].ID, "Am7", 0)
	require.NoError(t, err)
	alts, _ = f.sess.Alternatives(items[2].ID)
	assert.Equal([]string{"Am", "Am7", "C", "F"}, alts)

	added, err := f.sess.AppendItem("Em", 0)
	require.NoError(t, err)
	alts, err = f.sess.Alternatives(added.ID)
	require.NoError(t, err)
	assert.Equal([]string{"E", "Em", "E7", "Emaj7", "Em7", "Edim"}, alts)

	_, err = f.sess.Alternatives("missing")
	assert.ErrorIs(err, sequence.ErrNotFound)

	_, err = f.sess.LoadProgression("C", "nope")
	assert.ErrorIs(err, dictionary.ErrUnknownProgression)

	replaced, err := f.sess.ReplaceSequence([]config.SequenceEntry{{Chord: "G"}})
	require.NoError(t, err)
	assert.Empty(f.sess.Status().Key)
	alts, _ = f.sess.Alternatives(replaced[0].ID)
	assert.Equal("G", alts[0])
}

func TestTuner(t *testing.T) {
	f := newFixture(t, toneSource{freq: 440})
	ctx := context.Background()
	assert := assert.New(t)

	assert.False(f.sess.Tuner().Running)
	require.NoError(t, f.sess.StartTuner(ctx))
	require.NoError(t, f.sess.StartTuner(ctx))
	assert.Nil(f.sess.Tuner().Reading)

	f.clk.Advance(20 * time.Millisecond)
	st := f.sess.Tuner()
	assert.True(st.Running)
	assert.True(st.Signal)
	require.NotNil(t, st.Reading)
	assert.Equal("A4", st.Reading.Name())

	f.sess.StopTuner()
	st = f.sess.Tuner()
	assert.False(st.Running)
	assert.False(st.Signal)
	assert.Nil(st.Reading)

	noInput := newFixture(t, nil)
	assert.ErrorIs(noInput.sess.StartTuner(ctx), capture.ErrNoInput)
}

func TestParseTone(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"A4", 440},
		{"a4", 440},
		{"440", 440},
		{"261.63hz", 261.63},
		{"A3", 220},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTone(tt.in)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 0.001)
		})
	}

	for _, bad := range []string{"", "Q", "5", "90000", "nan"} {
		_, err := ParseTone(bad)
		assert.ErrorIs(t, err, ErrInvalidTone, bad)
	}
}

func TestReferenceTone(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	assert := assert.New(t)

	freq, err := f.sess.StartReferenceTone(ctx, "E2")
	require.NoError(t, err)
	assert.InDelta(82.41, freq, 0.01)
	assert.Equal(freq, f.rec.Tone())
	assert.Equal(freq, f.sess.Status().Tone)

	_, err = f.sess.StartReferenceTone(ctx, "bogus")
	assert.Error(err)
	assert.Equal(freq, f.rec.Tone())

	f.sess.StopReferenceTone()
	assert.Zero(f.rec.Tone())
	assert.Zero(f.sess.Status().Tone)
}

func TestUptime(t *testing.T) {
	f := newFixture(t, nil)
	f.clk.Advance(90 * time.Second)
	assert.Equal(t, "1 minute 30 seconds", f.sess.Status().Uptime)
}
