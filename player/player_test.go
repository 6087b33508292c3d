package player

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jsphweid/strumdex/clock"
	"github.com/jsphweid/strumdex/model"
	"github.com/jsphweid/strumdex/pattern"
	"github.com/jsphweid/strumdex/strum"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const x = model.Muted

var (
	cBar  = Bar{Voicing: model.Voicing{x, 3, 2, 0, 1, 0}, RootClass: 0, Label: "C"}
	gBar  = Bar{Voicing: model.Voicing{3, 2, 0, 0, 0, 3}, RootClass: 7, Label: "G"}
	amBar = Bar{Voicing: model.Voicing{x, 0, 2, 2, 1, 0}, RootClass: 9, Label: "Am"}
	fBar  = Bar{Voicing: model.Voicing{1, 3, 3, 2, 1, 1}, RootClass: 5, Label: "F"}
)

// 120 bpm: one step every 250ms
const step = 250 * time.Millisecond

type recorder struct {
	mu     sync.Mutex
	events []model.NoteEvent
	err    error
}

func (r *recorder) EnsureReady(context.Context) error { return r.err }

func (r *recorder) PlayPitch(ev model.NoteEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

// roots counts root reinforcement hits: the only events at full velocity.
func (r *recorder) roots() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	var res []int
	for _, ev := range r.events {
		if ev.Velocity == 1.0 {
			res = append(res, ev.Pitch)
		}
	}
	return res
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

type bars struct {
	mu   sync.Mutex
	bars []Bar
}

func (b *bars) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.bars)
}

func (b *bars) Bar(i int) (Bar, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.bars[i], nil
}

func (b *bars) set(i int, bar Bar) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.bars[i] = bar
}

func mustPattern(t *testing.T, steps string) model.RhythmPattern {
	p, err := pattern.Parse("test", "", steps, []int{0, 4})
	require.NoError(t, err)
	return p
}

func newPlayer(t *testing.T, clk clock.Clock, out Output, g *Group, steps string, loop bool) *Player {
	timing := strum.DefaultTiming()
	timing.BPM = 120
	return New(Config{
		Name:    "test",
		Clock:   clk,
		Out:     out,
		Group:   g,
		Pattern: mustPattern(t, steps),
		Timing:  timing,
		Loop:    loop,
	})
}

func TestStepInterval(t *testing.T) {
	assert.Equal(t, 250*time.Millisecond, StepInterval(120))
	assert.InDelta(t, 326.087, float64(StepInterval(92))/float64(time.Millisecond), 0.001)
}

func TestPlayFiresFirstStepImmediately(t *testing.T) {
	clk := clock.NewManual(time.Unix(0, 0))
	out := &recorder{}
	p := newPlayer(t, clk, out, nil, "D.DU.UDU", true)

	require.NoError(t, p.Play(context.Background(), Fixed(cBar)))

	assert := assert.New(t)
	// root + five strings
	assert.Equal(6, out.count())
	assert.Equal([]int{48}, out.roots())
	assert.Equal(Playing, p.Status().State)
	assert.Equal(0, p.Status().Bar)

	// step 1 is a rest
	clk.Advance(step)
	assert.Equal(6, out.count())
	clk.Advance(step)
	assert.Equal(11, out.count())
}

func TestRootFiresOncePerBarEvenOnRest(t *testing.T) {
	clk := clock.NewManual(time.Unix(0, 0))
	out := &recorder{}
	p := newPlayer(t, clk, out, nil, ".DUDUDUD", true)

	require.NoError(t, p.Play(context.Background(), Fixed(cBar)))
	clk.Advance(8*3*step - step)

	assert.Equal(t, []int{48, 48, 48}, out.roots())
}

func visitedBars(p *Player) *[]int {
	var visited []int
	p.OnChange(func(s Status) {
		if s.State == Playing {
			visited = append(visited, s.Bar)
		}
	})
	return &visited
}

func TestLoopingSequenceWraps(t *testing.T) {
	clk := clock.NewManual(time.Unix(0, 0))
	p := newPlayer(t, clk, &recorder{}, nil, "D.DU.UDU", true)
	visited := visitedBars(p)

	require.NoError(t, p.Play(context.Background(), &bars{bars: []Bar{cBar, gBar, amBar, fBar}}))
	clk.Advance(8 * 6 * step)

	assert.Equal(t, []int{0, 1, 2, 3, 0, 1, 2}, *visited)
	assert.Equal(t, Playing, p.Status().State)
}

func TestNonLoopingSequenceStopsAfterLastBar(t *testing.T) {
	clk := clock.NewManual(time.Unix(0, 0))
	out := &recorder{}
	p := newPlayer(t, clk, out, nil, "D.DU.UDU", false)

	require.NoError(t, p.Play(context.Background(), &bars{bars: []Bar{cBar, gBar, amBar, fBar}}))

	assert := assert.New(t)
	clk.Advance(30 * step)
	status := p.Status()
	assert.Equal(Playing, status.State)
	assert.Equal(3, status.Bar)
	assert.Equal(6, status.Step)

	clk.Advance(step)
	status = p.Status()
	assert.Equal(Idle, status.State)
	assert.Equal(-1, status.Bar)
	assert.Equal(4, status.BarsPlayed)
	assert.Equal(0, clk.Active())
	assert.Equal([]int{48, 43, 45, 41}, out.roots())

	n := out.count()
	clk.Advance(10 * step)
	assert.Equal(n, out.count())
}

func TestSingleChordWithoutLoopPlaysOneBar(t *testing.T) {
	clk := clock.NewManual(time.Unix(0, 0))
	out := &recorder{}
	p := newPlayer(t, clk, out, nil, "DDDDDDDD", false)

	require.NoError(t, p.Play(context.Background(), Fixed(gBar)))
	clk.Advance(20 * step)

	assert.False(t, p.Playing())
	// root plus six strings on each of eight steps
	assert.Equal(t, 1+8*6, out.count())
}

func TestEditsArePickedUpAtBarBoundary(t *testing.T) {
	clk := clock.NewManual(time.Unix(0, 0))
	out := &recorder{}
	p := newPlayer(t, clk, out, nil, "D.DU.UDU", false)
	src := &bars{bars: []Bar{cBar, gBar}}

	require.NoError(t, p.Play(context.Background(), src))
	clk.Advance(3 * step)
	src.set(1, amBar)
	// editing the bar being played does not change it mid-bar
	src.set(0, fBar)
	clk.Advance(5 * step)

	assert.Equal(t, []int{48, 45}, out.roots())
}

func TestGroupIsMutuallyExclusive(t *testing.T) {
	clk := clock.NewManual(time.Unix(0, 0))
	out := &recorder{}
	g := NewGroup()
	single := newPlayer(t, clk, out, g, "D.DU.UDU", true)
	seq := newPlayer(t, clk, out, g, "D.DU.UDU", true)

	assert := assert.New(t)

	require.NoError(t, single.Play(context.Background(), Fixed(cBar)))
	assert.Same(single, g.Active())

	require.NoError(t, seq.Play(context.Background(), &bars{bars: []Bar{gBar, amBar}}))
	assert.False(single.Playing())
	assert.True(seq.Playing())
	assert.Same(seq, g.Active())
	assert.Equal(1, clk.Active())

	require.NoError(t, single.Play(context.Background(), Fixed(cBar)))
	assert.False(seq.Playing())
	assert.True(single.Playing())

	g.StopAll()
	assert.Nil(g.Active())
	assert.Equal(0, clk.Active())
}

func TestConcurrentPlayKeepsOnePlayerRunning(t *testing.T) {
	clk := clock.NewManual(time.Unix(0, 0))
	out := &recorder{}
	g := NewGroup()
	single := newPlayer(t, clk, out, g, "D.DU.UDU", true)
	seq := newPlayer(t, clk, out, g, "D.DU.UDU", true)

	for i := 0; i < 200; i++ {
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			assert.NoError(t, single.Play(context.Background(), Fixed(cBar)))
		}()
		go func() {
			defer wg.Done()
			assert.NoError(t, seq.Play(context.Background(), &bars{bars: []Bar{gBar, amBar}}))
		}()
		wg.Wait()

		require.False(t, single.Playing() && seq.Playing(), "round %d", i)
		require.Equal(t, 1, clk.Active(), "round %d", i)
		g.StopAll()
	}
}

func TestReplayRestartsFromFirstBar(t *testing.T) {
	clk := clock.NewManual(time.Unix(0, 0))
	p := newPlayer(t, clk, &recorder{}, nil, "D.DU.UDU", true)
	src := &bars{bars: []Bar{cBar, gBar}}

	require.NoError(t, p.Play(context.Background(), src))
	clk.Advance(10 * step)
	require.Equal(t, 1, p.Status().Bar)

	require.NoError(t, p.Play(context.Background(), src))
	assert.Equal(t, 0, p.Status().Bar)
	assert.Equal(t, 1, clk.Active())
}

func TestDeviceFailureLeavesPlayerIdle(t *testing.T) {
	clk := clock.NewManual(time.Unix(0, 0))
	errDevice := errors.New("no output device")
	out := &recorder{err: errDevice}
	p := newPlayer(t, clk, out, nil, "D.DU.UDU", true)

	err := p.Play(context.Background(), Fixed(cBar))
	assert.ErrorIs(t, err, errDevice)
	assert.False(t, p.Playing())
	assert.Equal(t, 0, out.count())
	assert.Equal(t, 0, clk.Active())
}

func TestNoBars(t *testing.T) {
	p := newPlayer(t, clock.NewManual(time.Unix(0, 0)), &recorder{}, nil, "D.DU.UDU", true)
	assert.ErrorIs(t, p.Play(context.Background(), &bars{}), ErrNoBars)
	assert.ErrorIs(t, p.Play(context.Background(), nil), ErrNoBars)
}

func TestStop(t *testing.T) {
	clk := clock.NewManual(time.Unix(0, 0))
	out := &recorder{}
	p := newPlayer(t, clk, out, nil, "DDDDDDDD", true)

	require.NoError(t, p.Play(context.Background(), Fixed(cBar)))
	clk.Advance(2 * step)
	p.Stop()
	p.Stop()

	n := out.count()
	clk.Advance(8 * step)

	assert := assert.New(t)
	assert.Equal(n, out.count())
	assert.Equal(Status{Name: "test", State: Idle, Bar: -1}, p.Status())
}

func TestTempoChangeRearmsTimer(t *testing.T) {
	clk := clock.NewManual(time.Unix(0, 0))
	out := &recorder{}
	p := newPlayer(t, clk, out, nil, "DDDDDDDD", true)

	require.NoError(t, p.Play(context.Background(), Fixed(cBar)))
	timing := strum.DefaultTiming()
	timing.BPM = 60
	p.SetTiming(timing)

	// steps are now 500ms apart
	clk.Advance(499 * time.Millisecond)
	assert.Equal(t, 6, out.count())
	clk.Advance(time.Millisecond)
	assert.Equal(t, 11, out.count())
	assert.Equal(t, 1, clk.Active())
}

func TestSetLoopWhilePlaying(t *testing.T) {
	clk := clock.NewManual(time.Unix(0, 0))
	p := newPlayer(t, clk, &recorder{}, nil, "D.DU.UDU", true)

	require.NoError(t, p.Play(context.Background(), Fixed(cBar)))
	clk.Advance(12 * step)
	require.True(t, p.Playing())

	p.SetLoop(false)
	clk.Advance(4 * step)
	assert.False(t, p.Playing())
}
