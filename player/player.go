// Package player drives a bar-by-bar strum loop from a repeating timer.
//
// A Player walks the 8 steps of its rhythm pattern for each bar handed out by
// a BarSource, firing a root note on step 0 and a strum on every non-rest
// step. The same state machine serves the single-chord loop (a Fixed source)
// and the sequence player (a source reading the live sequence). Players that
// share a Group are mutually exclusive.
package player

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jsphweid/strumdex/clock"
	"github.com/jsphweid/strumdex/constants"
	"github.com/jsphweid/strumdex/model"
	"github.com/jsphweid/strumdex/strum"
)

var ErrNoBars = errors.New("nothing to play")

type Bar struct {
	Voicing   model.Voicing
	RootClass int
	Label     string
}

// BarSource is read at every bar boundary, never snapshotted, so edits made
// while playing are picked up the next time their bar comes round.
type BarSource interface {
	Len() int
	Bar(i int) (Bar, error)
}

// Output is the part of the sound module a player needs.
type Output interface {
	EnsureReady(ctx context.Context) error
	PlayPitch(ev model.NoteEvent)
}

type State int

const (
	Idle State = iota
	Playing
)

func (s State) String() string {
	if s == Playing {
		return "playing"
	}
	return "idle"
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(text []byte) error {
	switch string(text) {
	case "playing":
		*s = Playing
	case "idle":
		*s = Idle
	default:
		return fmt.Errorf("unknown player state %q", text)
	}
	return nil
}

type Status struct {
	Name       string `json:"name"`
	State      State  `json:"state"`
	Bar        int    `json:"bar"`
	Step       int    `json:"step"`
	Label      string `json:"label,omitempty"`
	BarsPlayed int    `json:"bars_played"`
}

type Config struct {
	Name    string
	Clock   clock.Clock
	Out     Output
	Group   *Group
	Pattern model.RhythmPattern
	Timing  strum.Timing
	Loop    bool
}

type Player struct {
	name  string
	clock clock.Clock
	out   Output
	group *Group

	mu         sync.Mutex
	src        BarSource
	pattern    model.RhythmPattern
	timing     strum.Timing
	loop       bool
	timer      clock.Timer
	gen        int
	state      State
	bar        int
	step       int
	current    Bar
	barsPlayed int
	onChange   func(Status)
}

func New(cfg Config) *Player {
	if cfg.Clock == nil {
		cfg.Clock = clock.Real{}
	}
	p := &Player{
		name:    cfg.Name,
		clock:   cfg.Clock,
		out:     cfg.Out,
		group:   cfg.Group,
		pattern: cfg.Pattern,
		timing:  cfg.Timing,
		loop:    cfg.Loop,
		bar:     -1,
	}
	if p.group != nil {
		p.group.add(p)
	}
	return p
}

func (p *Player) Name() string { return p.name }

// OnChange registers fn to receive the status after play, stop and every bar
// change. fn runs outside the player lock.
func (p *Player) OnChange(fn func(Status)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onChange = fn
}

// StepInterval is the period of the step timer: one eighth note.
func StepInterval(bpm float64) time.Duration {
	return time.Duration(float64(time.Minute) / bpm / 2)
}

// Play starts src from its first bar, stopping any other player in the
// group. The first step sounds immediately. If the output device cannot be
// readied the player is left idle.
func (p *Player) Play(ctx context.Context, src BarSource) error {
	if src == nil || src.Len() == 0 {
		return ErrNoBars
	}
	if err := p.out.EnsureReady(ctx); err != nil {
		p.Stop()
		return fmt.Errorf("player %s: %w", p.name, err)
	}
	first, err := src.Bar(0)
	if err != nil {
		return fmt.Errorf("player %s: bar 0: %w", p.name, err)
	}

	if p.group != nil {
		p.group.playMu.Lock()
		defer p.group.playMu.Unlock()
		p.group.claim(p)
	}

	p.mu.Lock()
	p.stopTimerLocked()
	p.src = src
	p.state = Playing
	p.bar = 0
	p.step = 0
	p.current = first
	p.barsPlayed = 0
	p.armLocked()
	events := p.advanceLocked()
	status, notify := p.statusLocked(), p.onChange
	p.mu.Unlock()

	slog.Info("player: play", "name", p.name, "bars", src.Len(), "bpm", p.timing.BPM)
	p.dispatch(events)
	if notify != nil {
		notify(status)
	}
	return nil
}

// Stop cancels future steps. Notes already handed to the output keep
// ringing.
func (p *Player) Stop() {
	p.mu.Lock()
	wasPlaying := p.state == Playing
	p.haltLocked()
	status, notify := p.statusLocked(), p.onChange
	p.mu.Unlock()

	if p.group != nil {
		p.group.release(p)
	}
	if wasPlaying {
		slog.Info("player: stop", "name", p.name)
		if notify != nil {
			notify(status)
		}
	}
}

func (p *Player) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.statusLocked()
}

func (p *Player) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state == Playing
}

func (p *Player) SetPattern(pattern model.RhythmPattern) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pattern = pattern
}

// SetTiming applies at the next step. A tempo change re-arms the step timer
// with the new period.
func (p *Player) SetTiming(timing strum.Timing) {
	p.mu.Lock()
	defer p.mu.Unlock()
	rearm := timing.BPM != p.timing.BPM
	p.timing = timing
	if rearm && p.state == Playing {
		p.stopTimerLocked()
		p.armLocked()
	}
}

func (p *Player) SetLoop(loop bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.loop = loop
}

func (p *Player) Loop() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loop
}

func (p *Player) armLocked() {
	p.gen++
	gen := p.gen
	p.timer = p.clock.Every(StepInterval(p.timing.BPM), func() { p.tick(gen) })
}

func (p *Player) stopTimerLocked() {
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
}

func (p *Player) haltLocked() {
	p.stopTimerLocked()
	p.gen++
	p.state = Idle
	p.bar = -1
	p.step = 0
	p.current = Bar{}
}

func (p *Player) tick(gen int) {
	p.mu.Lock()
	// ticks from a timer that was replaced or stopped
	if gen != p.gen || p.state != Playing {
		p.mu.Unlock()
		return
	}
	bar := p.bar
	events := p.advanceLocked()
	changed := p.bar != bar
	status, notify := p.statusLocked(), p.onChange
	p.mu.Unlock()

	p.dispatch(events)
	if changed && notify != nil {
		notify(status)
	}
}

func (p *Player) advanceLocked() []model.NoteEvent {
	var events []model.NoteEvent
	s := p.step
	if s == 0 {
		if ev, ok := strum.Root(p.current.Voicing, p.current.RootClass, p.timing); ok {
			events = append(events, ev)
		}
	}
	stroke := p.pattern.Steps[s]
	if stroke != model.Rest {
		events = append(events, strum.Schedule(p.current.Voicing, p.pattern.AccentMap(), stroke, s, p.timing)...)
	}

	p.step++
	if p.step == constants.StepsPerBar {
		p.nextBarLocked()
	}
	return events
}

func (p *Player) nextBarLocked() {
	p.barsPlayed++
	next := p.bar + 1
	if next >= p.src.Len() {
		if !p.loop {
			slog.Debug("player: finished", "name", p.name, "bars_played", p.barsPlayed)
			p.haltLocked()
			return
		}
		next = 0
	}
	b, err := p.src.Bar(next)
	if err != nil {
		slog.Error("player: could not load bar", "name", p.name, "bar", next, "err", err)
		p.haltLocked()
		return
	}
	p.bar = next
	p.step = 0
	p.current = b
	slog.Debug("player: bar", "name", p.name, "bar", next, "label", b.Label)
}

func (p *Player) statusLocked() Status {
	s := Status{
		Name:       p.name,
		State:      p.state,
		Bar:        p.bar,
		BarsPlayed: p.barsPlayed,
	}
	if p.state == Playing {
		s.Step = (p.step + constants.StepsPerBar - 1) % constants.StepsPerBar
		s.Label = p.current.Label
	}
	return s
}

func (p *Player) dispatch(events []model.NoteEvent) {
	for _, ev := range events {
		p.out.PlayPitch(ev)
	}
}

type fixed Bar

// Fixed is a one-bar source for the single-chord loop.
func Fixed(b Bar) BarSource {
	return fixed(b)
}

func (f fixed) Len() int { return 1 }

func (f fixed) Bar(int) (Bar, error) { return Bar(f), nil }
