package sound

import (
	"math/rand"

	"github.com/jsphweid/strumdex/pitch"
)

// Instrument renders voices for the Engine. Render overwrites left and right.
type Instrument interface {
	NoteOn(p int, velocity float64)
	NoteOff(p int)
	Render(left, right []float32)
}

const (
	maxPluckVoices = 24
	pluckGain      = 0.35
	ringDecay      = 0.996
	releaseDecay   = 0.90
	silentEnergy   = 1e-5
)

// Pluck is a Karplus-Strong plucked string: a burst of noise circulating
// through a delay line one period long, averaged and damped on every pass.
type Pluck struct {
	rate   float64
	rng    *rand.Rand
	voices []*pluckVoice
}

type pluckVoice struct {
	pitch    int
	line     []float32
	pos      int
	decay    float32
	released bool
	energy   float32
}

func NewPluck(rate int) *Pluck {
	return &Pluck{rate: float64(rate), rng: rand.New(rand.NewSource(1))}
}

func (p *Pluck) NoteOn(key int, velocity float64) {
	period := int(p.rate/pitch.ToFrequency(float64(key)) + 0.5)
	if period < 2 {
		period = 2
	}
	v := &pluckVoice{pitch: key, line: make([]float32, period), decay: ringDecay}
	// a slightly smoothed burst sounds less like a harpsichord
	var prev float32
	for i := range v.line {
		noise := float32(p.rng.Float64()*2-1) * float32(velocity)
		v.line[i] = (noise + prev) / 2
		prev = noise
	}
	v.energy = float32(velocity)

	if len(p.voices) >= maxPluckVoices {
		p.voices = p.voices[1:]
	}
	p.voices = append(p.voices, v)
}

func (p *Pluck) NoteOff(key int) {
	for _, v := range p.voices {
		if v.pitch == key && !v.released {
			v.released = true
			v.decay = releaseDecay
			return
		}
	}
}

func (p *Pluck) Render(left, right []float32) {
	for i := range left {
		left[i] = 0
		right[i] = 0
	}
	live := p.voices[:0]
	for _, v := range p.voices {
		n := len(v.line)
		var energy float32
		for i := range left {
			cur := v.line[v.pos]
			next := v.line[(v.pos+1)%n]
			v.line[v.pos] = v.decay * 0.5 * (cur + next)
			v.pos = (v.pos + 1) % n
			s := cur * pluckGain
			left[i] += s
			right[i] += s
			if cur < 0 {
				cur = -cur
			}
			energy = max(energy, cur)
		}
		v.energy = energy
		if !v.released || v.energy > silentEnergy {
			live = append(live, v)
		}
	}
	p.voices = live
}

// Voices reports how many voices are still sounding.
func (p *Pluck) Voices() int {
	return len(p.voices)
}
