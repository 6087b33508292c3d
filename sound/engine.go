package sound

import (
	"container/heap"
	"math"
	"sync"

	"github.com/jsphweid/strumdex/model"
)

// Events are dispatched at block boundaries.
const blockSize = 64

const toneGain = 0.2

type noteCmd struct {
	frame int64
	seq   int64
	on    bool
	pitch int
	vel   float64
}

type cmdQueue []noteCmd

func (q cmdQueue) Len() int { return len(q) }
func (q cmdQueue) Less(i, j int) bool {
	if q[i].frame != q[j].frame {
		return q[i].frame < q[j].frame
	}
	return q[i].seq < q[j].seq
}
func (q cmdQueue) Swap(i, j int)       { q[i], q[j] = q[j], q[i] }
func (q *cmdQueue) Push(x interface{}) { *q = append(*q, x.(noteCmd)) }
func (q *cmdQueue) Pop() interface{} {
	old := *q
	n := len(old)
	x := old[n-1]
	*q = old[:n-1]
	return x
}

// Engine turns note events into stereo samples. It is a beep.Streamer, so
// the speaker pulls from it, and it can also be driven offline with Render.
type Engine struct {
	mu    sync.Mutex
	rate  int
	inst  Instrument
	queue cmdQueue
	seq   int64
	frame int64

	toneFreq  float64
	tonePhase float64

	left, right []float32
}

func NewEngine(rate int, inst Instrument) *Engine {
	return &Engine{
		rate:  rate,
		inst:  inst,
		left:  make([]float32, blockSize),
		right: make([]float32, blockSize),
	}
}

func (e *Engine) SampleRate() int { return e.rate }

// Frame is the number of frames rendered so far.
func (e *Engine) Frame() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.frame
}

// Play schedules ev relative to the current render position.
func (e *Engine) Play(ev model.NoteEvent) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.scheduleLocked(ev, e.frame)
}

// Schedule queues ev with its onset measured from frame base.
func (e *Engine) Schedule(ev model.NoteEvent, base int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.scheduleLocked(ev, base)
}

func (e *Engine) scheduleLocked(ev model.NoteEvent, base int64) {
	start := base + e.frames(ev.Onset)
	end := start + max(e.frames(ev.Duration), 1)
	e.seq++
	heap.Push(&e.queue, noteCmd{frame: start, seq: e.seq, on: true, pitch: ev.Pitch, vel: ev.Velocity})
	e.seq++
	heap.Push(&e.queue, noteCmd{frame: end, seq: e.seq, pitch: ev.Pitch})
}

func (e *Engine) frames(seconds float64) int64 {
	return int64(math.Round(seconds * float64(e.rate)))
}

// Pending counts queued note on/off commands.
func (e *Engine) Pending() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.queue)
}

// SetTone starts a sine reference tone at freq Hz, replacing any other.
func (e *Engine) SetTone(freq float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.toneFreq = freq
}

func (e *Engine) ClearTone() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.toneFreq = 0
	e.tonePhase = 0
}

// Stream implements beep.Streamer. It never runs dry.
func (e *Engine) Stream(samples [][2]float64) (int, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for pos := 0; pos < len(samples); {
		n := min(blockSize, len(samples)-pos)
		e.renderBlockLocked(n)
		for i := 0; i < n; i++ {
			samples[pos+i][0] = float64(e.left[i])
			samples[pos+i][1] = float64(e.right[i])
		}
		pos += n
	}
	return len(samples), true
}

func (e *Engine) Err() error { return nil }

// Render produces the next n frames as separate channels.
func (e *Engine) Render(n int) (left, right []float32) {
	e.mu.Lock()
	defer e.mu.Unlock()
	left = make([]float32, 0, n)
	right = make([]float32, 0, n)
	for len(left) < n {
		size := min(blockSize, n-len(left))
		e.renderBlockLocked(size)
		left = append(left, e.left[:size]...)
		right = append(right, e.right[:size]...)
	}
	return left, right
}

func (e *Engine) renderBlockLocked(n int) {
	end := e.frame + int64(n)
	for len(e.queue) > 0 && e.queue[0].frame < end {
		cmd := heap.Pop(&e.queue).(noteCmd)
		if cmd.on {
			e.inst.NoteOn(cmd.pitch, cmd.vel)
		} else {
			e.inst.NoteOff(cmd.pitch)
		}
	}

	left, right := e.left[:n], e.right[:n]
	e.inst.Render(left, right)

	if e.toneFreq > 0 {
		step := 2 * math.Pi * e.toneFreq / float64(e.rate)
		for i := range left {
			s := float32(toneGain * math.Sin(e.tonePhase))
			left[i] += s
			right[i] += s
			e.tonePhase = math.Mod(e.tonePhase+step, 2*math.Pi)
		}
	}
	e.frame = end
}
