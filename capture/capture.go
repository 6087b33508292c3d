// Package capture provides the audio input streams the tuner listens to.
package capture

import (
	"context"
	"errors"
	"sync"
)

var ErrNoInput = errors.New("audio input unavailable")

type Source interface {
	Open(ctx context.Context) (Stream, error)
}

// Stream exposes the most recent mono samples of an open input.
type Stream interface {
	SampleRate() float64
	// Snapshot copies the latest len(dst) samples into dst, oldest first,
	// and returns how many were available.
	Snapshot(dst []float32) int
	Close() error
}

// Ring keeps the last Cap() samples written to it.
type Ring struct {
	mu     sync.Mutex
	buf    []float32
	next   int
	filled int
}

func NewRing(size int) *Ring {
	return &Ring{buf: make([]float32, size)}
}

func (r *Ring) Cap() int { return len(r.buf) }

func (r *Ring) Write(in []float32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(in) > len(r.buf) {
		in = in[len(in)-len(r.buf):]
	}
	for _, v := range in {
		r.buf[r.next] = v
		r.next = (r.next + 1) % len(r.buf)
	}
	r.filled = min(r.filled+len(in), len(r.buf))
}

func (r *Ring) Snapshot(dst []float32) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := min(len(dst), r.filled)
	start := (r.next - n + len(r.buf)) % len(r.buf)
	for i := 0; i < n; i++ {
		dst[i] = r.buf[(start+i)%len(r.buf)]
	}
	return n
}

func (r *Ring) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.next = 0
	r.filled = 0
}
