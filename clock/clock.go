// Package clock provides repeating timers that can be swapped for a manual
// clock in tests and offline rendering.
package clock

import (
	"sync"
	"time"
)

type Timer interface {
	Stop()
}

type Clock interface {
	Now() time.Time
	// Every calls fn every d until the returned timer is stopped. Calls are
	// never concurrent with each other.
	Every(d time.Duration, fn func()) Timer
}

type Real struct{}

func (Real) Now() time.Time { return time.Now() }

func (Real) Every(d time.Duration, fn func()) Timer {
	t := &realTimer{
		ticker: time.NewTicker(d),
		done:   make(chan struct{}),
	}
	go t.run(fn)
	return t
}

type realTimer struct {
	ticker *time.Ticker
	done   chan struct{}
	once   sync.Once
}

func (t *realTimer) run(fn func()) {
	for {
		select {
		case <-t.done:
			return
		case <-t.ticker.C:
			// a stop racing with the tick wins
			select {
			case <-t.done:
				return
			default:
			}
			fn()
		}
	}
}

// Stop does not wait for a running callback, so it is safe to call from
// inside one.
func (t *realTimer) Stop() {
	t.once.Do(func() {
		t.ticker.Stop()
		close(t.done)
	})
}
