package clock

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestManualFiresInOrder(t *testing.T) {
	m := NewManual(time.Unix(0, 0))
	var order []string
	m.Every(30*time.Millisecond, func() { order = append(order, "slow") })
	m.Every(20*time.Millisecond, func() { order = append(order, "fast") })

	m.Advance(60 * time.Millisecond)

	assert := assert.New(t)
	// at 60ms both are due; the older timer goes first
	assert.Equal([]string{"fast", "slow", "fast", "slow", "fast"}, order)
	assert.Equal(time.Unix(0, 0).Add(60*time.Millisecond), m.Now())
}

func TestManualStopFromCallback(t *testing.T) {
	m := NewManual(time.Unix(0, 0))
	count := 0
	var timer Timer
	timer = m.Every(10*time.Millisecond, func() {
		count++
		if count == 3 {
			timer.Stop()
		}
	})

	m.Advance(time.Second)
	assert.Equal(t, 3, count)
	assert.Equal(t, 0, m.Active())
}

func TestManualNowDuringCallback(t *testing.T) {
	m := NewManual(time.Unix(0, 0))
	var seen []time.Duration
	m.Every(25*time.Millisecond, func() {
		seen = append(seen, m.Now().Sub(time.Unix(0, 0)))
	})
	m.Advance(80 * time.Millisecond)
	assert.Equal(t, []time.Duration{25 * time.Millisecond, 50 * time.Millisecond, 75 * time.Millisecond}, seen)
}

func TestRealTimer(t *testing.T) {
	var n atomic.Int32
	timer := Real{}.Every(time.Millisecond, func() { n.Add(1) })

	assert.Eventually(t, func() bool { return n.Load() >= 3 }, time.Second, time.Millisecond)
	timer.Stop()
	timer.Stop()

	stopped := n.Load()
	time.Sleep(20 * time.Millisecond)
	assert.LessOrEqual(t, n.Load(), stopped+1)
}
