package conversation

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newClockedSessions(ttl time.Duration, max int) (*Sessions, *fakeClock) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	r := NewSessions(nil, ttl, max)
	r.now = clock.Now
	return r, clock
}

func TestSessions_SweepDropsIdle(t *testing.T) {
	r, clock := newClockedSessions(time.Hour, 0)

	for i := range 100_000 {
		r.Get(fmt.Sprintf("visitor-%d", i))
	}
	require.Equal(t, 100_000, r.Len())

	clock.Advance(30 * time.Minute)
	kept := r.Get("visitor-7")

	assert.Zero(t, r.Sweep(clock.now.Add(20*time.Minute)), "nothing is idle for an hour yet")

	clock.Advance(61 * time.Minute)
	assert.Equal(t, 99_999, r.Sweep(clock.now))
	assert.Equal(t, 1, r.Len())
	assert.Same(t, kept, r.Get("visitor-7"))
}

func TestSessions_SweepKeepsBusySession(t *testing.T) {
	r, clock := newClockedSessions(time.Minute, 0)

	busy := r.Get("busy")
	busy.Lock()
	r.Get("idle")

	clock.Advance(time.Hour)
	assert.Equal(t, 1, r.Sweep(clock.now))
	assert.Same(t, busy, r.Get("busy"))

	busy.Unlock()
	clock.Advance(time.Hour)
	assert.Equal(t, 1, r.Sweep(clock.now))
	assert.Zero(t, r.Len())
}

func TestSessions_ZeroTTLNeverSweeps(t *testing.T) {
	r, clock := newClockedSessions(0, 0)
	r.Get("a")

	clock.Advance(24 * 365 * time.Hour)
	assert.Zero(t, r.Sweep(clock.now))
	assert.Equal(t, 1, r.Len())
}

func TestSessions_CapEvictsLeastRecentlyUsed(t *testing.T) {
	r, clock := newClockedSessions(0, 3)

	a := r.Get("a")
	clock.Advance(time.Second)
	b := r.Get("b")
	clock.Advance(time.Second)
	r.Get("c")
	clock.Advance(time.Second)
	assert.Same(t, a, r.Get("a"))

	clock.Advance(time.Second)
	r.Get("d")
	assert.Equal(t, 3, r.Len())
	assert.Same(t, a, r.Get("a"))
	assert.NotSame(t, b, r.Get("b"), "b was the least recently used")
	assert.Equal(t, 3, r.Len())
}

func TestSessions_CapSkipsBusySessions(t *testing.T) {
	r, clock := newClockedSessions(0, 1)

	busy := r.Get("busy")
	busy.Lock()
	defer busy.Unlock()

	clock.Advance(time.Second)
	r.Get("other")
	assert.Equal(t, 2, r.Len())
	assert.Same(t, busy, r.Get("busy"))
}

func TestSessions_RunStopsWithContext(t *testing.T) {
	r := NewSessions(nil, time.Millisecond, 0)
	r.Get("a")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx, time.Millisecond)
		close(done)
	}()

	assert.Eventually(t, func() bool { return r.Len() == 0 }, time.Second, time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
