package engine

import (
	"math/rand"
	"sync"
	"time"
)

// Clock is the wall-clock source of the engine.
type Clock interface {
	Now() time.Time
}

type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// FakeClock is deterministic and test-friendly.
type FakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func NewFakeClock(start time.Time) *FakeClock {
	return &FakeClock{t: start}
}

func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *FakeClock) Set(t time.Time) {
	c.mu.Lock()
	c.t = t
	c.mu.Unlock()
}

func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// RandomSource yields uniform values in [0, 1).
type RandomSource interface {
	Float64() float64
}

// NewRandomSource seeds a math/rand source. A zero seed uses the current time.
func NewRandomSource(seed int64) RandomSource {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

// uniform maps a [0, 1) roll onto [lo, hi].
func uniform(r RandomSource, lo, hi float64) float64 {
	return lo + r.Float64()*(hi-lo)
}

func uniformDuration(r RandomSource, lo, hi time.Duration) time.Duration {
	return lo + time.Duration(r.Float64()*float64(hi-lo))
}

// ms converts a game-time duration into the millisecond stamps kept in state.
func ms(d time.Duration) int64 {
	return d.Milliseconds()
}

func fromMS(v int64) time.Duration {
	return time.Duration(v) * time.Millisecond
}
