package engine

import (
	"time"
)

// TimerHandle identifies a pending timer. The zero handle is never issued.
type TimerHandle uint64

type timer struct {
	handle TimerHandle
	name   string
	due    time.Duration
	period time.Duration // zero for one-shot timers
	fn     func()
}

// Scheduler owns every timer of the simulation and measures game time:
// wall-clock time elapsed while running, excluding paused intervals. Timers
// fire from RunDue in due order, ties broken by creation order, so a driver
// loop and a test stepping a FakeClock see identical sequences.
type Scheduler struct {
	clock   Clock
	origin  time.Duration // game time at the last resume
	anchor  time.Time     // wall time at the last resume
	running bool

	next   TimerHandle
	timers map[TimerHandle]*timer
}

// NewScheduler creates a paused scheduler whose game time starts at start.
func NewScheduler(clock Clock, start time.Duration) *Scheduler {
	return &Scheduler{
		clock:  clock,
		origin: start,
		timers: make(map[TimerHandle]*timer),
	}
}

// Now is the current game time.
func (s *Scheduler) Now() time.Duration {
	if !s.running {
		return s.origin
	}
	return s.origin + s.clock.Now().Sub(s.anchor)
}

func (s *Scheduler) Running() bool {
	return s.running
}

// Pause freezes game time. Pending timers keep their remaining time.
// It reports whether the state changed.
func (s *Scheduler) Pause() bool {
	if !s.running {
		return false
	}
	s.origin = s.Now()
	s.running = false
	return true
}

// Resume restarts game time. It reports whether the state changed.
func (s *Scheduler) Resume() bool {
	if s.running {
		return false
	}
	s.anchor = s.clock.Now()
	s.running = true
	return true
}

// Rebase moves game time to at, keeping the running state. Pending timers
// are dropped since their due times refer to the old timeline.
func (s *Scheduler) Rebase(at time.Duration) {
	s.timers = make(map[TimerHandle]*timer)
	s.origin = at
	s.anchor = s.clock.Now()
}

// After arms a one-shot timer firing d from now.
func (s *Scheduler) After(name string, d time.Duration, fn func()) TimerHandle {
	if d < 0 {
		d = 0
	}
	return s.add(name, s.Now()+d, 0, fn)
}

// Every arms a periodic timer whose first firing is one period from now.
func (s *Scheduler) Every(name string, period time.Duration, fn func()) TimerHandle {
	if period <= 0 {
		period = time.Millisecond
	}
	return s.add(name, s.Now()+period, period, fn)
}

func (s *Scheduler) add(name string, due, period time.Duration, fn func()) TimerHandle {
	s.next++
	h := s.next
	s.timers[h] = &timer{handle: h, name: name, due: due, period: period, fn: fn}
	return h
}

// Cancel disarms a timer. Cancelling an unknown or fired handle is a no-op.
func (s *Scheduler) Cancel(h TimerHandle) bool {
	if _, ok := s.timers[h]; !ok {
		return false
	}
	delete(s.timers, h)
	return true
}

// Active reports whether h is still pending.
func (s *Scheduler) Active(h TimerHandle) bool {
	_, ok := s.timers[h]
	return ok
}

// Remaining is the game time until h next fires.
func (s *Scheduler) Remaining(h TimerHandle) (time.Duration, bool) {
	t, ok := s.timers[h]
	if !ok {
		return 0, false
	}
	if r := t.due - s.Now(); r > 0 {
		return r, true
	}
	return 0, true
}

// Pending counts armed timers.
func (s *Scheduler) Pending() int {
	return len(s.timers)
}

// RunDue fires every timer due at the current game time and returns how many
// callbacks ran. Periodic timers that fell behind fire once per missed period.
// Callbacks may arm or cancel timers; freshly armed timers that are already
// due fire in the same call.
func (s *Scheduler) RunDue() int {
	now := s.Now()
	fired := 0
	for {
		t := s.earliestDue(now)
		if t == nil {
			return fired
		}
		if t.period > 0 {
			t.due += t.period
		} else {
			delete(s.timers, t.handle)
		}
		t.fn()
		fired++
	}
}

func (s *Scheduler) earliestDue(now time.Duration) *timer {
	var best *timer
	for _, t := range s.timers {
		if t.due > now {
			continue
		}
		if best == nil || t.due < best.due || (t.due == best.due && t.handle < best.handle) {
			best = t
		}
	}
	return best
}
