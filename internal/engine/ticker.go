package engine

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/KottenAlin/reb-wbsite/internal/platform/logger"
)

// DefaultDriverPeriod is how often the driver wakes up to fire due timers.
// It is finer than the production tick so timer jitter stays small.
const DefaultDriverPeriod = 25 * time.Millisecond

// Stepper fires every timer due at the current game time.
type Stepper interface {
	Step() int
}

// Ticker is the real-time heartbeat of the simulation. It knows nothing
// about cookies; it only wakes the scheduler.
type Ticker struct {
	stepper  Stepper
	logger   *logger.Logger
	period   time.Duration
	steps    atomic.Int64
	stopChan chan struct{}
	stopOnce sync.Once
}

// NewTicker creates a driver for s.
func NewTicker(s Stepper, log *logger.Logger, period time.Duration) *Ticker {
	if period <= 0 {
		period = DefaultDriverPeriod
	}
	return &Ticker{
		stepper:  s,
		logger:   log,
		period:   period,
		stopChan: make(chan struct{}),
	}
}

// Start runs the loop until ctx is done or Stop is called. Call in a goroutine.
func (t *Ticker) Start(ctx context.Context) {
	t.logger.Info("Engine ticker started. The ovens are warming up...")

	ticker := time.NewTicker(t.period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			t.logger.Info(fmt.Sprintf("Engine ticker stopped by context after %d steps.", t.Steps()))
			return
		case <-t.stopChan:
			t.logger.Info(fmt.Sprintf("Engine ticker stopped manually after %d steps.", t.Steps()))
			return
		case <-ticker.C:
			if t.stepper.Step() > 0 {
				t.steps.Add(1)
			}
		}
	}
}

// Steps reports how many wake-ups fired at least one timer.
func (t *Ticker) Steps() int64 {
	return t.steps.Load()
}

// Stop ends the loop. Safe to call more than once.
func (t *Ticker) Stop() {
	t.stopOnce.Do(func() { close(t.stopChan) })
}
