package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KottenAlin/reb-wbsite/internal/domain/effect"
	"github.com/KottenAlin/reb-wbsite/internal/events"
	"github.com/KottenAlin/reb-wbsite/internal/platform/config"
	"github.com/KottenAlin/reb-wbsite/internal/platform/logger"
)

type stubGoldenHost struct {
	mod      effect.Golden
	features map[effect.Feature]bool
}

func (h *stubGoldenHost) goldenModifier() effect.Golden         { return h.mod }
func (h *stubGoldenHost) featureUnlocked(f effect.Feature) bool { return h.features[f] }

func newGoldenFixture(rng RandomSource) (*FakeClock, *Scheduler, *stubGoldenHost, *events.EventLog, *GoldenSystem) {
	clock, sched := runningScheduler()
	host := &stubGoldenHost{mod: effect.ResolveGolden(nil), features: map[effect.Feature]bool{}}
	log := events.NewEventLog(nil)
	g := NewGoldenSystem(sched, rng, host, log, logger.NewNop(), config.DefaultBalance().Golden)
	return clock, sched, host, log, g
}

func step(clock *FakeClock, sched *Scheduler, d time.Duration) {
	clock.Advance(d)
	sched.RunDue()
}

func TestGoldenSpawnsAfterMinimumDelay(t *testing.T) {
	clock, sched, _, log, g := newGoldenFixture(&seqRand{fallback: 0})
	g.Start()
	assert.Equal(t, GoldenScheduled, g.Phase())

	step(clock, sched, 59*time.Second)
	assert.Equal(t, GoldenScheduled, g.Phase())

	step(clock, sched, time.Second)
	assert.Equal(t, GoldenVisible, g.Phase())
	assert.Len(t, log.GetByType(events.EventTypeGoldenSpawned), 1)

	s := g.State()
	assert.True(t, s.Active)
	assert.Equal(t, Point{X: 10, Y: 10}, s.Position)
}

func TestGoldenMaximumDelay(t *testing.T) {
	clock, sched, _, _, g := newGoldenFixture(&seqRand{vals: []float64{1}, fallback: 0.5})
	g.Start()

	step(clock, sched, 179*time.Second)
	assert.Equal(t, GoldenScheduled, g.Phase())
	step(clock, sched, time.Second)
	assert.Equal(t, GoldenVisible, g.Phase())
	assert.Equal(t, Point{X: 50, Y: 50}, g.State().Position)
}

func TestGoldenCollectOutsideVisibleIsNoop(t *testing.T) {
	_, _, _, log, g := newGoldenFixture(&seqRand{fallback: 0})
	g.Start()
	before := g.State()

	reward, ok := g.Collect()
	assert.False(t, ok)
	assert.Zero(t, reward)
	assert.Equal(t, before, g.State())
	assert.Empty(t, log.GetByType(events.EventTypeGoldenCollected))
}

func TestGoldenBonusCountsDown(t *testing.T) {
	clock, sched, _, log, g := newGoldenFixture(&seqRand{fallback: 0})
	g.Start()
	step(clock, sched, 60*time.Second)

	reward, ok := g.Collect()
	require.True(t, ok)
	assert.Equal(t, 7.0, reward.Multiplier)
	assert.Equal(t, 77*time.Second, reward.Duration)
	assert.Equal(t, GoldenScheduled, g.Phase(), "next spawn is scheduled at once")

	s := g.State()
	assert.Equal(t, 7.0, s.BonusMultiplier)
	assert.Equal(t, 77, s.BonusSecondsRemaining)
	assert.Equal(t, int64(1), s.Collected)

	for i := 0; i < 76; i++ {
		step(clock, sched, time.Second)
	}
	assert.Equal(t, 7.0, g.Multiplier())
	assert.Equal(t, 1, g.State().BonusSecondsRemaining)

	step(clock, sched, time.Second)
	assert.Equal(t, 1.0, g.Multiplier())
	assert.Zero(t, g.State().BonusSecondsRemaining)
	assert.False(t, sched.Active(g.countdownTimer))
	assert.Len(t, log.GetByType(events.EventTypeGoldenBonusEnded), 1)

	step(clock, sched, 10*time.Second)
	assert.Len(t, log.GetByType(events.EventTypeGoldenBonusEnded), 1)
}

func TestGoldenExpiresAndReschedules(t *testing.T) {
	clock, sched, _, log, g := newGoldenFixture(&seqRand{fallback: 0})
	g.Start()
	step(clock, sched, 60*time.Second)
	require.Equal(t, GoldenVisible, g.Phase())

	step(clock, sched, 12*time.Second)
	assert.Equal(t, GoldenVisible, g.Phase())
	step(clock, sched, time.Second)
	assert.Equal(t, GoldenScheduled, g.Phase())
	assert.Len(t, log.GetByType(events.EventTypeGoldenExpired), 1)

	_, ok := g.Collect()
	assert.False(t, ok)

	step(clock, sched, 60*time.Second)
	assert.Equal(t, GoldenVisible, g.Phase())
}

func TestGoldenModifiersApply(t *testing.T) {
	clock, sched, host, _, g := newGoldenFixture(&seqRand{fallback: 0})
	host.mod = effect.ResolveGolden([]effect.Effect{
		effect.GoldenFrequencyMultiplier{Factor: 0.5},
		effect.GoldenDurationBonus{Extra: 7 * time.Second},
		effect.GoldenMultiplierBonus{Amount: 3},
		effect.GoldenDoubleChance{Chance: 0.5},
	})
	g.Start()

	step(clock, sched, 30*time.Second)
	require.Equal(t, GoldenVisible, g.Phase())

	step(clock, sched, 19*time.Second)
	assert.Equal(t, GoldenVisible, g.Phase(), "lifetime extended to 20s")

	reward, ok := g.Collect()
	require.True(t, ok)
	assert.Equal(t, 20.0, reward.Multiplier, "(7+3) doubled by a winning roll")
}

func TestGoldenWarningNeedsFeature(t *testing.T) {
	clock, sched, host, log, g := newGoldenFixture(&seqRand{fallback: 0})
	g.Start()
	step(clock, sched, 60*time.Second)
	assert.Empty(t, log.GetByType(events.EventTypeGoldenWarning))

	host.features[effect.FeatureGoldenWarning] = true
	g.Collect()
	step(clock, sched, 57*time.Second)
	assert.Len(t, log.GetByType(events.EventTypeGoldenWarning), 1)
	assert.Equal(t, GoldenScheduled, g.Phase())
}

func TestGoldenStudiesRevealsCountdown(t *testing.T) {
	clock, sched, host, _, g := newGoldenFixture(&seqRand{fallback: 0})
	g.Start()
	step(clock, sched, 20*time.Second)
	assert.Zero(t, g.State().NextSpawnInMS)

	host.features[effect.FeatureGoldenStudies] = true
	assert.Equal(t, int64(40_000), g.State().NextSpawnInMS)
}

func TestGoldenPauseFreezesBonus(t *testing.T) {
	clock, sched, _, _, g := newGoldenFixture(&seqRand{fallback: 0})
	g.Start()
	step(clock, sched, 60*time.Second)
	_, ok := g.Collect()
	require.True(t, ok)

	step(clock, sched, 10*time.Second)
	sched.Pause()
	step(clock, sched, time.Hour)
	assert.Equal(t, 67, g.State().BonusSecondsRemaining)

	sched.Resume()
	step(clock, sched, time.Second)
	assert.Equal(t, 66, g.State().BonusSecondsRemaining)
}

func TestGoldenRestoreResumesBonus(t *testing.T) {
	clock, sched, _, _, g := newGoldenFixture(&seqRand{fallback: 0})
	g.Restore(12, 7, 3)
	g.Start()

	assert.Equal(t, int64(12), g.Collected())
	assert.Equal(t, 7.0, g.Multiplier())
	step(clock, sched, 3*time.Second)
	assert.Equal(t, 1.0, g.Multiplier())

	g.Restore(1, 0.2, 50)
	assert.Equal(t, 1.0, g.Multiplier(), "invalid multipliers reset the bonus")
	assert.Zero(t, g.State().BonusSecondsRemaining)
}
