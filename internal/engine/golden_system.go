package engine

import (
	"fmt"
	"time"

	"github.com/KottenAlin/reb-wbsite/internal/domain/effect"
	"github.com/KottenAlin/reb-wbsite/internal/events"
	"github.com/KottenAlin/reb-wbsite/internal/platform/config"
	"github.com/KottenAlin/reb-wbsite/internal/platform/logger"
)

// GoldenPhase is the lifecycle position of the golden cookie.
type GoldenPhase string

const (
	GoldenIdle      GoldenPhase = "idle"      // not started
	GoldenScheduled GoldenPhase = "scheduled" // waiting for the next spawn
	GoldenVisible   GoldenPhase = "visible"   // clickable
)

// Point is a position in percent of the play area.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// GoldenReward describes a collected bonus.
type GoldenReward struct {
	Multiplier float64       `json:"multiplier"`
	Duration   time.Duration `json:"duration"`
}

// GoldenCookieState is the read model of the golden cookie system.
type GoldenCookieState struct {
	Phase                 GoldenPhase `json:"phase"`
	Active                bool        `json:"active"`
	Position              Point       `json:"position"`
	BonusMultiplier       float64     `json:"bonus_multiplier"`
	BonusSecondsRemaining int         `json:"bonus_seconds_remaining"`
	Collected             int64       `json:"collected"`
	NextSpawnInMS         int64       `json:"next_spawn_in_ms,omitempty"` // golden studies only
}

type goldenHost interface {
	goldenModifier() effect.Golden
	featureUnlocked(f effect.Feature) bool
}

// GoldenSystem spawns golden cookies at random intervals and runs the
// production bonus countdown after each collection. Spawning never overlaps:
// the next spawn is only scheduled once the visible cookie is collected or
// expires.
type GoldenSystem struct {
	sched    *Scheduler
	rng      RandomSource
	host     goldenHost
	notifier Notifier
	logger   *logger.Logger
	cfg      config.Golden

	phase      GoldenPhase
	position   Point
	multiplier float64
	remaining  int
	collected  int64

	spawnTimer     TimerHandle
	warningTimer   TimerHandle
	despawnTimer   TimerHandle
	countdownTimer TimerHandle
}

func NewGoldenSystem(sched *Scheduler, rng RandomSource, host goldenHost, notifier Notifier, log *logger.Logger, cfg config.Golden) *GoldenSystem {
	return &GoldenSystem{
		sched:      sched,
		rng:        rng,
		host:       host,
		notifier:   notifier,
		logger:     log,
		cfg:        cfg,
		phase:      GoldenIdle,
		multiplier: 1,
	}
}

// Start schedules the first spawn and resumes a restored bonus countdown.
func (g *GoldenSystem) Start() {
	if g.phase == GoldenIdle {
		g.scheduleSpawn()
	}
	if g.remaining > 0 && !g.sched.Active(g.countdownTimer) {
		g.countdownTimer = g.sched.Every("golden.bonus", time.Second, g.countdown)
	}
}

// Stop cancels every golden cookie timer and hides a visible cookie. The
// running bonus is kept and resumes on the next Start.
func (g *GoldenSystem) Stop() {
	for _, h := range []TimerHandle{g.spawnTimer, g.warningTimer, g.despawnTimer, g.countdownTimer} {
		g.sched.Cancel(h)
	}
	g.phase = GoldenIdle
}

func (g *GoldenSystem) scheduleSpawn() {
	m := g.host.goldenModifier()
	delay := uniformDuration(g.rng, g.cfg.MinSpawnDelay, g.cfg.MaxSpawnDelay)
	delay = time.Duration(float64(delay) * m.FrequencyMultiplier)

	g.phase = GoldenScheduled
	g.spawnTimer = g.sched.After("golden.spawn", delay, g.spawn)
	if g.host.featureUnlocked(effect.FeatureGoldenWarning) && delay > g.cfg.WarningLead {
		g.warningTimer = g.sched.After("golden.warning", delay-g.cfg.WarningLead, g.warn)
	}
}

func (g *GoldenSystem) warn() {
	notify(g.notifier, events.EventTypeGoldenWarning, "golden_cookie", "Golden cookie incoming",
		fmt.Sprintf("A golden cookie appears in %s", g.cfg.WarningLead), nil)
}

func (g *GoldenSystem) spawn() {
	g.phase = GoldenVisible
	g.position = Point{
		X: uniform(g.rng, g.cfg.PositionMin, g.cfg.PositionMax),
		Y: uniform(g.rng, g.cfg.PositionMin, g.cfg.PositionMax),
	}
	lifetime := g.cfg.Lifetime + g.host.goldenModifier().DurationBonus
	g.despawnTimer = g.sched.After("golden.despawn", lifetime, g.expire)

	g.logger.Event(string(events.EventTypeGoldenSpawned), "golden_cookie", fmt.Sprintf("visible for %s", lifetime))
	notify(g.notifier, events.EventTypeGoldenSpawned, "golden_cookie", "Golden cookie!",
		"A golden cookie appeared", g.position)
}

func (g *GoldenSystem) expire() {
	notify(g.notifier, events.EventTypeGoldenExpired, "golden_cookie", "Golden cookie vanished",
		"The golden cookie faded away", nil)
	g.scheduleSpawn()
}

// Collect claims the visible cookie, starts the bonus countdown and
// schedules the next spawn. It returns false when no cookie is visible.
func (g *GoldenSystem) Collect() (GoldenReward, bool) {
	if g.phase != GoldenVisible {
		return GoldenReward{}, false
	}
	g.sched.Cancel(g.despawnTimer)
	g.collected++

	m := g.host.goldenModifier()
	mult := g.cfg.Multiplier + m.MultiplierBonus
	if m.DoubleChance > 0 && g.rng.Float64() < m.DoubleChance {
		mult *= 2
	}
	g.multiplier = mult
	g.remaining = g.cfg.BonusSeconds
	g.sched.Cancel(g.countdownTimer)
	g.countdownTimer = g.sched.Every("golden.bonus", time.Second, g.countdown)

	reward := GoldenReward{Multiplier: mult, Duration: time.Duration(g.cfg.BonusSeconds) * time.Second}
	msg := fmt.Sprintf("%gx production for %d seconds", mult, g.cfg.BonusSeconds)
	g.logger.Event(string(events.EventTypeGoldenCollected), "golden_cookie", msg)
	notify(g.notifier, events.EventTypeGoldenCollected, "golden_cookie", "Golden cookie collected!", msg, reward)

	g.scheduleSpawn()
	return reward, true
}

func (g *GoldenSystem) countdown() {
	g.remaining--
	if g.remaining > 0 {
		return
	}
	g.remaining = 0
	g.multiplier = 1
	g.sched.Cancel(g.countdownTimer)
	notify(g.notifier, events.EventTypeGoldenBonusEnded, "golden_cookie", "Bonus over",
		"Golden cookie bonus ended", nil)
}

// Multiplier is the production bonus in force, 1 when none.
func (g *GoldenSystem) Multiplier() float64 {
	return g.multiplier
}

func (g *GoldenSystem) Collected() int64 {
	return g.collected
}

func (g *GoldenSystem) Phase() GoldenPhase {
	return g.phase
}

// State builds the read model. The time to the next spawn is only revealed
// once golden studies are researched.
func (g *GoldenSystem) State() GoldenCookieState {
	s := GoldenCookieState{
		Phase:                 g.phase,
		Active:                g.phase == GoldenVisible,
		BonusMultiplier:       g.multiplier,
		BonusSecondsRemaining: g.remaining,
		Collected:             g.collected,
	}
	if s.Active {
		s.Position = g.position
	}
	if g.phase == GoldenScheduled && g.host.featureUnlocked(effect.FeatureGoldenStudies) {
		if r, ok := g.sched.Remaining(g.spawnTimer); ok {
			s.NextSpawnInMS = ms(r)
		}
	}
	return s
}

// Restore loads persisted counters. Visible cookies are never restored; the
// next Start schedules a fresh spawn.
func (g *GoldenSystem) Restore(collected int64, multiplier float64, remaining int) {
	g.Stop()
	g.collected = collected
	if remaining <= 0 || multiplier < 1 {
		g.multiplier = 1
		g.remaining = 0
		return
	}
	g.multiplier = multiplier
	g.remaining = remaining
}
