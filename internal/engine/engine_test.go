package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KottenAlin/reb-wbsite/internal/events"
	"github.com/KottenAlin/reb-wbsite/internal/platform/config"
	"github.com/KottenAlin/reb-wbsite/internal/platform/logger"
)

// seqRand replays vals, then returns fallback forever.
type seqRand struct {
	vals     []float64
	fallback float64
	draws    int
}

func (r *seqRand) Float64() float64 {
	r.draws++
	if len(r.vals) == 0 {
		return r.fallback
	}
	v := r.vals[0]
	r.vals = r.vals[1:]
	return v
}

// quietRand never triggers a threat and pushes golden cookies to the end of
// their spawn window.
func quietRand() *seqRand {
	return &seqRand{fallback: 0.99}
}

func newTestEngine(t *testing.T, rng RandomSource) (*Engine, *FakeClock, *events.EventLog) {
	t.Helper()
	clock := NewFakeClock(epoch)
	log := events.NewEventLog(nil)
	e := NewEngine(log, logger.NewNop(), Config{
		Clock:   clock,
		Random:  rng,
		Balance: config.DefaultBalance(),
	})
	return e, clock, log
}

// advance moves the clock in production-tick steps, stepping the engine the
// way the driver loop does.
func advance(e *Engine, clock *FakeClock, d time.Duration) {
	const step = 100 * time.Millisecond
	for elapsed := time.Duration(0); elapsed < d; elapsed += step {
		clock.Advance(step)
		e.Step()
	}
}

func TestClickAddsClickPower(t *testing.T) {
	e, _, _ := newTestEngine(t, quietRand())

	gain := e.Click()
	assert.Equal(t, 1.0, gain)

	v := e.View()
	assert.Equal(t, 1.0, v.CookieCount)
	assert.Equal(t, 1.0, v.TotalCookiesEarned)
	assert.Equal(t, int64(1), v.TotalClicks)

	assert.Equal(t, 2.0, e.ClickWithMultiplier(2))
	assert.Equal(t, 1.0, e.ClickWithMultiplier(-3), "non-positive multiplier counts as 1")
}

func TestClickWindowKeepsBestRecords(t *testing.T) {
	e, clock, _ := newTestEngine(t, quietRand())

	for i := 0; i < 5; i++ {
		e.ClickWithMultiplier(1)
		clock.Advance(100 * time.Millisecond)
	}
	speed, combo := e.clicks.records()
	assert.Equal(t, 5, speed)
	assert.Equal(t, 5, combo)

	// Older clicks fall out of the 10 s window; slower clicking keeps the records.
	clock.Advance(11 * time.Second)
	for i := 0; i < 3; i++ {
		e.ClickWithMultiplier(1)
		clock.Advance(2 * time.Second)
	}
	assert.Len(t, e.clicks.stamps, 3)
	speed, combo = e.clicks.records()
	assert.Equal(t, 5, speed)
	assert.Equal(t, 5, combo)

	for i := 0; i < 7; i++ {
		e.ClickWithMultiplier(1)
		clock.Advance(100 * time.Millisecond)
	}
	s := e.Save()
	assert.Equal(t, 7, s.SpeedClickRecord)
	assert.Equal(t, 10, s.ClickComboRecord)
}

func TestCursorsRaiseClickPower(t *testing.T) {
	e, _, _ := newTestEngine(t, quietRand())
	e.Restore(SaveState{CookieCount: 15, TotalCookiesEarned: 15})

	require.True(t, e.BuyUpgrade("cursor"))
	assert.InDelta(t, 1.1, e.ClickPower(), 1e-9)

	e.Restore(SaveState{
		Upgrades:        map[string]int{"cursor": 10},
		SpecialUpgrades: []string{"stronger_fingers"},
		ResearchedTech:  []string{"click_enhancer"},
	})
	// (1 + 10*0.1 + 1) * 1.5
	assert.InDelta(t, 4.5, e.ClickPower(), 1e-9)
}

func TestUpgradeCostsScaleGeometrically(t *testing.T) {
	e, _, _ := newTestEngine(t, quietRand())
	e.Restore(SaveState{CookieCount: 100, TotalCookiesEarned: 100})

	for _, want := range []float64{85, 68, 49} {
		require.True(t, e.BuyUpgrade("cursor"))
		assert.Equal(t, want, e.View().CookieCount)
	}
	assert.Equal(t, 3, e.View().Owned("cursor"))

	for _, u := range e.UpgradesWithCosts() {
		if u.ID == "cursor" {
			assert.Equal(t, 22.0, u.Cost)
			assert.True(t, u.CanAfford)
		}
	}
}

func TestRefusedPurchaseLeavesStateUnchanged(t *testing.T) {
	e, _, _ := newTestEngine(t, quietRand())
	e.Restore(SaveState{CookieCount: 10, TotalCookiesEarned: 10})
	before := e.View()

	assert.False(t, e.BuyUpgrade("cursor"))
	assert.False(t, e.BuyUpgrade("unknown"))
	assert.False(t, e.BuySpecialUpgrade("reinforced_oven"))
	assert.False(t, e.BuyDefensiveUpgrade("backup_generator"))
	assert.False(t, e.BuyPrestigeUpgrade("prestige_bonus_1"))
	assert.False(t, e.ResearchTech("efficient_baking"))

	assert.Equal(t, before, e.View())
}

func TestProductionTickAccruesCPS(t *testing.T) {
	e, clock, _ := newTestEngine(t, quietRand())
	e.Restore(SaveState{Upgrades: map[string]int{"grandma": 10}})
	e.Start()

	advance(e, clock, time.Second)

	v := e.View()
	assert.InDelta(t, 10, v.CookieCount, 1e-9)
	assert.InDelta(t, 10, v.TotalCookiesEarned, 1e-9)
	assert.Equal(t, int64(1), v.PlayTime)
	assert.InDelta(t, 10, v.CookiesPerSecond, 1e-9)
}

func TestProductionComposesMultipliers(t *testing.T) {
	e, _, _ := newTestEngine(t, quietRand())
	e.Restore(SaveState{
		Upgrades:               map[string]int{"grandma": 10, "cursor": 10},
		SpecialUpgrades:        []string{"reinforced_oven"},
		ResearchedTech:         []string{"grandma_training"},
		LifetimePrestigePoints: 10,
	})

	// (10*1*1.2 + 10*0.1) * 1.05 * (1 + 10*0.01)
	assert.InDelta(t, 13*1.05*1.1, e.CookiesPerSecond(), 1e-9)
}

func TestNothingAccruesBeforeStart(t *testing.T) {
	e, clock, _ := newTestEngine(t, quietRand())
	e.Restore(SaveState{Upgrades: map[string]int{"grandma": 10}})

	advance(e, clock, 5*time.Second)
	assert.Zero(t, e.View().CookieCount)
	assert.False(t, e.Running())
}

func TestPauseIsIdempotent(t *testing.T) {
	e, clock, log := newTestEngine(t, quietRand())
	e.Restore(SaveState{Upgrades: map[string]int{"grandma": 10}})
	e.Start()

	advance(e, clock, 500*time.Millisecond)
	assert.InDelta(t, 5, e.View().CookieCount, 1e-9)

	e.Pause()
	e.Pause()
	assert.False(t, e.Running())
	assert.Len(t, log.GetByType(events.EventTypeGamePaused), 1)

	advance(e, clock, 10*time.Second)
	assert.InDelta(t, 5, e.View().CookieCount, 1e-9)

	e.Resume()
	e.Resume()
	assert.Len(t, log.GetByType(events.EventTypeGameResumed), 1)

	advance(e, clock, 500*time.Millisecond)
	v := e.View()
	assert.InDelta(t, 10, v.CookieCount, 1e-9)
	assert.Equal(t, int64(1), v.PlayTime)
}

func TestResumeBeforeStartDoesNothing(t *testing.T) {
	e, _, log := newTestEngine(t, quietRand())
	e.Resume()
	assert.False(t, e.Running())
	assert.Empty(t, log.GetByType(events.EventTypeGameResumed))
}

func TestResetPreservesProgression(t *testing.T) {
	e, _, _ := newTestEngine(t, quietRand())
	e.Restore(SaveState{
		CookieCount:            500,
		TotalCookiesEarned:     5_000_000,
		TotalClicks:            42,
		PlayTime:               99,
		Upgrades:               map[string]int{"cursor": 3, "grandma": 2},
		SpecialUpgrades:        []string{"reinforced_oven"},
		PrestigeUpgrades:       []string{"prestige_bonus_1"},
		DefensiveUpgrades:      []string{"backup_generator"},
		ResearchedTech:         []string{"efficient_baking"},
		TechPointsSpent:        5,
		PrestigeLevel:          2,
		PrestigePoints:         5,
		LifetimePrestigePoints: 7,
		Achievements:           []string{"first_click"},
	})

	e.Reset()

	s := e.Save()
	assert.Zero(t, s.CookieCount)
	assert.Zero(t, s.TotalCookiesEarned)
	assert.Zero(t, s.TotalClicks)
	assert.Zero(t, s.PlayTime)
	for id, q := range s.Upgrades {
		assert.Zero(t, q, id)
	}
	assert.Equal(t, []string{"reinforced_oven"}, s.SpecialUpgrades)
	assert.Equal(t, []string{"prestige_bonus_1"}, s.PrestigeUpgrades)
	assert.Equal(t, []string{"backup_generator"}, s.DefensiveUpgrades)
	assert.Equal(t, []string{"efficient_baking"}, s.ResearchedTech)
	assert.Equal(t, int64(2), s.PrestigeLevel)
	assert.Equal(t, int64(5), s.PrestigePoints)
	assert.Equal(t, int64(7), s.LifetimePrestigePoints)
	assert.Contains(t, s.Achievements, "first_click")
	assert.Zero(t, e.TechPoints(), "negative balance after reset is shown as zero")
}

func TestPrestigeAwardsPointsAndResets(t *testing.T) {
	e, _, log := newTestEngine(t, quietRand())
	e.Restore(SaveState{CookieCount: 1e9, TotalCookiesEarned: 1e9, Upgrades: map[string]int{"farm": 4}})

	require.True(t, e.CanPrestige())
	assert.Equal(t, int64(1), e.NextPrestigePoints())

	points, ok := e.Prestige()
	require.True(t, ok)
	assert.Equal(t, int64(1), points)

	s := e.Save()
	assert.Equal(t, int64(1), s.PrestigeLevel)
	assert.Equal(t, int64(1), s.PrestigePoints)
	assert.Equal(t, int64(1), s.LifetimePrestigePoints)
	assert.Zero(t, s.CookieCount)
	assert.Zero(t, s.Upgrades["farm"])
	assert.Len(t, log.GetByType(events.EventTypePrestige), 1)

	_, ok = e.Prestige()
	assert.False(t, ok, "below the threshold after the reset")
}

func TestPrestigeGrantsStartingCookies(t *testing.T) {
	e, _, _ := newTestEngine(t, quietRand())
	e.Restore(SaveState{
		TotalCookiesEarned: 4e9,
		PrestigeUpgrades:   []string{"starting_boost"},
	})

	points, ok := e.Prestige()
	require.True(t, ok)
	assert.Equal(t, int64(2), points)

	v := e.View()
	assert.Equal(t, 1000.0, v.CookieCount)
	assert.Equal(t, 1000.0, v.TotalCookiesEarned)
}

func TestPrestigePointsBuyUpgrades(t *testing.T) {
	e, _, _ := newTestEngine(t, quietRand())
	e.Restore(SaveState{PrestigePoints: 1, LifetimePrestigePoints: 1})

	require.True(t, e.BuyPrestigeUpgrade("prestige_bonus_1"))
	assert.Zero(t, e.Save().PrestigePoints)
	assert.Equal(t, int64(1), e.Save().LifetimePrestigePoints, "spending never lowers lifetime points")
	assert.False(t, e.BuyPrestigeUpgrade("prestige_bonus_1"), "already owned")
}

func TestResearchSpendsTechPoints(t *testing.T) {
	e, _, _ := newTestEngine(t, quietRand())
	e.Restore(SaveState{TotalCookiesEarned: 5_000_000, Upgrades: map[string]int{"cursor": 10}})
	assert.Equal(t, int64(5), e.TechPoints())

	require.True(t, e.ResearchTech("efficient_baking"))
	assert.Zero(t, e.TechPoints())
	assert.InDelta(t, 1.1, e.CookiesPerSecond(), 1e-9)

	assert.False(t, e.ResearchTech("efficient_baking"))
	assert.False(t, e.ResearchTech("master_baking"), "not enough points")

	stats := e.ResearchStats()
	assert.Equal(t, 1, stats.Researched)
	assert.Equal(t, len(e.TechStatus()), stats.Total)
}

func TestPrestigeTechsFollowPrestigeLevel(t *testing.T) {
	e, _, _ := newTestEngine(t, quietRand())
	e.Restore(SaveState{TotalCookiesEarned: 100_000_000})

	unlocked := func() bool {
		for _, s := range e.TechStatus() {
			if s.ID == "prestige_efficiency" {
				return s.Unlocked
			}
		}
		return false
	}
	assert.False(t, unlocked())
	assert.False(t, e.ResearchTech("prestige_efficiency"))

	e.Restore(SaveState{TotalCookiesEarned: 100_000_000, PrestigeLevel: 1})
	assert.True(t, unlocked())
	assert.True(t, e.ResearchTech("prestige_efficiency"))
}

func TestAutoBuyNeedsResearch(t *testing.T) {
	e, clock, _ := newTestEngine(t, quietRand())
	e.Restore(SaveState{CookieCount: 100, TotalCookiesEarned: 100})
	assert.False(t, e.SetAutoBuy(true))

	e.Restore(SaveState{
		CookieCount:        100,
		TotalCookiesEarned: 100,
		ResearchedTech:     []string{"automation_basics", "auto_upgrade_1"},
	})
	require.True(t, e.SetAutoBuy(true))
	assert.Contains(t, e.UnlockedFeatures(), "auto_upgrade")

	e.Start()
	advance(e, clock, time.Second)

	v := e.View()
	assert.Equal(t, 1, v.Owned("cursor"))
	assert.InDelta(t, 85, v.CookieCount, 1e-6)
}

func TestAchievementsQueueUntilAcknowledged(t *testing.T) {
	e, _, log := newTestEngine(t, quietRand())

	e.Click()
	e.Click()

	assert.Equal(t, []string{"first_click"}, e.AcknowledgeAchievements())
	assert.Empty(t, e.AcknowledgeAchievements())
	assert.Len(t, log.GetBySubject("first_click"), 1)
	assert.Equal(t, 1, e.AchievementStats().Unlocked)
}

func TestDebitNeverGoesNegative(t *testing.T) {
	e, _, _ := newTestEngine(t, quietRand())
	e.Restore(SaveState{CookieCount: 10, TotalCookiesEarned: 10})

	e.mu.Lock()
	taken := e.debit(100)
	e.mu.Unlock()

	assert.Equal(t, 10.0, taken)
	v := e.View()
	assert.Zero(t, v.CookieCount)
	assert.Equal(t, 10.0, v.TotalCookiesEarned)
}

func TestStateReadModel(t *testing.T) {
	e, _, _ := newTestEngine(t, quietRand())
	e.Restore(SaveState{CookieCount: 20, TotalCookiesEarned: 20, Upgrades: map[string]int{"grandma": 1}})

	s := e.State()
	assert.Equal(t, 20.0, s.CookieCount)
	assert.InDelta(t, 1, s.CookiesPerSecond, 1e-9)
	assert.Len(t, s.Upgrades, 8)
	assert.Len(t, s.Abilities, 2)
	assert.True(t, s.Abilities[0].Ready)
	assert.Equal(t, GoldenIdle, s.Golden.Phase)
	assert.Equal(t, 1.0, s.Golden.BonusMultiplier)
	assert.False(t, s.Prestige.CanPrestige)
}

type fixedBonus float64

func (f fixedBonus) Multiplier() float64 { return float64(f) }

func TestRunAfterStopContinuesGameTime(t *testing.T) {
	e, _, _ := newTestEngine(t, quietRand())

	run := func(ctx context.Context) chan struct{} {
		done := make(chan struct{})
		go func() {
			e.Run(ctx)
			close(done)
		}()
		return done
	}

	done := run(context.Background())
	require.Eventually(t, e.Running, time.Second, time.Millisecond)
	e.Stop()
	<-done
	assert.False(t, e.Running())

	ctx, cancel := context.WithCancel(context.Background())
	done = run(ctx)
	require.Eventually(t, e.Running, time.Second, time.Millisecond)
	cancel()
	<-done
}

func TestStopKeepsUserPause(t *testing.T) {
	e, _, _ := newTestEngine(t, quietRand())
	e.Start()
	e.Pause()
	e.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		e.Run(ctx)
		close(done)
	}()
	cancel()
	<-done
	assert.False(t, e.Running())
}

func TestMultiplierProviderScalesProduction(t *testing.T) {
	e, clock, _ := newTestEngine(t, quietRand())
	e.Restore(SaveState{Upgrades: map[string]int{"grandma": 10}})
	e.SetMultiplierProvider(fixedBonus(3))
	e.Start()

	advance(e, clock, time.Second)
	assert.InDelta(t, 30, e.View().CookieCount, 1e-9)
	assert.InDelta(t, 30, e.EffectiveCookiesPerSecond(), 1e-9)
}
