package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/KottenAlin/reb-wbsite/internal/domain/effect"
	"github.com/KottenAlin/reb-wbsite/internal/domain/prestige"
	"github.com/KottenAlin/reb-wbsite/internal/domain/progress"
	"github.com/KottenAlin/reb-wbsite/internal/domain/special"
	"github.com/KottenAlin/reb-wbsite/internal/domain/tech"
	"github.com/KottenAlin/reb-wbsite/internal/domain/threat"
	"github.com/KottenAlin/reb-wbsite/internal/events"
	"github.com/KottenAlin/reb-wbsite/internal/platform/config"
	"github.com/KottenAlin/reb-wbsite/internal/platform/logger"
	"github.com/KottenAlin/reb-wbsite/internal/platform/metrics"
)

// Notifier receives player-visible notifications. *events.EventLog satisfies it.
type Notifier interface {
	Append(event events.GameEvent)
}

// MultiplierProvider supplies the temporary production multiplier applied on
// every production tick. The golden cookie system is the default provider.
type MultiplierProvider interface {
	Multiplier() float64
}

// Config carries the optional collaborators of an Engine. Zero fields fall
// back to the real clock, a time-seeded random source and the stock balance.
type Config struct {
	Clock   Clock
	Random  RandomSource
	Balance config.Balance
}

type resources struct {
	CookieCount        float64
	TotalCookiesEarned float64
	TotalClicks        int64
	PlayTime           int64 // seconds
}

type prestigeState struct {
	Level    int64
	Points   int64 // unspent
	Lifetime int64 // ever earned
}

// Engine is the central orchestrator of the simulation. It owns every
// resource and ledger and wires them to the golden cookie, threat and
// achievement systems. All exported methods are safe for concurrent use;
// internal methods assume the lock is held.
type Engine struct {
	mu       sync.Mutex
	notifier Notifier
	logger   *logger.Logger
	clock    Clock
	rng      RandomSource
	balance  config.Balance
	sched    *Scheduler
	ticker   *Ticker

	res              resources
	clicks           *clickTracker
	upgrades         *UpgradeLedger
	specials         *Ledger[special.Upgrade]
	prestigeUpgrades *Ledger[prestige.Upgrade]
	techs            *Ledger[tech.Tech]
	defenses         *Ledger[threat.Defense]
	prestige         prestigeState
	techSpent        int64
	autoBuy          bool

	// Sub-systems
	golden       *GoldenSystem
	threats      *ThreatSystem
	achievements *AchievementSystem
	bonus        MultiplierProvider

	started         bool
	halted          bool // frozen by Stop, not by Pause
	productionTimer TimerHandle
	playTimeTimer   TimerHandle
}

// NewEngine initializes the simulation and its sub-systems. The engine is
// idle until Start.
func NewEngine(notifier Notifier, log *logger.Logger, cfg Config) *Engine {
	if cfg.Clock == nil {
		cfg.Clock = RealClock{}
	}
	if cfg.Random == nil {
		cfg.Random = NewRandomSource(0)
	}
	if cfg.Balance.TickPeriod == 0 {
		cfg.Balance = config.DefaultBalance()
	}
	if log == nil {
		log = logger.NewNop()
	}

	e := &Engine{
		notifier: notifier,
		logger:   log,
		clock:    cfg.Clock,
		rng:      cfg.Random,
		balance:  cfg.Balance,
		sched:    NewScheduler(cfg.Clock, 0),

		clicks:           newClickTracker(cfg.Balance.ClickWindow),
		upgrades:         NewUpgradeLedger(),
		specials:         NewLedger(special.Catalog),
		prestigeUpgrades: NewLedger(prestige.Catalog),
		techs:            NewLedger(tech.Catalog),
		defenses:         NewLedger(threat.Defenses),
	}
	e.golden = NewGoldenSystem(e.sched, e.rng, e, notifier, log, cfg.Balance.Golden)
	e.threats = NewThreatSystem(e.sched, e.rng, e, cfg.Clock, notifier, log, cfg.Balance.Threats)
	e.achievements = NewAchievementSystem(notifier, log)
	e.bonus = e.golden
	return e
}

// Start arms the production and play-time timers, begins golden cookie
// scheduling and threat polling, and starts game time. Calling Start on a
// started engine does nothing.
func (e *Engine) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.startLocked()
}

func (e *Engine) startLocked() {
	if e.started {
		return
	}
	e.started = true
	e.armLocked()
	e.sched.Resume()
	e.logger.Info("Simulation started")
}

// Run starts the engine and drives its timers until ctx is cancelled or
// Stop is called. Call in a goroutine. Each call gets a fresh driver, so an
// engine halted by Stop can be run again; game time picks up where it froze.
func (e *Engine) Run(ctx context.Context) {
	e.mu.Lock()
	e.startLocked()
	if e.halted {
		e.halted = false
		e.sched.Resume()
	}
	tk := NewTicker(e, e.logger, e.balance.DriverPeriod)
	e.ticker = tk
	e.mu.Unlock()

	tk.Start(ctx)
}

// Stop halts the driver loop started by Run and freezes game time. A user
// pause in effect is left alone.
func (e *Engine) Stop() {
	e.mu.Lock()
	tk := e.ticker
	e.ticker = nil
	if e.sched.Pause() {
		e.halted = true
	}
	e.mu.Unlock()

	if tk != nil {
		tk.Stop()
	}
}

func (e *Engine) armLocked() {
	if !e.sched.Active(e.productionTimer) {
		e.productionTimer = e.sched.Every("production", e.balance.TickPeriod, e.productionTick)
	}
	if !e.sched.Active(e.playTimeTimer) {
		e.playTimeTimer = e.sched.Every("play_time", e.balance.PlayTimePeriod, e.playTimeTick)
	}
	e.golden.Start()
	e.threats.Start()
}

// Step fires every timer due at the current game time, then evaluates
// achievements once.
func (e *Engine) Step() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	fired := e.sched.RunDue()
	if fired > 0 {
		e.checkAchievementsLocked()
	}
	return fired
}

// Pause freezes production, play time and every pending timer. Pausing a
// paused engine is a no-op.
func (e *Engine) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.sched.Pause() {
		return
	}
	e.logger.Event(string(events.EventTypeGamePaused), "engine", "simulation paused")
	notify(e.notifier, events.EventTypeGamePaused, "engine", "Paused", "The bakery is paused", nil)
}

// Resume continues a paused engine. Remaining timer durations are kept and
// production picks up any golden cookie bonus still running.
func (e *Engine) Resume() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.started || !e.sched.Resume() {
		return
	}
	e.logger.Event(string(events.EventTypeGameResumed), "engine", "simulation resumed")
	notify(e.notifier, events.EventTypeGameResumed, "engine", "Resumed", "The bakery is open again", nil)
}

// SetMultiplierProvider replaces the production bonus source.
func (e *Engine) SetMultiplierProvider(p MultiplierProvider) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if p == nil {
		p = e.golden
	}
	e.bonus = p
}

// Running reports whether game time is advancing.
func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sched.Running()
}

// Reset zeroes cookies, lifetime total, clicks, play time and base upgrade
// quantities. Achievements, one-time upgrades, research, prestige, defenses
// and golden cookie counts are kept.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.resetLocked()
}

func (e *Engine) resetLocked() {
	e.res = resources{}
	e.upgrades.Reset()
	e.clicks.clear()
	e.logger.Event(string(events.EventTypeGameReset), "engine", "progress reset")
	notify(e.notifier, events.EventTypeGameReset, "engine", "Reset", "Cookies and buildings were reset", nil)
}

// earn credits production or click gains.
func (e *Engine) earn(amount float64) {
	if amount <= 0 {
		return
	}
	e.res.CookieCount += amount
	e.res.TotalCookiesEarned += amount
}

// debit removes up to amount cookies and returns what was taken.
func (e *Engine) debit(amount float64) float64 {
	if amount <= 0 {
		return 0
	}
	if amount > e.res.CookieCount {
		amount = e.res.CookieCount
	}
	e.res.CookieCount -= amount
	return amount
}

// credit grants reward cookies.
func (e *Engine) credit(amount float64) {
	e.earn(amount)
}

// Click performs one manual click and returns the cookies gained.
func (e *Engine) Click() float64 {
	return e.ClickWithMultiplier(1)
}

// ClickWithMultiplier performs one click scaled by multiplier. Non-positive
// multipliers count as 1.
func (e *Engine) ClickWithMultiplier(multiplier float64) float64 {
	if multiplier <= 0 {
		multiplier = 1
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	gain := e.clickPowerLocked(e.resolve()) * multiplier
	e.earn(gain)
	e.res.TotalClicks++
	e.clicks.record(e.clock.Now())
	e.threats.ReportProgress(threat.MetricClicks, 1)
	metrics.Get().RecordClick()
	e.checkAchievementsLocked()
	return gain
}

// BuyUpgrade buys one unit of a base upgrade.
func (e *Engine) BuyUpgrade(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	ok := e.upgrades.Purchase(id, cookieWallet{&e.res}, e.resolve().cost.Reduction)
	e.afterPurchaseLocked("upgrade", id, ok)
	return ok
}

// BuySpecialUpgrade buys a one-time cookie upgrade.
func (e *Engine) BuySpecialUpgrade(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	ok := e.specials.Purchase(id, cookieWallet{&e.res}, e.view())
	e.afterPurchaseLocked("special", id, ok)
	return ok
}

// BuyPrestigeUpgrade spends prestige points.
func (e *Engine) BuyPrestigeUpgrade(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	ok := e.prestigeUpgrades.Purchase(id, prestigeWallet{&e.prestige}, e.view())
	e.afterPurchaseLocked("prestige", id, ok)
	return ok
}

// BuyDefensiveUpgrade buys protection against a threat.
func (e *Engine) BuyDefensiveUpgrade(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	ok := e.defenses.Purchase(id, cookieWallet{&e.res}, e.view())
	e.afterPurchaseLocked("defense", id, ok)
	return ok
}

// ResearchTech spends tech points on a research node.
func (e *Engine) ResearchTech(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	ok := e.techs.Purchase(id, techWallet{r: &e.res, spent: &e.techSpent}, e.view())
	e.afterPurchaseLocked("tech", id, ok)
	return ok
}

func (e *Engine) afterPurchaseLocked(kind, id string, ok bool) {
	metrics.Get().RecordPurchase(ok)
	if !ok {
		return
	}
	e.logger.Event("PURCHASE", id, kind)
	e.checkAchievementsLocked()
}

// SetAutoBuy toggles buying the cheapest affordable upgrade every tick. It
// is refused until the auto-upgrade research is done.
func (e *Engine) SetAutoBuy(enabled bool) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if enabled && !e.featureUnlocked(effect.FeatureAutoUpgrade) {
		return false
	}
	e.autoBuy = enabled
	return true
}

// CollectGoldenCookie collects the visible golden cookie. It returns false
// when none is visible.
func (e *Engine) CollectGoldenCookie() (GoldenReward, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	reward, ok := e.golden.Collect()
	if !ok {
		return GoldenReward{}, false
	}
	metrics.Get().RecordGoldenCollected()
	e.threats.ReportProgress(threat.MetricGoldenCookies, 1)
	e.checkAchievementsLocked()
	return reward, true
}

// ActivateAbility uses a player ability if it is off cooldown.
func (e *Engine) ActivateAbility(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.threats.Activate(id)
}

// UpdateChallengeProgress reports absolute progress for an active challenge.
// Clicks and golden cookie collections already report themselves.
func (e *Engine) UpdateChallengeProgress(id string, value int) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, completed := e.threats.UpdateChallengeProgress(id, value)
	if completed {
		e.checkAchievementsLocked()
	}
	return completed
}

// CheckForThreats rolls every due threat now instead of waiting for the poll.
func (e *Engine) CheckForThreats() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.threats.CheckForThreats(ms(e.sched.Now()))
	e.checkAchievementsLocked()
}

// CanPrestige reports whether the lifetime total reached the threshold.
func (e *Engine) CanPrestige() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.res.TotalCookiesEarned >= prestige.Threshold
}

// NextPrestigePoints previews the points a prestige would award now.
func (e *Engine) NextPrestigePoints() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return prestige.Award(e.res.TotalCookiesEarned, e.resolve().prestige.PointMultiplier)
}

// Prestige awards points, resets progress and grants starting cookies. It
// returns the points awarded, or false below the threshold.
func (e *Engine) Prestige() (int64, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.res.TotalCookiesEarned < prestige.Threshold {
		return 0, false
	}

	m := e.resolve()
	points := prestige.Award(e.res.TotalCookiesEarned, m.prestige.PointMultiplier)
	e.prestige.Points += points
	e.prestige.Lifetime += points
	e.prestige.Level++

	e.resetLocked()
	e.credit(m.prestige.StartingCookies)

	metrics.Get().RecordPrestige()
	msg := fmt.Sprintf("Prestige level %d reached, earned %d points", e.prestige.Level, points)
	e.logger.Event(string(events.EventTypePrestige), "prestige", msg)
	notify(e.notifier, events.EventTypePrestige, "prestige", "Prestige!", msg,
		map[string]int64{"level": e.prestige.Level, "points": points})
	e.checkAchievementsLocked()
	return points, true
}

// AcknowledgeAchievements drains the newly unlocked list.
func (e *Engine) AcknowledgeAchievements() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.achievements.Acknowledge()
}

func (e *Engine) checkAchievementsLocked() {
	e.achievements.Check(e.view())
}

// View returns the read-only projection used by predicates.
func (e *Engine) View() progress.View {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.view()
}

func (e *Engine) view() progress.View {
	speed, combo := e.clicks.records()
	return progress.View{
		CookieCount:            e.res.CookieCount,
		TotalCookiesEarned:     e.res.TotalCookiesEarned,
		TotalClicks:            e.res.TotalClicks,
		PlayTime:               e.res.PlayTime,
		CookiesPerSecond:       e.cookiesPerSecond(e.resolve()),
		Upgrades:               e.upgrades.Quantities(),
		GoldenCookiesCollected: e.golden.Collected(),
		PrestigeLevel:          e.prestige.Level,
		SpeedClickRecord:       speed,
		ClickComboRecord:       combo,
	}
}

// goldenHost

func (e *Engine) goldenModifier() effect.Golden {
	return e.resolve().golden
}

func (e *Engine) featureUnlocked(f effect.Feature) bool {
	return e.resolve().features[f]
}

// threatHost

func (e *Engine) ownedDefenses() map[string]bool {
	return e.defenses.OwnedSet()
}

func (e *Engine) defenseModifier() effect.Defense {
	return e.resolve().defense
}

func availableTechPoints(totalEarned float64, spent int64) int64 {
	return tech.Points(totalEarned) - spent
}

func notify(n Notifier, t events.EventType, subject, title, message string, payload interface{}) {
	if n == nil {
		return
	}
	n.Append(events.GameEvent{
		Type:      t,
		SubjectID: subject,
		Title:     title,
		Message:   message,
		Payload:   payload,
	})
}
