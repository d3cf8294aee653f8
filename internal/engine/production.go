package engine

import (
	"time"

	"github.com/KottenAlin/reb-wbsite/internal/domain/effect"
	"github.com/KottenAlin/reb-wbsite/internal/domain/prestige"
	"github.com/KottenAlin/reb-wbsite/internal/domain/upgrade"
	"github.com/KottenAlin/reb-wbsite/internal/platform/metrics"
)

// modifiers is every aggregate derived from owned items. It is recomputed on
// demand so it can never drift from the ledgers.
type modifiers struct {
	special      effect.Production
	prestigeProd effect.Production
	tech         effect.Production
	luckyChance  float64
	click        effect.Click
	golden       effect.Golden
	cost         effect.Cost
	prestige     effect.Prestige
	defense      effect.Defense
	features     map[effect.Feature]bool
}

func (e *Engine) resolve() modifiers {
	specialFx := e.specials.Effects()
	prestigeFx := e.prestigeUpgrades.Effects()
	techFx := e.techs.Effects()

	all := make([]effect.Effect, 0, len(specialFx)+len(prestigeFx)+len(techFx))
	all = append(all, specialFx...)
	all = append(all, prestigeFx...)
	all = append(all, techFx...)

	return modifiers{
		special:      effect.ResolveProduction(specialFx),
		prestigeProd: effect.ResolveProduction(prestigeFx),
		tech:         effect.ResolveProduction(techFx),
		luckyChance:  effect.ResolveProduction(all).LuckyChance,
		click:        effect.ResolveClick(all),
		golden:       effect.ResolveGolden(all),
		cost:         effect.ResolveCost(all),
		prestige:     effect.ResolvePrestige(all),
		defense:      effect.ResolveDefense(all),
		features:     effect.Features(all),
	}
}

// baseProduction sums quantity * cps * research factor, skipping disabled
// upgrades.
func (e *Engine) baseProduction(m modifiers, disabled map[string]bool) float64 {
	var total float64
	for _, u := range upgrade.Catalog {
		q := e.upgrades.Quantity(u.ID)
		if q == 0 || disabled[u.ID] {
			continue
		}
		total += float64(q) * u.CPS * m.tech.UpgradeFactor(u.ID)
	}
	return total
}

func (e *Engine) prestigeMultiplier(m modifiers) float64 {
	return prestige.Multiplier(e.prestige.Lifetime, m.prestige.BonusMultiplier) * m.prestigeProd.Multiplier
}

// cookiesPerSecond is the permanent production rate: base production scaled
// by special, prestige and research multipliers. Temporary threat, boost and
// golden cookie factors are excluded.
func (e *Engine) cookiesPerSecond(m modifiers) float64 {
	return e.baseProduction(m, nil) * m.special.Multiplier * e.prestigeMultiplier(m) * m.tech.Multiplier
}

// productionRate is the rate actually produced this instant, before the
// golden cookie bonus.
func (e *Engine) productionRate(m modifiers) float64 {
	base := e.baseProduction(m, e.threats.DisabledUpgrades())
	return base * m.special.Multiplier * e.prestigeMultiplier(m) * m.tech.Multiplier * e.threats.ProductionFactor()
}

func (e *Engine) clickPowerLocked(m modifiers) float64 {
	return m.click.Power(upgrade.ClickPower(e.upgrades.Quantity(upgrade.CursorID)))
}

// productionTick credits one tick of production using the modifiers in force
// at the start of the tick.
func (e *Engine) productionTick() {
	start := time.Now()
	defer func() { metrics.Get().RecordTick(time.Since(start)) }()

	m := e.resolve()
	perTick := e.productionRate(m) * e.balance.TickPeriod.Seconds() * e.bonus.Multiplier()
	e.earn(perTick)
}

// autoBuyLocked buys at most one cheapest affordable base upgrade.
func (e *Engine) autoBuyLocked(m modifiers) {
	id, ok := e.upgrades.Cheapest(e.res.CookieCount, m.cost.Reduction)
	if !ok {
		return
	}
	if e.upgrades.Purchase(id, cookieWallet{&e.res}, m.cost.Reduction) {
		metrics.Get().RecordPurchase(true)
		e.logger.Event("AUTO_PURCHASE", id, "upgrade")
	}
}

// playTimeTick advances play time, rolls lucky production and runs one
// auto-buy.
func (e *Engine) playTimeTick() {
	e.res.PlayTime++

	m := e.resolve()
	if m.luckyChance > 0 && e.rng.Float64() < m.luckyChance {
		e.earn(e.productionRate(m) * e.bonus.Multiplier())
	}
	if e.autoBuy && m.features[effect.FeatureAutoUpgrade] {
		e.autoBuyLocked(m)
	}
}

// CookiesPerSecond is the permanent production rate.
func (e *Engine) CookiesPerSecond() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cookiesPerSecond(e.resolve())
}

// EffectiveCookiesPerSecond includes threat, boost and golden cookie factors.
func (e *Engine) EffectiveCookiesPerSecond() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.productionRate(e.resolve()) * e.bonus.Multiplier()
}

// ClickPower is the cookies gained by one unmultiplied click.
func (e *Engine) ClickPower() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.clickPowerLocked(e.resolve())
}

// clickTracker keeps recent click times to maintain speed records.
type clickTracker struct {
	window time.Duration
	stamps []time.Time
	speed  int // best clicks within one second
	combo  int // best clicks within the window
}

func newClickTracker(window time.Duration) *clickTracker {
	if window <= 0 {
		window = 10 * time.Second
	}
	return &clickTracker{window: window}
}

func (c *clickTracker) record(now time.Time) {
	cutoff := now.Add(-c.window)
	kept := c.stamps[:0]
	for _, t := range c.stamps {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	c.stamps = append(kept, now)

	second := now.Add(-time.Second)
	inSecond := 0
	for _, t := range c.stamps {
		if t.After(second) {
			inSecond++
		}
	}
	if inSecond > c.speed {
		c.speed = inSecond
	}
	if len(c.stamps) > c.combo {
		c.combo = len(c.stamps)
	}
}

func (c *clickTracker) records() (speed, combo int) {
	return c.speed, c.combo
}

// clear forgets recent clicks but keeps the records.
func (c *clickTracker) clear() {
	c.stamps = nil
}

func (c *clickTracker) restore(speed, combo int) {
	c.speed = speed
	c.combo = combo
}
