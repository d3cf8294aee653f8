package effect

import "time"

// MaxCostReduction caps the summed upgrade cost reduction.
const MaxCostReduction = 0.5

// Production is the folded production modifier of a set of effects.
type Production struct {
	Multiplier  float64
	PerUpgrade  map[string]float64
	LuckyChance float64
}

// UpgradeFactor returns the multiplier for one base upgrade (1 when none).
func (p Production) UpgradeFactor(upgradeID string) float64 {
	if f, ok := p.PerUpgrade[upgradeID]; ok {
		return f
	}
	return 1
}

// ResolveProduction multiplies CPS and per-upgrade factors and sums lucky
// production chances.
func ResolveProduction(effects []Effect) Production {
	p := Production{Multiplier: 1, PerUpgrade: map[string]float64{}}
	for _, e := range effects {
		switch v := e.(type) {
		case CPSMultiplier:
			p.Multiplier *= v.Factor
		case UpgradeMultiplier:
			p.PerUpgrade[v.UpgradeID] = p.UpgradeFactor(v.UpgradeID) * v.Factor
		case LuckyProduction:
			p.LuckyChance += v.Chance
		}
	}
	if p.LuckyChance > 1 {
		p.LuckyChance = 1
	}
	return p
}

// Click is the folded click modifier.
type Click struct {
	Bonus      float64
	Multiplier float64
}

// Power applies the modifier to the base click value.
func (c Click) Power(base float64) float64 {
	return (base + c.Bonus) * c.Multiplier
}

func ResolveClick(effects []Effect) Click {
	c := Click{Multiplier: 1}
	for _, e := range effects {
		switch v := e.(type) {
		case ClickPowerBonus:
			c.Bonus += v.Amount
		case ClickMultiplier:
			c.Multiplier *= v.Factor
		}
	}
	return c
}

// Golden is the folded golden cookie modifier.
type Golden struct {
	DurationBonus       time.Duration
	FrequencyMultiplier float64
	MultiplierBonus     float64
	DoubleChance        float64
}

func ResolveGolden(effects []Effect) Golden {
	g := Golden{FrequencyMultiplier: 1}
	for _, e := range effects {
		switch v := e.(type) {
		case GoldenDurationBonus:
			g.DurationBonus += v.Extra
		case GoldenFrequencyMultiplier:
			g.FrequencyMultiplier *= v.Factor
		case GoldenMultiplierBonus:
			g.MultiplierBonus += v.Amount
		case GoldenDoubleChance:
			g.DoubleChance += v.Chance
		}
	}
	if g.DoubleChance > 1 {
		g.DoubleChance = 1
	}
	return g
}

// Cost is the folded price modifier for base upgrades.
type Cost struct {
	Reduction float64
}

func ResolveCost(effects []Effect) Cost {
	var c Cost
	for _, e := range effects {
		if v, ok := e.(UpgradeCostReduction); ok {
			c.Reduction += v.Fraction
		}
	}
	if c.Reduction > MaxCostReduction {
		c.Reduction = MaxCostReduction
	}
	return c
}

// Prestige is the folded prestige modifier.
type Prestige struct {
	PointMultiplier float64
	BonusMultiplier float64
	StartingCookies float64
}

func ResolvePrestige(effects []Effect) Prestige {
	p := Prestige{PointMultiplier: 1, BonusMultiplier: 1}
	for _, e := range effects {
		switch v := e.(type) {
		case PrestigePointMultiplier:
			p.PointMultiplier *= v.Factor
		case PrestigeBonusMultiplier:
			p.BonusMultiplier *= v.Factor
		case StartingCookies:
			p.StartingCookies += v.Amount
		}
	}
	return p
}

// Defense is the folded general threat damage reduction.
type Defense struct {
	Reduction float64
}

// Remaining returns the fraction of damage that still lands.
func (d Defense) Remaining() float64 {
	return 1 - d.Reduction
}

// ResolveDefense composes reductions multiplicatively so the total never
// reaches 100%.
func ResolveDefense(effects []Effect) Defense {
	remaining := 1.0
	for _, e := range effects {
		if v, ok := e.(ThreatReduction); ok {
			remaining *= 1 - v.Fraction
		}
	}
	return Defense{Reduction: 1 - remaining}
}

// Features collects every unlocked capability.
func Features(effects []Effect) map[Feature]bool {
	out := map[Feature]bool{}
	for _, e := range effects {
		if v, ok := e.(FeatureUnlock); ok {
			out[v.Feature] = true
		}
	}
	return out
}
