// Package effect defines the closed set of modifiers granted by owned items
// and the per-category resolvers that fold them into aggregate values.
// This package is PURE and must NOT import any infrastructure packages.
package effect

import "time"

// Effect is one modifier granted by a purchased item. The set is sealed: only
// the types declared in this file implement it.
type Effect interface {
	isEffect()
}

// Feature names a capability an item can switch on.
type Feature string

const (
	FeatureAutomation    Feature = "automation"
	FeatureAutoUpgrade   Feature = "auto_upgrade"
	FeatureGoldenStudies Feature = "golden_studies"
	FeatureGoldenWarning Feature = "golden_warning"
)

// CPSMultiplier scales total production.
type CPSMultiplier struct{ Factor float64 }

// UpgradeMultiplier scales the production of one base upgrade.
type UpgradeMultiplier struct {
	UpgradeID string
	Factor    float64
}

// ClickPowerBonus adds flat cookies per click.
type ClickPowerBonus struct{ Amount float64 }

// ClickMultiplier scales click gains.
type ClickMultiplier struct{ Factor float64 }

// GoldenDurationBonus extends how long a golden cookie stays visible.
type GoldenDurationBonus struct{ Extra time.Duration }

// GoldenFrequencyMultiplier scales the delay between golden cookie spawns.
// Values below 1 make spawns more frequent.
type GoldenFrequencyMultiplier struct{ Factor float64 }

// GoldenMultiplierBonus adds to the golden cookie production multiplier.
type GoldenMultiplierBonus struct{ Amount float64 }

// GoldenDoubleChance is the probability a collected bonus is doubled.
type GoldenDoubleChance struct{ Chance float64 }

// ThreatReduction reduces all threat damage by Fraction.
type ThreatReduction struct{ Fraction float64 }

// LuckyProduction is the per-second chance of an extra second of production.
type LuckyProduction struct{ Chance float64 }

// StartingCookies is granted after every prestige reset.
type StartingCookies struct{ Amount float64 }

// PrestigePointMultiplier scales prestige points awarded on reset.
type PrestigePointMultiplier struct{ Factor float64 }

// PrestigeBonusMultiplier scales the per-point production bonus of prestige.
type PrestigeBonusMultiplier struct{ Factor float64 }

// UpgradeCostReduction lowers base upgrade prices by Fraction.
type UpgradeCostReduction struct{ Fraction float64 }

// FeatureUnlock enables a named capability.
type FeatureUnlock struct{ Feature Feature }

func (CPSMultiplier) isEffect()             {}
func (UpgradeMultiplier) isEffect()         {}
func (ClickPowerBonus) isEffect()           {}
func (ClickMultiplier) isEffect()           {}
func (GoldenDurationBonus) isEffect()       {}
func (GoldenFrequencyMultiplier) isEffect() {}
func (GoldenMultiplierBonus) isEffect()     {}
func (GoldenDoubleChance) isEffect()        {}
func (ThreatReduction) isEffect()           {}
func (LuckyProduction) isEffect()           {}
func (StartingCookies) isEffect()           {}
func (PrestigePointMultiplier) isEffect()   {}
func (PrestigeBonusMultiplier) isEffect()   {}
func (UpgradeCostReduction) isEffect()      {}
func (FeatureUnlock) isEffect()             {}
