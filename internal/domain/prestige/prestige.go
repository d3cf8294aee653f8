// Package prestige defines prestige point math and the prestige upgrade catalog.
// This package is PURE and must NOT import any infrastructure packages.
package prestige

import (
	"math"

	"github.com/KottenAlin/reb-wbsite/internal/domain/effect"
	"github.com/KottenAlin/reb-wbsite/internal/domain/progress"
)

const (
	// Threshold is the lifetime cookie total required to prestige.
	Threshold = 1_000_000_000
	// PointBonus is the production bonus per lifetime prestige point.
	PointBonus = 0.01
)

// Points returns floor(sqrt(total / Threshold)), or 0 below the threshold.
func Points(totalCookiesEarned float64) int64 {
	if totalCookiesEarned < Threshold {
		return 0
	}
	return int64(math.Floor(math.Sqrt(totalCookiesEarned / Threshold)))
}

// Award applies the point multiplier to the raw point count, flooring once.
func Award(totalCookiesEarned, pointMultiplier float64) int64 {
	raw := Points(totalCookiesEarned)
	if raw == 0 {
		return 0
	}
	return int64(math.Floor(float64(raw) * pointMultiplier))
}

// Multiplier is the production factor from lifetime prestige points.
func Multiplier(lifetimePoints int64, bonusMultiplier float64) float64 {
	return 1 + float64(lifetimePoints)*PointBonus*bonusMultiplier
}

type Category string

const (
	CategoryProduction Category = "production"
	CategoryUtility    Category = "utility"
	CategoryClicking   Category = "clicking"
	CategoryEfficiency Category = "efficiency"
)

// Upgrade is bought with prestige points and survives every reset.
type Upgrade struct {
	ID            string
	Name          string
	Description   string
	Category      Category
	Cost          int64
	Effect        effect.Effect
	Prerequisites []string
	Icon          string
}

func (u Upgrade) Key() string                  { return u.ID }
func (u Upgrade) Price() float64               { return float64(u.Cost) }
func (u Upgrade) Requires() []string           { return u.Prerequisites }
func (u Upgrade) Available(progress.View) bool { return true }
func (u Upgrade) Grants() effect.Effect        { return u.Effect }

var Catalog = []Upgrade{
	{ID: "prestige_bonus_1", Name: "Prestige Bonus I", Description: "Permanent +5% cookie production", Category: CategoryProduction,
		Cost: 10, Effect: effect.CPSMultiplier{Factor: 1.05}, Icon: "[P1]"},
	{ID: "prestige_bonus_2", Name: "Prestige Bonus II", Description: "Permanent +10% cookie production", Category: CategoryProduction,
		Cost: 25, Effect: effect.CPSMultiplier{Factor: 1.10}, Prerequisites: []string{"prestige_bonus_1"}, Icon: "[P2]"},
	{ID: "prestige_bonus_3", Name: "Prestige Bonus III", Description: "Permanent +15% cookie production", Category: CategoryProduction,
		Cost: 50, Effect: effect.CPSMultiplier{Factor: 1.15}, Prerequisites: []string{"prestige_bonus_2"}, Icon: "[P3]"},

	{ID: "lucky_prestige", Name: "Lucky Prestige", Description: "+1% chance for double cookies each second", Category: CategoryUtility,
		Cost: 20, Effect: effect.LuckyProduction{Chance: 0.01}, Icon: "[L]"},
	// "50% more often" means two thirds of the wait.
	{ID: "prestige_golden_cookies", Name: "Prestige Golden Cookies", Description: "Golden cookies spawn 50% more often", Category: CategoryUtility,
		Cost: 30, Effect: effect.GoldenFrequencyMultiplier{Factor: 2.0 / 3.0}, Icon: "[G]"},
	{ID: "starting_boost", Name: "Starting Boost", Description: "Start each prestige with 1,000 cookies", Category: CategoryUtility,
		Cost: 40, Effect: effect.StartingCookies{Amount: 1000}, Icon: "[S]"},
	{ID: "prestige_efficiency", Name: "Prestige Efficiency", Description: "Earn 10% more prestige points", Category: CategoryUtility,
		Cost: 35, Effect: effect.PrestigePointMultiplier{Factor: 1.10}, Icon: "[E]"},

	{ID: "prestige_clicking_1", Name: "Prestige Clicking I", Description: "Clicks are 50% more powerful", Category: CategoryClicking,
		Cost: 15, Effect: effect.ClickMultiplier{Factor: 1.5}, Icon: "[C1]"},
	{ID: "prestige_clicking_2", Name: "Prestige Clicking II", Description: "Clicks are 100% more powerful", Category: CategoryClicking,
		Cost: 45, Effect: effect.ClickMultiplier{Factor: 2.0}, Prerequisites: []string{"prestige_clicking_1"}, Icon: "[C2]"},

	{ID: "cheaper_upgrades_1", Name: "Cheaper Upgrades I", Description: "All upgrades cost 5% less", Category: CategoryEfficiency,
		Cost: 25, Effect: effect.UpgradeCostReduction{Fraction: 0.05}, Icon: "[-1]"},
	{ID: "cheaper_upgrades_2", Name: "Cheaper Upgrades II", Description: "All upgrades cost 10% less", Category: CategoryEfficiency,
		Cost: 60, Effect: effect.UpgradeCostReduction{Fraction: 0.10}, Prerequisites: []string{"cheaper_upgrades_1"}, Icon: "[-2]"},
}
