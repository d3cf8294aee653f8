// Package special holds one-time cookie-priced upgrades.
package special

import (
	"time"

	"github.com/KottenAlin/reb-wbsite/internal/domain/effect"
	"github.com/KottenAlin/reb-wbsite/internal/domain/progress"
)

type Category string

const (
	CategoryMultiplier    Category = "multiplier"
	CategoryClickPower    Category = "click_power"
	CategoryGoldenCookie  Category = "golden_cookie"
	CategorySpecialEffect Category = "special_effect"
)

// Upgrade is a one-time purchase that becomes available once Unlock holds.
type Upgrade struct {
	ID          string
	Name        string
	Description string
	Category    Category
	Cost        float64
	Effect      effect.Effect
	Unlock      func(progress.View) bool
	Icon        string
}

func (u Upgrade) Key() string                    { return u.ID }
func (u Upgrade) Price() float64                 { return u.Cost }
func (u Upgrade) Requires() []string             { return nil }
func (u Upgrade) Available(v progress.View) bool { return u.Unlock == nil || u.Unlock(v) }
func (u Upgrade) Grants() effect.Effect          { return u.Effect }

func earned(n float64) func(progress.View) bool {
	return func(v progress.View) bool { return v.TotalCookiesEarned >= n }
}

func clicks(n int64) func(progress.View) bool {
	return func(v progress.View) bool { return v.TotalClicks >= n }
}

func golden(n int64) func(progress.View) bool {
	return func(v progress.View) bool { return v.GoldenCookiesCollected >= n }
}

var Catalog = []Upgrade{
	{ID: "reinforced_oven", Name: "Reinforced Oven", Description: "Increases cookie production by 5%", Category: CategoryMultiplier,
		Cost: 50000, Effect: effect.CPSMultiplier{Factor: 1.05}, Unlock: earned(1000), Icon: "<O>"},
	{ID: "industrial_mixer", Name: "Industrial Mixer", Description: "Increases cookie production by 10%", Category: CategoryMultiplier,
		Cost: 500000, Effect: effect.CPSMultiplier{Factor: 1.10}, Unlock: earned(100000), Icon: "[M]"},
	{ID: "cookie_optimizer", Name: "Cookie Optimizer", Description: "Increases cookie production by 25%", Category: CategoryMultiplier,
		Cost: 5000000, Effect: effect.CPSMultiplier{Factor: 1.25}, Unlock: earned(1000000), Icon: "{O}"},
	{ID: "divine_blessing", Name: "Divine Blessing", Description: "Increases cookie production by 50%", Category: CategoryMultiplier,
		Cost: 50000000, Effect: effect.CPSMultiplier{Factor: 1.50}, Unlock: earned(10000000), Icon: "<*>"},

	{ID: "stronger_fingers", Name: "Stronger Fingers", Description: "Click power +1", Category: CategoryClickPower,
		Cost: 1000, Effect: effect.ClickPowerBonus{Amount: 1}, Unlock: clicks(100), Icon: "[F]"},
	{ID: "ambidextrous_clicking", Name: "Ambidextrous Clicking", Description: "Click power +5", Category: CategoryClickPower,
		Cost: 10000, Effect: effect.ClickPowerBonus{Amount: 5}, Unlock: clicks(1000), Icon: "[FF]"},
	{ID: "bionic_hand", Name: "Bionic Hand", Description: "Click power +25", Category: CategoryClickPower,
		Cost: 100000, Effect: effect.ClickPowerBonus{Amount: 25}, Unlock: clicks(10000), Icon: "{F}"},
	{ID: "godlike_touch", Name: "Godlike Touch", Description: "Click power +100", Category: CategoryClickPower,
		Cost: 1000000, Effect: effect.ClickPowerBonus{Amount: 100}, Unlock: clicks(100000), Icon: "<F>"},

	{ID: "golden_cookie_duration", Name: "Golden Cookie Duration", Description: "Golden cookies last 7 seconds longer", Category: CategoryGoldenCookie,
		Cost: 100000, Effect: effect.GoldenDurationBonus{Extra: 7 * time.Second}, Unlock: golden(10), Icon: "[G+]"},
	{ID: "golden_cookie_frequency", Name: "Golden Cookie Frequency", Description: "Golden cookies spawn 25% more often", Category: CategoryGoldenCookie,
		Cost: 250000, Effect: effect.GoldenFrequencyMultiplier{Factor: 0.75}, Unlock: golden(25), Icon: "[GF]"},
	{ID: "golden_cookie_power", Name: "Golden Cookie Power", Description: "Increases golden cookie multiplier from 7x to 10x", Category: CategoryGoldenCookie,
		Cost: 500000, Effect: effect.GoldenMultiplierBonus{Amount: 3}, Unlock: golden(50), Icon: "[GP]"},
	{ID: "golden_cookie_luck", Name: "Golden Cookie Luck", Description: "50% chance for double golden cookie bonus", Category: CategoryGoldenCookie,
		Cost: 1000000, Effect: effect.GoldenDoubleChance{Chance: 0.5}, Unlock: golden(100), Icon: "{G}"},

	{ID: "cookie_insurance", Name: "Cookie Insurance", Description: "Reduces threat damage by 60%", Category: CategorySpecialEffect,
		Cost: 500000, Effect: effect.ThreatReduction{Fraction: 0.6}, Unlock: earned(500000), Icon: "[S]"},
	{ID: "lucky_charm", Name: "Lucky Charm", Description: "5% chance for double production each second", Category: CategorySpecialEffect,
		Cost: 2000000, Effect: effect.LuckyProduction{Chance: 0.05}, Unlock: earned(2000000), Icon: "[L]"},
}
