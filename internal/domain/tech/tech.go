// Package tech holds the research tree bought with tech points.
// This package is PURE and must NOT import any infrastructure packages.
package tech

import (
	"math"
	"time"

	"github.com/KottenAlin/reb-wbsite/internal/domain/effect"
	"github.com/KottenAlin/reb-wbsite/internal/domain/progress"
)

// CookiesPerPoint is the lifetime production worth one tech point.
const CookiesPerPoint = 1_000_000

// Points is the number of tech points ever earned for a lifetime total.
func Points(totalCookiesEarned float64) int64 {
	if totalCookiesEarned <= 0 {
		return 0
	}
	return int64(math.Floor(totalCookiesEarned / CookiesPerPoint))
}

type Category string

const (
	CategoryProduction Category = "production"
	CategoryTechnology Category = "technology"
	CategoryGolden     Category = "golden"
	CategoryPrestige   Category = "prestige"
)

// Categories lists every category in display order.
var Categories = []Category{CategoryProduction, CategoryTechnology, CategoryGolden, CategoryPrestige}

// Tech is one research node. Unlock gates visibility beyond prerequisites.
type Tech struct {
	ID            string
	Name          string
	Description   string
	Category      Category
	Tier          int
	Cost          int64
	Prerequisites []string
	Unlock        func(progress.View) bool
	Effect        effect.Effect
	Icon          string
}

func (t Tech) Key() string                    { return t.ID }
func (t Tech) Price() float64                 { return float64(t.Cost) }
func (t Tech) Requires() []string             { return t.Prerequisites }
func (t Tech) Available(v progress.View) bool { return t.Unlock == nil || t.Unlock(v) }
func (t Tech) Grants() effect.Effect          { return t.Effect }

func prestigeLevel(n int64) func(progress.View) bool {
	return func(v progress.View) bool { return v.PrestigeLevel >= n }
}

var Catalog = []Tech{
	{ID: "efficient_baking", Name: "Efficient Baking", Description: "Cursors are 10% more efficient", Category: CategoryProduction, Tier: 1,
		Cost: 5, Effect: effect.UpgradeMultiplier{UpgradeID: "cursor", Factor: 1.1}, Icon: "[E1]"},
	{ID: "farm_optimization", Name: "Farm Optimization", Description: "Farms are 10% more efficient", Category: CategoryProduction, Tier: 1,
		Cost: 5, Effect: effect.UpgradeMultiplier{UpgradeID: "farm", Factor: 1.1}, Icon: "[F1]"},
	{ID: "master_baking", Name: "Master Baking", Description: "Cursors are 25% more efficient", Category: CategoryProduction, Tier: 2,
		Cost: 15, Prerequisites: []string{"efficient_baking"}, Effect: effect.UpgradeMultiplier{UpgradeID: "cursor", Factor: 1.25}, Icon: "[E2]"},
	{ID: "industrial_farming", Name: "Industrial Farming", Description: "Farms are 25% more efficient", Category: CategoryProduction, Tier: 2,
		Cost: 15, Prerequisites: []string{"farm_optimization"}, Effect: effect.UpgradeMultiplier{UpgradeID: "farm", Factor: 1.25}, Icon: "[F2]"},
	{ID: "grandma_training", Name: "Grandma Training", Description: "Grandmas are 20% more efficient", Category: CategoryProduction, Tier: 2,
		Cost: 10, Effect: effect.UpgradeMultiplier{UpgradeID: "grandma", Factor: 1.2}, Icon: "[G1]"},
	{ID: "advanced_mining", Name: "Advanced Mining", Description: "Mines are 30% more efficient", Category: CategoryProduction, Tier: 3,
		Cost: 40, Prerequisites: []string{"industrial_farming"}, Effect: effect.UpgradeMultiplier{UpgradeID: "mine", Factor: 1.3}, Icon: "[M1]"},
	{ID: "factory_automation", Name: "Factory Automation", Description: "Factories are 40% more efficient", Category: CategoryProduction, Tier: 3,
		Cost: 40, Prerequisites: []string{"industrial_farming"}, Effect: effect.UpgradeMultiplier{UpgradeID: "factory", Factor: 1.4}, Icon: "[FA]"},

	{ID: "automation_basics", Name: "Automation Basics", Description: "Unlock automation features", Category: CategoryTechnology, Tier: 1,
		Cost: 5, Effect: effect.FeatureUnlock{Feature: effect.FeatureAutomation}, Icon: "[A1]"},
	{ID: "click_enhancer", Name: "Click Enhancer", Description: "Upgrade-based click power increased by 50%", Category: CategoryTechnology, Tier: 1,
		Cost: 10, Effect: effect.ClickMultiplier{Factor: 1.5}, Icon: "[C+]"},
	{ID: "auto_upgrade_1", Name: "Auto-Upgrade I", Description: "Option to auto-buy cheapest affordable upgrade", Category: CategoryTechnology, Tier: 2,
		Cost: 20, Prerequisites: []string{"automation_basics"}, Effect: effect.FeatureUnlock{Feature: effect.FeatureAutoUpgrade}, Icon: "[AU]"},
	{ID: "advanced_clicking", Name: "Advanced Clicking", Description: "Upgrade-based click power increased by 100%", Category: CategoryTechnology, Tier: 2,
		Cost: 25, Prerequisites: []string{"click_enhancer"}, Effect: effect.ClickMultiplier{Factor: 2.0}, Icon: "[C++]"},

	{ID: "golden_studies", Name: "Golden Studies", Description: "Begin studying golden cookies", Category: CategoryGolden, Tier: 1,
		Cost: 5, Effect: effect.FeatureUnlock{Feature: effect.FeatureGoldenStudies}, Icon: "[GS]"},
	{ID: "golden_detection", Name: "Golden Detection", Description: "Warning 3 seconds before a golden cookie spawns", Category: CategoryGolden, Tier: 2,
		Cost: 15, Prerequisites: []string{"golden_studies"}, Effect: effect.FeatureUnlock{Feature: effect.FeatureGoldenWarning}, Icon: "[GD]"},
	{ID: "golden_extension", Name: "Golden Extension", Description: "+5 seconds to golden cookie duration", Category: CategoryGolden, Tier: 2,
		Cost: 15, Prerequisites: []string{"golden_studies"}, Effect: effect.GoldenDurationBonus{Extra: 5 * time.Second}, Icon: "[GE]"},
	{ID: "golden_mastery", Name: "Golden Mastery", Description: "Golden cookie multiplier +2", Category: CategoryGolden, Tier: 3,
		Cost: 40, Prerequisites: []string{"golden_detection", "golden_extension"}, Effect: effect.GoldenMultiplierBonus{Amount: 2}, Icon: "[GM]"},

	{ID: "prestige_efficiency", Name: "Prestige Efficiency", Description: "Earn 10% more prestige points", Category: CategoryPrestige, Tier: 1,
		Cost: 10, Unlock: prestigeLevel(1), Effect: effect.PrestigePointMultiplier{Factor: 1.1}, Icon: "[PE]"},
	{ID: "fast_start", Name: "Fast Start", Description: "Begin each prestige with 5000 cookies", Category: CategoryPrestige, Tier: 1,
		Cost: 15, Unlock: prestigeLevel(1), Effect: effect.StartingCookies{Amount: 5000}, Icon: "[FS]"},
	{ID: "prestige_mastery", Name: "Prestige Mastery", Description: "Earn 25% more prestige points", Category: CategoryPrestige, Tier: 2,
		Cost: 30, Prerequisites: []string{"prestige_efficiency"}, Unlock: prestigeLevel(5), Effect: effect.PrestigePointMultiplier{Factor: 1.25}, Icon: "[PM]"},
	{ID: "prestige_boost", Name: "Prestige Boost", Description: "Prestige multiplier increased by 50%", Category: CategoryPrestige, Tier: 2,
		Cost: 35, Prerequisites: []string{"prestige_efficiency"}, Unlock: prestigeLevel(3), Effect: effect.PrestigeBonusMultiplier{Factor: 1.5}, Icon: "[PB]"},
}
