// Package upgrade holds the catalog of repeatable production buildings.
// This package is PURE and must NOT import any infrastructure packages.
package upgrade

import "math"

// CostMultiplier is the price growth per owned unit.
const CostMultiplier = 1.15

// CursorID is the upgrade that also raises click power.
const (
	CursorID  = "cursor"
	GrandmaID = "grandma"
)

// CursorClickBonus is the click power added per owned cursor.
const CursorClickBonus = 0.1

// Upgrade is a repeatable purchase with a fixed per-unit production.
type Upgrade struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	BaseCost    float64 `json:"base_cost"`
	CPS         float64 `json:"cps"`
	Icon        string  `json:"icon"`
	Tier        int     `json:"tier"`
}

// Catalog lists base upgrades in display order.
var Catalog = []Upgrade{
	{ID: "cursor", Name: "Cursor", Description: "Auto-clicks once every 10 seconds", BaseCost: 15, CPS: 0.1, Icon: ">_", Tier: 1},
	{ID: "grandma", Name: "Grandma", Description: "A nice grandma to bake more cookies", BaseCost: 100, CPS: 1, Icon: "&", Tier: 1},
	{ID: "farm", Name: "Farm", Description: "Grows cookie plants for steady production", BaseCost: 1100, CPS: 8, Icon: "#", Tier: 2},
	{ID: "mine", Name: "Mine", Description: "Mines cookie dough from deep underground", BaseCost: 12000, CPS: 47, Icon: "%", Tier: 2},
	{ID: "factory", Name: "Factory", Description: "Mass produces cookies on assembly lines", BaseCost: 130000, CPS: 260, Icon: "=", Tier: 3},
	{ID: "bank", Name: "Bank", Description: "Generates cookie interest continuously", BaseCost: 1400000, CPS: 1400, Icon: "@", Tier: 3},
	{ID: "temple", Name: "Temple", Description: "Pray to the cookie gods for blessings", BaseCost: 20000000, CPS: 7800, Icon: "^", Tier: 4},
	{ID: "wizard_tower", Name: "Wizard Tower", Description: "Summon cookies from other dimensions", BaseCost: 330000000, CPS: 44000, Icon: "!", Tier: 4},
}

var byID = func() map[string]Upgrade {
	m := make(map[string]Upgrade, len(Catalog))
	for _, u := range Catalog {
		m[u.ID] = u
	}
	return m
}()

// ByID looks up a catalog entry.
func ByID(id string) (Upgrade, bool) {
	u, ok := byID[id]
	return u, ok
}

// Cost is floor(baseCost * 1.15^quantity).
func Cost(baseCost float64, quantity int) float64 {
	return DiscountedCost(baseCost, quantity, 0)
}

// DiscountedCost applies a fractional reduction before flooring.
func DiscountedCost(baseCost float64, quantity int, reduction float64) float64 {
	return math.Floor(baseCost * math.Pow(CostMultiplier, float64(quantity)) * (1 - reduction))
}

// ClickPower is the base click value for the owned cursors.
func ClickPower(cursors int) float64 {
	return 1 + float64(cursors)*CursorClickBonus
}
