// Package progress defines the read-only projection of the simulation state.
// This package is PURE and must NOT import any infrastructure packages.
package progress

// View is a value snapshot of the simulation handed to unlock conditions,
// threat eligibility checks and achievement predicates. Mutating a View never
// affects the engine it came from.
type View struct {
	CookieCount            float64        `json:"cookie_count"`
	TotalCookiesEarned     float64        `json:"total_cookies_earned"`
	TotalClicks            int64          `json:"total_clicks"`
	PlayTime               int64          `json:"play_time"` // seconds
	CookiesPerSecond       float64        `json:"cookies_per_second"`
	Upgrades               map[string]int `json:"upgrades"`
	GoldenCookiesCollected int64          `json:"golden_cookies_collected"`
	PrestigeLevel          int64          `json:"prestige_level"`
	SpeedClickRecord       int            `json:"speed_click_record"` // best clicks in 1s
	ClickComboRecord       int            `json:"click_combo_record"` // best clicks in 10s
}

// Owned returns the quantity of a base upgrade.
func (v View) Owned(upgradeID string) int {
	return v.Upgrades[upgradeID]
}

// TotalUpgrades sums every base upgrade quantity.
func (v View) TotalUpgrades() int {
	total := 0
	for _, q := range v.Upgrades {
		total += q
	}
	return total
}

// OnlyOwns reports whether upgradeID is owned and nothing else is.
func (v View) OnlyOwns(upgradeID string) bool {
	if v.Upgrades[upgradeID] <= 0 {
		return false
	}
	for id, q := range v.Upgrades {
		if id != upgradeID && q > 0 {
			return false
		}
	}
	return true
}

// OwnsEach reports whether at least one of every listed upgrade is owned.
func (v View) OwnsEach(upgradeIDs []string) bool {
	for _, id := range upgradeIDs {
		if v.Upgrades[id] < 1 {
			return false
		}
	}
	return true
}
