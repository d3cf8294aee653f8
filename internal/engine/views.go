package engine

import (
	"sort"

	"github.com/KottenAlin/reb-wbsite/internal/domain/achievement"
	"github.com/KottenAlin/reb-wbsite/internal/domain/prestige"
	"github.com/KottenAlin/reb-wbsite/internal/domain/special"
	"github.com/KottenAlin/reb-wbsite/internal/domain/tech"
	"github.com/KottenAlin/reb-wbsite/internal/domain/threat"
	"github.com/KottenAlin/reb-wbsite/internal/domain/upgrade"
)

// UpgradeStatus is a base upgrade with its next price.
type UpgradeStatus struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Icon        string  `json:"icon"`
	Tier        int     `json:"tier"`
	CPS         float64 `json:"cps"`
	Quantity    int     `json:"quantity"`
	Cost        float64 `json:"cost"`
	CanAfford   bool    `json:"can_afford"`
}

// OfferStatus describes a one-time purchase for the shop.
type OfferStatus struct {
	ID               string  `json:"id"`
	Name             string  `json:"name"`
	Description      string  `json:"description"`
	Icon             string  `json:"icon"`
	Category         string  `json:"category,omitempty"`
	Tier             int     `json:"tier,omitempty"`
	Cost             float64 `json:"cost"`
	Owned            bool    `json:"owned"`
	Unlocked         bool    `json:"unlocked"`
	PrerequisitesMet bool    `json:"prerequisites_met"`
	CanAfford        bool    `json:"can_afford"`
}

// ResearchStats summarizes the tech tree.
type ResearchStats struct {
	Total        int `json:"total"`
	Researched   int `json:"researched"`
	Unlocked     int `json:"unlocked"`
	Researchable int `json:"researchable"`
	Percentage   int `json:"percentage"`
}

type PrestigeStatus struct {
	Level       int64   `json:"level"`
	Points      int64   `json:"points"`
	Lifetime    int64   `json:"lifetime"`
	Multiplier  float64 `json:"multiplier"`
	CanPrestige bool    `json:"can_prestige"`
	NextPoints  int64   `json:"next_points"`
}

type AbilityStatus struct {
	ID                  string `json:"id"`
	Name                string `json:"name"`
	Description         string `json:"description"`
	Icon                string `json:"icon"`
	Ready               bool   `json:"ready"`
	CooldownRemainingMS int64  `json:"cooldown_remaining_ms"`
}

// State is the complete read model pushed to clients.
type State struct {
	Running                   bool    `json:"running"`
	CookieCount               float64 `json:"cookie_count"`
	TotalCookiesEarned        float64 `json:"total_cookies_earned"`
	TotalClicks               int64   `json:"total_clicks"`
	PlayTime                  int64   `json:"play_time"`
	CookiesPerSecond          float64 `json:"cookies_per_second"`
	EffectiveCookiesPerSecond float64 `json:"effective_cookies_per_second"`
	ClickPower                float64 `json:"click_power"`
	AutoBuy                   bool    `json:"auto_buy"`
	TechPoints                int64   `json:"tech_points"`

	Upgrades         []UpgradeStatus     `json:"upgrades"`
	SpecialUpgrades  []OfferStatus       `json:"special_upgrades"`
	PrestigeUpgrades []OfferStatus       `json:"prestige_upgrades"`
	Research         []OfferStatus       `json:"research"`
	Defenses         []OfferStatus       `json:"defenses"`
	Abilities        []AbilityStatus     `json:"abilities"`
	ResearchStats    ResearchStats       `json:"research_stats"`
	Prestige         PrestigeStatus      `json:"prestige"`
	Golden           GoldenCookieState   `json:"golden"`
	Threats          ThreatState         `json:"threats"`
	Achievements     achievement.Summary `json:"achievements"`
	NewAchievements  []string            `json:"new_achievements"`
	Features         []string            `json:"features"`
}

// State builds the read model under one lock so every field is consistent.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()

	m := e.resolve()
	return State{
		Running:                   e.sched.Running(),
		CookieCount:               e.res.CookieCount,
		TotalCookiesEarned:        e.res.TotalCookiesEarned,
		TotalClicks:               e.res.TotalClicks,
		PlayTime:                  e.res.PlayTime,
		CookiesPerSecond:          e.cookiesPerSecond(m),
		EffectiveCookiesPerSecond: e.productionRate(m) * e.bonus.Multiplier(),
		ClickPower:                e.clickPowerLocked(m),
		AutoBuy:                   e.autoBuy,
		TechPoints:                e.techPointsLocked(),

		Upgrades:         e.upgradesWithCostsLocked(m),
		SpecialUpgrades:  e.specialStatusLocked(),
		PrestigeUpgrades: e.prestigeStatusLocked(),
		Research:         e.techStatusLocked(),
		Defenses:         e.defenseStatusLocked(),
		Abilities:        e.abilityStatusLocked(),
		ResearchStats:    e.researchStatsLocked(),
		Prestige:         e.prestigeStatusSummaryLocked(m),
		Golden:           e.golden.State(),
		Threats:          e.threats.State(),
		Achievements:     e.achievements.Stats(),
		NewAchievements:  e.achievements.Pending(),
		Features:         e.unlockedFeaturesLocked(m),
	}
}

// UpgradesWithCosts lists base upgrades with quantity and next price.
func (e *Engine) UpgradesWithCosts() []UpgradeStatus {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.upgradesWithCostsLocked(e.resolve())
}

func (e *Engine) upgradesWithCostsLocked(m modifiers) []UpgradeStatus {
	out := make([]UpgradeStatus, 0, len(upgrade.Catalog))
	for _, u := range upgrade.Catalog {
		cost, _ := e.upgrades.Cost(u.ID, m.cost.Reduction)
		out = append(out, UpgradeStatus{
			ID:          u.ID,
			Name:        u.Name,
			Description: u.Description,
			Icon:        u.Icon,
			Tier:        u.Tier,
			CPS:         u.CPS,
			Quantity:    e.upgrades.Quantity(u.ID),
			Cost:        cost,
			CanAfford:   e.res.CookieCount >= cost,
		})
	}
	return out
}

// SpecialUpgradeStatus lists the special upgrade shop. Locked entries are
// included with Unlocked false.
func (e *Engine) SpecialUpgradeStatus() []OfferStatus {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.specialStatusLocked()
}

func (e *Engine) specialStatusLocked() []OfferStatus {
	v := e.view()
	out := make([]OfferStatus, 0, len(special.Catalog))
	for _, u := range e.specials.Catalog() {
		out = append(out, OfferStatus{
			ID:               u.ID,
			Name:             u.Name,
			Description:      u.Description,
			Icon:             u.Icon,
			Category:         string(u.Category),
			Cost:             u.Cost,
			Owned:            e.specials.Owns(u.ID),
			Unlocked:         e.specials.Unlocked(u, v),
			PrerequisitesMet: e.specials.PrerequisitesMet(u),
			CanAfford:        e.specials.CanAfford(u, e.res.CookieCount, v),
		})
	}
	return out
}

// PrestigeUpgradeStatus lists the prestige shop.
func (e *Engine) PrestigeUpgradeStatus() []OfferStatus {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.prestigeStatusLocked()
}

func (e *Engine) prestigeStatusLocked() []OfferStatus {
	v := e.view()
	points := float64(e.prestige.Points)
	out := make([]OfferStatus, 0, len(prestige.Catalog))
	for _, u := range e.prestigeUpgrades.Catalog() {
		out = append(out, OfferStatus{
			ID:               u.ID,
			Name:             u.Name,
			Description:      u.Description,
			Icon:             u.Icon,
			Category:         string(u.Category),
			Cost:             float64(u.Cost),
			Owned:            e.prestigeUpgrades.Owns(u.ID),
			Unlocked:         e.prestigeUpgrades.Unlocked(u, v),
			PrerequisitesMet: e.prestigeUpgrades.PrerequisitesMet(u),
			CanAfford:        e.prestigeUpgrades.CanAfford(u, points, v),
		})
	}
	return out
}

// TechStatus lists the research tree. Prestige-gated techs see the same
// prestige level as every other predicate since they share the engine view.
func (e *Engine) TechStatus() []OfferStatus {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.techStatusLocked()
}

func (e *Engine) techStatusLocked() []OfferStatus {
	v := e.view()
	points := float64(availableTechPoints(e.res.TotalCookiesEarned, e.techSpent))
	out := make([]OfferStatus, 0, len(tech.Catalog))
	for _, t := range e.techs.Catalog() {
		out = append(out, OfferStatus{
			ID:               t.ID,
			Name:             t.Name,
			Description:      t.Description,
			Icon:             t.Icon,
			Category:         string(t.Category),
			Tier:             t.Tier,
			Cost:             float64(t.Cost),
			Owned:            e.techs.Owns(t.ID),
			Unlocked:         t.Available(v),
			PrerequisitesMet: e.techs.PrerequisitesMet(t),
			CanAfford:        e.techs.CanAfford(t, points, v),
		})
	}
	return out
}

func (e *Engine) defenseStatusLocked() []OfferStatus {
	v := e.view()
	out := make([]OfferStatus, 0, len(threat.Defenses))
	for _, d := range e.defenses.Catalog() {
		out = append(out, OfferStatus{
			ID:               d.ID,
			Name:             d.Name,
			Description:      d.Description,
			Icon:             d.Icon,
			Cost:             d.Cost,
			Owned:            e.defenses.Owns(d.ID),
			Unlocked:         true,
			PrerequisitesMet: true,
			CanAfford:        e.defenses.CanAfford(d, e.res.CookieCount, v),
		})
	}
	return out
}

func (e *Engine) abilityStatusLocked() []AbilityStatus {
	out := make([]AbilityStatus, 0, len(threat.Abilities))
	for _, a := range threat.Abilities {
		left := e.threats.CooldownRemaining(a.ID)
		out = append(out, AbilityStatus{
			ID:                  a.ID,
			Name:                a.Name,
			Description:         a.Description,
			Icon:                a.Icon,
			Ready:               left == 0,
			CooldownRemainingMS: ms(left),
		})
	}
	return out
}

// ResearchStats counts tech tree progress.
func (e *Engine) ResearchStats() ResearchStats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.researchStatsLocked()
}

func (e *Engine) researchStatsLocked() ResearchStats {
	v := e.view()
	points := float64(availableTechPoints(e.res.TotalCookiesEarned, e.techSpent))
	s := ResearchStats{Total: len(tech.Catalog)}
	for _, t := range e.techs.Catalog() {
		if e.techs.Owns(t.ID) {
			s.Researched++
		}
		if e.techs.Unlocked(t, v) {
			s.Unlocked++
		}
		if e.techs.CanAfford(t, points, v) {
			s.Researchable++
		}
	}
	if s.Total > 0 {
		s.Percentage = s.Researched * 100 / s.Total
	}
	return s
}

// TechPoints is the spendable research balance, never below zero.
func (e *Engine) TechPoints() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.techPointsLocked()
}

func (e *Engine) techPointsLocked() int64 {
	return max(availableTechPoints(e.res.TotalCookiesEarned, e.techSpent), 0)
}

func (e *Engine) prestigeStatusSummaryLocked(m modifiers) PrestigeStatus {
	return PrestigeStatus{
		Level:       e.prestige.Level,
		Points:      e.prestige.Points,
		Lifetime:    e.prestige.Lifetime,
		Multiplier:  e.prestigeMultiplier(m),
		CanPrestige: e.res.TotalCookiesEarned >= prestige.Threshold,
		NextPoints:  prestige.Award(e.res.TotalCookiesEarned, m.prestige.PointMultiplier),
	}
}

// AchievementStats reports unlock progress overall and per category.
func (e *Engine) AchievementStats() achievement.Summary {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.achievements.Stats()
}

// UnlockedFeatures lists researched feature flags in name order.
func (e *Engine) UnlockedFeatures() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.unlockedFeaturesLocked(e.resolve())
}

func (e *Engine) unlockedFeaturesLocked(m modifiers) []string {
	out := make([]string, 0, len(m.features))
	for f, on := range m.features {
		if on {
			out = append(out, string(f))
		}
	}
	sort.Strings(out)
	return out
}

// ThreatHistory returns resolved threats and challenges, most recent first.
func (e *Engine) ThreatHistory() []HistoryEntry {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.threats.History()
}
