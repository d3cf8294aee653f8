// Package threat defines random threats, challenges, defensive upgrades and
// player abilities, plus the pure probability and damage rules around them.
// This package is PURE and must NOT import any infrastructure packages.
package threat

import (
	"math"
	"time"

	"github.com/KottenAlin/reb-wbsite/internal/domain/effect"
	"github.com/KottenAlin/reb-wbsite/internal/domain/progress"
)

type Kind string

const (
	KindInstant   Kind = "instant"
	KindDuration  Kind = "duration"
	KindChallenge Kind = "challenge"
)

type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Metric is what a challenge counts.
type Metric string

const (
	MetricClicks        Metric = "clicks"
	MetricGoldenCookies Metric = "golden_cookies"
)

// Debuff is the temporary effect of a duration threat.
type Debuff struct {
	CPSMultiplier   float64 `json:"cps_multiplier,omitempty"`
	DisabledUpgrade string  `json:"disabled_upgrade,omitempty"`
}

// Requirement is the goal of a challenge within its duration.
type Requirement struct {
	Metric Metric `json:"metric"`
	Count  int    `json:"count"`
}

// Reward is granted when a challenge completes.
type Reward struct {
	CPSBonus      float64       `json:"cps_bonus,omitempty"`
	BonusDuration time.Duration `json:"bonus_duration,omitempty"`
	Cookies       float64       `json:"cookies,omitempty"`
}

// Threat is one entry of the threat catalog. Loss is set for instant threats,
// Debuff for duration threats, Requirement and Reward for challenges.
type Threat struct {
	ID            string
	Name          string
	Description   string
	Kind          Kind
	Severity      Severity
	Probability   float64
	CheckInterval time.Duration
	Duration      time.Duration
	Icon          string
	Message       string // announced when a duration threat starts

	Eligible    func(progress.View) bool
	Loss        func(progress.View) float64
	Debuff      Debuff
	Requirement Requirement
	Reward      func(progress.View) Reward
}

const (
	CookieThiefID      = "cookie_thief"
	CookieSpoilageID   = "cookie_spoilage"
	OvenBreakdownID    = "oven_breakdown"
	GrandmaStrikeID    = "grandma_strike"
	ClickFrenzyID      = "click_frenzy_challenge"
	GoldenCookieRushID = "golden_cookie_rush"
)

var Catalog = []Threat{
	{
		ID: CookieThiefID, Name: "Cookie Thief!", Description: "A thief stole some of your cookies!",
		Kind: KindInstant, Severity: SeverityMedium, Probability: 0.10, CheckInterval: 5 * time.Minute, Icon: "[!T]",
		Loss: func(v progress.View) float64 { return math.Floor(v.CookieCount * 0.05) },
	},
	{
		ID: CookieSpoilageID, Name: "Cookie Spoilage!", Description: "Some cookies have gone bad!",
		Kind: KindInstant, Severity: SeverityHigh, Probability: 0.03, CheckInterval: 20 * time.Minute, Icon: "[!S]",
		Eligible: func(v progress.View) bool { return v.TotalCookiesEarned >= 10_000_000 },
		Loss:     func(v progress.View) float64 { return math.Floor(v.TotalCookiesEarned * 0.10) },
	},
	{
		ID: OvenBreakdownID, Name: "Oven Breakdown!", Description: "Your oven is smoking!",
		Kind: KindDuration, Severity: SeverityMedium, Probability: 0.05, CheckInterval: 10 * time.Minute,
		Duration: 30 * time.Second, Icon: "[!O]", Message: "CPS reduced by 50% for 30 seconds!",
		Debuff: Debuff{CPSMultiplier: 0.5},
	},
	{
		ID: GrandmaStrikeID, Name: "Grandma Strike!", Description: "The grandmas demand better working conditions!",
		Kind: KindDuration, Severity: SeverityMedium, Probability: 0.05, CheckInterval: 15 * time.Minute,
		Duration: 60 * time.Second, Icon: "[!G]", Message: "Grandmas stopped working for 60 seconds!",
		Eligible: func(v progress.View) bool { return v.Owned("grandma") > 0 },
		Debuff:   Debuff{DisabledUpgrade: "grandma"},
	},
	{
		ID: ClickFrenzyID, Name: "Click Frenzy!", Description: "Click 50 times in 10 seconds for bonus!",
		Kind: KindChallenge, Severity: SeverityLow, Probability: 0.08, CheckInterval: 10 * time.Minute,
		Duration: 10 * time.Second, Icon: "[C!]",
		Requirement: Requirement{Metric: MetricClicks, Count: 50},
		Reward: func(progress.View) Reward {
			return Reward{CPSBonus: 2, BonusDuration: 60 * time.Second}
		},
	},
	{
		ID: GoldenCookieRushID, Name: "Golden Cookie Rush!", Description: "Collect 5 golden cookies in 30 seconds!",
		Kind: KindChallenge, Severity: SeverityLow, Probability: 0.05, CheckInterval: 15 * time.Minute,
		Duration: 30 * time.Second, Icon: "[G!]",
		Eligible:    func(v progress.View) bool { return v.GoldenCookiesCollected >= 10 },
		Requirement: Requirement{Metric: MetricGoldenCookies, Count: 5},
		Reward: func(v progress.View) Reward {
			return Reward{Cookies: v.TotalCookiesEarned * 0.01}
		},
	},
}

var byID = func() map[string]Threat {
	m := make(map[string]Threat, len(Catalog))
	for _, t := range Catalog {
		m[t.ID] = t
	}
	return m
}()

// ByID looks up a threat.
func ByID(id string) (Threat, bool) {
	t, ok := byID[id]
	return t, ok
}

// Available filters the catalog down to threats that may roll for v.
func Available(v progress.View) []Threat {
	out := make([]Threat, 0, len(Catalog))
	for _, t := range Catalog {
		if t.Eligible == nil || t.Eligible(v) {
			out = append(out, t)
		}
	}
	return out
}

// Defense is a one-time purchase protecting against specific threats, either
// by preventing them outright or by reducing their damage.
type Defense struct {
	ID              string
	Name            string
	Description     string
	Cost            float64
	ProtectsAgainst []string
	Reduction       float64
	Prevention      bool
	Icon            string
}

func (d Defense) Key() string                  { return d.ID }
func (d Defense) Price() float64               { return d.Cost }
func (d Defense) Requires() []string           { return nil }
func (d Defense) Available(progress.View) bool { return true }
func (d Defense) Grants() effect.Effect        { return nil }

// Protects reports whether d covers the given threat.
func (d Defense) Protects(threatID string) bool {
	for _, id := range d.ProtectsAgainst {
		if id == threatID {
			return true
		}
	}
	return false
}

var Defenses = []Defense{
	{ID: "cookie_insurance", Name: "Cookie Insurance", Description: "Reduces theft damage from 5% to 2%",
		Cost: 500000, ProtectsAgainst: []string{CookieThiefID}, Reduction: 0.6, Icon: "[I]"},
	{ID: "backup_generator", Name: "Backup Generator", Description: "Prevents oven breakdowns",
		Cost: 750000, ProtectsAgainst: []string{OvenBreakdownID}, Prevention: true, Icon: "[B]"},
	{ID: "union_negotiator", Name: "Union Negotiator", Description: "Prevents grandma strikes",
		Cost: 1000000, ProtectsAgainst: []string{GrandmaStrikeID}, Prevention: true, Icon: "[U]"},
	{ID: "preservatives", Name: "Preservatives", Description: "Prevents cookie spoilage",
		Cost: 1500000, ProtectsAgainst: []string{CookieSpoilageID}, Prevention: true, Icon: "[P]"},
}

// Probability is the effective roll chance: zero when an owned defense
// prevents the threat.
func Probability(t Threat, owned map[string]bool) float64 {
	for _, d := range Defenses {
		if d.Prevention && owned[d.ID] && d.Protects(t.ID) {
			return 0
		}
	}
	return t.Probability
}

// Damage reduces raw damage by the first owned defense covering t and by the
// general reduction, then floors.
func Damage(t Threat, raw float64, owned map[string]bool, general effect.Defense) float64 {
	final := raw
	for _, d := range Defenses {
		if owned[d.ID] && d.Protects(t.ID) && d.Reduction > 0 {
			final *= 1 - d.Reduction
			break
		}
	}
	final *= general.Remaining()
	if final < 0 {
		return 0
	}
	return math.Floor(final)
}

// Ability is a player-activated effect with a cooldown.
type Ability struct {
	ID          string
	Name        string
	Description string
	Duration    time.Duration
	Cooldown    time.Duration
	Multiplier  float64
	Icon        string
}

const (
	CookieShieldID        = "cookie_shield"
	EmergencyProductionID = "emergency_production"
)

var Abilities = []Ability{
	{ID: CookieShieldID, Name: "Cookie Shield", Description: "60-second immunity to all threats",
		Duration: 60 * time.Second, Cooldown: 10 * time.Minute, Icon: "[S]"},
	{ID: EmergencyProductionID, Name: "Emergency Production", Description: "10x CPS for 10 seconds",
		Duration: 10 * time.Second, Cooldown: 5 * time.Minute, Multiplier: 10, Icon: "[E]"},
}

// AbilityByID looks up an ability.
func AbilityByID(id string) (Ability, bool) {
	for _, a := range Abilities {
		if a.ID == id {
			return a, true
		}
	}
	return Ability{}, false
}
