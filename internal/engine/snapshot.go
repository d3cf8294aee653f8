package engine

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/KottenAlin/reb-wbsite/internal/domain/effect"
)

// SaveState is the flat persisted snapshot of an engine. Every field is
// optional on load: a missing field takes its zero default, and a missing
// golden bonus multiplier means no bonus.
type SaveState struct {
	CookieCount        float64 `json:"cookieCount"`
	TotalCookiesEarned float64 `json:"totalCookiesEarned"`
	TotalClicks        int64   `json:"totalClicks"`
	PlayTime           int64   `json:"playTime"`
	GameTime           int64   `json:"gameTime"` // game-time ms; anchors every deadline below

	Upgrades          map[string]int `json:"upgrades"`
	SpecialUpgrades   []string       `json:"specialUpgrades"`
	PrestigeUpgrades  []string       `json:"prestigeUpgrades"`
	DefensiveUpgrades []string       `json:"defensiveUpgrades"`
	ResearchedTech    []string       `json:"researchedTech"`
	TechPointsSpent   int64          `json:"techPointsSpent"`

	PrestigeLevel          int64 `json:"prestigeLevel"`
	PrestigePoints         int64 `json:"prestigePoints"`
	LifetimePrestigePoints int64 `json:"lifetimePrestigePoints"`

	GoldenCookiesCollected      int64   `json:"goldenCookiesCollected"`
	GoldenBonusMultiplier       float64 `json:"goldenBonusMultiplier"`
	GoldenBonusSecondsRemaining int     `json:"goldenBonusSecondsRemaining"`

	SpeedClickRecord int `json:"speedClickRecord"`
	ClickComboRecord int `json:"clickComboRecord"`

	Achievements []string    `json:"achievements"`
	AutoBuy      bool        `json:"autoBuy"`
	Threats      ThreatState `json:"threats"`

	Timestamp int64 `json:"timestamp"` // wall clock, unix ms

	// Defaulted names the fields DecodeSave could not read.
	Defaulted []string `json:"-"`
}

// DecodeSave parses a snapshot. Only malformed JSON is an error. Fields are
// decoded one at a time: absent fields default, and a field whose value has
// the wrong shape defaults too and is listed in Defaulted.
func DecodeSave(data []byte) (SaveState, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return SaveState{}, fmt.Errorf("decode save: %w", err)
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var s SaveState
	for _, key := range keys {
		one, err := json.Marshal(map[string]json.RawMessage{key: fields[key]})
		if err != nil {
			s.Defaulted = append(s.Defaulted, key)
			continue
		}
		next := s
		if err := json.Unmarshal(one, &next); err != nil {
			s.Defaulted = append(s.Defaulted, key)
			continue
		}
		s = next
	}
	return s, nil
}

// Encode renders the snapshot as JSON.
func (s SaveState) Encode() ([]byte, error) {
	return json.Marshal(s)
}

// Save captures the full simulation state.
func (e *Engine) Save() SaveState {
	e.mu.Lock()
	defer e.mu.Unlock()

	speed, combo := e.clicks.records()
	golden := e.golden.State()
	return SaveState{
		CookieCount:        e.res.CookieCount,
		TotalCookiesEarned: e.res.TotalCookiesEarned,
		TotalClicks:        e.res.TotalClicks,
		PlayTime:           e.res.PlayTime,
		GameTime:           ms(e.sched.Now()),

		Upgrades:          e.upgrades.Quantities(),
		SpecialUpgrades:   e.specials.OwnedIDs(),
		PrestigeUpgrades:  e.prestigeUpgrades.OwnedIDs(),
		DefensiveUpgrades: e.defenses.OwnedIDs(),
		ResearchedTech:    e.techs.OwnedIDs(),
		TechPointsSpent:   e.techSpent,

		PrestigeLevel:          e.prestige.Level,
		PrestigePoints:         e.prestige.Points,
		LifetimePrestigePoints: e.prestige.Lifetime,

		GoldenCookiesCollected:      golden.Collected,
		GoldenBonusMultiplier:       golden.BonusMultiplier,
		GoldenBonusSecondsRemaining: golden.BonusSecondsRemaining,

		SpeedClickRecord: speed,
		ClickComboRecord: combo,

		Achievements: sortedCopy(e.achievements.Unlocked()),
		AutoBuy:      e.autoBuy,
		Threats:      e.threats.Save(),

		Timestamp: e.clock.Now().UnixMilli(),
	}
}

// Restore replaces the simulation state with s, clamping out-of-range
// values. Game time continues from the saved game time; a started engine
// re-arms its timers immediately. Achievements are restored silently.
func (e *Engine) Restore(s SaveState) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.sched.Rebase(fromMS(nonNegative(s.GameTime)))

	e.res = resources{
		CookieCount:        clampFloat(s.CookieCount),
		TotalCookiesEarned: clampFloat(s.TotalCookiesEarned),
		TotalClicks:        nonNegative(s.TotalClicks),
		PlayTime:           nonNegative(s.PlayTime),
	}
	if e.res.TotalCookiesEarned < e.res.CookieCount {
		e.res.TotalCookiesEarned = e.res.CookieCount
	}

	e.upgrades.Restore(s.Upgrades)
	e.specials.Restore(s.SpecialUpgrades)
	e.prestigeUpgrades.Restore(s.PrestigeUpgrades)
	e.defenses.Restore(s.DefensiveUpgrades)
	e.techs.Restore(s.ResearchedTech)
	e.techSpent = nonNegative(s.TechPointsSpent)

	e.prestige = prestigeState{
		Level:    nonNegative(s.PrestigeLevel),
		Points:   nonNegative(s.PrestigePoints),
		Lifetime: nonNegative(s.LifetimePrestigePoints),
	}
	if e.prestige.Lifetime < e.prestige.Points {
		e.prestige.Lifetime = e.prestige.Points
	}

	e.golden.Restore(nonNegative(s.GoldenCookiesCollected), s.GoldenBonusMultiplier, s.GoldenBonusSecondsRemaining)
	e.clicks.clear()
	e.clicks.restore(max(s.SpeedClickRecord, 0), max(s.ClickComboRecord, 0))
	e.achievements.Restore(s.Achievements)
	e.threats.Restore(s.Threats)
	e.autoBuy = s.AutoBuy && e.featureUnlocked(effect.FeatureAutoUpgrade)

	if e.started {
		e.armLocked()
	}
	e.logger.Info(fmt.Sprintf("Save restored at game time %dms", s.GameTime))
}

func clampFloat(v float64) float64 {
	if v < 0 || v != v {
		return 0
	}
	return v
}

func nonNegative(v int64) int64 {
	if v < 0 {
		return 0
	}
	return v
}

func sortedCopy(ids []string) []string {
	out := append([]string(nil), ids...)
	sort.Strings(out)
	return out
}
