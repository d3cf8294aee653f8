package engine

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/KottenAlin/reb-wbsite/internal/domain/effect"
	"github.com/KottenAlin/reb-wbsite/internal/domain/progress"
	"github.com/KottenAlin/reb-wbsite/internal/domain/threat"
	"github.com/KottenAlin/reb-wbsite/internal/events"
	"github.com/KottenAlin/reb-wbsite/internal/platform/config"
	"github.com/KottenAlin/reb-wbsite/internal/platform/logger"
	"github.com/KottenAlin/reb-wbsite/internal/platform/metrics"
)

// ActiveThreat is a running duration threat. Times are game-time milliseconds.
type ActiveThreat struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	StartedAt int64         `json:"startedAt"`
	EndsAt    int64         `json:"endsAt"`
	Debuff    threat.Debuff `json:"debuff"`
}

// ActiveChallenge is an open timed objective.
type ActiveChallenge struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Metric    threat.Metric `json:"metric"`
	Required  int           `json:"required"`
	Progress  int           `json:"progress"`
	StartedAt int64         `json:"startedAt"`
	Deadline  int64         `json:"deadline"`
}

// Boost is a temporary production multiplier from a challenge reward or an
// ability.
type Boost struct {
	Source     string  `json:"source"`
	Multiplier float64 `json:"multiplier"`
	EndsAt     int64   `json:"endsAt"`
}

type Outcome string

const (
	OutcomeTriggered Outcome = "triggered"
	OutcomeCompleted Outcome = "completed"
	OutcomeFailed    Outcome = "failed"
)

// HistoryEntry is one resolved threat or challenge.
type HistoryEntry struct {
	ThreatID string      `json:"threatId"`
	Name     string      `json:"name"`
	Kind     threat.Kind `json:"kind"`
	Outcome  Outcome     `json:"outcome"`
	Amount   float64     `json:"amount,omitempty"` // cookies lost or won
	At       int64       `json:"at"`               // game time
	Time     time.Time   `json:"time"`
}

// ThreatState is the full persisted state of the threat system.
type ThreatState struct {
	ActiveThreats    []ActiveThreat    `json:"activeThreats"`
	ActiveChallenges []ActiveChallenge `json:"activeChallenges"`
	Boosts           []Boost           `json:"boosts"`
	AbilityCooldowns map[string]int64  `json:"abilityCooldowns"`
	LastCheck        map[string]int64  `json:"lastCheck"`
	ShieldEndsAt     int64             `json:"shieldEndsAt,omitempty"`
	History          []HistoryEntry    `json:"history"`
}

type threatHost interface {
	view() progress.View
	debit(amount float64) float64
	credit(amount float64)
	ownedDefenses() map[string]bool
	defenseModifier() effect.Defense
}

// ThreatSystem polls the threat catalog, applies damage and debuffs, runs
// challenges and tracks abilities. Every deadline is game time, so pausing
// freezes debuffs, challenges and cooldowns alike.
type ThreatSystem struct {
	sched    *Scheduler
	rng      RandomSource
	host     threatHost
	clock    Clock
	notifier Notifier
	logger   *logger.Logger
	cfg      config.Threats

	threats    []ActiveThreat
	challenges []ActiveChallenge
	boosts     []Boost
	cooldowns  map[string]int64
	lastCheck  map[string]int64
	shieldEnds int64
	history    []HistoryEntry

	pollTimer TimerHandle
	expiry    map[string]TimerHandle
}

func NewThreatSystem(sched *Scheduler, rng RandomSource, host threatHost, clock Clock, notifier Notifier, log *logger.Logger, cfg config.Threats) *ThreatSystem {
	return &ThreatSystem{
		sched:     sched,
		rng:       rng,
		host:      host,
		clock:     clock,
		notifier:  notifier,
		logger:    log,
		cfg:       cfg,
		cooldowns: make(map[string]int64),
		lastCheck: make(map[string]int64),
		expiry:    make(map[string]TimerHandle),
	}
}

// Start arms the poll timer and the expiry of every restored debuff,
// challenge, boost and shield.
func (t *ThreatSystem) Start() {
	if !t.sched.Active(t.pollTimer) {
		t.pollTimer = t.sched.Every("threats.poll", t.cfg.PollPeriod, func() {
			t.CheckForThreats(ms(t.sched.Now()))
		})
	}
	for _, a := range t.threats {
		t.armExpiry(threatKey(a.ID), a.EndsAt, t.endThreat(a.ID))
	}
	for _, c := range t.challenges {
		t.armExpiry(challengeKey(c.ID), c.Deadline, t.failChallenge(c.ID))
	}
	for _, b := range t.boosts {
		t.armExpiry(boostKey(b.Source), b.EndsAt, t.endBoost(b.Source))
	}
	if t.shieldEnds > ms(t.sched.Now()) {
		t.armExpiry(shieldKey, t.shieldEnds, t.endShield)
	}
}

// Stop cancels every timer. State is kept.
func (t *ThreatSystem) Stop() {
	t.sched.Cancel(t.pollTimer)
	for key, h := range t.expiry {
		t.sched.Cancel(h)
		delete(t.expiry, key)
	}
}

func threatKey(id string) string    { return "threat:" + id }
func challengeKey(id string) string { return "challenge:" + id }
func boostKey(id string) string     { return "boost:" + id }

const shieldKey = "shield"

// armExpiry (re)arms the one-shot timer stored under key to fire at the game
// time at.
func (t *ThreatSystem) armExpiry(key string, at int64, fn func()) {
	if h, ok := t.expiry[key]; ok {
		if t.sched.Active(h) {
			return
		}
	}
	t.expiry[key] = t.sched.After(key, fromMS(at)-t.sched.Now(), func() {
		delete(t.expiry, key)
		fn()
	})
}

func (t *ThreatSystem) rearmExpiry(key string, at int64, fn func()) {
	if h, ok := t.expiry[key]; ok {
		t.sched.Cancel(h)
		delete(t.expiry, key)
	}
	t.armExpiry(key, at, fn)
}

func (t *ThreatSystem) cancelExpiry(key string) {
	if h, ok := t.expiry[key]; ok {
		t.sched.Cancel(h)
		delete(t.expiry, key)
	}
}

// CheckForThreats rolls every eligible threat whose check interval elapsed.
// A threat never checked before is due immediately. Nothing rolls while the
// cookie shield is up.
func (t *ThreatSystem) CheckForThreats(now int64) {
	if now < t.shieldEnds {
		return
	}
	owned := t.host.ownedDefenses()
	for _, th := range threat.Available(t.host.view()) {
		if last, seen := t.lastCheck[th.ID]; seen && now-last < ms(th.CheckInterval) {
			continue
		}
		t.lastCheck[th.ID] = now
		if t.rng.Float64() < threat.Probability(th, owned) {
			t.trigger(th, now)
		}
	}
}

func (t *ThreatSystem) trigger(th threat.Threat, now int64) {
	metrics.Get().RecordThreat()
	switch th.Kind {
	case threat.KindInstant:
		t.applyInstant(th, now)
	case threat.KindDuration:
		t.startDuration(th, now)
	case threat.KindChallenge:
		t.startChallenge(th, now)
	}
}

func (t *ThreatSystem) applyInstant(th threat.Threat, now int64) {
	var raw float64
	if th.Loss != nil {
		raw = th.Loss(t.host.view())
	}
	damage := threat.Damage(th, raw, t.host.ownedDefenses(), t.host.defenseModifier())
	lost := t.host.debit(damage)

	msg := fmt.Sprintf("Lost %s cookies!", humanize.Comma(int64(lost)))
	t.logger.Event(string(events.EventTypeThreatTriggered), th.ID, msg)
	notify(t.notifier, events.EventTypeThreatTriggered, th.ID, th.Name, msg,
		map[string]interface{}{"kind": th.Kind, "severity": th.Severity, "lost": lost})
	t.record(th, OutcomeTriggered, lost, now)
}

func (t *ThreatSystem) startDuration(th threat.Threat, now int64) {
	ends := now + ms(th.Duration)
	refreshed := false
	for i := range t.threats {
		if t.threats[i].ID == th.ID {
			t.threats[i].EndsAt = ends
			refreshed = true
		}
	}
	if !refreshed {
		t.threats = append(t.threats, ActiveThreat{
			ID:        th.ID,
			Name:      th.Name,
			StartedAt: now,
			EndsAt:    ends,
			Debuff:    th.Debuff,
		})
	}
	t.rearmExpiry(threatKey(th.ID), ends, t.endThreat(th.ID))

	t.logger.Event(string(events.EventTypeThreatTriggered), th.ID, th.Message)
	notify(t.notifier, events.EventTypeThreatTriggered, th.ID, th.Name, th.Message,
		map[string]interface{}{"kind": th.Kind, "severity": th.Severity, "endsAt": ends})
	t.record(th, OutcomeTriggered, 0, now)
}

func (t *ThreatSystem) endThreat(id string) func() {
	return func() {
		kept := t.threats[:0]
		var ended ActiveThreat
		found := false
		for _, a := range t.threats {
			if a.ID == id {
				ended, found = a, true
				continue
			}
			kept = append(kept, a)
		}
		t.threats = kept
		if !found {
			return
		}
		notify(t.notifier, events.EventTypeThreatEnded, id, ended.Name,
			fmt.Sprintf("%s is over", ended.Name), nil)
	}
}

func (t *ThreatSystem) startChallenge(th threat.Threat, now int64) {
	for _, c := range t.challenges {
		if c.ID == th.ID {
			return
		}
	}
	c := ActiveChallenge{
		ID:        th.ID,
		Name:      th.Name,
		Metric:    th.Requirement.Metric,
		Required:  th.Requirement.Count,
		StartedAt: now,
		Deadline:  now + ms(th.Duration),
	}
	t.challenges = append(t.challenges, c)
	t.rearmExpiry(challengeKey(th.ID), c.Deadline, t.failChallenge(th.ID))

	t.logger.Event(string(events.EventTypeChallengeStarted), th.ID, th.Description)
	notify(t.notifier, events.EventTypeChallengeStarted, th.ID, th.Name, th.Description, c)
}

func (t *ThreatSystem) failChallenge(id string) func() {
	return func() {
		c, ok := t.removeChallenge(id)
		if !ok {
			return
		}
		now := ms(t.sched.Now())
		th, _ := threat.ByID(id)
		notify(t.notifier, events.EventTypeChallengeFailed, id, c.Name,
			fmt.Sprintf("Challenge failed: %d/%d", c.Progress, c.Required), nil)
		t.record(th, OutcomeFailed, 0, now)
	}
}

func (t *ThreatSystem) removeChallenge(id string) (ActiveChallenge, bool) {
	for i, c := range t.challenges {
		if c.ID == id {
			t.challenges = append(t.challenges[:i], t.challenges[i+1:]...)
			t.cancelExpiry(challengeKey(id))
			return c, true
		}
	}
	return ActiveChallenge{}, false
}

// ReportProgress adds delta to every active challenge counting metric and
// completes those that reach their requirement.
func (t *ThreatSystem) ReportProgress(metric threat.Metric, delta int) {
	var done []string
	for i := range t.challenges {
		c := &t.challenges[i]
		if c.Metric != metric {
			continue
		}
		c.Progress += delta
		if c.Progress >= c.Required {
			done = append(done, c.ID)
		}
	}
	for _, id := range done {
		t.completeChallenge(id)
	}
}

// UpdateChallengeProgress sets absolute progress on an active challenge and
// returns the reward on completion.
func (t *ThreatSystem) UpdateChallengeProgress(id string, value int) (threat.Reward, bool) {
	for i := range t.challenges {
		c := &t.challenges[i]
		if c.ID != id {
			continue
		}
		c.Progress = value
		if c.Progress >= c.Required {
			return t.completeChallenge(id), true
		}
		return threat.Reward{}, false
	}
	return threat.Reward{}, false
}

func (t *ThreatSystem) completeChallenge(id string) threat.Reward {
	c, ok := t.removeChallenge(id)
	if !ok {
		return threat.Reward{}
	}
	th, _ := threat.ByID(id)
	var reward threat.Reward
	if th.Reward != nil {
		reward = th.Reward(t.host.view())
	}
	now := ms(t.sched.Now())
	if reward.CPSBonus > 0 {
		t.addBoost(id, reward.CPSBonus, reward.BonusDuration, now)
	}
	if reward.Cookies > 0 {
		t.host.credit(reward.Cookies)
	}

	msg := "Challenge complete!"
	switch {
	case reward.CPSBonus > 0:
		msg = fmt.Sprintf("%gx CPS for %s!", reward.CPSBonus, reward.BonusDuration)
	case reward.Cookies > 0:
		msg = fmt.Sprintf("Won %s cookies!", humanize.Comma(int64(reward.Cookies)))
	}
	t.logger.Event(string(events.EventTypeChallengeCompleted), id, msg)
	notify(t.notifier, events.EventTypeChallengeCompleted, id, c.Name, msg, reward)
	t.record(th, OutcomeCompleted, reward.Cookies, now)
	return reward
}

func (t *ThreatSystem) addBoost(source string, multiplier float64, d time.Duration, now int64) {
	ends := now + ms(d)
	found := false
	for i := range t.boosts {
		if t.boosts[i].Source == source {
			t.boosts[i].Multiplier = multiplier
			t.boosts[i].EndsAt = ends
			found = true
		}
	}
	if !found {
		t.boosts = append(t.boosts, Boost{Source: source, Multiplier: multiplier, EndsAt: ends})
	}
	t.rearmExpiry(boostKey(source), ends, t.endBoost(source))
}

func (t *ThreatSystem) endBoost(source string) func() {
	return func() {
		for i, b := range t.boosts {
			if b.Source == source {
				t.boosts = append(t.boosts[:i], t.boosts[i+1:]...)
				notify(t.notifier, events.EventTypeBoostEnded, source, "Boost ended",
					fmt.Sprintf("%gx boost expired", b.Multiplier), nil)
				return
			}
		}
	}
}

// Activate uses an ability. It fails for unknown abilities and while the
// cooldown runs.
func (t *ThreatSystem) Activate(id string) bool {
	a, ok := threat.AbilityByID(id)
	if !ok {
		return false
	}
	now := ms(t.sched.Now())
	if now < t.cooldowns[id] {
		return false
	}
	t.cooldowns[id] = now + ms(a.Cooldown)

	switch {
	case a.ID == threat.CookieShieldID:
		t.shieldEnds = now + ms(a.Duration)
		t.rearmExpiry(shieldKey, t.shieldEnds, t.endShield)
	case a.Multiplier > 0:
		t.addBoost(a.ID, a.Multiplier, a.Duration, now)
	}

	t.logger.Event(string(events.EventTypeAbilityActivated), id, a.Description)
	notify(t.notifier, events.EventTypeAbilityActivated, id, a.Name, a.Description,
		map[string]int64{"cooldownEndsAt": t.cooldowns[id]})
	return true
}

func (t *ThreatSystem) endShield() {
	notify(t.notifier, events.EventTypeAbilityEnded, threat.CookieShieldID, "Shield down",
		"Cookie shield expired", nil)
}

// ProductionFactor multiplies every active debuff and boost.
func (t *ThreatSystem) ProductionFactor() float64 {
	f := 1.0
	for _, a := range t.threats {
		if a.Debuff.CPSMultiplier > 0 {
			f *= a.Debuff.CPSMultiplier
		}
	}
	for _, b := range t.boosts {
		f *= b.Multiplier
	}
	return f
}

// DisabledUpgrades lists upgrade types producing nothing right now.
func (t *ThreatSystem) DisabledUpgrades() map[string]bool {
	var out map[string]bool
	for _, a := range t.threats {
		if a.Debuff.DisabledUpgrade == "" {
			continue
		}
		if out == nil {
			out = make(map[string]bool)
		}
		out[a.Debuff.DisabledUpgrade] = true
	}
	return out
}

func (t *ThreatSystem) ShieldActive() bool {
	return ms(t.sched.Now()) < t.shieldEnds
}

// CooldownRemaining is the game time until id can be used again.
func (t *ThreatSystem) CooldownRemaining(id string) time.Duration {
	left := t.cooldowns[id] - ms(t.sched.Now())
	if left <= 0 {
		return 0
	}
	return fromMS(left)
}

func (t *ThreatSystem) record(th threat.Threat, outcome Outcome, amount float64, now int64) {
	entry := HistoryEntry{
		ThreatID: th.ID,
		Name:     th.Name,
		Kind:     th.Kind,
		Outcome:  outcome,
		Amount:   amount,
		At:       now,
		Time:     t.clock.Now(),
	}
	t.history = append([]HistoryEntry{entry}, t.history...)
	if limit := t.cfg.HistoryLimit; limit > 0 && len(t.history) > limit {
		t.history = t.history[:limit]
	}
}

// History returns resolved events, most recent first.
func (t *ThreatSystem) History() []HistoryEntry {
	return append([]HistoryEntry(nil), t.history...)
}

// State is the live read model.
func (t *ThreatSystem) State() ThreatState {
	return t.snapshot(len(t.history))
}

// Save is State with history truncated to the persisted cap.
func (t *ThreatSystem) Save() ThreatState {
	limit := len(t.history)
	if t.cfg.SavedHistoryLimit > 0 && limit > t.cfg.SavedHistoryLimit {
		limit = t.cfg.SavedHistoryLimit
	}
	return t.snapshot(limit)
}

func (t *ThreatSystem) snapshot(historyLimit int) ThreatState {
	s := ThreatState{
		ActiveThreats:    append([]ActiveThreat{}, t.threats...),
		ActiveChallenges: append([]ActiveChallenge{}, t.challenges...),
		Boosts:           append([]Boost{}, t.boosts...),
		AbilityCooldowns: make(map[string]int64, len(t.cooldowns)),
		LastCheck:        make(map[string]int64, len(t.lastCheck)),
		ShieldEndsAt:     t.shieldEnds,
		History:          append([]HistoryEntry{}, t.history[:historyLimit]...),
	}
	for k, v := range t.cooldowns {
		s.AbilityCooldowns[k] = v
	}
	for k, v := range t.lastCheck {
		s.LastCheck[k] = v
	}
	return s
}

// Restore replaces the state. Timers are re-armed by the next Start.
func (t *ThreatSystem) Restore(s ThreatState) {
	t.Stop()
	t.threats = append([]ActiveThreat(nil), s.ActiveThreats...)
	t.challenges = append([]ActiveChallenge(nil), s.ActiveChallenges...)
	t.boosts = append([]Boost(nil), s.Boosts...)
	t.shieldEnds = s.ShieldEndsAt
	t.history = append([]HistoryEntry(nil), s.History...)
	if limit := t.cfg.HistoryLimit; limit > 0 && len(t.history) > limit {
		t.history = t.history[:limit]
	}
	t.cooldowns = make(map[string]int64, len(s.AbilityCooldowns))
	for k, v := range s.AbilityCooldowns {
		t.cooldowns[k] = v
	}
	t.lastCheck = make(map[string]int64, len(s.LastCheck))
	for k, v := range s.LastCheck {
		t.lastCheck[k] = v
	}
}
