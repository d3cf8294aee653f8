package engine

import (
	"github.com/KottenAlin/reb-wbsite/internal/domain/achievement"
	"github.com/KottenAlin/reb-wbsite/internal/domain/progress"
	"github.com/KottenAlin/reb-wbsite/internal/events"
	"github.com/KottenAlin/reb-wbsite/internal/platform/logger"
)

// AchievementSystem records one-way achievement unlocks and queues them
// until the player acknowledges them.
type AchievementSystem struct {
	notifier Notifier
	logger   *logger.Logger

	unlocked map[string]bool
	order    []string // unlock order
	pending  []string
}

func NewAchievementSystem(notifier Notifier, log *logger.Logger) *AchievementSystem {
	return &AchievementSystem{
		notifier: notifier,
		logger:   log,
		unlocked: make(map[string]bool),
	}
}

// Check evaluates every locked achievement against v and unlocks those that
// hold, notifying once per unlock.
func (a *AchievementSystem) Check(v progress.View) []achievement.Achievement {
	newly := achievement.Evaluate(v, a.unlocked)
	for _, ach := range newly {
		a.unlocked[ach.ID] = true
		a.order = append(a.order, ach.ID)
		a.pending = append(a.pending, ach.ID)

		a.logger.Event(string(events.EventTypeAchievementUnlocked), ach.ID, ach.Name)
		notify(a.notifier, events.EventTypeAchievementUnlocked, ach.ID, ach.Name, ach.Description,
			map[string]string{"icon": ach.Icon, "category": string(ach.Category)})
	}
	return newly
}

func (a *AchievementSystem) IsUnlocked(id string) bool {
	return a.unlocked[id]
}

// Unlocked lists unlocked ids in unlock order.
func (a *AchievementSystem) Unlocked() []string {
	return append([]string(nil), a.order...)
}

// Pending lists unlocks not yet acknowledged.
func (a *AchievementSystem) Pending() []string {
	return append([]string(nil), a.pending...)
}

// Acknowledge drains and returns the pending list.
func (a *AchievementSystem) Acknowledge() []string {
	out := a.pending
	a.pending = nil
	return out
}

func (a *AchievementSystem) Stats() achievement.Summary {
	return achievement.Stats(a.unlocked)
}

// Restore replaces the unlocked set without notifying. Unknown ids are kept
// so saves from newer catalogs survive a round trip.
func (a *AchievementSystem) Restore(ids []string) {
	a.unlocked = make(map[string]bool, len(ids))
	a.order = a.order[:0]
	a.pending = nil
	for _, id := range ids {
		if a.unlocked[id] {
			continue
		}
		a.unlocked[id] = true
		a.order = append(a.order, id)
	}
}
