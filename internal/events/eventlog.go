// Package events provides the notification log of the simulation.
// Every player-visible occurrence (achievement, golden cookie, threat,
// challenge, ability, prestige) is appended here and fanned out to clients.
package events

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventType defines the category of a notification.
type EventType string

const (
	EventTypeAchievementUnlocked EventType = "ACHIEVEMENT_UNLOCKED"
	EventTypeGoldenSpawned       EventType = "GOLDEN_COOKIE_SPAWNED"
	EventTypeGoldenWarning       EventType = "GOLDEN_COOKIE_WARNING"
	EventTypeGoldenExpired       EventType = "GOLDEN_COOKIE_EXPIRED"
	EventTypeGoldenCollected     EventType = "GOLDEN_COOKIE_COLLECTED"
	EventTypeGoldenBonusEnded    EventType = "GOLDEN_BONUS_ENDED"
	EventTypeThreatTriggered     EventType = "THREAT_TRIGGERED"
	EventTypeThreatEnded         EventType = "THREAT_ENDED"
	EventTypeChallengeStarted    EventType = "CHALLENGE_STARTED"
	EventTypeChallengeCompleted  EventType = "CHALLENGE_COMPLETED"
	EventTypeChallengeFailed     EventType = "CHALLENGE_FAILED"
	EventTypeAbilityActivated    EventType = "ABILITY_ACTIVATED"
	EventTypeAbilityEnded        EventType = "ABILITY_ENDED"
	EventTypeBoostEnded          EventType = "BOOST_ENDED"
	EventTypePrestige            EventType = "PRESTIGE"
	EventTypeGamePaused          EventType = "GAME_PAUSED"
	EventTypeGameResumed         EventType = "GAME_RESUMED"
	EventTypeGameReset           EventType = "GAME_RESET"
)

// DefaultCapacity bounds how many notifications stay in memory.
const DefaultCapacity = 1000

// GameEvent is an immutable notification record.
type GameEvent struct {
	ID        string      `json:"id"`
	Seq       int64       `json:"seq"` // assigned by the log on append
	Timestamp time.Time   `json:"timestamp"`
	Type      EventType   `json:"type"`
	SubjectID string      `json:"subject_id"` // achievement, threat or ability id
	Title     string      `json:"title"`
	Message   string      `json:"message"`
	Payload   interface{} `json:"payload,omitempty"`
}

// EventPersister defines how an event is durably stored.
type EventPersister interface {
	Append(event GameEvent) error
}

// EventLog is the in-memory, bounded, append-only notification log.
type EventLog struct {
	mu        sync.RWMutex
	events    []GameEvent
	capacity  int
	nextSeq   int64
	persister EventPersister
	wg        sync.WaitGroup
}

// NewEventLog creates a new event log with an optional persister.
func NewEventLog(persister EventPersister) *EventLog {
	return NewBoundedEventLog(persister, DefaultCapacity)
}

// NewBoundedEventLog creates a log keeping at most capacity events in memory.
func NewBoundedEventLog(persister EventPersister, capacity int) *EventLog {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &EventLog{
		events:    make([]GameEvent, 0),
		capacity:  capacity,
		nextSeq:   1,
		persister: persister,
	}
}

// Append adds a new event to the log. Missing ids and timestamps are filled.
func (el *EventLog) Append(event GameEvent) {
	el.mu.Lock()
	if event.ID == "" {
		event.ID = GenerateEventID()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	event.Seq = el.nextSeq
	el.nextSeq++
	el.events = append(el.events, event)
	if over := len(el.events) - el.capacity; over > 0 {
		el.events = append([]GameEvent(nil), el.events[over:]...)
	}
	el.mu.Unlock()

	if el.persister != nil {
		// Write through asynchronously; callers hold the engine lock.
		el.wg.Add(1)
		go func(e GameEvent) {
			defer el.wg.Done()
			_ = el.persister.Append(e)
		}(event)
	}
}

// Flush waits for pending persister writes.
func (el *EventLog) Flush() {
	el.wg.Wait()
}

// Since returns events with a sequence number greater than seq.
func (el *EventLog) Since(seq int64) []GameEvent {
	el.mu.RLock()
	defer el.mu.RUnlock()

	var result []GameEvent
	for _, e := range el.events {
		if e.Seq > seq {
			result = append(result, e)
		}
	}
	return result
}

// LastSeq is the sequence number of the newest event, or 0.
func (el *EventLog) LastSeq() int64 {
	el.mu.RLock()
	defer el.mu.RUnlock()
	return el.nextSeq - 1
}

// GetBySubject returns all retained events about one entity.
func (el *EventLog) GetBySubject(subjectID string) []GameEvent {
	el.mu.RLock()
	defer el.mu.RUnlock()

	var result []GameEvent
	for _, e := range el.events {
		if e.SubjectID == subjectID {
			result = append(result, e)
		}
	}
	return result
}

// GetByType returns all retained events of one type.
func (el *EventLog) GetByType(t EventType) []GameEvent {
	el.mu.RLock()
	defer el.mu.RUnlock()

	var result []GameEvent
	for _, e := range el.events {
		if e.Type == t {
			result = append(result, e)
		}
	}
	return result
}

// Replay returns a copy of every retained event, oldest first.
func (el *EventLog) Replay() []GameEvent {
	el.mu.RLock()
	defer el.mu.RUnlock()
	return append([]GameEvent(nil), el.events...)
}

// GenerateEventID creates a unique event identifier.
func GenerateEventID() string {
	return uuid.NewString()
}
