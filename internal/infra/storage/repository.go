// Package storage provides the persistence layer for the clicker server.
// This package implements the repository pattern to keep the engine pure.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// ErrNotFound is returned when no save exists under the requested id.
var ErrNotFound = errors.New("storage: not found")

// SaveRecord is one persisted snapshot. Data is the encoded engine save.
type SaveRecord struct {
	ID      string    `json:"id" db:"id"`
	Data    []byte    `json:"data" db:"data"`
	SavedAt time.Time `json:"saved_at" db:"saved_at"`
}

// SaveRepository stores the latest snapshot per save id.
type SaveRepository interface {
	// Put inserts or replaces the snapshot stored under rec.ID.
	Put(ctx context.Context, rec SaveRecord) error

	// Get returns the snapshot stored under id, or ErrNotFound.
	Get(ctx context.Context, id string) (SaveRecord, error)

	// Delete removes a save. Deleting a missing save is not an error.
	Delete(ctx context.Context, id string) error
}

// EventRecord mirrors a notification for persistence.
// The events package should NOT import this; the persister adapts between them.
type EventRecord struct {
	ID        string          `json:"id" db:"id"`
	SaveID    string          `json:"save_id" db:"save_id"`
	Seq       int64           `json:"seq" db:"seq"`
	Timestamp time.Time       `json:"timestamp" db:"timestamp"`
	EventType string          `json:"event_type" db:"event_type"`
	SubjectID string          `json:"subject_id" db:"subject_id"`
	Title     string          `json:"title" db:"title"`
	Message   string          `json:"message" db:"message"`
	Payload   json.RawMessage `json:"payload,omitempty" db:"payload"`
}

// EventQuery filters a history read. Zero values match everything.
type EventQuery struct {
	EventType string
	Limit     int
}

// DefaultHistoryLimit caps history reads that do not set a limit.
const DefaultHistoryLimit = 100

func (q EventQuery) limit() int {
	if q.Limit <= 0 || q.Limit > 10*DefaultHistoryLimit {
		return DefaultHistoryLimit
	}
	return q.Limit
}

// EventRepository defines the interface for notification persistence.
type EventRepository interface {
	// Append adds a notification to the immutable history.
	Append(ctx context.Context, event EventRecord) error

	// List returns the newest notifications of a save, newest first.
	List(ctx context.Context, saveID string, q EventQuery) ([]EventRecord, error)

	// CountByType aggregates the history of a save per event type.
	CountByType(ctx context.Context, saveID string) (map[string]int64, error)
}
