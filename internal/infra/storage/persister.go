package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/KottenAlin/reb-wbsite/internal/events"
	"github.com/KottenAlin/reb-wbsite/internal/platform/metrics"
)

// DefaultWriteTimeout bounds one notification write.
const DefaultWriteTimeout = 5 * time.Second

// EventPersister writes engine notifications through an EventRepository.
// It satisfies events.EventPersister.
type EventPersister struct {
	repo    EventRepository
	saveID  string
	timeout time.Duration
}

// NewEventPersister binds a repository to one save id.
func NewEventPersister(repo EventRepository, saveID string) *EventPersister {
	return &EventPersister{repo: repo, saveID: saveID, timeout: DefaultWriteTimeout}
}

// Append converts and stores one notification.
func (p *EventPersister) Append(event events.GameEvent) error {
	rec, err := ToRecord(p.saveID, event)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	start := time.Now()
	err = p.repo.Append(ctx, rec)
	metrics.Get().RecordEventWrite(time.Since(start), err)
	return err
}

// ToRecord maps a notification to its persisted form.
func ToRecord(saveID string, event events.GameEvent) (EventRecord, error) {
	rec := EventRecord{
		ID:        event.ID,
		SaveID:    saveID,
		Seq:       event.Seq,
		Timestamp: event.Timestamp,
		EventType: string(event.Type),
		SubjectID: event.SubjectID,
		Title:     event.Title,
		Message:   event.Message,
	}
	if event.Payload != nil {
		raw, err := json.Marshal(event.Payload)
		if err != nil {
			return EventRecord{}, fmt.Errorf("failed to marshal payload: %w", err)
		}
		rec.Payload = raw
	}
	return rec, nil
}

var _ events.EventPersister = (*EventPersister)(nil)
