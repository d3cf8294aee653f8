package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// SQLiteSaveRepository implements SaveRepository for SQLite.
type SQLiteSaveRepository struct {
	db *sql.DB
}

func NewSQLiteSaveRepository(db *sql.DB) *SQLiteSaveRepository {
	return &SQLiteSaveRepository{db: db}
}

func (r *SQLiteSaveRepository) Put(ctx context.Context, rec SaveRecord) error {
	if rec.SavedAt.IsZero() {
		rec.SavedAt = time.Now()
	}
	query := `
		INSERT INTO saves (id, data, saved_at)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			data=excluded.data,
			saved_at=excluded.saved_at
	`
	if _, err := r.db.ExecContext(ctx, query, rec.ID, rec.Data, rec.SavedAt.UTC()); err != nil {
		return fmt.Errorf("failed to put save %q: %w", rec.ID, err)
	}
	return nil
}

func (r *SQLiteSaveRepository) Get(ctx context.Context, id string) (SaveRecord, error) {
	query := `SELECT id, data, saved_at FROM saves WHERE id = ?`
	var rec SaveRecord
	err := r.db.QueryRowContext(ctx, query, id).Scan(&rec.ID, &rec.Data, &rec.SavedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return SaveRecord{}, ErrNotFound
	}
	if err != nil {
		return SaveRecord{}, fmt.Errorf("failed to get save %q: %w", id, err)
	}
	return rec, nil
}

func (r *SQLiteSaveRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM saves WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete save %q: %w", id, err)
	}
	return nil
}

// SQLiteEventRepository implements EventRepository for SQLite.
type SQLiteEventRepository struct {
	db *sql.DB
}

func NewSQLiteEventRepository(db *sql.DB) *SQLiteEventRepository {
	return &SQLiteEventRepository{db: db}
}

func (r *SQLiteEventRepository) Append(ctx context.Context, event EventRecord) error {
	var payload sql.NullString
	if len(event.Payload) > 0 {
		payload = sql.NullString{String: string(event.Payload), Valid: true}
	}

	query := `
		INSERT INTO events (id, save_id, seq, timestamp, event_type, subject_id, title, message, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		event.ID, event.SaveID, event.Seq, event.Timestamp.UTC(), event.EventType,
		event.SubjectID, event.Title, event.Message, payload,
	)
	if err != nil {
		return fmt.Errorf("failed to append event: %w", err)
	}
	return nil
}

func (r *SQLiteEventRepository) List(ctx context.Context, saveID string, q EventQuery) ([]EventRecord, error) {
	query := `SELECT id, save_id, seq, timestamp, event_type, subject_id, title, message, payload
		FROM events WHERE save_id = ? AND (? = '' OR event_type = ?)
		ORDER BY timestamp DESC, seq DESC LIMIT ?`
	rows, err := r.db.QueryContext(ctx, query, saveID, q.EventType, q.EventType, q.limit())
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	events := make([]EventRecord, 0)
	for rows.Next() {
		var e EventRecord
		var payload sql.NullString
		err := rows.Scan(
			&e.ID, &e.SaveID, &e.Seq, &e.Timestamp, &e.EventType,
			&e.SubjectID, &e.Title, &e.Message, &payload,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		if payload.Valid {
			e.Payload = []byte(payload.String)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (r *SQLiteEventRepository) CountByType(ctx context.Context, saveID string) (map[string]int64, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT event_type, COUNT(*) FROM events WHERE save_id = ? GROUP BY event_type`, saveID)
	if err != nil {
		return nil, fmt.Errorf("failed to count events: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var kind string
		var n int64
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, err
		}
		counts[kind] = n
	}
	return counts, rows.Err()
}

var (
	_ SaveRepository  = (*SQLiteSaveRepository)(nil)
	_ EventRepository = (*SQLiteEventRepository)(nil)
)
