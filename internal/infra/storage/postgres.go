// Package storage - postgres.go
// PostgreSQL implementation of SaveRepository and EventRepository on pgxpool.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// OpenPostgres connects a pool and creates the schemas.
func OpenPostgres(ctx context.Context, url string, maxConns int32) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database url: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}
	if err := migratePostgres(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create schemas: %w", err)
	}
	return pool, nil
}

func migratePostgres(ctx context.Context, pool *pgxpool.Pool) error {
	schemas := []string{
		`CREATE TABLE IF NOT EXISTS saves (
			id TEXT PRIMARY KEY,
			data JSONB NOT NULL,
			saved_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS event_log (
			id TEXT PRIMARY KEY,
			save_id TEXT NOT NULL,
			seq BIGINT NOT NULL,
			timestamp TIMESTAMPTZ NOT NULL,
			event_type TEXT NOT NULL,
			subject_id TEXT NOT NULL,
			title TEXT NOT NULL,
			message TEXT NOT NULL,
			payload JSONB
		)`,
		`CREATE INDEX IF NOT EXISTS idx_event_log_save_id ON event_log(save_id, timestamp)`,
	}
	for _, query := range schemas {
		if _, err := pool.Exec(ctx, query); err != nil {
			return err
		}
	}
	return nil
}

// PostgresSaveRepository implements SaveRepository using PostgreSQL.
type PostgresSaveRepository struct {
	db *pgxpool.Pool
}

// NewPostgresSaveRepository creates a new PostgreSQL save repository.
func NewPostgresSaveRepository(db *pgxpool.Pool) *PostgresSaveRepository {
	return &PostgresSaveRepository{db: db}
}

// Put upserts the snapshot under rec.ID.
func (r *PostgresSaveRepository) Put(ctx context.Context, rec SaveRecord) error {
	if rec.SavedAt.IsZero() {
		rec.SavedAt = time.Now()
	}
	query := `
		INSERT INTO saves (id, data, saved_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data, saved_at = EXCLUDED.saved_at
	`
	if _, err := r.db.Exec(ctx, query, rec.ID, string(rec.Data), rec.SavedAt); err != nil {
		return fmt.Errorf("failed to put save %q: %w", rec.ID, err)
	}
	return nil
}

// Get returns the snapshot under id, or ErrNotFound.
func (r *PostgresSaveRepository) Get(ctx context.Context, id string) (SaveRecord, error) {
	var rec SaveRecord
	var data string
	err := r.db.QueryRow(ctx, `SELECT id, data::text, saved_at FROM saves WHERE id = $1`, id).
		Scan(&rec.ID, &data, &rec.SavedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return SaveRecord{}, ErrNotFound
	}
	if err != nil {
		return SaveRecord{}, fmt.Errorf("failed to get save %q: %w", id, err)
	}
	rec.Data = []byte(data)
	return rec, nil
}

// Delete removes a save.
func (r *PostgresSaveRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM saves WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete save %q: %w", id, err)
	}
	return nil
}

// PostgresEventRepository implements EventRepository using PostgreSQL.
type PostgresEventRepository struct {
	db *pgxpool.Pool
}

// NewPostgresEventRepository creates a new PostgreSQL event repository.
func NewPostgresEventRepository(db *pgxpool.Pool) *PostgresEventRepository {
	return &PostgresEventRepository{db: db}
}

// Append inserts a notification into the immutable history.
func (r *PostgresEventRepository) Append(ctx context.Context, event EventRecord) error {
	var payload *string
	if len(event.Payload) > 0 {
		s := string(event.Payload)
		payload = &s
	}

	query := `
		INSERT INTO event_log (id, save_id, seq, timestamp, event_type, subject_id, title, message, payload)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.db.Exec(ctx, query,
		event.ID,
		event.SaveID,
		event.Seq,
		event.Timestamp,
		event.EventType,
		event.SubjectID,
		event.Title,
		event.Message,
		payload,
	)
	if err != nil {
		return fmt.Errorf("failed to append event: %w", err)
	}
	return nil
}

// List returns the newest notifications of a save, newest first.
func (r *PostgresEventRepository) List(ctx context.Context, saveID string, q EventQuery) ([]EventRecord, error) {
	query := `
		SELECT id, save_id, seq, timestamp, event_type, subject_id, title, message, payload::text
		FROM event_log
		WHERE save_id = $1 AND ($2 = '' OR event_type = $2)
		ORDER BY timestamp DESC, seq DESC
		LIMIT $3
	`
	rows, err := r.db.Query(ctx, query, saveID, q.EventType, q.limit())
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	events := make([]EventRecord, 0)
	for rows.Next() {
		var e EventRecord
		var payload *string
		err := rows.Scan(
			&e.ID,
			&e.SaveID,
			&e.Seq,
			&e.Timestamp,
			&e.EventType,
			&e.SubjectID,
			&e.Title,
			&e.Message,
			&payload,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		if payload != nil {
			e.Payload = []byte(*payload)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// CountByType aggregates the history of a save per event type.
func (r *PostgresEventRepository) CountByType(ctx context.Context, saveID string) (map[string]int64, error) {
	rows, err := r.db.Query(ctx,
		`SELECT event_type, COUNT(*) FROM event_log WHERE save_id = $1 GROUP BY event_type`, saveID)
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

// Ensure the Postgres repositories implement their interfaces
var (
	_ SaveRepository  = (*PostgresSaveRepository)(nil)
	_ EventRepository = (*PostgresEventRepository)(nil)
)
