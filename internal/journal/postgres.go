package journal

import (
	"context"
	"database/sql"
	"fmt"

	"submission-intake/internal/models"
)

const createTableSQL = `
	CREATE TABLE IF NOT EXISTS intake_events (
		id          UUID PRIMARY KEY,
		endpoint    TEXT NOT NULL,
		outcome     TEXT NOT NULL,
		reason      TEXT,
		client_id   TEXT NOT NULL,
		record_id   TEXT,
		request_id  TEXT,
		occurred_at TIMESTAMPTZ NOT NULL
	)`

// PostgresRecorder appends events to the intake_events table.
type PostgresRecorder struct {
	db *sql.DB
}

func NewPostgresRecorder(db *sql.DB) *PostgresRecorder {
	return &PostgresRecorder{db: db}
}

// EnsureSchema creates the intake_events table when missing.
func (r *PostgresRecorder) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createTableSQL); err != nil {
		return fmt.Errorf("failed to create intake_events table: %w", err)
	}
	return nil
}

func (r *PostgresRecorder) Record(ctx context.Context, event *models.IntakeEvent) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO intake_events (
			id, endpoint, outcome, reason, client_id, record_id, request_id, occurred_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		event.ID,
		event.Endpoint,
		string(event.Outcome),
		nullString(event.Reason),
		event.ClientID,
		nullString(event.RecordID),
		nullString(event.RequestID),
		event.OccurredAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert intake event: %w", err)
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
