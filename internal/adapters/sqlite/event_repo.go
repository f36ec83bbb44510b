// Package sqlite contains SQLite implementations of repository interfaces.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/example/deck/internal/ports/secondary"
)

// EventRepository implements secondary.EventJournal with SQLite.
type EventRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewEventRepository creates a new SQLite event repository.
func NewEventRepository(db *sql.DB) *EventRepository {
	return &EventRepository{db: db, now: time.Now}
}

// Append persists a new event record. A missing ID or timestamp is filled in.
func (r *EventRepository) Append(ctx context.Context, record *secondary.EventRecord) error {
	if record.ID == "" {
		record.ID = "EV-" + uuid.NewString()
	}

	timestamp := r.now().UTC()
	if record.Timestamp != "" {
		parsed, err := time.Parse(time.RFC3339Nano, record.Timestamp)
		if err != nil {
			return fmt.Errorf("invalid event timestamp %q: %w", record.Timestamp, err)
		}
		timestamp = parsed.UTC()
	}
	record.Timestamp = timestamp.Format(time.RFC3339)

	payload := record.PayloadJSON
	if payload == "" {
		payload = "{}"
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO task_events (id, provider_type, project_path, event_type, task_id, task_title, previous_status, new_status, actor_id, payload_json, timestamp) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID,
		record.ProviderType,
		record.ProjectPath,
		record.EventType,
		record.TaskID,
		nullString(record.TaskTitle),
		nullString(record.PreviousStatus),
		nullString(record.NewStatus),
		nullString(record.ActorID),
		payload,
		timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to append task event: %w", err)
	}

	return nil
}

// List retrieves event records matching the given filters, newest first.
func (r *EventRepository) List(ctx context.Context, filters secondary.EventFilters) ([]*secondary.EventRecord, error) {
	query := `SELECT id, provider_type, project_path, event_type, task_id, task_title, previous_status, new_status, actor_id, payload_json, timestamp FROM task_events WHERE 1=1`
	args := []any{}

	if filters.ProjectPath != "" {
		query += " AND project_path = ?"
		args = append(args, filters.ProjectPath)
	}

	if filters.TaskID != "" {
		query += " AND task_id = ?"
		args = append(args, filters.TaskID)
	}

	if filters.EventType != "" {
		query += " AND event_type = ?"
		args = append(args, filters.EventType)
	}

	// rowid breaks ties between events recorded within the same instant.
	query += " ORDER BY timestamp DESC, rowid DESC"

	if filters.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filters.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list task events: %w", err)
	}
	defer rows.Close()

	var records []*secondary.EventRecord
	for rows.Next() {
		var (
			taskTitle      sql.NullString
			previousStatus sql.NullString
			newStatus      sql.NullString
			actorID        sql.NullString
			timestamp      time.Time
		)

		record := &secondary.EventRecord{}
		err := rows.Scan(&record.ID,
			&record.ProviderType,
			&record.ProjectPath,
			&record.EventType,
			&record.TaskID,
			&taskTitle,
			&previousStatus,
			&newStatus,
			&actorID,
			&record.PayloadJSON,
			&timestamp)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task event: %w", err)
		}
		record.TaskTitle = taskTitle.String
		record.PreviousStatus = previousStatus.String
		record.NewStatus = newStatus.String
		record.ActorID = actorID.String
		record.Timestamp = timestamp.UTC().Format(time.RFC3339)

		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list task events: %w", err)
	}

	return records, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// Ensure EventRepository implements the interface
var _ secondary.EventJournal = (*EventRepository)(nil)
