package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/example/deck/internal/models"
	"github.com/example/deck/internal/ports/secondary"
)

// EventWriter implements secondary.EventWriter on top of an EventJournal.
// Every record it writes is stamped with one provider, project and actor.
type EventWriter struct {
	journal      secondary.EventJournal
	providerType string
	projectPath  string
	actorID      string
}

// NewEventWriter creates a new EventWriter. actorID may be empty.
func NewEventWriter(journal secondary.EventJournal, providerType, projectPath, actorID string) *EventWriter {
	return &EventWriter{
		journal:      journal,
		providerType: providerType,
		projectPath:  projectPath,
		actorID:      actorID,
	}
}

// Write appends one event to the journal. The full task snapshot is kept as
// the record payload.
func (w *EventWriter) Write(ctx context.Context, event models.TaskEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode task event: %w", err)
	}

	record := &secondary.EventRecord{
		ProviderType: w.providerType,
		ProjectPath:  w.projectPath,
		EventType:    string(event.Type),
		TaskID:       event.Task.ID,
		TaskTitle:    event.Task.Title,
		NewStatus:    string(event.Task.Status),
		ActorID:      w.actorID,
		PayloadJSON:  string(payload),
	}
	if event.PreviousStatus != nil {
		record.PreviousStatus = string(*event.PreviousStatus)
	}
	if !event.Timestamp.IsZero() {
		record.Timestamp = event.Timestamp.UTC().Format(time.RFC3339Nano)
	}

	return w.journal.Append(ctx, record)
}

// Ensure EventWriter implements the interface
var _ secondary.EventWriter = (*EventWriter)(nil)
