package secondary

import (
	"context"

	"github.com/example/deck/internal/models"
)

// EventJournal defines the secondary port for persisting task events.
type EventJournal interface {
	// Append persists a single event record.
	Append(ctx context.Context, record *EventRecord) error

	// List retrieves event records matching the filters, newest first.
	List(ctx context.Context, filters EventFilters) ([]*EventRecord, error)
}

// EventWriter records provider notifications for one provider and project.
type EventWriter interface {
	Write(ctx context.Context, event models.TaskEvent) error
}

// EventRecord represents a task event as stored in the journal.
type EventRecord struct {
	ID             string
	ProviderType   string
	ProjectPath    string
	EventType      string
	TaskID         string
	TaskTitle      string // Empty string means null
	PreviousStatus string // Empty string means null
	NewStatus      string // Empty string means null
	ActorID        string // Empty string means null
	PayloadJSON    string
	Timestamp      string
}

// EventFilters contains filter options for querying the journal.
type EventFilters struct {
	ProjectPath string
	TaskID      string
	EventType   string
	Limit       int
}
