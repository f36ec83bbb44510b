package primary

import (
	"context"
	"time"

	"github.com/example/deck/internal/models"
)

// TaskService defines the primary port for task operations against the
// configured provider and project.
type TaskService interface {
	// ProviderType returns the tag of the provider backing this service.
	ProviderType() string

	// ListTasks lists tasks with optional filters.
	ListTasks(ctx context.Context, filters TaskFilters) ([]models.Task, error)

	// GetTask retrieves a task by ID from the current snapshot.
	GetTask(ctx context.Context, taskID string) (*models.Task, error)

	// CreateTask creates a new task.
	CreateTask(ctx context.Context, req CreateTaskRequest) (*models.Task, error)

	// UpdateTask applies a partial update to a task.
	UpdateTask(ctx context.Context, req UpdateTaskRequest) (*models.Task, error)

	// DeleteTask deletes a task.
	DeleteTask(ctx context.Context, taskID string) error

	// WatchTasks polls the provider and delivers full snapshots until cancel is called.
	WatchTasks(ctx context.Context, callback func([]models.Task)) (cancel func(), err error)

	// ListEvents lists journaled task events, newest first.
	ListEvents(ctx context.Context, filters EventFilters) ([]*Event, error)
}

// CreateTaskRequest contains parameters for creating a task.
type CreateTaskRequest struct {
	Title       string
	Description string              // Optional
	Priority    models.TaskPriority // Optional
	Tags        []string            // Optional
	ParentID    string              // Optional
	DueDate     *time.Time          // Optional
}

// UpdateTaskRequest contains parameters for updating a task.
type UpdateTaskRequest struct {
	TaskID  string
	Updates models.TaskPatch
}

// TaskFilters contains filter options for listing tasks.
type TaskFilters struct {
	Status   models.TaskStatus
	Tag      string
	ParentID string
}

// EventFilters contains filter options for listing journaled events.
type EventFilters struct {
	TaskID    string
	EventType string
	Limit     int
}

// Event represents a journaled task event at the port boundary.
type Event struct {
	ID             string
	EventType      string
	TaskID         string
	TaskTitle      string
	PreviousStatus string
	NewStatus      string
	ActorID        string
	Timestamp      string
}
