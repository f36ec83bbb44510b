// Package secondary defines the secondary ports (driven adapters) for the application.
// These are the interfaces through which the application drives task backends
// and the event journal.
package secondary

import (
	"context"

	"github.com/example/deck/internal/models"
)

// TaskProvider is the contract every task backend adapter implements.
// Constructing an adapter performs no I/O; Initialize does.
type TaskProvider interface {
	// Initialize prepares the adapter, verifying connectivity.
	// A second call after a successful first call is a no-op.
	Initialize(ctx context.Context) error

	// GetTasks returns the full current snapshot of tasks for a project.
	GetTasks(ctx context.Context, projectPath string) ([]models.Task, error)

	// CreateTask creates a task and emits exactly one created event.
	// A blank title fails before any I/O.
	CreateTask(ctx context.Context, projectPath string, input models.TaskPatch) (*models.Task, error)

	// UpdateTask applies the set fields of updates and emits one updated event.
	UpdateTask(ctx context.Context, projectPath, taskID string, updates models.TaskPatch) (*models.Task, error)

	// DeleteTask removes the task and emits one deleted event carrying only the ID.
	DeleteTask(ctx context.Context, projectPath, taskID string) error

	// Subscribe registers a handler for task events. Handlers run synchronously
	// with the operation that triggered them. The returned func unsubscribes.
	Subscribe(handler func(models.TaskEvent)) (unsubscribe func())
}

// TaskWatcher is the optional polling capability. Callers detect it with a
// type assertion on a TaskProvider.
type TaskWatcher interface {
	// WatchTasks invokes callback with the entire snapshot on every poll tick
	// until the returned cancel func is called. Poll errors are logged and
	// swallowed. Once cancel returns, callback is never invoked again.
	// cancel must not be called from inside callback.
	WatchTasks(ctx context.Context, projectPath string, callback func([]models.Task)) (cancel func())
}
