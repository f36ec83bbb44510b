package app

import (
	"context"
	"fmt"
	"log"

	"github.com/example/deck/internal/core/task"
	"github.com/example/deck/internal/models"
	"github.com/example/deck/internal/ports/primary"
	"github.com/example/deck/internal/ports/secondary"
)

// TaskServiceImpl implements the TaskService interface for one provider and
// one project.
type TaskServiceImpl struct {
	provider     secondary.TaskProvider
	providerType string
	projectPath  string
	events       secondary.EventWriter
	journal      secondary.EventJournal
	logger       *log.Logger
	unsubscribe  func()
}

// NewTaskService creates a new TaskService with injected dependencies.
// events and journal may be nil, in which case nothing is journaled.
func NewTaskService(
	provider secondary.TaskProvider,
	providerType string,
	projectPath string,
	events secondary.EventWriter,
	journal secondary.EventJournal,
	logger *log.Logger,
) *TaskServiceImpl {
	if logger == nil {
		logger = log.Default()
	}
	s := &TaskServiceImpl{
		provider:     provider,
		providerType: providerType,
		projectPath:  projectPath,
		events:       events,
		journal:      journal,
		logger:       logger,
	}
	if events != nil {
		s.unsubscribe = provider.Subscribe(s.recordEvent)
	}
	return s
}

// Close stops journaling provider events.
func (s *TaskServiceImpl) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
}

// ProviderType returns the tag of the provider backing this service.
func (s *TaskServiceImpl) ProviderType() string {
	return s.providerType
}

// ListTasks lists tasks with optional filters.
func (s *TaskServiceImpl) ListTasks(ctx context.Context, filters primary.TaskFilters) ([]models.Task, error) {
	tasks, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}

	result := []models.Task{}
	for _, t := range tasks {
		if filters.Status != "" && t.Status != filters.Status {
			continue
		}
		if filters.Tag != "" && !t.HasTag(filters.Tag) {
			continue
		}
		if filters.ParentID != "" && t.ParentID != filters.ParentID {
			continue
		}
		result = append(result, t)
	}
	return result, nil
}

// GetTask retrieves a task by ID from the current snapshot.
func (s *TaskServiceImpl) GetTask(ctx context.Context, taskID string) (*models.Task, error) {
	tasks, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	for i := range tasks {
		if tasks[i].ID == taskID {
			return &tasks[i], nil
		}
	}
	return nil, fmt.Errorf("task %s not found", taskID)
}

// CreateTask creates a new task.
func (s *TaskServiceImpl) CreateTask(ctx context.Context, req primary.CreateTaskRequest) (*models.Task, error) {
	// Guard before any I/O
	if err := task.CanCreateTask(task.CreateTaskContext{Title: &req.Title}).Error(); err != nil {
		return nil, err
	}
	if err := s.initialize(ctx); err != nil {
		return nil, err
	}

	input := models.TaskPatch{Title: &req.Title}
	if req.Description != "" {
		input.Description = &req.Description
	}
	if req.Priority != "" {
		priority := req.Priority
		input.Priority = &priority
	}
	if len(req.Tags) > 0 {
		tags := append([]string(nil), req.Tags...)
		input.Tags = &tags
	}
	if req.ParentID != "" {
		input.ParentID = &req.ParentID
	}
	if req.DueDate != nil {
		input.DueDate = req.DueDate
	}

	created, err := s.provider.CreateTask(ctx, s.projectPath, input)
	if err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}
	return created, nil
}

// UpdateTask applies a partial update to a task.
func (s *TaskServiceImpl) UpdateTask(ctx context.Context, req primary.UpdateTaskRequest) (*models.Task, error) {
	updates := req.Updates
	if err := task.CanUpdateTitle(updates.Title).Error(); err != nil {
		return nil, err
	}
	if updates.Status != nil && !updates.Status.Valid() {
		return nil, fmt.Errorf("invalid status %q", *updates.Status)
	}

	if updates.ParentID != nil && *updates.ParentID != "" {
		tasks, err := s.snapshot(ctx)
		if err != nil {
			return nil, err
		}
		parents := make(map[string]string, len(tasks))
		for _, t := range tasks {
			parents[t.ID] = t.ParentID
		}
		guard := task.CanSetParent(task.SetParentContext{
			TaskID:   req.TaskID,
			ParentID: *updates.ParentID,
			Parents:  parents,
		})
		if err := guard.Error(); err != nil {
			return nil, err
		}
	} else if err := s.initialize(ctx); err != nil {
		return nil, err
	}

	updated, err := s.provider.UpdateTask(ctx, s.projectPath, req.TaskID, updates)
	if err != nil {
		return nil, fmt.Errorf("failed to update task %s: %w", req.TaskID, err)
	}
	return updated, nil
}

// DeleteTask deletes a task.
func (s *TaskServiceImpl) DeleteTask(ctx context.Context, taskID string) error {
	if err := s.initialize(ctx); err != nil {
		return err
	}
	if err := s.provider.DeleteTask(ctx, s.projectPath, taskID); err != nil {
		return fmt.Errorf("failed to delete task %s: %w", taskID, err)
	}
	return nil
}

// WatchTasks polls the provider and delivers full snapshots until cancel is called.
func (s *TaskServiceImpl) WatchTasks(ctx context.Context, callback func([]models.Task)) (func(), error) {
	watcher, ok := s.provider.(secondary.TaskWatcher)
	if !ok {
		return nil, fmt.Errorf("provider %s does not support watching", s.providerType)
	}
	if err := s.initialize(ctx); err != nil {
		return nil, err
	}
	return watcher.WatchTasks(ctx, s.projectPath, callback), nil
}

// ListEvents lists journaled task events for the project, newest first.
func (s *TaskServiceImpl) ListEvents(ctx context.Context, filters primary.EventFilters) ([]*primary.Event, error) {
	if s.journal == nil {
		return nil, fmt.Errorf("event journal is not configured")
	}

	records, err := s.journal.List(ctx, secondary.EventFilters{
		ProjectPath: s.projectPath,
		TaskID:      filters.TaskID,
		EventType:   filters.EventType,
		Limit:       filters.Limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	events := make([]*primary.Event, len(records))
	for i, r := range records {
		events[i] = recordToEvent(r)
	}
	return events, nil
}

func (s *TaskServiceImpl) initialize(ctx context.Context) error {
	if err := s.provider.Initialize(ctx); err != nil {
		return fmt.Errorf("failed to initialize %s provider: %w", s.providerType, err)
	}
	return nil
}

func (s *TaskServiceImpl) snapshot(ctx context.Context) ([]models.Task, error) {
	if err := s.initialize(ctx); err != nil {
		return nil, err
	}
	tasks, err := s.provider.GetTasks(ctx, s.projectPath)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

// recordEvent runs inside the provider operation, so failures are logged
// rather than returned to the CRUD caller.
func (s *TaskServiceImpl) recordEvent(event models.TaskEvent) {
	if err := s.events.Write(context.Background(), event); err != nil {
		s.logger.Printf("failed to journal %s event for task %s: %v", event.Type, event.Task.ID, err)
	}
}

// Helper functions

func recordToEvent(r *secondary.EventRecord) *primary.Event {
	return &primary.Event{
		ID:             r.ID,
		EventType:      r.EventType,
		TaskID:         r.TaskID,
		TaskTitle:      r.TaskTitle,
		PreviousStatus: r.PreviousStatus,
		NewStatus:      r.NewStatus,
		ActorID:        r.ActorID,
		Timestamp:      r.Timestamp,
	}
}

// Ensure TaskServiceImpl implements the interface
var _ primary.TaskService = (*TaskServiceImpl)(nil)
