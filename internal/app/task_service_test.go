package app

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/example/deck/internal/models"
	"github.com/example/deck/internal/ports/primary"
	"github.com/example/deck/internal/ports/secondary"
	"github.com/example/deck/internal/provider"
)

// ============================================================================
// Mock Implementations
// ============================================================================

// mockTaskProvider implements secondary.TaskProvider for testing.
type mockTaskProvider struct {
	tasks       []models.Task
	events      *provider.Emitter
	initErr     error
	getErr      error
	createErr   error
	initCalls   int
	getCalls    int
	createCalls int
	updateCalls int
	deleteCalls int
	lastPatch   models.TaskPatch
}

func newMockTaskProvider(tasks ...models.Task) *mockTaskProvider {
	return &mockTaskProvider{tasks: tasks, events: provider.NewEmitter()}
}

func (m *mockTaskProvider) Initialize(ctx context.Context) error {
	m.initCalls++
	return m.initErr
}

func (m *mockTaskProvider) GetTasks(ctx context.Context, projectPath string) ([]models.Task, error) {
	m.getCalls++
	if m.getErr != nil {
		return nil, m.getErr
	}
	return append([]models.Task(nil), m.tasks...), nil
}

func (m *mockTaskProvider) CreateTask(ctx context.Context, projectPath string, input models.TaskPatch) (*models.Task, error) {
	m.createCalls++
	m.lastPatch = input
	if m.createErr != nil {
		return nil, m.createErr
	}
	t := models.Task{ID: "new", Status: models.TaskStatusPending}
	input.Apply(&t)
	m.tasks = append(m.tasks, t)
	m.events.Created(t)
	return &t, nil
}

func (m *mockTaskProvider) UpdateTask(ctx context.Context, projectPath, taskID string, updates models.TaskPatch) (*models.Task, error) {
	m.updateCalls++
	m.lastPatch = updates
	for i := range m.tasks {
		if m.tasks[i].ID == taskID {
			previous := m.tasks[i].Status
			updates.Apply(&m.tasks[i])
			t := m.tasks[i]
			m.events.Updated(t, previous)
			return &t, nil
		}
	}
	return nil, &provider.TransportError{StatusCode: 404, Message: "Resource not found"}
}

func (m *mockTaskProvider) DeleteTask(ctx context.Context, projectPath, taskID string) error {
	m.deleteCalls++
	m.events.Deleted(taskID)
	return nil
}

func (m *mockTaskProvider) Subscribe(handler func(models.TaskEvent)) func() {
	return m.events.Subscribe(handler)
}

// mockWatchingProvider adds the optional watch capability.
type mockWatchingProvider struct {
	*mockTaskProvider
	watchCalls int
}

func (m *mockWatchingProvider) WatchTasks(ctx context.Context, projectPath string, callback func([]models.Task)) func() {
	m.watchCalls++
	callback(m.tasks)
	return func() {}
}

// mockEventWriter implements secondary.EventWriter for testing.
type mockEventWriter struct {
	mu     sync.Mutex
	events []models.TaskEvent
	err    error
}

func (m *mockEventWriter) Write(ctx context.Context, event models.TaskEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, event)
	return nil
}

// mockEventJournal implements secondary.EventJournal for testing.
type mockEventJournal struct {
	records     []*secondary.EventRecord
	lastFilters secondary.EventFilters
	listErr     error
}

func (m *mockEventJournal) Append(ctx context.Context, record *secondary.EventRecord) error {
	m.records = append(m.records, record)
	return nil
}

func (m *mockEventJournal) List(ctx context.Context, filters secondary.EventFilters) ([]*secondary.EventRecord, error) {
	m.lastFilters = filters
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.records, nil
}

func newTestService(p secondary.TaskProvider, events secondary.EventWriter, journal secondary.EventJournal) (*TaskServiceImpl, *strings.Builder) {
	var logs strings.Builder
	return NewTaskService(p, "mock", "/srv/app", events, journal, log.New(&logs, "", 0)), &logs
}

func sampleTasks() []models.Task {
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return []models.Task{
		{ID: "1", Title: "Root", Status: models.TaskStatusPending, Tags: []string{"master"}, CreatedAt: created, UpdatedAt: created},
		{ID: "2", Title: "Child", Status: models.TaskStatusDone, ParentID: "1", CreatedAt: created, UpdatedAt: created},
		{ID: "3", Title: "Grandchild", Status: models.TaskStatusPending, ParentID: "2", Tags: []string{"master"}, CreatedAt: created, UpdatedAt: created},
	}
}

func strPtr(s string) *string { return &s }

// ============================================================================
// Tests
// ============================================================================

func TestListTasks(t *testing.T) {
	tests := []struct {
		name    string
		filters primary.TaskFilters
		want    []string
	}{
		{"no filters", primary.TaskFilters{}, []string{"1", "2", "3"}},
		{"by status", primary.TaskFilters{Status: models.TaskStatusPending}, []string{"1", "3"}},
		{"by tag", primary.TaskFilters{Tag: "master"}, []string{"1", "3"}},
		{"by parent", primary.TaskFilters{ParentID: "1"}, []string{"2"}},
		{"no match", primary.TaskFilters{Status: models.TaskStatusBlocked}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newMockTaskProvider(sampleTasks()...)
			service, _ := newTestService(p, nil, nil)

			tasks, err := service.ListTasks(context.Background(), tt.filters)
			if err != nil {
				t.Fatalf("ListTasks failed: %v", err)
			}
			got := []string{}
			for _, task := range tasks {
				got = append(got, task.ID)
			}
			if strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Errorf("ids = %v, want %v", got, tt.want)
			}
			if p.initCalls != 1 {
				t.Errorf("Initialize calls = %d, want 1", p.initCalls)
			}
		})
	}
}

func TestListTasks_InitializeFailure(t *testing.T) {
	p := newMockTaskProvider()
	p.initErr = &provider.ConnectionError{Target: "http://localhost:1", Err: errors.New("refused")}
	service, _ := newTestService(p, nil, nil)

	_, err := service.ListTasks(context.Background(), primary.TaskFilters{})
	var connErr *provider.ConnectionError
	if !errors.As(err, &connErr) {
		t.Fatalf("expected ConnectionError, got %v", err)
	}
	if p.getCalls != 0 {
		t.Errorf("GetTasks calls = %d, want 0", p.getCalls)
	}
}

func TestGetTask(t *testing.T) {
	service, _ := newTestService(newMockTaskProvider(sampleTasks()...), nil, nil)

	task, err := service.GetTask(context.Background(), "2")
	if err != nil {
		t.Fatalf("GetTask failed: %v", err)
	}
	if task.Title != "Child" {
		t.Errorf("Title = %q, want Child", task.Title)
	}

	if _, err := service.GetTask(context.Background(), "99"); err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("expected not found error, got %v", err)
	}
}

func TestCreateTask(t *testing.T) {
	t.Run("passes set fields to provider", func(t *testing.T) {
		p := newMockTaskProvider()
		service, _ := newTestService(p, nil, nil)
		due := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

		task, err := service.CreateTask(context.Background(), primary.CreateTaskRequest{
			Title:    "Fix bug",
			Priority: models.TaskPriorityHigh,
			Tags:     []string{"api"},
			DueDate:  &due,
		})
		if err != nil {
			t.Fatalf("CreateTask failed: %v", err)
		}
		if task.Title != "Fix bug" || task.Priority != models.TaskPriorityHigh {
			t.Errorf("task = %+v", task)
		}
		if p.lastPatch.Description != nil || p.lastPatch.ParentID != nil {
			t.Errorf("unset fields were sent: %+v", p.lastPatch)
		}
		if p.lastPatch.Tags == nil || (*p.lastPatch.Tags)[0] != "api" {
			t.Errorf("Tags = %v", p.lastPatch.Tags)
		}
	})

	t.Run("blank title fails before any I/O", func(t *testing.T) {
		p := newMockTaskProvider()
		service, _ := newTestService(p, nil, nil)

		_, err := service.CreateTask(context.Background(), primary.CreateTaskRequest{Title: "   "})
		if err == nil {
			t.Fatal("expected error for blank title")
		}
		if p.initCalls != 0 || p.createCalls != 0 {
			t.Errorf("init calls = %d, create calls = %d, want 0", p.initCalls, p.createCalls)
		}
	})

	t.Run("wraps provider errors", func(t *testing.T) {
		p := newMockTaskProvider()
		p.createErr = &provider.TransportError{StatusCode: 500, Message: "Server error"}
		service, _ := newTestService(p, nil, nil)

		_, err := service.CreateTask(context.Background(), primary.CreateTaskRequest{Title: "x"})
		var tErr *provider.TransportError
		if !errors.As(err, &tErr) || tErr.StatusCode != 500 {
			t.Errorf("expected TransportError 500, got %v", err)
		}
	})
}

func TestUpdateTask(t *testing.T) {
	tests := []struct {
		name        string
		taskID      string
		updates     models.TaskPatch
		wantErr     string
		wantUpdates int
	}{
		{
			name:        "status change",
			taskID:      "1",
			updates:     models.TaskPatch{Status: statusPtr(models.TaskStatusDone)},
			wantUpdates: 1,
		},
		{
			name:    "blank title",
			taskID:  "1",
			updates: models.TaskPatch{Title: strPtr("")},
			wantErr: "title cannot be blank",
		},
		{
			name:    "invalid status",
			taskID:  "1",
			updates: models.TaskPatch{Status: statusPtr("started")},
			wantErr: "invalid status",
		},
		{
			name:    "own parent",
			taskID:  "1",
			updates: models.TaskPatch{ParentID: strPtr("1")},
			wantErr: "own parent",
		},
		{
			name:    "parent cycle",
			taskID:  "1",
			updates: models.TaskPatch{ParentID: strPtr("3")},
			wantErr: "cycle",
		},
		{
			name:        "dangling parent tolerated",
			taskID:      "3",
			updates:     models.TaskPatch{ParentID: strPtr("gone")},
			wantUpdates: 1,
		},
		{
			name:        "clearing parent",
			taskID:      "3",
			updates:     models.TaskPatch{ParentID: strPtr("")},
			wantUpdates: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newMockTaskProvider(sampleTasks()...)
			service, _ := newTestService(p, nil, nil)

			_, err := service.UpdateTask(context.Background(), primary.UpdateTaskRequest{TaskID: tt.taskID, Updates: tt.updates})
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("error = %v, want containing %q", err, tt.wantErr)
				}
			} else if err != nil {
				t.Fatalf("UpdateTask failed: %v", err)
			}
			if p.updateCalls != tt.wantUpdates {
				t.Errorf("update calls = %d, want %d", p.updateCalls, tt.wantUpdates)
			}
		})
	}
}

func TestUpdateTask_NotFoundKeepsTypedError(t *testing.T) {
	service, _ := newTestService(newMockTaskProvider(), nil, nil)

	_, err := service.UpdateTask(context.Background(), primary.UpdateTaskRequest{TaskID: "x", Updates: models.TaskPatch{Title: strPtr("y")}})
	if !provider.IsNotFound(err) {
		t.Errorf("expected not-found TransportError, got %v", err)
	}
}

func TestDeleteTask(t *testing.T) {
	p := newMockTaskProvider(sampleTasks()...)
	service, _ := newTestService(p, nil, nil)

	if err := service.DeleteTask(context.Background(), "1"); err != nil {
		t.Fatalf("DeleteTask failed: %v", err)
	}
	if p.initCalls != 1 || p.deleteCalls != 1 {
		t.Errorf("init calls = %d, delete calls = %d", p.initCalls, p.deleteCalls)
	}
}

func TestEventsAreJournaled(t *testing.T) {
	p := newMockTaskProvider(sampleTasks()...)
	writer := &mockEventWriter{}
	service, _ := newTestService(p, writer, &mockEventJournal{})
	ctx := context.Background()

	if _, err := service.CreateTask(ctx, primary.CreateTaskRequest{Title: "A"}); err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}
	if _, err := service.UpdateTask(ctx, primary.UpdateTaskRequest{TaskID: "1", Updates: models.TaskPatch{Status: statusPtr(models.TaskStatusReview)}}); err != nil {
		t.Fatalf("UpdateTask failed: %v", err)
	}
	if err := service.DeleteTask(ctx, "2"); err != nil {
		t.Fatalf("DeleteTask failed: %v", err)
	}

	if len(writer.events) != 3 {
		t.Fatalf("journaled %d events, want 3", len(writer.events))
	}
	wantTypes := []models.EventType{models.EventCreated, models.EventUpdated, models.EventDeleted}
	for i, want := range wantTypes {
		if writer.events[i].Type != want {
			t.Errorf("event %d type = %s, want %s", i, writer.events[i].Type, want)
		}
	}
	if prev := writer.events[1].PreviousStatus; prev == nil || *prev != models.TaskStatusPending {
		t.Errorf("PreviousStatus = %v, want pending", prev)
	}

	service.Close()
	if err := service.DeleteTask(ctx, "3"); err != nil {
		t.Fatalf("DeleteTask failed: %v", err)
	}
	if len(writer.events) != 3 {
		t.Errorf("journaled %d events after Close, want 3", len(writer.events))
	}
}

func TestJournalFailureIsLoggedNotReturned(t *testing.T) {
	p := newMockTaskProvider()
	writer := &mockEventWriter{err: errors.New("disk full")}
	service, logs := newTestService(p, writer, nil)

	if _, err := service.CreateTask(context.Background(), primary.CreateTaskRequest{Title: "A"}); err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}
	if !strings.Contains(logs.String(), "disk full") {
		t.Errorf("log = %q, want journal failure", logs.String())
	}
}

func TestWatchTasks(t *testing.T) {
	t.Run("provider without capability", func(t *testing.T) {
		p := newMockTaskProvider()
		service, _ := newTestService(p, nil, nil)

		_, err := service.WatchTasks(context.Background(), func([]models.Task) {})
		if err == nil || !strings.Contains(err.Error(), "does not support watching") {
			t.Errorf("error = %v", err)
		}
		if p.initCalls != 0 {
			t.Errorf("Initialize calls = %d, want 0", p.initCalls)
		}
	})

	t.Run("delegates to watcher", func(t *testing.T) {
		p := &mockWatchingProvider{mockTaskProvider: newMockTaskProvider(sampleTasks()...)}
		service, _ := newTestService(p, nil, nil)

		var got []models.Task
		cancel, err := service.WatchTasks(context.Background(), func(tasks []models.Task) { got = tasks })
		if err != nil {
			t.Fatalf("WatchTasks failed: %v", err)
		}
		defer cancel()
		if p.watchCalls != 1 || len(got) != 3 {
			t.Errorf("watch calls = %d, snapshot = %d tasks", p.watchCalls, len(got))
		}
	})
}

func TestListEvents(t *testing.T) {
	t.Run("scopes to project", func(t *testing.T) {
		journal := &mockEventJournal{records: []*secondary.EventRecord{
			{ID: "EV-2", EventType: "updated", TaskID: "1", PreviousStatus: "pending", NewStatus: "done", Timestamp: "2024-06-01T11:00:00Z"},
			{ID: "EV-1", EventType: "created", TaskID: "1", NewStatus: "pending", Timestamp: "2024-06-01T10:00:00Z"},
		}}
		service, _ := newTestService(newMockTaskProvider(), nil, journal)

		events, err := service.ListEvents(context.Background(), primary.EventFilters{TaskID: "1", Limit: 5})
		if err != nil {
			t.Fatalf("ListEvents failed: %v", err)
		}
		if journal.lastFilters.ProjectPath != "/srv/app" || journal.lastFilters.TaskID != "1" || journal.lastFilters.Limit != 5 {
			t.Errorf("filters = %+v", journal.lastFilters)
		}
		if len(events) != 2 || events[0].ID != "EV-2" || events[0].PreviousStatus != "pending" {
			t.Errorf("events = %+v", events)
		}
	})

	t.Run("no journal", func(t *testing.T) {
		service, _ := newTestService(newMockTaskProvider(), nil, nil)
		if _, err := service.ListEvents(context.Background(), primary.EventFilters{}); err == nil {
			t.Error("expected error without a journal")
		}
	})
}

func TestProviderType(t *testing.T) {
	service, _ := newTestService(newMockTaskProvider(), nil, nil)
	if got := service.ProviderType(); got != "mock" {
		t.Errorf("ProviderType() = %q, want mock", got)
	}
}

func statusPtr(s models.TaskStatus) *models.TaskStatus { return &s }
