// Package cli provides thin CLI adapters that translate between CLI concerns
// and application services. Adapters handle output formatting but delegate
// business logic to services.
package cli

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"

	"github.com/example/deck/internal/models"
	"github.com/example/deck/internal/ports/primary"
)

// TaskAdapter is a thin adapter that translates CLI operations to TaskService calls.
// It depends only on the TaskService interface, enabling easy testing with mocks.
type TaskAdapter struct {
	service primary.TaskService
	out     io.Writer
}

// NewTaskAdapter creates a new TaskAdapter with the given service.
func NewTaskAdapter(service primary.TaskService, out io.Writer) *TaskAdapter {
	return &TaskAdapter{
		service: service,
		out:     out,
	}
}

// Create creates a new task.
func (a *TaskAdapter) Create(ctx context.Context, req primary.CreateTaskRequest) error {
	task, err := a.service.CreateTask(ctx, req)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "✓ Created task %s: %s\n", task.ID, task.Title)
	return nil
}

// List lists tasks with optional filters.
func (a *TaskAdapter) List(ctx context.Context, filters primary.TaskFilters) error {
	tasks, err := a.service.ListTasks(ctx, filters)
	if err != nil {
		return err
	}

	if len(tasks) == 0 {
		fmt.Fprintln(a.out, "No tasks found")
		return nil
	}

	fmt.Fprintf(a.out, "\n%-15s %-13s %-9s %s\n", "ID", "STATUS", "PRIORITY", "TITLE")
	fmt.Fprintln(a.out, "────────────────────────────────────────────────────────────────")
	for _, t := range tasks {
		title := t.Title
		if t.ParentID != "" {
			title = "  ↳ " + title
		}
		fmt.Fprintf(a.out, "%-15s %s %-9s %s\n", t.ID, statusCell(t.Status), priorityText(t.Priority), title)
	}
	fmt.Fprintf(a.out, "\n%d task(s) from %s\n", len(tasks), a.service.ProviderType())

	return nil
}

// Show displays details for a single task.
func (a *TaskAdapter) Show(ctx context.Context, taskID string) (*models.Task, error) {
	task, err := a.service.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}

	fmt.Fprintf(a.out, "\nTask: %s\n", task.ID)
	fmt.Fprintf(a.out, "Title:   %s\n", task.Title)
	fmt.Fprintf(a.out, "Status:  %s\n", statusText(task.Status))
	if task.Priority != "" {
		fmt.Fprintf(a.out, "Priority: %s\n", task.Priority)
	}
	if task.Description != "" {
		fmt.Fprintf(a.out, "Description: %s\n", task.Description)
	}
	if task.ParentID != "" {
		fmt.Fprintf(a.out, "Parent:  %s\n", task.ParentID)
	}
	if len(task.Tags) > 0 {
		fmt.Fprintf(a.out, "Tags:    %s\n", strings.Join(task.Tags, ", "))
	}
	if len(task.Dependencies) > 0 {
		fmt.Fprintf(a.out, "Depends on: %s\n", strings.Join(task.Dependencies, ", "))
	}
	if len(task.Blockers) > 0 {
		fmt.Fprintf(a.out, "Blocked by: %s\n", color.New(color.FgRed).Sprint(strings.Join(task.Blockers, ", ")))
	}
	if task.DueDate != nil {
		fmt.Fprintf(a.out, "Due:     %s\n", task.DueDate.Format("2006-01-02"))
	}
	if task.EstimatedHours != nil {
		fmt.Fprintf(a.out, "Estimate: %gh\n", *task.EstimatedHours)
	}
	fmt.Fprintf(a.out, "Created: %s\n", task.CreatedAt.Format(time.RFC3339))
	fmt.Fprintf(a.out, "Updated: %s\n", task.UpdatedAt.Format(time.RFC3339))
	fmt.Fprintln(a.out)

	return task, nil
}

// Update applies a partial update to a task.
func (a *TaskAdapter) Update(ctx context.Context, taskID string, updates models.TaskPatch) error {
	if isEmptyPatch(updates) {
		return fmt.Errorf("must specify at least one field to update")
	}

	task, err := a.service.UpdateTask(ctx, primary.UpdateTaskRequest{TaskID: taskID, Updates: updates})
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "✓ Task %s updated (%s)\n", task.ID, statusText(task.Status))
	return nil
}

// Delete deletes a task.
func (a *TaskAdapter) Delete(ctx context.Context, taskID string) error {
	if err := a.service.DeleteTask(ctx, taskID); err != nil {
		return err
	}

	fmt.Fprintf(a.out, "✓ Task %s deleted\n", taskID)
	return nil
}

// Watch prints a line for every task added, changed or removed between
// snapshots until ctx is cancelled.
func (a *TaskAdapter) Watch(ctx context.Context) error {
	var (
		mu   sync.Mutex
		seen map[string]string
	)
	cancel, err := a.service.WatchTasks(ctx, func(tasks []models.Task) {
		mu.Lock()
		defer mu.Unlock()
		current := fingerprints(tasks)
		if seen != nil {
			a.printChanges(seen, current, tasks)
		} else {
			fmt.Fprintf(a.out, "Watching %d task(s) via %s (Ctrl+C to stop)\n", len(tasks), a.service.ProviderType())
		}
		seen = current
	})
	if err != nil {
		return err
	}
	defer cancel()

	<-ctx.Done()
	return nil
}

func (a *TaskAdapter) printChanges(before, after map[string]string, tasks []models.Task) {
	byID := make(map[string]models.Task, len(tasks))
	for _, t := range tasks {
		byID[t.ID] = t
	}

	ids := make([]string, 0, len(after))
	for id := range after {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		old, existed := before[id]
		switch {
		case !existed:
			fmt.Fprintf(a.out, "%s %s %s\n", color.New(color.FgGreen).Sprint("+"), id, byID[id].Title)
		case old != after[id]:
			fmt.Fprintf(a.out, "%s %s %s [%s]\n", color.New(color.FgYellow).Sprint("~"), id, byID[id].Title, statusText(byID[id].Status))
		}
	}

	removed := []string{}
	for id := range before {
		if _, ok := after[id]; !ok {
			removed = append(removed, id)
		}
	}
	sort.Strings(removed)
	for _, id := range removed {
		fmt.Fprintf(a.out, "%s %s\n", color.New(color.FgRed).Sprint("-"), id)
	}
}

// Events lists journaled task events.
func (a *TaskAdapter) Events(ctx context.Context, filters primary.EventFilters) error {
	events, err := a.service.ListEvents(ctx, filters)
	if err != nil {
		return err
	}

	if len(events) == 0 {
		fmt.Fprintln(a.out, "No events found")
		return nil
	}

	fmt.Fprintf(a.out, "\n%-21s %-8s %-15s %s\n", "TIME", "EVENT", "TASK", "CHANGE")
	fmt.Fprintln(a.out, "────────────────────────────────────────────────────────────────")
	for _, e := range events {
		change := e.TaskTitle
		if e.PreviousStatus != "" {
			change = fmt.Sprintf("%s → %s", e.PreviousStatus, e.NewStatus)
		}
		if e.ActorID != "" {
			change += color.New(color.FgCyan).Sprintf(" (by %s)", e.ActorID)
		}
		fmt.Fprintf(a.out, "%-21s %-8s %-15s %s\n", e.Timestamp, e.EventType, e.TaskID, change)
	}
	fmt.Fprintln(a.out)

	return nil
}

// Helper functions

func isEmptyPatch(p models.TaskPatch) bool {
	return p.Title == nil && p.Description == nil && p.Status == nil && p.Priority == nil &&
		p.Tags == nil && p.ParentID == nil && p.Dependencies == nil && p.Blockers == nil &&
		p.DueDate == nil && p.EstimatedHours == nil && p.ActualHours == nil &&
		p.ComplexityScore == nil && p.Metadata == nil
}

func fingerprints(tasks []models.Task) map[string]string {
	out := make(map[string]string, len(tasks))
	for _, t := range tasks {
		out[t.ID] = fmt.Sprintf("%s|%s|%s|%s", t.Title, t.Status, t.Priority, t.UpdatedAt.Format(time.RFC3339Nano))
	}
	return out
}

// statusCell pads before colouring so escape codes do not break alignment.
func statusCell(s models.TaskStatus) string {
	return statusColor(s).Sprintf("%-13s", s)
}

func statusText(s models.TaskStatus) string {
	return statusColor(s).Sprint(s)
}

func statusColor(s models.TaskStatus) *color.Color {
	switch s {
	case models.TaskStatusDone:
		return color.New(color.FgGreen)
	case models.TaskStatusInProgress, models.TaskStatusReview:
		return color.New(color.FgYellow)
	case models.TaskStatusBlocked:
		return color.New(color.FgRed)
	case models.TaskStatusCancelled, models.TaskStatusDeferred:
		return color.New(color.FgHiBlack)
	default:
		return color.New(color.Reset)
	}
}

func priorityText(p models.TaskPriority) string {
	if p == "" {
		return "-"
	}
	return string(p)
}
