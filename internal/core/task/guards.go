// Package task contains the pure business logic for task operations.
// Guards are pure functions that evaluate preconditions without side effects.
package task

import (
	"fmt"
	"strings"

	"github.com/example/deck/internal/models"
)

// GuardResult represents the outcome of a guard evaluation.
type GuardResult struct {
	Allowed bool
	Field   string
	Reason  string
}

// Error converts the guard result to an error if not allowed.
func (r GuardResult) Error() error {
	if r.Allowed {
		return nil
	}
	return fmt.Errorf("%s", r.Reason)
}

// CreateTaskContext provides context for task creation guards.
type CreateTaskContext struct {
	Title *string // nil when the caller did not supply one
}

// SetParentContext provides context for re-parenting guards.
type SetParentContext struct {
	TaskID   string
	ParentID string
	// Parents maps task ID to parent ID for the current snapshot.
	Parents map[string]string
}

// CanCreateTask evaluates whether a task can be created.
// Rules:
// - Title must be present and non-blank after trimming
func CanCreateTask(ctx CreateTaskContext) GuardResult {
	if ctx.Title == nil || strings.TrimSpace(*ctx.Title) == "" {
		return GuardResult{
			Allowed: false,
			Field:   "title",
			Reason:  "title is required",
		}
	}

	return GuardResult{Allowed: true}
}

// CanUpdateTitle evaluates a title update. Clearing a title is not allowed;
// leaving it untouched is.
func CanUpdateTitle(title *string) GuardResult {
	if title != nil && strings.TrimSpace(*title) == "" {
		return GuardResult{
			Allowed: false,
			Field:   "title",
			Reason:  "title cannot be blank",
		}
	}

	return GuardResult{Allowed: true}
}

// CanSetParent evaluates whether TaskID may be placed under ParentID.
// Rules:
// - A task cannot be its own parent
// - A task cannot become its own ancestor
// Dangling parent references are tolerated.
func CanSetParent(ctx SetParentContext) GuardResult {
	if ctx.ParentID == "" {
		return GuardResult{Allowed: true}
	}
	if ctx.ParentID == ctx.TaskID {
		return GuardResult{
			Allowed: false,
			Field:   "parentId",
			Reason:  fmt.Sprintf("task %s cannot be its own parent", ctx.TaskID),
		}
	}

	seen := map[string]bool{}
	for cur := ctx.ParentID; cur != ""; cur = ctx.Parents[cur] {
		if cur == ctx.TaskID {
			return GuardResult{
				Allowed: false,
				Field:   "parentId",
				Reason:  fmt.Sprintf("moving task %s under %s would create a cycle", ctx.TaskID, ctx.ParentID),
			}
		}
		if seen[cur] {
			break
		}
		seen[cur] = true
	}

	return GuardResult{Allowed: true}
}

// Sanitize enforces the return contract every provider owes its callers:
// a non-empty title, a status from the enumeration, and UpdatedAt no earlier
// than CreatedAt.
func Sanitize(t *models.Task) {
	if strings.TrimSpace(t.Title) == "" {
		t.Title = "(untitled)"
	}
	if !t.Status.Valid() {
		t.Status = models.TaskStatusPending
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = t.UpdatedAt
	}
	if t.UpdatedAt.Before(t.CreatedAt) {
		t.UpdatedAt = t.CreatedAt
	}
	for i := range t.Subtasks {
		Sanitize(&t.Subtasks[i])
	}
}
