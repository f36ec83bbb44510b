// Package models contains the backend-agnostic domain types shared by every task provider.
// Adapters translate their wire or document formats into these types and back.
package models

import "time"

// TaskStatus is the closed status enumeration of the domain.
type TaskStatus string

// Task status constants
const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in-progress"
	TaskStatusReview     TaskStatus = "review"
	TaskStatusDone       TaskStatus = "done"
	TaskStatusCancelled  TaskStatus = "cancelled"
	TaskStatusDeferred   TaskStatus = "deferred"
	TaskStatusBlocked    TaskStatus = "blocked"
)

// TaskStatuses lists every member of the status enumeration.
var TaskStatuses = []TaskStatus{
	TaskStatusPending,
	TaskStatusInProgress,
	TaskStatusReview,
	TaskStatusDone,
	TaskStatusCancelled,
	TaskStatusDeferred,
	TaskStatusBlocked,
}

// Valid reports whether s is a member of the enumeration.
func (s TaskStatus) Valid() bool {
	for _, known := range TaskStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// TaskPriority is optional; the empty value means no priority.
type TaskPriority string

// Task priority constants
const (
	TaskPriorityLow      TaskPriority = "low"
	TaskPriorityMedium   TaskPriority = "medium"
	TaskPriorityHigh     TaskPriority = "high"
	TaskPriorityCritical TaskPriority = "critical"
)

// TaskPriorities lists every non-empty priority.
var TaskPriorities = []TaskPriority{
	TaskPriorityLow,
	TaskPriorityMedium,
	TaskPriorityHigh,
	TaskPriorityCritical,
}

// Task is the canonical unit of work, normalized across all backends.
//
// Subtasks are populated lazily by some adapters and are never authoritative;
// the flat slice returned by GetTasks is. Dependencies, Blockers and ParentID
// may reference tasks that no longer exist.
type Task struct {
	ID              string         `json:"id"`
	Title           string         `json:"title"`
	Description     string         `json:"description,omitempty"`
	Status          TaskStatus     `json:"status"`
	Priority        TaskPriority   `json:"priority,omitempty"`
	Tags            []string       `json:"tags,omitempty"`
	ParentID        string         `json:"parentId,omitempty"`
	Subtasks        []Task         `json:"subtasks,omitempty"`
	Dependencies    []string       `json:"dependencies,omitempty"`
	Blockers        []string       `json:"blockers,omitempty"`
	DueDate         *time.Time     `json:"dueDate,omitempty"`
	EstimatedHours  *float64       `json:"estimatedHours,omitempty"`
	ActualHours     *float64       `json:"actualHours,omitempty"`
	ComplexityScore *float64       `json:"complexityScore,omitempty"`
	CreatedAt       time.Time      `json:"createdAt"`
	UpdatedAt       time.Time      `json:"updatedAt"`
	Metadata        map[string]any `json:"metadata,omitempty"`
}

// HasTag reports whether the task carries the given tag.
func (t *Task) HasTag(tag string) bool {
	for _, existing := range t.Tags {
		if existing == tag {
			return true
		}
	}
	return false
}

// TaskPatch is a partial task. A non-nil field replaces the stored value
// wholesale; nil fields are left untouched. It is used both for creation
// (Title required) and for updates.
type TaskPatch struct {
	Title           *string
	Description     *string
	Status          *TaskStatus
	Priority        *TaskPriority
	Tags            *[]string
	ParentID        *string
	Dependencies    *[]string
	Blockers        *[]string
	DueDate         *time.Time
	EstimatedHours  *float64
	ActualHours     *float64
	ComplexityScore *float64
	Metadata        map[string]any
}

// Apply copies every set field of p onto t.
func (p TaskPatch) Apply(t *Task) {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.Tags != nil {
		t.Tags = append([]string(nil), (*p.Tags)...)
	}
	if p.ParentID != nil {
		t.ParentID = *p.ParentID
	}
	if p.Dependencies != nil {
		t.Dependencies = append([]string(nil), (*p.Dependencies)...)
	}
	if p.Blockers != nil {
		t.Blockers = append([]string(nil), (*p.Blockers)...)
	}
	if p.DueDate != nil {
		due := *p.DueDate
		t.DueDate = &due
	}
	if p.EstimatedHours != nil {
		v := *p.EstimatedHours
		t.EstimatedHours = &v
	}
	if p.ActualHours != nil {
		v := *p.ActualHours
		t.ActualHours = &v
	}
	if p.ComplexityScore != nil {
		v := *p.ComplexityScore
		t.ComplexityScore = &v
	}
	if p.Metadata != nil {
		t.Metadata = p.Metadata
	}
}
