package manual

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"

	coretask "github.com/example/deck/internal/core/task"
	"github.com/example/deck/internal/models"
)

// vocabulary is the task service's status/priority spelling.
var vocabulary = coretask.NewVocabulary(coretask.VocabularySpec{
	Statuses: map[models.TaskStatus]string{
		models.TaskStatusPending:    "pending",
		models.TaskStatusInProgress: "in_progress",
		models.TaskStatusReview:     "review",
		models.TaskStatusDone:       "done",
		models.TaskStatusCancelled:  "cancelled",
		models.TaskStatusDeferred:   "deferred",
		models.TaskStatusBlocked:    "blocked",
	},
	StatusAliases: map[string]models.TaskStatus{
		"in-progress": models.TaskStatusInProgress,
		"inprogress":  models.TaskStatusInProgress,
		"todo":        models.TaskStatusPending,
		"completed":   models.TaskStatusDone,
		"canceled":    models.TaskStatusCancelled,
	},
	Priorities: map[models.TaskPriority]string{
		models.TaskPriorityLow:      "low",
		models.TaskPriorityMedium:   "medium",
		models.TaskPriorityHigh:     "high",
		models.TaskPriorityCritical: "critical",
	},
	PriorityAliases: map[string]models.TaskPriority{
		"urgent": models.TaskPriorityCritical,
	},
})

// wireID accepts a JSON string or number.
type wireID string

func (id *wireID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = wireID(s)
		return nil
	}
	if string(b) == "null" {
		*id = ""
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*id = wireID(n.String())
	return nil
}

// wireTask is a task record in the service's snake_case schema.
type wireTask struct {
	ID              wireID         `json:"id"`
	Title           string         `json:"title"`
	Description     *string        `json:"description,omitempty"`
	Status          string         `json:"status"`
	Priority        *string        `json:"priority,omitempty"`
	Tags            []string       `json:"tags,omitempty"`
	ParentID        *wireID        `json:"parent_id,omitempty"`
	Subtasks        []wireTask     `json:"subtasks,omitempty"`
	Dependencies    []string       `json:"dependencies,omitempty"`
	Blockers        []string       `json:"blockers,omitempty"`
	DueDate         *string        `json:"due_date,omitempty"`
	EstimatedHours  *float64       `json:"estimated_hours,omitempty"`
	ActualHours     *float64       `json:"actual_hours,omitempty"`
	ComplexityScore *float64       `json:"complexity_score,omitempty"`
	CreatedAt       *string        `json:"created_at,omitempty"`
	UpdatedAt       *string        `json:"updated_at,omitempty"`
	Metadata        map[string]any `json:"metadata,omitempty"`
}

// fieldMapping pairs a domain field with its wire name. patch extracts the
// outbound value from a TaskPatch; it is nil for server-owned fields.
type fieldMapping struct {
	Domain string
	Wire   string
	patch  func(p models.TaskPatch) (any, bool)
}

// fieldMap is the complete translation table between models.Task and
// wireTask. Every Task field must appear here.
var fieldMap = []fieldMapping{
	{Domain: "id", Wire: "id"},
	{Domain: "title", Wire: "title", patch: func(p models.TaskPatch) (any, bool) {
		if p.Title == nil {
			return nil, false
		}
		return *p.Title, true
	}},
	{Domain: "description", Wire: "description", patch: func(p models.TaskPatch) (any, bool) {
		if p.Description == nil {
			return nil, false
		}
		return *p.Description, true
	}},
	{Domain: "status", Wire: "status", patch: func(p models.TaskPatch) (any, bool) {
		if p.Status == nil {
			return nil, false
		}
		return vocabulary.FormatStatus(*p.Status), true
	}},
	{Domain: "priority", Wire: "priority", patch: func(p models.TaskPatch) (any, bool) {
		if p.Priority == nil {
			return nil, false
		}
		return nullIfEmpty(vocabulary.FormatPriority(*p.Priority)), true
	}},
	{Domain: "tags", Wire: "tags", patch: func(p models.TaskPatch) (any, bool) {
		if p.Tags == nil {
			return nil, false
		}
		return nonNil(*p.Tags), true
	}},
	{Domain: "parentId", Wire: "parent_id", patch: func(p models.TaskPatch) (any, bool) {
		if p.ParentID == nil {
			return nil, false
		}
		return nullIfEmpty(*p.ParentID), true
	}},
	{Domain: "subtasks", Wire: "subtasks"},
	{Domain: "dependencies", Wire: "dependencies", patch: func(p models.TaskPatch) (any, bool) {
		if p.Dependencies == nil {
			return nil, false
		}
		return nonNil(*p.Dependencies), true
	}},
	{Domain: "blockers", Wire: "blockers", patch: func(p models.TaskPatch) (any, bool) {
		if p.Blockers == nil {
			return nil, false
		}
		return nonNil(*p.Blockers), true
	}},
	{Domain: "dueDate", Wire: "due_date", patch: func(p models.TaskPatch) (any, bool) {
		if p.DueDate == nil {
			return nil, false
		}
		return formatTime(*p.DueDate), true
	}},
	{Domain: "estimatedHours", Wire: "estimated_hours", patch: func(p models.TaskPatch) (any, bool) {
		if p.EstimatedHours == nil {
			return nil, false
		}
		return *p.EstimatedHours, true
	}},
	{Domain: "actualHours", Wire: "actual_hours", patch: func(p models.TaskPatch) (any, bool) {
		if p.ActualHours == nil {
			return nil, false
		}
		return *p.ActualHours, true
	}},
	{Domain: "complexityScore", Wire: "complexity_score", patch: func(p models.TaskPatch) (any, bool) {
		if p.ComplexityScore == nil {
			return nil, false
		}
		return *p.ComplexityScore, true
	}},
	{Domain: "createdAt", Wire: "created_at"},
	{Domain: "updatedAt", Wire: "updated_at"},
	{Domain: "metadata", Wire: "metadata", patch: func(p models.TaskPatch) (any, bool) {
		if p.Metadata == nil {
			return nil, false
		}
		return p.Metadata, true
	}},
}

// toWirePayload renders the set fields of p under their wire names.
func toWirePayload(p models.TaskPatch) map[string]any {
	payload := make(map[string]any)
	for _, m := range fieldMap {
		if m.patch == nil {
			continue
		}
		if v, ok := m.patch(p); ok {
			payload[m.Wire] = v
		}
	}
	return payload
}

// toDomain translates an inbound record. Optional dates are parsed only when
// present; malformed ones are treated as absent.
func toDomain(w wireTask) models.Task {
	t := models.Task{
		ID:              string(w.ID),
		Title:           w.Title,
		Status:          vocabulary.StatusOrPending(w.Status),
		Tags:            w.Tags,
		Dependencies:    w.Dependencies,
		Blockers:        w.Blockers,
		EstimatedHours:  w.EstimatedHours,
		ActualHours:     w.ActualHours,
		ComplexityScore: w.ComplexityScore,
		Metadata:        w.Metadata,
	}
	if w.Description != nil {
		t.Description = *w.Description
	}
	if w.Priority != nil {
		t.Priority = vocabulary.ParsePriority(*w.Priority)
	}
	if w.ParentID != nil {
		t.ParentID = string(*w.ParentID)
	}
	t.DueDate = parseTime(w.DueDate)
	if created := parseTime(w.CreatedAt); created != nil {
		t.CreatedAt = *created
	}
	if updated := parseTime(w.UpdatedAt); updated != nil {
		t.UpdatedAt = *updated
	}
	for _, sub := range w.Subtasks {
		t.Subtasks = append(t.Subtasks, toDomain(sub))
	}
	return t
}

// fromDomain renders a full task in the wire schema.
func fromDomain(t models.Task) wireTask {
	w := wireTask{
		ID:              wireID(t.ID),
		Title:           t.Title,
		Status:          vocabulary.FormatStatus(t.Status),
		Tags:            t.Tags,
		Dependencies:    t.Dependencies,
		Blockers:        t.Blockers,
		EstimatedHours:  t.EstimatedHours,
		ActualHours:     t.ActualHours,
		ComplexityScore: t.ComplexityScore,
		Metadata:        t.Metadata,
	}
	if t.Description != "" {
		desc := t.Description
		w.Description = &desc
	}
	if p := vocabulary.FormatPriority(t.Priority); p != "" {
		w.Priority = &p
	}
	if t.ParentID != "" {
		parent := wireID(t.ParentID)
		w.ParentID = &parent
	}
	if t.DueDate != nil {
		due := formatTime(*t.DueDate)
		w.DueDate = &due
	}
	if !t.CreatedAt.IsZero() {
		created := formatTime(t.CreatedAt)
		w.CreatedAt = &created
	}
	if !t.UpdatedAt.IsZero() {
		updated := formatTime(t.UpdatedAt)
		w.UpdatedAt = &updated
	}
	for _, sub := range t.Subtasks {
		w.Subtasks = append(w.Subtasks, fromDomain(sub))
	}
	return w
}

func parseTime(s *string) *time.Time {
	if s == nil || *s == "" {
		return nil
	}
	parsed, err := time.Parse(time.RFC3339Nano, *s)
	if err != nil {
		// Some deployments send epoch milliseconds as a string.
		ms, convErr := strconv.ParseInt(*s, 10, 64)
		if convErr != nil {
			return nil
		}
		parsed = time.UnixMilli(ms).UTC()
	}
	return &parsed
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
