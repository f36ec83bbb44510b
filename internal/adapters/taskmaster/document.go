package taskmaster

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	coretask "github.com/example/deck/internal/core/task"
	"github.com/example/deck/internal/models"
)

// vocabulary is the taskmaster document's status/priority spelling.
var vocabulary = coretask.NewVocabulary(coretask.VocabularySpec{
	Statuses: map[models.TaskStatus]string{
		models.TaskStatusPending:    "pending",
		models.TaskStatusInProgress: "in-progress",
		models.TaskStatusReview:     "review",
		models.TaskStatusDone:       "done",
		models.TaskStatusCancelled:  "cancelled",
		models.TaskStatusDeferred:   "deferred",
		models.TaskStatusBlocked:    "blocked",
	},
	StatusAliases: map[string]models.TaskStatus{
		"in_progress": models.TaskStatusInProgress,
		"inprogress":  models.TaskStatusInProgress,
		"active":      models.TaskStatusInProgress,
		"todo":        models.TaskStatusPending,
		"completed":   models.TaskStatusDone,
		"complete":    models.TaskStatusDone,
		"canceled":    models.TaskStatusCancelled,
		"in-review":   models.TaskStatusReview,
		"in_review":   models.TaskStatusReview,
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

// docID is a task identifier. Numeric-looking IDs are written as JSON
// numbers, everything else as strings.
type docID string

func (id docID) MarshalJSON() ([]byte, error) {
	if isNumericID(string(id)) {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

func (id *docID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case string(b) == "null":
		*id = ""
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = docID(s)
	default:
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return err
		}
		*id = docID(n.String())
	}
	return nil
}

func isNumericID(s string) bool {
	n, err := strconv.ParseUint(s, 10, 64)
	return err == nil && strconv.FormatUint(n, 10) == s
}

// docTask is one task record as stored in the document. Keys this adapter
// does not understand are kept in extra and written back untouched.
type docTask struct {
	ID              docID          `json:"id"`
	Title           string         `json:"title"`
	Description     string         `json:"description,omitempty"`
	Details         string         `json:"details,omitempty"`
	TestStrategy    string         `json:"testStrategy,omitempty"`
	Status          string         `json:"status"`
	Priority        string         `json:"priority,omitempty"`
	Dependencies    []docID        `json:"dependencies,omitempty"`
	Tags            []string       `json:"tags,omitempty"`
	ParentID        docID          `json:"parentId,omitempty"`
	Blockers        []string       `json:"blockers,omitempty"`
	DueDate         string         `json:"dueDate,omitempty"`
	EstimatedHours  *float64       `json:"estimatedHours,omitempty"`
	ActualHours     *float64       `json:"actualHours,omitempty"`
	ComplexityScore *float64       `json:"complexityScore,omitempty"`
	CreatedAt       string         `json:"createdAt,omitempty"`
	UpdatedAt       string         `json:"updatedAt,omitempty"`
	Metadata        map[string]any `json:"metadata,omitempty"`
	Subtasks        []docTask      `json:"subtasks,omitempty"`

	extra map[string]json.RawMessage
}

var knownTaskKeys = []string{
	"id", "title", "description", "details", "testStrategy", "status", "priority",
	"dependencies", "tags", "parentId", "blockers", "dueDate", "estimatedHours",
	"actualHours", "complexityScore", "createdAt", "updatedAt", "metadata", "subtasks",
}

func (t *docTask) UnmarshalJSON(b []byte) error {
	type plain docTask
	if err := json.Unmarshal(b, (*plain)(t)); err != nil {
		return err
	}
	var all map[string]json.RawMessage
	if err := json.Unmarshal(b, &all); err != nil {
		return err
	}
	for _, k := range knownTaskKeys {
		delete(all, k)
	}
	t.extra = nil
	if len(all) > 0 {
		t.extra = all
	}
	return nil
}

func (t docTask) MarshalJSON() ([]byte, error) {
	type plain docTask
	encoded, err := json.Marshal(plain(t))
	if err != nil || len(t.extra) == 0 {
		return encoded, err
	}
	var all map[string]json.RawMessage
	if err := json.Unmarshal(encoded, &all); err != nil {
		return nil, err
	}
	for k, v := range t.extra {
		if _, known := all[k]; !known {
			all[k] = v
		}
	}
	return json.Marshal(all)
}

// contextMeta is the metadata block of a context wrapper.
type contextMeta struct {
	Created     string `json:"created,omitempty"`
	Updated     string `json:"updated,omitempty"`
	Description string `json:"description,omitempty"`
}

// taskContext is one named group of tasks. Name is empty for the legacy
// flat shape.
type taskContext struct {
	Name     string
	Tasks    []docTask
	Metadata contextMeta
}

// document is a parsed taskmaster file in either shape.
type document struct {
	contexts []taskContext
}

// parseDocument detects the flat {"tasks": [...]} shape or the
// context-grouped {"<name>": {"tasks": [...], "metadata": {...}}} shape.
// Empty input is an empty document.
func parseDocument(data []byte) (*document, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return &document{}, nil
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, fmt.Errorf("invalid taskmaster document: %w", err)
	}

	if raw, ok := top["tasks"]; ok && isArray(raw) {
		var tasks []docTask
		if err := json.Unmarshal(raw, &tasks); err != nil {
			return nil, fmt.Errorf("invalid taskmaster document: %w", err)
		}
		return &document{contexts: []taskContext{{Tasks: tasks}}}, nil
	}

	names := make([]string, 0, len(top))
	for name := range top {
		names = append(names, name)
	}
	sort.Strings(names)

	doc := &document{}
	for _, name := range names {
		var wrapper struct {
			Tasks    json.RawMessage `json:"tasks"`
			Metadata contextMeta     `json:"metadata"`
		}
		if err := json.Unmarshal(top[name], &wrapper); err != nil || !isArray(wrapper.Tasks) {
			continue
		}
		var tasks []docTask
		if err := json.Unmarshal(wrapper.Tasks, &tasks); err != nil {
			return nil, fmt.Errorf("invalid taskmaster document: context %s: %w", name, err)
		}
		doc.contexts = append(doc.contexts, taskContext{Name: name, Tasks: tasks, Metadata: wrapper.Metadata})
	}
	return doc, nil
}

func isArray(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '['
}

// domainTasks flattens every context into domain tasks. Tasks read from a
// named context carry that name as a tag.
func (d *document) domainTasks() []models.Task {
	var tasks []models.Task
	for _, c := range d.contexts {
		for _, rec := range c.Tasks {
			t := toDomain(rec, "")
			if c.Name != "" && !t.HasTag(c.Name) {
				t.Tags = append(append([]string(nil), t.Tags...), c.Name)
			}
			coretask.Sanitize(&t)
			tasks = append(tasks, t)
		}
	}
	return tasks
}

// records returns every stored record in read order. Records from a
// non-canonical context gain that context's name as a tag so the grouping
// survives the move into the canonical wrapper.
func (d *document) records(canonical string) []docTask {
	var out []docTask
	for _, c := range d.contexts {
		for _, rec := range c.Tasks {
			if c.Name != "" && c.Name != canonical && !containsString(rec.Tags, c.Name) {
				rec.Tags = append(append([]string(nil), rec.Tags...), c.Name)
			}
			out = append(out, rec)
		}
	}
	return out
}

// created returns the earliest known creation stamp, preferring the
// canonical context's.
func (d *document) created(canonical string) string {
	for _, c := range d.contexts {
		if c.Name == canonical && c.Metadata.Created != "" {
			return c.Metadata.Created
		}
	}
	for _, c := range d.contexts {
		if c.Metadata.Created != "" {
			return c.Metadata.Created
		}
	}
	return ""
}

func (d *document) description(canonical string) string {
	for _, c := range d.contexts {
		if c.Name == canonical && c.Metadata.Description != "" {
			return c.Metadata.Description
		}
	}
	return fmt.Sprintf("Tasks for %s context", canonical)
}

// encode renders records in the single canonical context wrapper. Whatever
// shape was read, the written shape is always this one.
func (d *document) encode(canonical string, records []docTask, now time.Time) ([]byte, error) {
	stamp := now.UTC().Format(time.RFC3339Nano)
	created := d.created(canonical)
	if created == "" {
		created = stamp
	}

	normalized := make([]docTask, len(records))
	for i, rec := range records {
		normalized[i] = normalize(rec)
	}

	out := map[string]any{
		canonical: map[string]any{
			"tasks": normalized,
			"metadata": contextMeta{
				Created:     created,
				Updated:     stamp,
				Description: d.description(canonical),
			},
		},
	}
	return json.MarshalIndent(out, "", "  ")
}

// normalize rewrites status and priority in canonical spelling.
func normalize(rec docTask) docTask {
	rec.Status = vocabulary.FormatStatus(vocabulary.StatusOrPending(rec.Status))
	rec.Priority = vocabulary.FormatPriority(vocabulary.ParsePriority(rec.Priority))
	if len(rec.Subtasks) > 0 {
		subs := make([]docTask, len(rec.Subtasks))
		for i, sub := range rec.Subtasks {
			subs[i] = normalize(sub)
		}
		rec.Subtasks = subs
	}
	return rec
}

// toDomain converts a stored record. Nested subtasks get IDs of the form
// "<parent>.<sub>" and the parent's ID as ParentID.
func toDomain(rec docTask, parentID string) models.Task {
	id := string(rec.ID)
	if parentID != "" {
		id = parentID + "." + id
	}

	t := models.Task{
		ID:              id,
		Title:           rec.Title,
		Description:     rec.Description,
		Status:          vocabulary.StatusOrPending(rec.Status),
		Priority:        vocabulary.ParsePriority(rec.Priority),
		Tags:            rec.Tags,
		ParentID:        string(rec.ParentID),
		Blockers:        rec.Blockers,
		DueDate:         parseTime(rec.DueDate),
		EstimatedHours:  rec.EstimatedHours,
		ActualHours:     rec.ActualHours,
		ComplexityScore: rec.ComplexityScore,
		Metadata:        rec.Metadata,
	}
	if parentID != "" {
		t.ParentID = parentID
	}
	for _, dep := range rec.Dependencies {
		t.Dependencies = append(t.Dependencies, string(dep))
	}
	if created := parseTime(rec.CreatedAt); created != nil {
		t.CreatedAt = *created
	}
	if updated := parseTime(rec.UpdatedAt); updated != nil {
		t.UpdatedAt = *updated
	}
	for _, sub := range rec.Subtasks {
		t.Subtasks = append(t.Subtasks, toDomain(sub, id))
	}
	return t
}

// fromDomain converts t back into a record, starting from base so that
// taskmaster-only fields (details, testStrategy, unknown keys) survive.
// contextTag is stripped from the tags since the wrapper implies it. For a
// nested subtask parentID is its parent's domain ID; the nesting implies the
// parent so none is stored.
func fromDomain(t models.Task, base docTask, contextTag, parentID string) docTask {
	rec := base
	rec.ID = docID(t.ID)
	rec.ParentID = docID(t.ParentID)
	if parentID != "" {
		rec.ID = docID(strings.TrimPrefix(t.ID, parentID+"."))
		rec.ParentID = ""
	}
	rec.Title = t.Title
	rec.Description = t.Description
	rec.Status = vocabulary.FormatStatus(t.Status)
	rec.Priority = vocabulary.FormatPriority(t.Priority)
	rec.Blockers = t.Blockers
	rec.EstimatedHours = t.EstimatedHours
	rec.ActualHours = t.ActualHours
	rec.ComplexityScore = t.ComplexityScore
	rec.Metadata = t.Metadata

	rec.Tags = nil
	for _, tag := range t.Tags {
		if tag != contextTag {
			rec.Tags = append(rec.Tags, tag)
		}
	}

	rec.Dependencies = nil
	for _, dep := range t.Dependencies {
		rec.Dependencies = append(rec.Dependencies, docID(dep))
	}

	rec.DueDate = ""
	if t.DueDate != nil {
		rec.DueDate = formatTime(*t.DueDate)
	}
	rec.CreatedAt = ""
	if !t.CreatedAt.IsZero() {
		rec.CreatedAt = formatTime(t.CreatedAt)
	}
	rec.UpdatedAt = ""
	if !t.UpdatedAt.IsZero() {
		rec.UpdatedAt = formatTime(t.UpdatedAt)
	}

	rec.Subtasks = nil
	for _, sub := range t.Subtasks {
		local := docID(strings.TrimPrefix(sub.ID, t.ID+"."))
		subBase := docTask{}
		for _, stored := range base.Subtasks {
			if stored.ID == local {
				subBase = stored
				break
			}
		}
		rec.Subtasks = append(rec.Subtasks, fromDomain(sub, subBase, "", t.ID))
	}
	return rec
}

func parseTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	parsed, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return nil
	}
	return &parsed
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
