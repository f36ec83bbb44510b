package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	coretask "github.com/example/deck/internal/core/task"
	"github.com/example/deck/internal/models"
)

// flagVocabulary accepts the domain spellings plus the common variants users
// type on the command line.
var flagVocabulary = coretask.NewVocabulary(coretask.VocabularySpec{
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
		"todo":        models.TaskStatusPending,
		"complete":    models.TaskStatusDone,
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

func parseStatusFlag(raw string) (models.TaskStatus, error) {
	status, ok := flagVocabulary.ParseStatus(raw)
	if !ok {
		return "", fmt.Errorf("unknown status %q (valid: %s)", raw, joinStatuses())
	}
	return status, nil
}

func parsePriorityFlag(raw string) (models.TaskPriority, error) {
	priority := flagVocabulary.ParsePriority(raw)
	if priority == "" {
		return "", fmt.Errorf("unknown priority %q (valid: low, medium, high, critical)", raw)
	}
	return priority, nil
}

// parseDueFlag accepts a calendar date or a full RFC 3339 timestamp.
func parseDueFlag(raw string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid due date %q (use YYYY-MM-DD or RFC 3339)", raw)
	}
	return t, nil
}

// splitList splits a comma-separated flag value, dropping blanks.
// An empty input yields an empty, non-nil list so it can clear a field.
func splitList(raw string) []string {
	out := []string{}
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// patchFromFlags builds a TaskPatch from the update flags the user set.
func patchFromFlags(cmd *cobra.Command) (models.TaskPatch, error) {
	var patch models.TaskPatch
	flags := cmd.Flags()

	if flags.Changed("title") {
		title, _ := flags.GetString("title")
		patch.Title = &title
	}
	if flags.Changed("description") {
		description, _ := flags.GetString("description")
		patch.Description = &description
	}
	if flags.Changed("status") {
		raw, _ := flags.GetString("status")
		status, err := parseStatusFlag(raw)
		if err != nil {
			return patch, err
		}
		patch.Status = &status
	}
	if flags.Changed("priority") {
		raw, _ := flags.GetString("priority")
		priority, err := parsePriorityFlag(raw)
		if err != nil {
			return patch, err
		}
		patch.Priority = &priority
	}
	if flags.Changed("parent") {
		parent, _ := flags.GetString("parent")
		patch.ParentID = &parent
	}
	if flags.Changed("tags") {
		raw, _ := flags.GetString("tags")
		tags := splitList(raw)
		patch.Tags = &tags
	}
	if flags.Changed("depends-on") {
		raw, _ := flags.GetString("depends-on")
		deps := splitList(raw)
		patch.Dependencies = &deps
	}
	if flags.Changed("blockers") {
		raw, _ := flags.GetString("blockers")
		blockers := splitList(raw)
		patch.Blockers = &blockers
	}
	if flags.Changed("due") {
		raw, _ := flags.GetString("due")
		due, err := parseDueFlag(raw)
		if err != nil {
			return patch, err
		}
		patch.DueDate = &due
	}
	if flags.Changed("estimate") {
		hours, _ := flags.GetFloat64("estimate")
		patch.EstimatedHours = &hours
	}
	if flags.Changed("actual") {
		hours, _ := flags.GetFloat64("actual")
		patch.ActualHours = &hours
	}

	return patch, nil
}

func joinStatuses() string {
	names := make([]string, len(models.TaskStatuses))
	for i, s := range models.TaskStatuses {
		names[i] = string(s)
	}
	return strings.Join(names, ", ")
}
