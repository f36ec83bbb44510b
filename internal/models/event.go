package models

import "time"

// EventType names a single task state transition.
type EventType string

// Event types emitted by providers.
const (
	EventCreated EventType = "created"
	EventUpdated EventType = "updated"
	EventDeleted EventType = "deleted"
	EventMoved   EventType = "moved"
)

// TaskEvent is a notification of one transition on a task.
// For EventDeleted only Task.ID is guaranteed to be populated.
// PreviousStatus is set only for updates that changed the status.
type TaskEvent struct {
	Type           EventType   `json:"type"`
	Task           Task        `json:"task"`
	PreviousStatus *TaskStatus `json:"previousStatus,omitempty"`
	Timestamp      time.Time   `json:"timestamp"`
}

// ProviderConfig selects and configures a provider.
// Options is opaque to everything but the adapter it is handed to.
type ProviderConfig struct {
	Type        string         `json:"type" yaml:"type" mapstructure:"type"`
	ProjectPath string         `json:"projectPath" yaml:"project_path" mapstructure:"project_path"`
	Options     map[string]any `json:"options,omitempty" yaml:"options,omitempty" mapstructure:"options"`
}
