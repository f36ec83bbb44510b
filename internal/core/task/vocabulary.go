package task

import (
	"strings"

	"github.com/example/deck/internal/models"
)

// Vocabulary maps a backend's status and priority spellings to the domain
// enumerations and back. Lookups are case-insensitive; writes always produce
// the canonical spelling.
type Vocabulary struct {
	statusOut   map[models.TaskStatus]string
	statusIn    map[string]models.TaskStatus
	priorityOut map[models.TaskPriority]string
	priorityIn  map[string]models.TaskPriority
}

// VocabularySpec declares a backend vocabulary. Canonical spellings are
// accepted on read automatically; Aliases add extra read-only spellings.
type VocabularySpec struct {
	Statuses        map[models.TaskStatus]string
	StatusAliases   map[string]models.TaskStatus
	Priorities      map[models.TaskPriority]string
	PriorityAliases map[string]models.TaskPriority
}

// NewVocabulary builds a Vocabulary from spec.
func NewVocabulary(spec VocabularySpec) *Vocabulary {
	v := &Vocabulary{
		statusOut:   make(map[models.TaskStatus]string),
		statusIn:    make(map[string]models.TaskStatus),
		priorityOut: make(map[models.TaskPriority]string),
		priorityIn:  make(map[string]models.TaskPriority),
	}
	for domain, wire := range spec.Statuses {
		v.statusOut[domain] = wire
		v.statusIn[normalizeKey(wire)] = domain
	}
	for alias, domain := range spec.StatusAliases {
		v.statusIn[normalizeKey(alias)] = domain
	}
	for domain, wire := range spec.Priorities {
		v.priorityOut[domain] = wire
		v.priorityIn[normalizeKey(wire)] = domain
	}
	for alias, domain := range spec.PriorityAliases {
		v.priorityIn[normalizeKey(alias)] = domain
	}
	return v
}

// ParseStatus maps a backend status to the domain. ok is false for unknown
// spellings.
func (v *Vocabulary) ParseStatus(raw string) (status models.TaskStatus, ok bool) {
	status, ok = v.statusIn[normalizeKey(raw)]
	return status, ok
}

// StatusOrPending maps a backend status, falling back to pending.
func (v *Vocabulary) StatusOrPending(raw string) models.TaskStatus {
	if status, ok := v.ParseStatus(raw); ok {
		return status
	}
	return models.TaskStatusPending
}

// FormatStatus returns the canonical backend spelling of a domain status.
func (v *Vocabulary) FormatStatus(status models.TaskStatus) string {
	if wire, ok := v.statusOut[status]; ok {
		return wire
	}
	return v.statusOut[models.TaskStatusPending]
}

// ParsePriority maps a backend priority to the domain. Unknown spellings
// yield the empty priority.
func (v *Vocabulary) ParsePriority(raw string) models.TaskPriority {
	return v.priorityIn[normalizeKey(raw)]
}

// FormatPriority returns the canonical backend spelling, or "" when the
// priority is absent or unknown.
func (v *Vocabulary) FormatPriority(priority models.TaskPriority) string {
	return v.priorityOut[priority]
}

func normalizeKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
