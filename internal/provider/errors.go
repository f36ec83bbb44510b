package provider

import (
	"errors"
	"fmt"
	"net/http"

	coretask "github.com/example/deck/internal/core/task"
	"github.com/example/deck/internal/models"
)

// ValidationError reports a missing or blank required field. It is raised
// before any I/O.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// ResolutionError reports that a project path could not be mapped to a
// backend identifier.
type ResolutionError struct {
	ProjectPath string
	Message     string
	Err         error
}

func (e *ResolutionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("could not resolve project %s: %s: %v", e.ProjectPath, e.Message, e.Err)
	}
	return fmt.Sprintf("could not resolve project %s: %s", e.ProjectPath, e.Message)
}

func (e *ResolutionError) Unwrap() error { return e.Err }

// TransportError reports a non-success response from a backend or a failed
// document read/write. StatusCode is zero when no HTTP response was received.
type TransportError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *TransportError) Error() string {
	return e.Message
}

func (e *TransportError) Unwrap() error { return e.Err }

// UnknownProviderTypeError reports a factory lookup for an unregistered type.
type UnknownProviderTypeError struct {
	Type string
}

func (e *UnknownProviderTypeError) Error() string {
	return fmt.Sprintf("unknown provider type %q", e.Type)
}

// ConnectionError reports that Initialize could not reach the backend.
type ConnectionError struct {
	Target string
	Err    error
}

func (e *ConnectionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("cannot connect to %s: %v", e.Target, e.Err)
	}
	return fmt.Sprintf("cannot connect to %s", e.Target)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// StatusMessage synthesizes a display message for a failed response when the
// backend did not supply one.
func StatusMessage(statusCode int) string {
	return fmt.Sprintf("request failed with status %d", statusCode)
}

// IsAuthorityLoss reports whether the status code means a cached identifier
// can no longer be trusted.
func IsAuthorityLoss(statusCode int) bool {
	return statusCode == http.StatusNotFound || statusCode == http.StatusUnauthorized
}

// IsNotFound reports whether err is a TransportError for a 404 response.
func IsNotFound(err error) bool {
	var te *TransportError
	return errors.As(err, &te) && te.StatusCode == http.StatusNotFound
}

// RequireTitle enforces the create-time title guard, converting a rejection
// into a ValidationError.
func RequireTitle(input models.TaskPatch) error {
	if r := coretask.CanCreateTask(coretask.CreateTaskContext{Title: input.Title}); !r.Allowed {
		return &ValidationError{Field: r.Field, Message: r.Reason}
	}
	return nil
}

// CheckTitleUpdate rejects an update that would blank the title.
func CheckTitleUpdate(updates models.TaskPatch) error {
	if r := coretask.CanUpdateTitle(updates.Title); !r.Allowed {
		return &ValidationError{Field: r.Field, Message: r.Reason}
	}
	return nil
}
