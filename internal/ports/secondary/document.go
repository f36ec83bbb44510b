package secondary

import "context"

// DocumentStore reads and writes a project's raw taskmaster document.
// Implementations differ only in the I/O primitive (direct file access or a
// forwarded API call); shape detection and mapping live above this port.
type DocumentStore interface {
	// Ping verifies the store is reachable.
	Ping(ctx context.Context) error

	// Load returns the raw document, or nil with no error when the project
	// has no document yet.
	Load(ctx context.Context, projectPath string) ([]byte, error)

	// Save replaces the document.
	Save(ctx context.Context, projectPath string, data []byte) error
}
