package taskmaster

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/example/deck/internal/ports/secondary"
	"github.com/example/deck/internal/provider"
)

// DocumentPath returns the location of a project's taskmaster document.
func DocumentPath(projectPath string) string {
	return filepath.Join(projectPath, ".taskmaster", "tasks", "tasks.json")
}

// FileStore reads and writes the document directly on disk.
type FileStore struct{}

// NewFileStore creates a FileStore.
func NewFileStore() *FileStore {
	return &FileStore{}
}

// Ping always succeeds; the filesystem has no connection to check.
func (s *FileStore) Ping(ctx context.Context) error { return nil }

// Load reads the document, returning nil when it does not exist.
func (s *FileStore) Load(ctx context.Context, projectPath string) ([]byte, error) {
	data, err := os.ReadFile(DocumentPath(projectPath))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read taskmaster document: %w", err)
	}
	return data, nil
}

// Save writes the document through a temp file and rename so readers never
// observe a partial write.
func (s *FileStore) Save(ctx context.Context, projectPath string, data []byte) error {
	path := DocumentPath(projectPath)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".tasks-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write taskmaster document: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write taskmaster document: %w", err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return fmt.Errorf("failed to write taskmaster document: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to replace taskmaster document: %w", err)
	}
	return nil
}

// APIStore forwards loads and saves to the document API served by
// `deck serve`, for callers that cannot touch the project filesystem.
type APIStore struct {
	baseURL string
	client  *http.Client
}

// NewAPIStore creates an APIStore rooted at baseURL.
func NewAPIStore(baseURL string, client *http.Client) *APIStore {
	if client == nil {
		client = http.DefaultClient
	}
	return &APIStore{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

// Ping checks GET /api/health.
func (s *APIStore) Ping(ctx context.Context) error {
	_, err := s.do(ctx, http.MethodGet, "/api/health", nil)
	return err
}

// Load fetches the document. A null content means no document yet.
func (s *APIStore) Load(ctx context.Context, projectPath string) ([]byte, error) {
	data, err := s.do(ctx, http.MethodGet, "/api/taskmaster/document?projectRoot="+url.QueryEscape(projectPath), nil)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Content json.RawMessage `json:"content"`
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, &provider.TransportError{Message: fmt.Sprintf("invalid document response: %v", err), Err: err}
		}
	}
	if len(payload.Content) == 0 || string(payload.Content) == "null" {
		return nil, nil
	}
	return payload.Content, nil
}

// Save replaces the document.
func (s *APIStore) Save(ctx context.Context, projectPath string, data []byte) error {
	body := struct {
		ProjectRoot string          `json:"projectRoot"`
		Content     json.RawMessage `json:"content"`
	}{ProjectRoot: projectPath, Content: data}

	_, err := s.do(ctx, http.MethodPut, "/api/taskmaster/document", body)
	return err
}

func (s *APIStore) do(ctx context.Context, method, path string, body any) (json.RawMessage, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, reader)
	if err != nil {
		return nil, &provider.TransportError{Message: fmt.Sprintf("failed to build request: %v", err), Err: err}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, &provider.TransportError{Message: fmt.Sprintf("document API unreachable: %v", err), Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &provider.TransportError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("failed to read response: %v", err), Err: err}
	}
	return provider.DecodeEnvelope(resp.StatusCode, raw)
}

// Ensure stores implement the interface
var (
	_ secondary.DocumentStore = (*FileStore)(nil)
	_ secondary.DocumentStore = (*APIStore)(nil)
)
