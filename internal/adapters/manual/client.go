package manual

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/example/deck/internal/provider"
)

// do performs a request and returns the envelope's data. Any 404 or 401
// evicts the cached project ID for projectPath.
func (p *Provider) do(ctx context.Context, method, path string, body any, projectPath string) (json.RawMessage, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, reader)
	if err != nil {
		return nil, &provider.TransportError{Message: fmt.Sprintf("failed to build request: %v", err), Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, &provider.TransportError{Message: fmt.Sprintf("%s %s failed: %v", method, path, err), Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &provider.TransportError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("failed to read response: %v", err), Err: err}
	}

	if provider.IsAuthorityLoss(resp.StatusCode) {
		p.projects.Evict(projectPath)
	}
	return provider.DecodeEnvelope(resp.StatusCode, raw)
}

// ping checks GET /api/health. A success:false envelope fails like a non-2xx status.
func (p *Provider) ping(ctx context.Context) error {
	_, err := p.do(ctx, http.MethodGet, "/api/health", nil, "")
	return err
}

func invalidResponse(err error) error {
	return &provider.TransportError{Message: fmt.Sprintf("invalid response from task service: %v", err), Err: err}
}
