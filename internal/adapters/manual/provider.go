// Package manual implements the task provider contract against the REST task
// service. It resolves project paths to backend project IDs, caches the
// mapping, and translates between the service's snake_case schema and the
// domain model.
package manual

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"

	coretask "github.com/example/deck/internal/core/task"
	"github.com/example/deck/internal/models"
	"github.com/example/deck/internal/ports/secondary"
	"github.com/example/deck/internal/provider"
)

// Type is the registry tag for this provider.
const Type = "manual"

// OptionBaseURL is the service root, e.g. http://localhost:3000.
const OptionBaseURL = "base_url"

const (
	defaultPollInterval = 5 * time.Second
	defaultTimeout      = 30 * time.Second
)

// Provider implements secondary.TaskProvider and secondary.TaskWatcher over HTTP.
type Provider struct {
	baseURL      string
	client       *http.Client
	pollInterval time.Duration
	logger       *log.Logger

	events   *provider.Emitter
	projects *provider.ResolutionCache

	initMu      sync.Mutex
	initialized bool

	statusMu sync.Mutex
	statuses map[string]models.TaskStatus // last status seen per task ID
}

// New creates a Provider from options. It performs no I/O.
func New(opts provider.Options) (*Provider, error) {
	baseURL := strings.TrimRight(opts.String(OptionBaseURL, ""), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("manual provider: %s option is required", OptionBaseURL)
	}
	pollInterval, err := opts.PollInterval(defaultPollInterval)
	if err != nil {
		return nil, fmt.Errorf("manual provider: %w", err)
	}
	timeout, err := opts.Duration(provider.OptionTimeout, defaultTimeout)
	if err != nil {
		return nil, fmt.Errorf("manual provider: %w", err)
	}

	client := opts.HTTPClient()
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	if token := opts.String(provider.OptionToken, ""); token != "" {
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, client)
		authed := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
			AccessToken: token,
			TokenType:   "Bearer",
		}))
		authed.Timeout = client.Timeout
		client = authed
	}

	return &Provider{
		baseURL:      baseURL,
		client:       client,
		pollInterval: pollInterval,
		logger:       opts.Logger(),
		events:       provider.NewEmitter(),
		projects:     provider.NewResolutionCache(),
		statuses:     make(map[string]models.TaskStatus),
	}, nil
}

// Constructor adapts New to provider.Constructor.
func Constructor(opts provider.Options) (secondary.TaskProvider, error) {
	p, err := New(opts)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Initialize checks service health once.
func (p *Provider) Initialize(ctx context.Context) error {
	p.initMu.Lock()
	defer p.initMu.Unlock()
	if p.initialized {
		return nil
	}
	if err := p.ping(ctx); err != nil {
		return &provider.ConnectionError{Target: p.baseURL, Err: err}
	}
	p.initialized = true
	return nil
}

// GetTasks lists every task of the project.
func (p *Provider) GetTasks(ctx context.Context, projectPath string) ([]models.Task, error) {
	projectID, err := p.resolveProject(ctx, projectPath)
	if err != nil {
		return nil, err
	}

	data, err := p.do(ctx, http.MethodGet, tasksPath(projectID), nil, projectPath)
	if err != nil {
		return nil, err
	}

	var records []wireTask
	if len(data) > 0 && string(data) != "null" {
		if err := json.Unmarshal(data, &records); err != nil {
			return nil, invalidResponse(err)
		}
	}

	tasks := make([]models.Task, 0, len(records))
	for _, r := range records {
		t := toDomain(r)
		coretask.Sanitize(&t)
		p.rememberStatus(t)
		tasks = append(tasks, t)
	}
	return tasks, nil
}

// CreateTask creates a task. A blank title is rejected before any request.
func (p *Provider) CreateTask(ctx context.Context, projectPath string, input models.TaskPatch) (*models.Task, error) {
	if err := provider.RequireTitle(input); err != nil {
		return nil, err
	}
	projectID, err := p.resolveProject(ctx, projectPath)
	if err != nil {
		return nil, err
	}

	data, err := p.do(ctx, http.MethodPost, tasksPath(projectID), toWirePayload(input), projectPath)
	if err != nil {
		return nil, err
	}
	task, err := decodeTask(data)
	if err != nil {
		return nil, err
	}

	p.rememberStatus(*task)
	p.events.Created(*task)
	return task, nil
}

// UpdateTask sends the set fields of updates. The event's previous status is
// the stored status the update overwrote. When this instance has not seen the
// task yet and the update sets a status, the project's tasks are fetched first.
func (p *Provider) UpdateTask(ctx context.Context, projectPath, taskID string, updates models.TaskPatch) (*models.Task, error) {
	if err := provider.CheckTitleUpdate(updates); err != nil {
		return nil, err
	}
	projectID, err := p.resolveProject(ctx, projectPath)
	if err != nil {
		return nil, err
	}

	previous := p.previousStatus(ctx, projectPath, taskID, updates)
	data, err := p.do(ctx, http.MethodPut, taskPath(projectID, taskID), toWirePayload(updates), projectPath)
	if err != nil {
		return nil, err
	}
	task, err := decodeTask(data)
	if err != nil {
		return nil, err
	}
	if task.ID == "" {
		task.ID = taskID
	}

	p.rememberStatus(*task)
	p.events.Updated(*task, previous)
	return task, nil
}

// DeleteTask deletes a task.
func (p *Provider) DeleteTask(ctx context.Context, projectPath, taskID string) error {
	projectID, err := p.resolveProject(ctx, projectPath)
	if err != nil {
		return err
	}
	if _, err := p.do(ctx, http.MethodDelete, taskPath(projectID, taskID), nil, projectPath); err != nil {
		return err
	}

	p.statusMu.Lock()
	delete(p.statuses, taskID)
	p.statusMu.Unlock()

	p.events.Deleted(taskID)
	return nil
}

// WatchTasks polls GetTasks every poll interval.
func (p *Provider) WatchTasks(ctx context.Context, projectPath string, callback func([]models.Task)) func() {
	return provider.Watch(ctx, p.pollInterval, func(ctx context.Context) ([]models.Task, error) {
		return p.GetTasks(ctx, projectPath)
	}, callback, p.logger)
}

// Subscribe registers an event handler.
func (p *Provider) Subscribe(handler func(models.TaskEvent)) func() {
	return p.events.Subscribe(handler)
}

// resolveProject maps a project path to the service's project ID, using the
// cache when possible.
func (p *Provider) resolveProject(ctx context.Context, projectPath string) (string, error) {
	if id, ok := p.projects.Get(projectPath); ok {
		return id, nil
	}

	data, err := p.do(ctx, http.MethodPost, "/api/projects/by-path", map[string]string{"projectRoot": projectPath}, projectPath)
	if err != nil {
		return "", &provider.ResolutionError{ProjectPath: projectPath, Message: "lookup failed", Err: err}
	}

	var project struct {
		ID wireID `json:"id"`
	}
	if err := json.Unmarshal(data, &project); err != nil || project.ID == "" {
		return "", &provider.ResolutionError{ProjectPath: projectPath, Message: "service returned no project id", Err: err}
	}

	p.projects.Put(projectPath, string(project.ID))
	return string(project.ID), nil
}

func (p *Provider) rememberStatus(t models.Task) {
	p.statusMu.Lock()
	defer p.statusMu.Unlock()
	p.statuses[t.ID] = t.Status
}

func (p *Provider) lastStatus(taskID string) (models.TaskStatus, bool) {
	p.statusMu.Lock()
	defer p.statusMu.Unlock()
	status, ok := p.statuses[taskID]
	return status, ok
}

// previousStatus returns the stored status of taskID before an update. The
// service has no single-task read, so a cache miss lists the project. A failed
// lookup is logged and leaves the status unknown.
func (p *Provider) previousStatus(ctx context.Context, projectPath, taskID string, updates models.TaskPatch) models.TaskStatus {
	if status, ok := p.lastStatus(taskID); ok || updates.Status == nil {
		return status
	}
	if _, err := p.GetTasks(ctx, projectPath); err != nil {
		p.logger.Printf("manual: could not read status of task %s before update: %v", taskID, err)
		return ""
	}
	status, _ := p.lastStatus(taskID)
	return status
}

func decodeTask(data json.RawMessage) (*models.Task, error) {
	var record wireTask
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, invalidResponse(err)
	}
	t := toDomain(record)
	coretask.Sanitize(&t)
	return &t, nil
}

func tasksPath(projectID string) string {
	return "/api/projects/" + url.PathEscape(projectID) + "/tasks"
}

func taskPath(projectID, taskID string) string {
	return tasksPath(projectID) + "/" + url.PathEscape(taskID)
}

// Ensure Provider implements the interfaces
var (
	_ secondary.TaskProvider = (*Provider)(nil)
	_ secondary.TaskWatcher  = (*Provider)(nil)
)
