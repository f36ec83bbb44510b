// Package gtasks implements the task provider contract on Google Tasks.
// A project maps to the task list whose title is the project directory's
// base name. Google Tasks stores far fewer fields than the domain model, so
// this backend is lossy: statuses collapse to needsAction/completed and
// tags, priority, dependencies, blockers, estimates and metadata are dropped.
package gtasks

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	tasks "google.golang.org/api/tasks/v1"

	coretask "github.com/example/deck/internal/core/task"
	"github.com/example/deck/internal/models"
	"github.com/example/deck/internal/ports/secondary"
	"github.com/example/deck/internal/provider"
)

// Type is the registry tag for this provider.
const Type = "gtasks"

// Options understood by this provider.
const (
	OptionEndpoint = "endpoint" // API root override, mainly for tests
	OptionList     = "list"     // task list title, overrides the project base name
)

const (
	statusNeedsAction = "needsAction"
	statusCompleted   = "completed"

	defaultPollInterval = 5 * time.Second
	defaultTimeout      = 30 * time.Second
)

// Provider implements secondary.TaskProvider and secondary.TaskWatcher on
// the Google Tasks API.
type Provider struct {
	service      *tasks.Service
	listTitle    string
	pollInterval time.Duration
	logger       *log.Logger
	events       *provider.Emitter
	lists        *provider.ResolutionCache

	initMu      sync.Mutex
	initialized bool
}

// New creates a Provider. Building the API client performs no I/O.
func New(opts provider.Options) (*Provider, error) {
	pollInterval, err := opts.PollInterval(defaultPollInterval)
	if err != nil {
		return nil, fmt.Errorf("gtasks provider: %w", err)
	}
	timeout, err := opts.Duration(provider.OptionTimeout, defaultTimeout)
	if err != nil {
		return nil, fmt.Errorf("gtasks provider: %w", err)
	}

	client := opts.HTTPClient()
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	if token := opts.String(provider.OptionToken, ""); token != "" {
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, client)
		authed := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}))
		authed.Timeout = client.Timeout
		client = authed
	}

	clientOpts := []option.ClientOption{option.WithHTTPClient(client)}
	if endpoint := opts.String(OptionEndpoint, ""); endpoint != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(strings.TrimRight(endpoint, "/")+"/"))
	}
	service, err := tasks.NewService(context.Background(), clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("gtasks provider: unable to create Tasks client: %w", err)
	}

	return &Provider{
		service:      service,
		listTitle:    opts.String(OptionList, ""),
		pollInterval: pollInterval,
		logger:       opts.Logger(),
		events:       provider.NewEmitter(),
		lists:        provider.NewResolutionCache(),
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

// Initialize lists one task list to verify credentials and reachability.
// Only the first successful call sends a request.
func (p *Provider) Initialize(ctx context.Context) error {
	p.initMu.Lock()
	defer p.initMu.Unlock()
	if p.initialized {
		return nil
	}
	if _, err := p.service.Tasklists.List().MaxResults(1).Context(ctx).Do(); err != nil {
		return &provider.ConnectionError{Target: "Google Tasks", Err: err}
	}
	p.initialized = true
	return nil
}

// GetTasks lists every non-deleted task of the project's list, including
// completed and hidden ones.
func (p *Provider) GetTasks(ctx context.Context, projectPath string) ([]models.Task, error) {
	listID, err := p.resolveList(ctx, projectPath)
	if err != nil {
		return nil, err
	}

	result := []models.Task{}
	err = p.service.Tasks.List(listID).ShowCompleted(true).ShowHidden(true).MaxResults(100).
		Pages(ctx, func(page *tasks.Tasks) error {
			for _, item := range page.Items {
				if item.Deleted {
					continue
				}
				result = append(result, toDomain(item))
			}
			return nil
		})
	if err != nil {
		return nil, p.wrap(err, projectPath)
	}
	return result, nil
}

// CreateTask inserts a task, under its parent when one is given.
func (p *Provider) CreateTask(ctx context.Context, projectPath string, input models.TaskPatch) (*models.Task, error) {
	if err := provider.RequireTitle(input); err != nil {
		return nil, err
	}
	listID, err := p.resolveList(ctx, projectPath)
	if err != nil {
		return nil, err
	}

	item := &tasks.Task{Status: statusNeedsAction}
	applyPatch(item, input)

	call := p.service.Tasks.Insert(listID, item).Context(ctx)
	if input.ParentID != nil && *input.ParentID != "" {
		call = call.Parent(*input.ParentID)
	}
	created, err := call.Do()
	if err != nil {
		return nil, p.wrap(err, projectPath)
	}

	task := toDomain(created)
	p.events.Created(task)
	return &task, nil
}

// UpdateTask patches the task. The stored status is read first so the event
// carries the status actually replaced. A parent change is applied with a
// move call and reported as a moved event instead of an updated one.
func (p *Provider) UpdateTask(ctx context.Context, projectPath, taskID string, updates models.TaskPatch) (*models.Task, error) {
	if err := provider.CheckTitleUpdate(updates); err != nil {
		return nil, err
	}
	listID, err := p.resolveList(ctx, projectPath)
	if err != nil {
		return nil, err
	}

	current, err := p.service.Tasks.Get(listID, taskID).Context(ctx).Do()
	if err != nil {
		return nil, p.wrap(err, projectPath)
	}
	previous := toDomain(current).Status

	patch := &tasks.Task{}
	applyPatch(patch, updates)
	updated, err := p.service.Tasks.Patch(listID, taskID, patch).Context(ctx).Do()
	if err != nil {
		return nil, p.wrap(err, projectPath)
	}

	moved := updates.ParentID != nil && *updates.ParentID != updated.Parent
	if moved {
		move := p.service.Tasks.Move(listID, taskID).Context(ctx)
		if *updates.ParentID != "" {
			move = move.Parent(*updates.ParentID)
		}
		if updated, err = move.Do(); err != nil {
			return nil, p.wrap(err, projectPath)
		}
	}

	task := toDomain(updated)
	if moved {
		p.events.Moved(task, previous)
	} else {
		p.events.Updated(task, previous)
	}
	return &task, nil
}

// DeleteTask deletes the task.
func (p *Provider) DeleteTask(ctx context.Context, projectPath, taskID string) error {
	listID, err := p.resolveList(ctx, projectPath)
	if err != nil {
		return err
	}
	if err := p.service.Tasks.Delete(listID, taskID).Context(ctx).Do(); err != nil {
		return p.wrap(err, projectPath)
	}
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

// resolveList finds the task list for projectPath by title.
func (p *Provider) resolveList(ctx context.Context, projectPath string) (string, error) {
	if id, ok := p.lists.Get(projectPath); ok {
		return id, nil
	}

	title := p.listTitle
	if title == "" {
		title = filepath.Base(filepath.Clean(projectPath))
	}

	var listID string
	err := p.service.Tasklists.List().MaxResults(100).Pages(ctx, func(page *tasks.TaskLists) error {
		for _, list := range page.Items {
			if list.Title == title {
				listID = list.Id
				return errStopPaging
			}
		}
		return nil
	})
	if err != nil && !errors.Is(err, errStopPaging) {
		return "", &provider.ResolutionError{ProjectPath: projectPath, Message: "unable to list task lists", Err: p.wrap(err, projectPath)}
	}
	if listID == "" {
		return "", &provider.ResolutionError{ProjectPath: projectPath, Message: fmt.Sprintf("no task list titled %q", title)}
	}

	p.lists.Put(projectPath, listID)
	return listID, nil
}

var errStopPaging = errors.New("stop paging")

// wrap converts API errors into TransportErrors, evicting the cached list
// on 404 and 401.
func (p *Provider) wrap(err error, projectPath string) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		if provider.IsAuthorityLoss(apiErr.Code) {
			p.lists.Evict(projectPath)
		}
		msg := apiErr.Message
		if msg == "" {
			msg = provider.StatusMessage(apiErr.Code)
		}
		return &provider.TransportError{StatusCode: apiErr.Code, Message: msg, Err: err}
	}
	return &provider.TransportError{Message: fmt.Sprintf("Google Tasks request failed: %v", err), Err: err}
}

// applyPatch copies the fields Google Tasks can store.
func applyPatch(item *tasks.Task, patch models.TaskPatch) {
	if patch.Title != nil {
		item.Title = *patch.Title
	}
	if patch.Description != nil {
		item.Notes = *patch.Description
		item.ForceSendFields = append(item.ForceSendFields, "Notes")
	}
	if patch.Status != nil {
		item.Status = formatStatus(*patch.Status)
	}
	if patch.DueDate != nil {
		item.Due = patch.DueDate.UTC().Format(time.RFC3339)
	}
}

func toDomain(item *tasks.Task) models.Task {
	t := models.Task{
		ID:          item.Id,
		Title:       item.Title,
		Description: item.Notes,
		Status:      parseStatus(item.Status),
		ParentID:    item.Parent,
	}
	if due, err := time.Parse(time.RFC3339, item.Due); err == nil {
		t.DueDate = &due
	}
	if updated, err := time.Parse(time.RFC3339, item.Updated); err == nil {
		t.UpdatedAt = updated
	}
	coretask.Sanitize(&t)
	return t
}

func parseStatus(s string) models.TaskStatus {
	if s == statusCompleted {
		return models.TaskStatusDone
	}
	return models.TaskStatusPending
}

func formatStatus(s models.TaskStatus) string {
	if s == models.TaskStatusDone {
		return statusCompleted
	}
	return statusNeedsAction
}

// Ensure Provider implements the interfaces
var (
	_ secondary.TaskProvider = (*Provider)(nil)
	_ secondary.TaskWatcher  = (*Provider)(nil)
)
