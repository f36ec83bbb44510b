// Package taskmaster implements the task provider contract against a
// taskmaster JSON document. Documents are read in either the legacy flat
// shape or the context-grouped shape and are always written back as a single
// canonical context wrapper.
package taskmaster

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	coretask "github.com/example/deck/internal/core/task"
	"github.com/example/deck/internal/models"
	"github.com/example/deck/internal/ports/secondary"
	"github.com/example/deck/internal/provider"
)

// Type is the registry tag for this provider.
const Type = "taskmaster"

// Options understood by this provider.
const (
	OptionTransport = "transport" // "file" (default) or "api"
	OptionContext   = "context"   // canonical context name, default "master"
	OptionBaseURL   = "base_url"  // document API root, required for the api transport
	OptionStore     = "store"     // a secondary.DocumentStore, overrides transport
)

// Transport values.
const (
	TransportFile = "file"
	TransportAPI  = "api"
)

const (
	defaultContext      = "master"
	defaultPollInterval = 2 * time.Second
	defaultTimeout      = 30 * time.Second
)

// Provider implements secondary.TaskProvider and secondary.TaskWatcher over a
// taskmaster document. Writes from one instance are serialized; writers in
// other processes are not coordinated with.
type Provider struct {
	store        secondary.DocumentStore
	contextName  string
	pollInterval time.Duration
	logger       *log.Logger
	events       *provider.Emitter

	mu sync.Mutex // serializes read-modify-write cycles

	initMu      sync.Mutex
	initialized bool

	now   func() time.Time
	newID func(now time.Time) string
}

// New creates a Provider from options. It performs no I/O.
func New(opts provider.Options) (*Provider, error) {
	pollInterval, err := opts.PollInterval(defaultPollInterval)
	if err != nil {
		return nil, fmt.Errorf("taskmaster provider: %w", err)
	}

	store, err := newStore(opts)
	if err != nil {
		return nil, err
	}

	return &Provider{
		store:        store,
		contextName:  opts.String(OptionContext, defaultContext),
		pollInterval: pollInterval,
		logger:       opts.Logger(),
		events:       provider.NewEmitter(),
		now:          time.Now,
		newID:        generateID,
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

func newStore(opts provider.Options) (secondary.DocumentStore, error) {
	if store, ok := opts[OptionStore].(secondary.DocumentStore); ok && store != nil {
		return store, nil
	}

	switch transport := opts.String(OptionTransport, TransportFile); transport {
	case TransportFile:
		return NewFileStore(), nil
	case TransportAPI:
		baseURL := opts.String(OptionBaseURL, "")
		if baseURL == "" {
			return nil, fmt.Errorf("taskmaster provider: %s option is required for the %s transport", OptionBaseURL, TransportAPI)
		}
		timeout, err := opts.Duration(provider.OptionTimeout, defaultTimeout)
		if err != nil {
			return nil, fmt.Errorf("taskmaster provider: %w", err)
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
		return NewAPIStore(baseURL, client), nil
	default:
		return nil, fmt.Errorf("taskmaster provider: unknown transport %q", transport)
	}
}

// generateID returns "<unix-millis>-<random>".
func generateID(now time.Time) string {
	suffix := strings.SplitN(uuid.NewString(), "-", 2)[0]
	return fmt.Sprintf("%d-%s", now.UnixMilli(), suffix)
}

// Initialize checks the document store once.
func (p *Provider) Initialize(ctx context.Context) error {
	p.initMu.Lock()
	defer p.initMu.Unlock()
	if p.initialized {
		return nil
	}
	if err := p.store.Ping(ctx); err != nil {
		return &provider.ConnectionError{Target: "taskmaster document store", Err: err}
	}
	p.initialized = true
	return nil
}

// GetTasks reads and flattens the document. A missing document has no tasks.
func (p *Provider) GetTasks(ctx context.Context, projectPath string) ([]models.Task, error) {
	doc, err := p.load(ctx, projectPath)
	if err != nil {
		return nil, err
	}
	tasks := doc.domainTasks()
	if tasks == nil {
		tasks = []models.Task{}
	}
	return tasks, nil
}

// CreateTask appends a task with a locally generated ID.
func (p *Provider) CreateTask(ctx context.Context, projectPath string, input models.TaskPatch) (*models.Task, error) {
	if err := provider.RequireTitle(input); err != nil {
		return nil, err
	}

	p.mu.Lock()
	doc, err := p.load(ctx, projectPath)
	if err != nil {
		p.mu.Unlock()
		return nil, err
	}

	now := p.now().UTC()
	task := models.Task{
		ID:        p.newID(now),
		Status:    models.TaskStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	input.Apply(&task)
	coretask.Sanitize(&task)

	records := append(doc.records(p.contextName), fromDomain(task, docTask{}, p.contextName, ""))
	err = p.save(ctx, projectPath, doc, records)
	p.mu.Unlock()
	if err != nil {
		return nil, err
	}

	task.Tags = withTag(task.Tags, p.contextName)
	p.events.Created(task)
	return &task, nil
}

// UpdateTask applies updates to the stored task, keeping taskmaster-only
// fields intact. The event's previous status is the stored value.
func (p *Provider) UpdateTask(ctx context.Context, projectPath, taskID string, updates models.TaskPatch) (*models.Task, error) {
	if err := provider.CheckTitleUpdate(updates); err != nil {
		return nil, err
	}

	p.mu.Lock()
	doc, err := p.load(ctx, projectPath)
	if err != nil {
		p.mu.Unlock()
		return nil, err
	}

	records := doc.records(p.contextName)
	idx := indexOf(records, taskID)
	if idx < 0 {
		p.mu.Unlock()
		return nil, notFound(taskID)
	}

	stored := records[idx]
	task := toDomain(stored, "")
	coretask.Sanitize(&task)
	previous := task.Status

	updates.Apply(&task)
	task.UpdatedAt = p.now().UTC()
	coretask.Sanitize(&task)

	// A record stored without createdAt keeps it absent.
	written := task
	if parseTime(stored.CreatedAt) == nil {
		written.CreatedAt = time.Time{}
	}
	records[idx] = fromDomain(written, stored, p.contextName, "")
	err = p.save(ctx, projectPath, doc, records)
	p.mu.Unlock()
	if err != nil {
		return nil, err
	}

	task.Tags = withTag(task.Tags, p.contextName)
	p.events.Updated(task, previous)
	return &task, nil
}

// DeleteTask removes the task from the document.
func (p *Provider) DeleteTask(ctx context.Context, projectPath, taskID string) error {
	p.mu.Lock()
	doc, err := p.load(ctx, projectPath)
	if err != nil {
		p.mu.Unlock()
		return err
	}

	records := doc.records(p.contextName)
	idx := indexOf(records, taskID)
	if idx < 0 {
		p.mu.Unlock()
		return notFound(taskID)
	}
	records = append(records[:idx], records[idx+1:]...)
	err = p.save(ctx, projectPath, doc, records)
	p.mu.Unlock()
	if err != nil {
		return err
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

func (p *Provider) load(ctx context.Context, projectPath string) (*document, error) {
	data, err := p.store.Load(ctx, projectPath)
	if err != nil {
		return nil, asTransportError(err)
	}
	doc, err := parseDocument(data)
	if err != nil {
		return nil, &provider.TransportError{Message: err.Error(), Err: err}
	}
	return doc, nil
}

func (p *Provider) save(ctx context.Context, projectPath string, doc *document, records []docTask) error {
	data, err := doc.encode(p.contextName, records, p.now())
	if err != nil {
		return fmt.Errorf("failed to encode taskmaster document: %w", err)
	}
	if err := p.store.Save(ctx, projectPath, data); err != nil {
		return asTransportError(err)
	}
	return nil
}

func asTransportError(err error) error {
	var te *provider.TransportError
	if errors.As(err, &te) {
		return err
	}
	return &provider.TransportError{Message: err.Error(), Err: err}
}

func notFound(taskID string) error {
	return &provider.TransportError{StatusCode: http.StatusNotFound, Message: fmt.Sprintf("task %s not found", taskID)}
}

func indexOf(records []docTask, taskID string) int {
	for i, rec := range records {
		if string(rec.ID) == taskID {
			return i
		}
	}
	return -1
}

func withTag(tags []string, tag string) []string {
	for _, t := range tags {
		if t == tag {
			return tags
		}
	}
	return append(append([]string(nil), tags...), tag)
}

// Ensure Provider implements the interfaces
var (
	_ secondary.TaskProvider = (*Provider)(nil)
	_ secondary.TaskWatcher  = (*Provider)(nil)
)
