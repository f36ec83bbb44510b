package provider

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/example/deck/internal/models"
	"github.com/example/deck/internal/ports/secondary"
)

// stubProvider implements secondary.TaskProvider for registry tests.
type stubProvider struct {
	opts Options
}

func (s *stubProvider) Initialize(ctx context.Context) error { return nil }
func (s *stubProvider) GetTasks(ctx context.Context, projectPath string) ([]models.Task, error) {
	return nil, nil
}
func (s *stubProvider) CreateTask(ctx context.Context, projectPath string, input models.TaskPatch) (*models.Task, error) {
	return nil, nil
}
func (s *stubProvider) UpdateTask(ctx context.Context, projectPath, taskID string, updates models.TaskPatch) (*models.Task, error) {
	return nil, nil
}
func (s *stubProvider) DeleteTask(ctx context.Context, projectPath, taskID string) error { return nil }
func (s *stubProvider) Subscribe(handler func(models.TaskEvent)) func()              { return func() {} }

func TestFactory_Create(t *testing.T) {
	t.Run("unknown type fails and constructs nothing", func(t *testing.T) {
		f := NewFactory()
		constructed := 0
		f.Register("manual", func(opts Options) (secondary.TaskProvider, error) {
			constructed++
			return &stubProvider{opts: opts}, nil
		})

		p, err := f.Create(models.ProviderConfig{Type: "unregistered-type", ProjectPath: "/p"})
		if p != nil {
			t.Errorf("expected nil provider, got %v", p)
		}
		var unknown *UnknownProviderTypeError
		if !errors.As(err, &unknown) {
			t.Fatalf("expected UnknownProviderTypeError, got %v", err)
		}
		if unknown.Type != "unregistered-type" {
			t.Errorf("Type = %q, want %q", unknown.Type, "unregistered-type")
		}
		if constructed != 0 {
			t.Errorf("constructed = %d, want 0", constructed)
		}
	})

	t.Run("passes options to constructor", func(t *testing.T) {
		f := NewFactory()
		f.Register("manual", func(opts Options) (secondary.TaskProvider, error) {
			return &stubProvider{opts: opts}, nil
		})

		p, err := f.Create(models.ProviderConfig{
			Type:    "manual",
			Options: map[string]any{"base_url": "http://x"},
		})
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		stub := p.(*stubProvider)
		if stub.opts.String("base_url", "") != "http://x" {
			t.Errorf("options not forwarded: %v", stub.opts)
		}
	})

	t.Run("constructor errors propagate", func(t *testing.T) {
		f := NewFactory()
		wantErr := errors.New("bad options")
		f.Register("broken", func(opts Options) (secondary.TaskProvider, error) {
			return nil, wantErr
		})
		if _, err := f.Create(models.ProviderConfig{Type: "broken"}); !errors.Is(err, wantErr) {
			t.Errorf("err = %v, want %v", err, wantErr)
		}
	})
}

func TestFactory_RegisterReplacesAndLists(t *testing.T) {
	f := NewFactory()
	if got := f.RegisteredTypes(); len(got) != 0 {
		t.Fatalf("RegisteredTypes = %v, want empty", got)
	}

	first := &stubProvider{}
	second := &stubProvider{}
	f.Register("taskmaster", func(Options) (secondary.TaskProvider, error) { return first, nil })
	f.Register("manual", func(Options) (secondary.TaskProvider, error) { return first, nil })
	f.Register("taskmaster", func(Options) (secondary.TaskProvider, error) { return second, nil })

	if got, want := f.RegisteredTypes(), []string{"manual", "taskmaster"}; !reflect.DeepEqual(got, want) {
		t.Errorf("RegisteredTypes = %v, want %v", got, want)
	}

	p, err := f.Create(models.ProviderConfig{Type: "taskmaster"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if p != second {
		t.Error("expected replaced constructor to be used")
	}
}
