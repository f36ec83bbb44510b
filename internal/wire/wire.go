// Package wire provides dependency injection for the deck application.
// It creates singleton services with lazy initialization.
package wire

import (
	"database/sql"
	"fmt"
	"io"
	"log"
	"os"
	"sync"

	cliadapter "github.com/example/deck/internal/adapters/cli"
	"github.com/example/deck/internal/adapters/gtasks"
	"github.com/example/deck/internal/adapters/manual"
	"github.com/example/deck/internal/adapters/sqlite"
	"github.com/example/deck/internal/adapters/taskmaster"
	"github.com/example/deck/internal/app"
	"github.com/example/deck/internal/config"
	"github.com/example/deck/internal/db"
	"github.com/example/deck/internal/ports/primary"
	"github.com/example/deck/internal/ports/secondary"
	"github.com/example/deck/internal/provider"
)

var (
	logger     = log.New(os.Stderr, "deck: ", log.LstdFlags)
	factory    *provider.Factory
	factoryMu  sync.Mutex
	taskSvc    *app.TaskServiceImpl
	taskSvcErr error
	journalDB  *sql.DB
	once       sync.Once
)

// Logger returns the process-wide logger.
func Logger() *log.Logger {
	return logger
}

// ProviderFactory returns the singleton factory with every built-in
// provider registered.
func ProviderFactory() *provider.Factory {
	factoryMu.Lock()
	defer factoryMu.Unlock()
	if factory == nil {
		factory = NewProviderFactory()
	}
	return factory
}

// NewProviderFactory creates a factory with the built-in providers.
func NewProviderFactory() *provider.Factory {
	f := provider.NewFactory()
	f.Register(manual.Type, manual.Constructor)
	f.Register(taskmaster.Type, taskmaster.Constructor)
	f.Register(gtasks.Type, gtasks.Constructor)
	return f
}

// TaskService returns the singleton TaskService for the project in the
// current working directory.
func TaskService() (primary.TaskService, error) {
	once.Do(initServices)
	if taskSvcErr != nil {
		return nil, taskSvcErr
	}
	return taskSvc, nil
}

// initServices initializes all services and their dependencies.
// This is called once via sync.Once.
func initServices() {
	projectPath, err := os.Getwd()
	if err != nil {
		taskSvcErr = fmt.Errorf("failed to get working directory: %w", err)
		return
	}

	cfg, err := config.LoadConfig(projectPath)
	if err != nil {
		taskSvcErr = err
		return
	}

	taskSvc, journalDB, taskSvcErr = BuildTaskService(ProviderFactory(), cfg, projectPath, logger)
}

// BuildTaskService assembles a TaskService from a loaded config. The
// returned *sql.DB is nil when the journal is disabled.
func BuildTaskService(f *provider.Factory, cfg *config.Config, projectPath string, logger *log.Logger) (*app.TaskServiceImpl, *sql.DB, error) {
	selection := cfg.ProviderSelection(projectPath)
	selection.Options[provider.OptionLogger] = logger

	p, err := f.Create(selection)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create %s provider: %w", cfg.Provider.Type, err)
	}

	var (
		events  secondary.EventWriter
		journal secondary.EventJournal
		conn    *sql.DB
	)
	if !cfg.Journal.Disabled {
		conn, err = db.Open(cfg.Journal.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open event journal: %w", err)
		}
		repo := sqlite.NewEventRepository(conn)
		journal = repo
		events = sqlite.NewEventWriter(repo, cfg.Provider.Type, projectPath, cfg.Actor)
	}

	return app.NewTaskService(p, cfg.Provider.Type, projectPath, events, journal, logger), conn, nil
}

// TaskAdapter returns a new TaskAdapter writing to stdout.
func TaskAdapter() (*cliadapter.TaskAdapter, error) {
	return TaskAdapterWithOutput(os.Stdout)
}

// TaskAdapterWithOutput returns a new TaskAdapter writing to the given output.
// This variant allows testing or alternate output destinations.
func TaskAdapterWithOutput(out io.Writer) (*cliadapter.TaskAdapter, error) {
	service, err := TaskService()
	if err != nil {
		return nil, err
	}
	return cliadapter.NewTaskAdapter(service, out), nil
}

// Close releases the journal connection and stops journaling.
func Close() error {
	if taskSvc != nil {
		taskSvc.Close()
	}
	if journalDB != nil {
		return journalDB.Close()
	}
	return nil
}
