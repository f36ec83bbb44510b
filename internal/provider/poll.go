package provider

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/example/deck/internal/models"
)

// FallbackInterval is the poll interval Watch uses when given a non-positive one.
const FallbackInterval = time.Second

// FetchFunc loads a full task snapshot.
type FetchFunc func(ctx context.Context) ([]models.Task, error)

// Watch polls fetch every interval and hands each snapshot to callback.
// Identical consecutive snapshots are delivered as-is. A failing fetch is
// logged and the loop carries on with the next tick.
//
// The returned cancel func is idempotent and synchronous: it waits for an
// in-flight callback to finish, and no callback starts after it returns.
// Calling it from inside callback deadlocks.
//
// A non-positive interval is replaced by FallbackInterval.
func Watch(ctx context.Context, interval time.Duration, fetch FetchFunc, callback func([]models.Task), logger *log.Logger) func() {
	if logger == nil {
		logger = log.Default()
	}
	if interval <= 0 {
		logger.Printf("watch: invalid interval %v, using %v", interval, FallbackInterval)
		interval = FallbackInterval
	}
	ctx, cancelCtx := context.WithCancel(ctx)
	w := &watcher{cancel: cancelCtx}
	go w.run(ctx, interval, fetch, callback, logger)
	return w.stop
}

type watcher struct {
	mu      sync.Mutex // held while callback runs
	stopped bool
	cancel  context.CancelFunc
	once    sync.Once
}

func (w *watcher) stop() {
	w.once.Do(func() {
		w.cancel()
		w.mu.Lock()
		w.stopped = true
		w.mu.Unlock()
	})
}

func (w *watcher) run(ctx context.Context, interval time.Duration, fetch FetchFunc, callback func([]models.Task), logger *log.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		tasks, err := fetch(ctx)
		if err != nil {
			if ctx.Err() == nil {
				logger.Printf("watch: poll failed: %v", err)
			}
			continue
		}

		w.mu.Lock()
		if w.stopped || ctx.Err() != nil {
			w.mu.Unlock()
			return
		}
		callback(tasks)
		w.mu.Unlock()
	}
}
