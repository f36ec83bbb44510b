package provider

import (
	"sync"
	"time"

	"github.com/example/deck/internal/models"
)

// Emitter is a synchronous subscribe/unsubscribe registry for task events.
// Adapters hold one per instance and emit from inside the operation that
// caused the transition, so each operation yields exactly one event before
// it returns.
type Emitter struct {
	mu       sync.RWMutex
	nextID   int
	handlers map[int]func(models.TaskEvent)
	order    []int
	now      func() time.Time
}

// NewEmitter creates an empty Emitter.
func NewEmitter() *Emitter {
	return &Emitter{
		handlers: make(map[int]func(models.TaskEvent)),
		now:      time.Now,
	}
}

// Subscribe registers handler and returns a func that removes it.
func (e *Emitter) Subscribe(handler func(models.TaskEvent)) func() {
	e.mu.Lock()
	id := e.nextID
	e.nextID++
	e.handlers[id] = handler
	e.order = append(e.order, id)
	e.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			e.mu.Lock()
			defer e.mu.Unlock()
			delete(e.handlers, id)
			for i, existing := range e.order {
				if existing == id {
					e.order = append(e.order[:i], e.order[i+1:]...)
					break
				}
			}
		})
	}
}

// Emit delivers ev to every handler in subscription order.
func (e *Emitter) Emit(ev models.TaskEvent) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = e.now()
	}

	e.mu.RLock()
	handlers := make([]func(models.TaskEvent), 0, len(e.order))
	for _, id := range e.order {
		handlers = append(handlers, e.handlers[id])
	}
	e.mu.RUnlock()

	for _, h := range handlers {
		h(ev)
	}
}

// Created emits a created event for task.
func (e *Emitter) Created(task models.Task) {
	e.Emit(models.TaskEvent{Type: models.EventCreated, Task: task})
}

// Updated emits an updated event. previous is attached only when it differs
// from the task's resulting status.
func (e *Emitter) Updated(task models.Task, previous models.TaskStatus) {
	e.Emit(transition(models.EventUpdated, task, previous))
}

// Moved emits a moved event for a task whose parent changed. previous is
// attached as in Updated.
func (e *Emitter) Moved(task models.Task, previous models.TaskStatus) {
	e.Emit(transition(models.EventMoved, task, previous))
}

func transition(eventType models.EventType, task models.Task, previous models.TaskStatus) models.TaskEvent {
	ev := models.TaskEvent{Type: eventType, Task: task}
	if previous != "" && previous != task.Status {
		prev := previous
		ev.PreviousStatus = &prev
	}
	return ev
}

// Deleted emits a deleted event carrying only the task ID.
func (e *Emitter) Deleted(taskID string) {
	e.Emit(models.TaskEvent{Type: models.EventDeleted, Task: models.Task{ID: taskID}})
}
