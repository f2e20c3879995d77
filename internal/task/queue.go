package task

import (
	"log/slog"
	"sync"

	"aftercast/internal/logging"
)

// Queue is the in-memory registry of tasks. It owns task identity and
// dispatches control calls to the task's own implementation.
type Queue struct {
	mu     sync.Mutex
	tasks  map[string]Task
	order  []string
	hub    *Hub
	logger *slog.Logger
}

// NewQueue constructs an empty queue.
func NewQueue(logger *slog.Logger) *Queue {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Queue{
		tasks:  make(map[string]Task),
		hub:    NewHub(),
		logger: logging.WithComponent(logger, "taskqueue"),
	}
}

// Add registers a task and optionally starts it immediately.
func (q *Queue) Add(t Task, autoStart bool) {
	q.mu.Lock()
	t.bind(q.hub)
	q.tasks[t.ID()] = t
	q.order = append(q.order, t.ID())
	q.mu.Unlock()

	q.logger.Info("task added",
		slog.String("task_id", t.ID()),
		slog.String("kind", string(t.Kind())),
		slog.String("name", t.Name()),
		slog.Bool("auto_start", autoStart))
	if autoStart {
		t.Exec()
	}
}

// Get returns the task with the given id.
func (q *Queue) Get(id string) (Task, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	t, ok := q.tasks[id]
	return t, ok
}

// List returns every registered task in insertion order.
func (q *Queue) List() []Task {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]Task, 0, len(q.order))
	for _, id := range q.order {
		if t, ok := q.tasks[id]; ok {
			out = append(out, t)
		}
	}
	return out
}

// Snapshots returns the serializable view of every task in insertion order.
func (q *Queue) Snapshots() []Snapshot {
	tasks := q.List()
	out := make([]Snapshot, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.Snapshot())
	}
	return out
}

// Start begins execution of a pending task. Any other status is a no-op and
// reports false.
func (q *Queue) Start(id string) bool {
	t, ok := q.Get(id)
	if !ok || t.Status() != StatusPending {
		return false
	}
	t.Exec()
	return true
}

// Remove deletes the task from the registry. It does NOT stop in-flight
// work: the underlying process or network session keeps running and becomes
// unreachable through the queue. Kill the task first.
func (q *Queue) Remove(id string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if _, ok := q.tasks[id]; !ok {
		return false
	}
	delete(q.tasks, id)
	for i, existing := range q.order {
		if existing == id {
			q.order = append(q.order[:i], q.order[i+1:]...)
			break
		}
	}
	return true
}

// Pause delegates to the task. Returns false when the task is unknown or its
// current status does not permit pausing.
func (q *Queue) Pause(id string) bool {
	t, ok := q.Get(id)
	if !ok {
		return false
	}
	applied := t.Pause()
	if applied {
		q.logger.Info("task paused", slog.String("task_id", id))
	}
	return applied
}

// Resume delegates to the task.
func (q *Queue) Resume(id string) bool {
	t, ok := q.Get(id)
	if !ok {
		return false
	}
	applied := t.Resume()
	if applied {
		q.logger.Info("task resumed", slog.String("task_id", id))
	}
	return applied
}

// Kill delegates to the task.
func (q *Queue) Kill(id string) bool {
	t, ok := q.Get(id)
	if !ok {
		return false
	}
	applied := t.Kill()
	if applied {
		q.logger.Info("task killed", slog.String("task_id", id))
	}
	return applied
}

// Subscribe registers a handler for one transition kind. Handlers run
// synchronously on the goroutine reporting the transition and must not block.
func (q *Queue) Subscribe(kind Transition, handler func(Event)) {
	q.hub.Subscribe(kind, handler)
}
