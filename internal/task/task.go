package task

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Status represents the lifecycle of a task.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusPaused    Status = "paused"
	StatusCompleted Status = "completed"
	StatusError     Status = "error"
)

// IsTerminal reports whether no further transition is permitted.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusError
}

// Action is a control capability a task variant may allow.
type Action string

const (
	ActionPause Action = "pause"
	ActionKill  Action = "kill"
)

// Kind identifies the task variant.
type Kind string

const (
	KindOverlay   Kind = "overlay"
	KindTranscode Kind = "transcode"
	KindUpload    Kind = "upload"
	KindDownload  Kind = "download"
)

// Snapshot is the serializable view of a task consumed by the control API.
type Snapshot struct {
	ID         string     `json:"id"`
	Status     Status     `json:"status"`
	Name       string     `json:"name"`
	Kind       Kind       `json:"type"`
	RelatedID  string     `json:"relatedTaskId,omitempty"`
	Output     string     `json:"output,omitempty"`
	Progress   float64    `json:"progress"`
	Actions    []Action   `json:"allowedActions"`
	StartTime  *time.Time `json:"startTime,omitempty"`
	EndTime    *time.Time `json:"endTime,omitempty"`
	Annotation string     `json:"progressAnnotation,omitempty"`
}

// Task is a unit of controllable asynchronous work.
type Task interface {
	ID() string
	Kind() Kind
	Name() string
	Status() Status
	Snapshot() Snapshot

	// Exec begins execution. It returns immediately; completion is
	// reported through the queue's transition events.
	Exec()
	// Pause, Resume, and Kill report whether the action was applied.
	Pause() bool
	Resume() bool
	Kill() bool

	bind(hub *Hub)
}

// base carries the state shared by every task variant.
type base struct {
	id        string
	name      string
	kind      Kind
	relatedID string
	actions   []Action

	mu         sync.Mutex
	hub        *Hub
	status     Status
	progress   float64
	annotation string
	output     string
	startTime  *time.Time
	endTime    *time.Time
}

func newBase(kind Kind, name string, actions []Action) base {
	id := uuid.NewString()
	if name == "" {
		name = id
	}
	return base{
		id:      id,
		name:    name,
		kind:    kind,
		actions: actions,
		status:  StatusPending,
	}
}

func (b *base) ID() string     { return b.id }
func (b *base) Kind() Kind     { return b.kind }
func (b *base) Name() string   { return b.name }
func (b *base) bind(hub *Hub)  { b.mu.Lock(); b.hub = hub; b.mu.Unlock() }
func (b *base) SetRelated(id string) { b.relatedID = id }

func (b *base) Status() Status {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.status
}

func (b *base) Snapshot() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	actions := make([]Action, len(b.actions))
	copy(actions, b.actions)
	return Snapshot{
		ID:         b.id,
		Status:     b.status,
		Name:       b.name,
		Kind:       b.kind,
		RelatedID:  b.relatedID,
		Output:     b.output,
		Progress:   b.progress,
		Actions:    actions,
		StartTime:  b.startTime,
		EndTime:    b.endTime,
		Annotation: b.annotation,
	}
}

// markStarted moves pending to running and publishes the start transition.
func (b *base) markStarted() bool {
	b.mu.Lock()
	if b.status != StatusPending {
		b.mu.Unlock()
		return false
	}
	b.status = StatusRunning
	now := time.Now()
	b.startTime = &now
	hub := b.hub
	ev := b.eventLocked()
	b.mu.Unlock()

	hub.publish(TransitionStart, ev)
	return true
}

// setProgress records progress and publishes the progress transition.
func (b *base) setProgress(percent float64, annotation string) {
	b.mu.Lock()
	if b.status.IsTerminal() {
		b.mu.Unlock()
		return
	}
	b.progress = percent
	if annotation != "" {
		b.annotation = annotation
	}
	hub := b.hub
	ev := b.eventLocked()
	b.mu.Unlock()

	hub.publish(TransitionProgress, ev)
}

// markCompleted finishes the task successfully. No-op once terminal.
func (b *base) markCompleted(output string) {
	b.mu.Lock()
	if b.status.IsTerminal() {
		b.mu.Unlock()
		return
	}
	b.status = StatusCompleted
	b.progress = 100
	if output != "" {
		b.output = output
	}
	now := time.Now()
	b.endTime = &now
	hub := b.hub
	ev := b.eventLocked()
	b.mu.Unlock()

	hub.publish(TransitionEnd, ev)
}

// markError finishes the task with an error. No-op once terminal.
func (b *base) markError(err error) {
	b.mu.Lock()
	if b.status.IsTerminal() {
		b.mu.Unlock()
		return
	}
	b.status = StatusError
	now := time.Now()
	b.endTime = &now
	hub := b.hub
	ev := b.eventLocked()
	ev.Err = err
	b.mu.Unlock()

	hub.publish(TransitionError, ev)
}

// transition swaps running/paused. Returns false when from does not match.
func (b *base) transition(from, to Status) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.status != from {
		return false
	}
	b.status = to
	return true
}

func (b *base) eventLocked() Event {
	return Event{
		TaskID:     b.id,
		Name:       b.name,
		Kind:       b.kind,
		Status:     b.status,
		Progress:   b.progress,
		Annotation: b.annotation,
		Output:     b.output,
	}
}
