package task

import "sync"

// Transition identifies a lifecycle notification kind.
type Transition string

const (
	TransitionStart    Transition = "start"
	TransitionProgress Transition = "progress"
	TransitionEnd      Transition = "end"
	TransitionError    Transition = "error"
)

// Event is the typed payload delivered with a transition.
type Event struct {
	TaskID     string
	Name       string
	Kind       Kind
	Status     Status
	Progress   float64
	Annotation string
	Output     string
	Err        error
}

// Hub fans lifecycle transitions out to subscribers. Delivery is synchronous
// in registration order; handlers must not block. A transition fires once per
// logical event, there is no replay for late subscribers.
type Hub struct {
	mu       sync.Mutex
	handlers map[Transition][]func(Event)
}

// NewHub constructs an empty hub.
func NewHub() *Hub {
	return &Hub{handlers: make(map[Transition][]func(Event))}
}

// Subscribe registers a handler for one transition kind.
func (h *Hub) Subscribe(kind Transition, handler func(Event)) {
	if h == nil || handler == nil {
		return
	}
	h.mu.Lock()
	h.handlers[kind] = append(h.handlers[kind], handler)
	h.mu.Unlock()
}

func (h *Hub) publish(kind Transition, ev Event) {
	if h == nil {
		return
	}
	h.mu.Lock()
	handlers := append([]func(Event){}, h.handlers[kind]...)
	h.mu.Unlock()

	for _, handler := range handlers {
		handler(ev)
	}
}
