// Package telemetry implements the Telemetry Emitter: a bounded
// in-memory ring buffer per topic, a PII redactor, and pluggable backends
// whose dispatch failures never propagate to the synchronous caller
// (spec §4.9).
package telemetry

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultBufferSize is the default per-topic ring-buffer capacity.
const DefaultBufferSize = 50

// The bit-exact telemetry event-type names of spec §6.
const (
	EventBranchProposalGenerated   = "branch_proposal_generated"
	EventValidationPipelineRun     = "validation_pipeline_executed"
	EventDirectorDecision          = "director_decision"
	EventPlacementOutcome          = "placement_outcome"
	EventBranchChoicePresented     = "branch_choice_presented"
	EventBranchChoiceMade          = "branch_choice_made"
	EventBranchExecutionOutcome    = "branch_execution_outcome"
)

// Event is one telemetry record.
type Event struct {
	EventID   string         `json:"event_id"`
	EventType string         `json:"event_type"`
	Timestamp time.Time      `json:"timestamp"`
	SessionID string         `json:"session_id"`
	EventData map[string]any `json:"event_data"`
}

// Backend receives redacted events. Dispatch must be safe to call
// concurrently; a returned error is logged, never surfaced to Emit's caller.
type Backend interface {
	Name() string
	Dispatch(event Event) error
}

// Emitter is the Telemetry Emitter.
type Emitter struct {
	mu         sync.Mutex
	bufferCap  int
	buffers    map[string][]Event
	backends   map[string]Backend
	now        func() time.Time
	newEventID func() string
}

// Option configures an Emitter.
type Option func(*Emitter)

// WithBufferSize overrides DefaultBufferSize.
func WithBufferSize(n int) Option {
	return func(e *Emitter) {
		if n > 0 {
			e.bufferCap = n
		}
	}
}

// WithClock injects a deterministic clock for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Emitter) { e.now = now }
}

// New constructs an Emitter with no backends registered; add them with
// AddBackend.
func New(opts ...Option) *Emitter {
	e := &Emitter{
		bufferCap:  DefaultBufferSize,
		buffers:    make(map[string][]Event),
		backends:   make(map[string]Backend),
		now:        time.Now,
		newEventID: func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// AddBackend registers a backend, replacing any prior backend of the same name.
func (e *Emitter) AddBackend(b Backend) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.backends[b.Name()] = b
}

// RemoveBackend unregisters a backend by name.
func (e *Emitter) RemoveBackend(name string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.backends, name)
}

// Emit redacts data, assigns an event id and timestamp, stores it in the
// bounded ring buffer for eventType, and dispatches it to every registered
// backend. Backend failures are logged and otherwise invisible to the caller.
func (e *Emitter) Emit(eventType, sessionID string, data map[string]any) Event {
	event := Event{
		EventID:   e.newEventID(),
		EventType: eventType,
		Timestamp: e.now(),
		SessionID: sessionID,
		EventData: redactMap(data),
	}

	e.mu.Lock()
	buf := append(e.buffers[eventType], event)
	if len(buf) > e.bufferCap {
		buf = buf[len(buf)-e.bufferCap:]
	}
	e.buffers[eventType] = buf
	backends := make([]Backend, 0, len(e.backends))
	for _, b := range e.backends {
		backends = append(backends, b)
	}
	e.mu.Unlock()

	for _, b := range backends {
		if err := b.Dispatch(event); err != nil {
			slog.Warn("telemetry backend dispatch failed", "backend", b.Name(), "event_type", eventType, "error", err)
		}
	}

	return event
}

// Buffer returns a copy of the current ring buffer for topic.
func (e *Emitter) Buffer(topic string) []Event {
	e.mu.Lock()
	defer e.mu.Unlock()
	buf := e.buffers[topic]
	out := make([]Event, len(buf))
	copy(out, buf)
	return out
}
