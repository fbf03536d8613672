// Package hooks implements the Hook Manager: pub-sub over a fixed
// vocabulary of lifecycle hook points, with parallel and sequential
// emission and isolated per-handler error handling (spec §4.6).
package hooks

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Event is one of the eleven fixed hook points. The vocabulary is closed:
// On/Off/Emit* reject any Event not in this list.
type Event string

const (
	PreInject      Event = "pre_inject"
	PostInject     Event = "post_inject"
	PreCheckpoint  Event = "pre_checkpoint"
	PostCheckpoint Event = "post_checkpoint"
	PreLoad        Event = "pre_load"
	OnRestore      Event = "on_restore"
	OnRollback     Event = "on_rollback"
	PreCommit      Event = "pre_commit"
	OnCommit       Event = "on_commit"
	PostCommit     Event = "post_commit"
	StateChange    Event = "state_change"
)

var validEvents = map[Event]bool{
	PreInject: true, PostInject: true, PreCheckpoint: true, PostCheckpoint: true,
	PreLoad: true, OnRestore: true, OnRollback: true, PreCommit: true,
	OnCommit: true, PostCommit: true, StateChange: true,
}

// Payload is the mutable-by-contract data passed to handlers. Handlers must
// not mutate the map they receive in place; they enrich by returning a new
// one (emitSequential threads it to the next handler; emitParallel does not
// merge per-handler results back together, since parallel handlers have no
// ordering guarantee).
type Payload map[string]any

// Handler is a hook subscriber. It must be non-blocking and idempotent.
type Handler func(ctx context.Context, payload Payload) (Payload, error)

// Result is one handler's outcome, indexed by registration order.
type Result struct {
	Index   int
	Err     error
	Payload Payload
}

type registration struct {
	id uint64
	fn Handler
}

// Manager is the Hook Manager. The zero value is not usable; construct with New.
type Manager struct {
	mu       sync.RWMutex
	handlers map[Event][]registration
	nextID   uint64
}

// Subscription identifies a registered handler for Off.
type Subscription struct {
	event Event
	id    uint64
}

// New constructs an empty Hook Manager.
func New() *Manager {
	return &Manager{handlers: make(map[Event][]registration)}
}

// On registers handler for event, preserving registration order for
// emitSequential. Returns a Subscription for Off, or an error if event is
// not one of the fixed hook points.
func (m *Manager) On(event Event, handler Handler) (Subscription, error) {
	if !validEvents[event] {
		return Subscription{}, fmt.Errorf("hooks: unknown event %q", event)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	id := m.nextID
	m.handlers[event] = append(m.handlers[event], registration{id: id, fn: handler})
	return Subscription{event: event, id: id}, nil
}

// Off removes a previously registered handler. A no-op if already removed.
func (m *Manager) Off(sub Subscription) {
	m.mu.Lock()
	defer m.mu.Unlock()
	regs := m.handlers[sub.event]
	for i, r := range regs {
		if r.id == sub.id {
			m.handlers[sub.event] = append(regs[:i:i], regs[i+1:]...)
			return
		}
	}
}

func (m *Manager) snapshot(event Event) []registration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	regs := m.handlers[event]
	out := make([]registration, len(regs))
	copy(out, regs)
	return out
}

// EmitSequential invokes handlers for event in registration order, awaiting
// each before the next. A handler error is recorded in its Result and does
// not abort the sequence; the payload threaded to the next handler is the
// last successfully-returned one.
func (m *Manager) EmitSequential(ctx context.Context, event Event, payload Payload) ([]Result, error) {
	if !validEvents[event] {
		return nil, fmt.Errorf("hooks: unknown event %q", event)
	}
	regs := m.snapshot(event)
	results := make([]Result, len(regs))
	current := payload

	for i, r := range regs {
		next, err := r.fn(ctx, current)
		if err != nil {
			results[i] = Result{Index: i, Err: err, Payload: current}
			continue
		}
		results[i] = Result{Index: i, Payload: next}
		current = next
	}
	return results, nil
}

// EmitParallel invokes all handlers for event concurrently. Each handler
// receives the same original payload; results are collected per-handler,
// indexed by registration order, and the call never propagates a handler
// error to the caller.
func (m *Manager) EmitParallel(ctx context.Context, event Event, payload Payload) ([]Result, error) {
	if !validEvents[event] {
		return nil, fmt.Errorf("hooks: unknown event %q", event)
	}
	regs := m.snapshot(event)
	results := make([]Result, len(regs))

	g, gctx := errgroup.WithContext(ctx)
	for i, r := range regs {
		i, r := i, r
		g.Go(func() error {
			next, err := r.fn(gctx, payload)
			results[i] = Result{Index: i, Err: err, Payload: next}
			return nil // per-handler errors are recorded, never propagated
		})
	}
	_ = g.Wait()
	return results, nil
}
