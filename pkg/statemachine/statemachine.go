// Package statemachine implements the twelve-state Integration State
// Machine that gates a proposal's lifecycle from submission to a terminal
// outcome (spec §4.7). There is no teacher analog for a lifecycle FSM; this
// is built in the teacher's idiom of explicit typed constants and a
// map-based table rather than a generic state-machine library (none exists
// anywhere in the retrieval pack).
package statemachine

import (
	"time"

	"github.com/google/uuid"

	"github.com/loomstory/director/pkg/runtimeerr"
)

// State is one of the twelve lifecycle states.
type State string

const (
	Submitted   State = "SUBMITTED"
	Validating  State = "VALIDATING"
	Validated   State = "VALIDATED"
	Rejected    State = "REJECTED"
	Queued      State = "QUEUED"
	Presenting  State = "PRESENTING"
	Declined    State = "DECLINED"
	Integrating State = "INTEGRATING"
	Integrated  State = "INTEGRATED"
	Executing   State = "EXECUTING"
	Archived    State = "ARCHIVED"
	Reverted    State = "REVERTED"
)

// allowedTransitions is the explicit transition table of §4.7.
var allowedTransitions = map[State][]State{
	Submitted:   {Validating},
	Validating:  {Validated, Rejected},
	Validated:   {Queued},
	Queued:      {Presenting},
	Presenting:  {Declined, Integrating},
	Integrating: {Integrated},
	Integrated:  {Executing},
	Executing:   {Archived, Reverted},
}

var terminalStates = map[State]bool{
	Rejected: true, Declined: true, Archived: true, Reverted: true,
}

// mutatingTransitions marks the only two transitions allowed to mutate
// story state: INTEGRATING -> INTEGRATED -> EXECUTING. Every other
// transition is metadata-only.
var mutatingTransitions = map[[2]State]bool{
	{Integrating, Integrated}: true,
	{Integrated, Executing}:   true,
}

// TransitionLogEntry records one state change.
type TransitionLogEntry struct {
	ID         uuid.UUID
	From       State
	To         State
	Timestamp  time.Time
	PayloadRef string
}

// Machine tracks one proposal's lifecycle state. Not safe for concurrent
// use from multiple goroutines: the Shared-Resource Policy (spec §5)
// assigns exactly one orchestrator coroutine per choice point.
type Machine struct {
	payloadRef string
	state      State
	log        []TransitionLogEntry
	now        func() time.Time
}

// Option configures a Machine.
type Option func(*Machine)

// WithClock injects a deterministic clock for tests.
func WithClock(now func() time.Time) Option {
	return func(m *Machine) { m.now = now }
}

// New constructs a Machine in the initial SUBMITTED state for the proposal
// identified by payloadRef.
func New(payloadRef string, opts ...Option) *Machine {
	m := &Machine{payloadRef: payloadRef, state: Submitted, now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// State returns the current state.
func (m *Machine) State() State { return m.state }

// IsTerminal reports whether the current state is one of the four
// terminal states.
func (m *Machine) IsTerminal() bool { return terminalStates[m.state] }

// Log returns the transition history in order.
func (m *Machine) Log() []TransitionLogEntry {
	out := make([]TransitionLogEntry, len(m.log))
	copy(out, m.log)
	return out
}

// Transition moves the machine from its current state to to. An
// out-of-table transition is a StateMachineError — per spec §7 this is
// fatal and indicates a bug, not a recoverable condition.
func (m *Machine) Transition(to State) error {
	for _, allowed := range allowedTransitions[m.state] {
		if allowed == to {
			m.log = append(m.log, TransitionLogEntry{
				ID:         uuid.New(),
				From:       m.state,
				To:         to,
				Timestamp:  m.now(),
				PayloadRef: m.payloadRef,
			})
			m.state = to
			return nil
		}
	}
	return runtimeerr.Wrap(runtimeerr.KindStateMachine, "statemachine.Transition",
		"illegal transition %s -> %s", m.state, to)
}

// Mutates reports whether transitioning from the current state to `to`
// is one of the two story-mutating transitions.
func (m *Machine) Mutates(to State) bool {
	return mutatingTransitions[[2]State{m.state, to}]
}
