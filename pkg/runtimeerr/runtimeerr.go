// Package runtimeerr defines the stable error taxonomy (spec §7) shared by
// every layer of the pipeline. Callers match kinds with errors.Is and pull
// structured detail with errors.As rather than inspecting message strings.
package runtimeerr

import (
	"errors"
	"fmt"
)

// Kind is a stable error category. Kinds are never renamed; new ones are
// appended.
type Kind string

const (
	KindConfig              Kind = "config_error"
	KindSchema              Kind = "schema_error"
	KindPolicyViolation     Kind = "policy_violation"
	KindLLMTransport        Kind = "llm_transport_error"
	KindParse               Kind = "parse_error"
	KindReturnPath          Kind = "return_path_error"
	KindRuntimeIntegration  Kind = "runtime_integration_error"
	KindStateMachine        Kind = "state_machine_error"
)

// Error is the concrete error type carrying a stable Kind plus a wrapped cause.
type Error struct {
	Kind Kind
	Op   string // the operation that failed, e.g. "lore.Assemble"
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error with the same Kind, so callers can
// do errors.Is(err, runtimeerr.New(runtimeerr.KindConfig, "", nil)) or more
// idiomatically use the Is* helpers below.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Kind == t.Kind
}

// New constructs an *Error of the given kind, wrapping err.
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Wrap is shorthand for New with fmt.Errorf-style context folded into err.
func Wrap(kind Kind, op string, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

func sentinel(k Kind) *Error { return &Error{Kind: k} }

var (
	// ErrConfig matches any ConfigError via errors.Is.
	ErrConfig = sentinel(KindConfig)
	// ErrSchema matches any SchemaError via errors.Is.
	ErrSchema = sentinel(KindSchema)
	// ErrPolicyViolation matches any PolicyViolation via errors.Is.
	ErrPolicyViolation = sentinel(KindPolicyViolation)
	// ErrLLMTransport matches any LLMTransportError via errors.Is.
	ErrLLMTransport = sentinel(KindLLMTransport)
	// ErrParse matches any ParseError via errors.Is.
	ErrParse = sentinel(KindParse)
	// ErrReturnPath matches any ReturnPathError via errors.Is.
	ErrReturnPath = sentinel(KindReturnPath)
	// ErrRuntimeIntegration matches any RuntimeIntegrationError via errors.Is.
	ErrRuntimeIntegration = sentinel(KindRuntimeIntegration)
	// ErrStateMachine matches any StateMachineError via errors.Is.
	ErrStateMachine = sentinel(KindStateMachine)
)

// TransportSubkind further classifies an LLMTransportError per §7.
type TransportSubkind string

const (
	TransportTimeout    TransportSubkind = "timeout"
	TransportNetwork    TransportSubkind = "network"
	TransportRateLimit  TransportSubkind = "rate_limit"
	TransportInvalidKey TransportSubkind = "invalid_key"
	TransportAPIError   TransportSubkind = "api_error"
)

// TransportError is the structured form of an LLMTransportError, retrievable
// via errors.As.
type TransportError struct {
	Subkind    TransportSubkind
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("llm transport error (%s, status=%d): %v", e.Subkind, e.StatusCode, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Is satisfies the Kind-carrying convention so TransportError also matches
// errors.Is(err, runtimeerr.ErrLLMTransport).
func (e *TransportError) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return t.Kind == KindLLMTransport
	}
	return false
}

// NewTransportError builds a TransportError, which also satisfies
// errors.Is(err, ErrLLMTransport).
func NewTransportError(sub TransportSubkind, status int, err error) *TransportError {
	return &TransportError{Subkind: sub, StatusCode: status, Err: err}
}
