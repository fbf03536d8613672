// Package lore assembles the LORE Assembler's Story Snapshot: a
// deterministic fingerprint of interpreter state captured at a choice
// point (spec §3, §4.1).
package lore

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"

	"github.com/loomstory/director/pkg/story"
)

// ContextType classifies the narrative mood of the current choice point.
type ContextType string

const (
	ContextDialogue    ContextType = "dialogue"
	ContextExploration ContextType = "exploration"
	ContextTension     ContextType = "tension"
	ContextDiscovery   ContextType = "discovery"
)

const (
	defaultHistoryCap = 5
	maxHistoryCap     = 10
)

// GameState captures the interpreter's position and inferred mood.
type GameState struct {
	CurrentNode string          `json:"current_node"`
	ContextType ContextType     `json:"context_type"`
	Flags       map[string]bool `json:"flags"`
}

// Snapshot is the LORE fingerprint for a single choice point. It is never
// mutated after assembly.
type Snapshot struct {
	PlayerState      map[string]any `json:"player_state"`
	GameState        GameState      `json:"game_state"`
	NarrativeContext []string       `json:"narrative_context"`
	ContextHash      string         `json:"context_hash"`
	CaptureTimestamp time.Time      `json:"capture_timestamp"`
	ReturnPaths      story.ReturnPaths
}

// Assembler owns the bounded choice-history buffer across choice points.
// It never suspends: Assemble is a pure function of interpreter state plus
// an injected clock, matching the teacher's pattern of injecting time.Now
// via a field rather than calling it directly in a hot path.
type Assembler struct {
	historyCap int
	history    []string
	whitelist  []string
	now        func() time.Time
}

// Option configures an Assembler.
type Option func(*Assembler)

// WithHistoryCap overrides the default bounded choice-history size (max 10).
func WithHistoryCap(cap int) Option {
	return func(a *Assembler) {
		if cap > 0 && cap <= maxHistoryCap {
			a.historyCap = cap
		}
	}
}

// WithWhitelist supplies the fallback return-path whitelist used when the
// Interpreter lacks story.GraphEnumerator.
func WithWhitelist(paths []string) Option {
	return func(a *Assembler) { a.whitelist = paths }
}

// WithClock injects a deterministic clock; tests use a fixed time.
func WithClock(now func() time.Time) Option {
	return func(a *Assembler) { a.now = now }
}

// NewAssembler constructs an Assembler with the given options.
func NewAssembler(opts ...Option) *Assembler {
	a := &Assembler{
		historyCap: defaultHistoryCap,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// RecordChoice appends text to the bounded choice history (FIFO trim,
// newest last).
func (a *Assembler) RecordChoice(text string) {
	a.history = append(a.history, text)
	if len(a.history) > a.historyCap {
		a.history = a.history[len(a.history)-a.historyCap:]
	}
}

// ClearHistory empties the choice-history buffer.
func (a *Assembler) ClearHistory() {
	a.history = nil
}

// Assemble produces a Snapshot from the interpreter's current state. A
// missing/empty current node degrades to ContextExploration with no valid
// return paths, signalling the orchestrator to force-reject any proposal.
func (a *Assembler) Assemble(interp story.Interpreter) Snapshot {
	currentNode := interp.CurrentPath()

	playerState := readVariables(interp)
	flags := boolFlags(playerState)

	var contextType ContextType
	var returnPaths story.ReturnPaths
	if currentNode == "" {
		contextType = ContextExploration
	} else {
		contextType = classify(currentNode, interp.CurrentTags(), flags)
		returnPaths = story.KnownPaths(interp, a.whitelist, currentNode)
	}

	snapshot := Snapshot{
		PlayerState: playerState,
		GameState: GameState{
			CurrentNode: currentNode,
			ContextType: contextType,
			Flags:       flags,
		},
		NarrativeContext: append([]string(nil), a.history...),
		CaptureTimestamp: a.now(),
		ReturnPaths:      returnPaths,
	}
	snapshot.ContextHash = contextHash(snapshot)
	return snapshot
}

// knownVariableNames is the closed set of story variables LORE reads by
// default when the interpreter doesn't expose an enumeration of its own
// variable names (most Ink-style VM bindings don't).
var knownVariableNames = []string{
	"courage", "caution", "wolves_spotted", "inventory",
	"trust_level", "reputation", "health",
}

func readVariables(interp story.Interpreter) map[string]any {
	state := make(map[string]any)
	for _, name := range knownVariableNames {
		if v, ok := interp.Variable(name); ok {
			state[name] = v
		}
	}
	return state
}

func boolFlags(state map[string]any) map[string]bool {
	flags := make(map[string]bool)
	for k, v := range state {
		if b, ok := v.(bool); ok {
			flags[k] = b
		}
	}
	return flags
}

// classify infers a ContextType from the current node name, its tags, and
// boolean flags. Node-name heuristics take precedence; a raised-tension
// flag (e.g. wolves_spotted) can escalate exploration/dialogue to tension.
func classify(node string, tags []string, flags map[string]bool) ContextType {
	lowered := strings.ToLower(node)
	for _, tag := range tags {
		lowered += " " + strings.ToLower(tag)
	}

	var base ContextType
	switch {
	case containsAny(lowered, "dialogue", "talk", "convers", "speak"):
		base = ContextDialogue
	case containsAny(lowered, "combat", "fight", "battle", "tension", "chase"):
		base = ContextTension
	case containsAny(lowered, "discover", "found", "reveal", "secret"):
		base = ContextDiscovery
	default:
		base = ContextExploration
	}

	if flags["wolves_spotted"] && base != ContextTension {
		return ContextTension
	}
	return base
}

func containsAny(haystack string, needles ...string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}

// contextHash computes a stable SHA-256 over a sorted, whitespace-
// normalized canonical JSON of the hashable subset of Snapshot (everything
// except CaptureTimestamp and ReturnPaths, which are not part of the
// identity of a context).
func contextHash(s Snapshot) string {
	hashable := map[string]any{
		"player_state":      canonicalize(s.PlayerState),
		"game_state":        canonicalize(s.GameState),
		"narrative_context": s.NarrativeContext,
	}
	data, _ := json.Marshal(canonicalize(hashable))
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// canonicalize recursively converts maps into sorted-key representations so
// json.Marshal produces byte-identical output regardless of Go map
// iteration order. json.Marshal already sorts map[string]X keys, but nested
// any-typed maps (map[string]any from player_state) need the same
// treatment explicitly since their values may themselves be maps.
func canonicalize(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = canonicalize(item)
		}
		return out
	case GameState:
		return map[string]any{
			"current_node": val.CurrentNode,
			"context_type": string(val.ContextType),
			"flags":        canonicalize(toAnyMap(val.Flags)),
		}
	default:
		return v
	}
}

func toAnyMap(flags map[string]bool) map[string]any {
	out := make(map[string]any, len(flags))
	for k, v := range flags {
		out[k] = v
	}
	return out
}
