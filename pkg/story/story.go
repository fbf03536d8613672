// Package story defines the narrow capability interface the runtime
// consumes from the underlying narrative interpreter (spec §6). The
// interpreter itself, and the scripted story files it runs, are external
// collaborators — this package only describes the shape the runtime needs.
package story

// Choice is one of the authored options presented at a choice point.
type Choice struct {
	Text  string
	Index int
}

// Interpreter is the capability surface a Story object must expose. A
// concrete interpreter rarely implements all of it; AllKnots/StitchesOf may
// be absent, in which case the runtime falls back to a configured
// whitelist passed to KnownPaths.
type Interpreter interface {
	// CanContinue reports whether the interpreter has more prose to emit.
	CanContinue() bool
	// Continue advances prose by one step and returns the emitted text.
	Continue() (string, error)
	// CurrentChoices returns the authored choices available right now.
	CurrentChoices() []Choice
	// ChooseIndex selects one of CurrentChoices by index.
	ChooseIndex(i int) error
	// CurrentTags returns the tags attached to the current line/knot.
	CurrentTags() []string
	// Variable reads a named story variable. ok is false when undefined.
	Variable(name string) (value any, ok bool)
	// SetVariable writes a named story variable.
	SetVariable(name string, value any) error
	// CurrentPath returns the canonical node id of the current position.
	CurrentPath() string
	// ChoosePath diverts execution to path, implementing a return-path divert.
	ChoosePath(path string) error
	// ToJSON serializes interpreter state for checkpointing.
	ToJSON() ([]byte, error)
	// LoadJSON restores interpreter state from a previous ToJSON call.
	LoadJSON(data []byte) error
}

// GraphEnumerator is an optional capability: interpreters that can list
// their own knots/stitches support precise return-path validation. When an
// Interpreter doesn't implement this, the runtime uses a Whitelist instead.
type GraphEnumerator interface {
	// AllKnots returns every top-level node id in the authored graph.
	AllKnots() []string
	// StitchesOf returns the stitch ids nested under knot.
	StitchesOf(knot string) []string
	// IsTerminal reports whether path is a dead-end node diverts must avoid.
	IsTerminal(path string) bool
}

// ReturnPaths describes the set of nodes a branch proposal may legally
// divert back into, as produced by the LORE Assembler (current node and
// terminal nodes excluded).
type ReturnPaths struct {
	Valid []string
}

// Contains reports whether path is among the valid return paths.
func (r ReturnPaths) Contains(path string) bool {
	for _, p := range r.Valid {
		if p == path {
			return true
		}
	}
	return false
}

// KnownPaths enumerates the candidate return paths for an Interpreter,
// using GraphEnumerator when available and falling back to whitelist when
// it is not. currentPath is always excluded from the result.
func KnownPaths(interp Interpreter, whitelist []string, currentPath string) ReturnPaths {
	enum, ok := interp.(GraphEnumerator)
	if !ok {
		return ReturnPaths{Valid: excluding(whitelist, currentPath)}
	}

	var valid []string
	for _, knot := range enum.AllKnots() {
		if knot == currentPath || enum.IsTerminal(knot) {
			continue
		}
		valid = append(valid, knot)
		for _, stitch := range enum.StitchesOf(knot) {
			full := knot + "." + stitch
			if full == currentPath || enum.IsTerminal(full) {
				continue
			}
			valid = append(valid, full)
		}
	}
	return ReturnPaths{Valid: valid}
}

func excluding(paths []string, exclude string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if p != exclude {
			out = append(out, p)
		}
	}
	return out
}
