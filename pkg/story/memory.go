package story

import (
	"encoding/json"
	"fmt"
)

// Knot is one node of a MemoryStory's authored graph: the prose emitted on
// arrival, the choices offered from it, and whether it's a dead end diverts
// must avoid.
type Knot struct {
	Text     string
	Choices  []Choice
	Tags     []string
	Terminal bool
	// Targets maps a choice index to the knot it diverts to.
	Targets map[int]string
}

// MemoryStory is a minimal in-memory Interpreter backed by a static knot
// graph. It implements both Interpreter and GraphEnumerator, making it
// useful for local development and the operator CLI's demo command without
// a real narrative-interpreter dependency — the same role the teacher's
// internal/generators/test stubs play for exercising a pipeline without a
// live backend.
type MemoryStory struct {
	knots   map[string]*Knot
	order   []string
	current string
	vars    map[string]any
}

// NewMemoryStory builds a MemoryStory starting at start. knots must contain
// an entry for start.
func NewMemoryStory(start string, knots map[string]*Knot) (*MemoryStory, error) {
	if _, ok := knots[start]; !ok {
		return nil, fmt.Errorf("story: start knot %q not found", start)
	}
	order := make([]string, 0, len(knots))
	for name := range knots {
		order = append(order, name)
	}
	return &MemoryStory{
		knots:   knots,
		order:   order,
		current: start,
		vars:    make(map[string]any),
	}, nil
}

func (m *MemoryStory) knot() *Knot { return m.knots[m.current] }

func (m *MemoryStory) CanContinue() bool { return false }

func (m *MemoryStory) Continue() (string, error) {
	return m.knot().Text, nil
}

func (m *MemoryStory) CurrentChoices() []Choice {
	return m.knot().Choices
}

func (m *MemoryStory) ChooseIndex(i int) error {
	k := m.knot()
	target, ok := k.Targets[i]
	if !ok {
		return fmt.Errorf("story: no choice %d at knot %q", i, m.current)
	}
	return m.ChoosePath(target)
}

func (m *MemoryStory) CurrentTags() []string {
	return m.knot().Tags
}

func (m *MemoryStory) Variable(name string) (any, bool) {
	v, ok := m.vars[name]
	return v, ok
}

func (m *MemoryStory) SetVariable(name string, value any) error {
	m.vars[name] = value
	return nil
}

func (m *MemoryStory) CurrentPath() string { return m.current }

func (m *MemoryStory) ChoosePath(path string) error {
	if _, ok := m.knots[path]; !ok {
		return fmt.Errorf("story: knot %q does not exist", path)
	}
	m.current = path
	return nil
}

func (m *MemoryStory) ToJSON() ([]byte, error) {
	return json.Marshal(struct {
		Current string `json:"current"`
	}{Current: m.current})
}

func (m *MemoryStory) LoadJSON(data []byte) error {
	var decoded struct {
		Current string `json:"current"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		return fmt.Errorf("story: restore state: %w", err)
	}
	if _, ok := m.knots[decoded.Current]; !ok {
		return fmt.Errorf("story: restore to unknown knot %q", decoded.Current)
	}
	m.current = decoded.Current
	return nil
}

// AllKnots returns every knot id, satisfying GraphEnumerator.
func (m *MemoryStory) AllKnots() []string { return m.order }

// StitchesOf returns nothing: MemoryStory's graph is flat, knots only.
func (m *MemoryStory) StitchesOf(knot string) []string { return nil }

// IsTerminal reports whether path is a dead-end knot.
func (m *MemoryStory) IsTerminal(path string) bool {
	k, ok := m.knots[path]
	return ok && k.Terminal
}
