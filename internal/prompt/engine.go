package prompt

import (
	"sort"
	"strings"
	"text/template"

	"github.com/loomstory/director/pkg/lore"
	"github.com/loomstory/director/pkg/runtimeerr"
)

// Engine selects a Template by inferred context type and renders it
// against a LORE snapshot. Rendering is a pure function of its inputs:
// identical snapshot + template + return-paths list always produce
// identical output, since every map-keyed field is iterated in a fixed
// order before interpolation.
type Engine struct {
	templates map[string]*Template
}

// New constructs an Engine from a template set, falling back to
// DefaultTemplates for any ID not present in overrides.
func New(overrides map[string]*Template) *Engine {
	templates := make(map[string]*Template, len(DefaultTemplates))
	for id, tmpl := range DefaultTemplates {
		templates[id] = tmpl
	}
	for id, tmpl := range overrides {
		templates[id] = tmpl
	}
	return &Engine{templates: templates}
}

// SelectTemplate maps a LORE context type to a template ID per the fixed
// selection table: {dialogue, tension} -> dialogue; {discovery,
// exploration} and any other/unknown context -> exploration.
func SelectTemplate(ctx lore.ContextType) string {
	switch ctx {
	case lore.ContextDialogue, lore.ContextTension:
		return "dialogue"
	case lore.ContextDiscovery, lore.ContextExploration:
		return "exploration"
	default:
		return "exploration"
	}
}

// renderData is the fixed set of fields every template may interpolate.
// Every slice/string field here is built in a stable order so the
// rendered prompt is reproducible.
type renderData struct {
	SceneName     string
	Courage       any
	Caution       any
	Inventory     string
	RecentChoices string
	ReturnPaths   string
}

// Render selects and executes the template for snapshot.GameState.ContextType,
// producing the system prompt (static) and user prompt (interpolated).
func (e *Engine) Render(snapshot lore.Snapshot) (systemPrompt, userPrompt string, err error) {
	id := SelectTemplate(snapshot.GameState.ContextType)
	tmpl, ok := e.templates[id]
	if !ok {
		return "", "", runtimeerr.Wrap(runtimeerr.KindConfig, "prompt.Render", "no template registered for %q", id)
	}

	data := renderData{
		SceneName:     humanizeSceneName(snapshot.GameState.CurrentNode),
		Courage:       valueOrDash(snapshot.PlayerState["courage"]),
		Caution:       valueOrDash(snapshot.PlayerState["caution"]),
		Inventory:     formatInventory(snapshot.PlayerState["inventory"]),
		RecentChoices: formatRecentChoices(snapshot.NarrativeContext),
		ReturnPaths:   formatReturnPaths(snapshot.ReturnPaths.Valid),
	}

	userPrompt, err = execute(tmpl.ID+".user", tmpl.User, data)
	if err != nil {
		return "", "", err
	}
	return tmpl.System, userPrompt, nil
}

func execute(name, body string, data renderData) (string, error) {
	t, err := template.New(name).Parse(body)
	if err != nil {
		return "", runtimeerr.Wrap(runtimeerr.KindConfig, "prompt.execute", "parse template %q: %v", name, err)
	}
	var sb strings.Builder
	if err := t.Execute(&sb, data); err != nil {
		return "", runtimeerr.Wrap(runtimeerr.KindConfig, "prompt.execute", "render template %q: %v", name, err)
	}
	return sb.String(), nil
}

func valueOrDash(v any) any {
	if v == nil {
		return "-"
	}
	return v
}

func formatInventory(v any) string {
	var items []string
	switch val := v.(type) {
	case []string:
		items = val
	case []any:
		for _, item := range val {
			if s, ok := item.(string); ok {
				items = append(items, s)
			}
		}
	case string:
		if val != "" {
			items = []string{val}
		}
	}
	if len(items) == 0 {
		return "nothing"
	}
	sorted := append([]string(nil), items...)
	sort.Strings(sorted)
	return strings.Join(sorted, ", ")
}

func formatRecentChoices(history []string) string {
	if len(history) == 0 {
		return "none yet"
	}
	return strings.Join(history, " -> ")
}

func formatReturnPaths(paths []string) string {
	if len(paths) == 0 {
		return "none"
	}
	sorted := append([]string(nil), paths...)
	sort.Strings(sorted)
	return strings.Join(sorted, ", ")
}

// humanizeSceneName turns a node id like "old_mill_interior" into "old mill interior".
func humanizeSceneName(node string) string {
	if node == "" {
		return "unknown"
	}
	return strings.ReplaceAll(node, "_", " ")
}

