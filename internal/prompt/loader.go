package prompt

import (
	"fmt"
	"os"
	"path"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadFromPath loads Template overrides from a filesystem directory of YAML
// files, the same runtime-loading-without-recompilation pattern the
// teacher's template loader supports for custom content. Templates are
// keyed by their ID field, overriding (or adding to) DefaultTemplates.
func LoadFromPath(basedir string) (map[string]*Template, error) {
	entries, err := os.ReadDir(basedir)
	if err != nil {
		return nil, fmt.Errorf("reading template directory %s: %w", basedir, err)
	}

	templates := make(map[string]*Template, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || (!strings.HasSuffix(entry.Name(), ".yaml") && !strings.HasSuffix(entry.Name(), ".yml")) {
			continue
		}

		filePath := path.Join(basedir, entry.Name())
		data, err := os.ReadFile(filePath)
		if err != nil {
			return nil, fmt.Errorf("reading template %s: %w", filePath, err)
		}

		var tmpl Template
		if err := yaml.Unmarshal(data, &tmpl); err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", filePath, err)
		}
		templates[tmpl.ID] = &tmpl
	}

	return templates, nil
}
