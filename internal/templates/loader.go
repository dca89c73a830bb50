// Package templates loads task template definitions from YAML files and
// syncs them into the state store.
package templates

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/astralisone/astralis-core/internal/state"
	"github.com/astralisone/astralis-core/pkg/models"
)

// LoadFile reads and validates a single template definition.
func LoadFile(path string) (*models.TaskTemplate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var tmpl models.TaskTemplate
	if err := yaml.Unmarshal(data, &tmpl); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	if tmpl.Version == 0 {
		tmpl.Version = 1
	}

	if err := tmpl.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return &tmpl, nil
}

// LoadDir loads every .yaml/.yml template in a directory, sorted by filename.
func LoadDir(dir string) ([]*models.TaskTemplate, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading template directory: %w", err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext == ".yaml" || ext == ".yml" {
			paths = append(paths, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(paths)

	seen := make(map[string]string, len(paths))
	templates := make([]*models.TaskTemplate, 0, len(paths))
	for _, path := range paths {
		tmpl, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		if prev, ok := seen[tmpl.ID]; ok {
			return nil, fmt.Errorf("template id %q defined in both %s and %s", tmpl.ID, prev, path)
		}
		seen[tmpl.ID] = path
		templates = append(templates, tmpl)
	}

	return templates, nil
}

// SyncDir loads all templates from dir and upserts them into the store.
// Returns the number of templates written.
func SyncDir(store state.TemplateStore, dir string) (int, error) {
	templates, err := LoadDir(dir)
	if err != nil {
		return 0, err
	}

	for _, tmpl := range templates {
		if err := store.PutTemplate(tmpl); err != nil {
			return 0, fmt.Errorf("storing template %s: %w", tmpl.ID, err)
		}
	}

	return len(templates), nil
}
