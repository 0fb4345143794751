// Directory-backed template storage: one .toml (or .yaml/.yml) file per template.

package template

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"commitkit/cli/internal/erruser"
)

// ErrTemplateNotFound indicates the requested template name is not in the
// collection. Distinct from I/O failures so callers can suggest
// "commitkit template list".
var ErrTemplateNotFound = errors.New("template not found")

// Manager holds the templates loaded from a directory. Templates are
// immutable once retrieved; Add and Delete rewrite the backing files.
type Manager struct {
	dir       string
	templates map[string]Template
}

// NewManager loads every template file from dir, creating the directory if
// it does not exist. When the directory holds no templates, the default set
// (feature, bugfix, refactor) is written and loaded.
func NewManager(dir string) (*Manager, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, erruser.New("Could not create templates directory.", err)
	}
	m := &Manager{dir: dir, templates: make(map[string]Template)}
	if err := m.load(); err != nil {
		return nil, err
	}
	if len(m.templates) == 0 {
		if err := m.seedDefaults(); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// load reads all .toml, .yaml, and .yml files in the manager directory.
// Other files are ignored. A file that fails to parse aborts the load.
func (m *Manager) load() error {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return erruser.New("Could not read templates directory.", err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		path := filepath.Join(m.dir, e.Name())
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext != ".toml" && ext != ".yaml" && ext != ".yml" {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return erruser.New("Could not read template file "+e.Name()+".", err)
		}
		var t Template
		if ext == ".toml" {
			if _, err := toml.Decode(string(data), &t); err != nil {
				return erruser.New("Invalid template file "+e.Name()+".", err)
			}
		} else {
			if err := yaml.Unmarshal(data, &t); err != nil {
				return erruser.New("Invalid template file "+e.Name()+".", err)
			}
		}
		if t.Name == "" {
			return erruser.New("Template file "+e.Name()+" has no name.", nil)
		}
		m.templates[t.Name] = t
	}
	return nil
}

// Get returns the template with the given name.
func (m *Manager) Get(name string) (Template, error) {
	t, ok := m.templates[name]
	if !ok {
		return Template{}, fmt.Errorf("template %q: %w", name, ErrTemplateNotFound)
	}
	return t, nil
}

// List returns all templates sorted by name.
func (m *Manager) List() []Template {
	out := make([]Template, 0, len(m.templates))
	for _, t := range m.templates {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Add persists t as <name>.toml in the manager directory and registers it.
// An existing template with the same name is overwritten.
func (m *Manager) Add(t Template) error {
	if t.Name == "" {
		return erruser.New("Template name must not be empty.", nil)
	}
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(t); err != nil {
		return erruser.New("Could not encode template.", err)
	}
	path := filepath.Join(m.dir, t.Name+".toml")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return erruser.New("Could not write template file.", err)
	}
	m.templates[t.Name] = t
	return nil
}

// Delete removes the named template and its backing file (whatever its
// extension). Returns ErrTemplateNotFound when the name is unknown.
func (m *Manager) Delete(name string) error {
	if _, ok := m.templates[name]; !ok {
		return fmt.Errorf("template %q: %w", name, ErrTemplateNotFound)
	}
	delete(m.templates, name)
	for _, ext := range []string{".toml", ".yaml", ".yml"} {
		path := filepath.Join(m.dir, name+ext)
		if _, err := os.Stat(path); err == nil {
			if err := os.Remove(path); err != nil {
				return erruser.New("Could not delete template file.", err)
			}
		}
	}
	return nil
}

// defaultTemplates is the starter set written when the directory is empty.
func defaultTemplates() []Template {
	return []Template{
		{
			Name:            "feature",
			Description:     "Template for new features",
			SubjectTemplate: "add {feature_name}",
			BodyTemplate:    "This change adds the ability to {description}\n\nThe following functionality is now available:\n- {point_1}\n- {point_2}",
			FooterTemplate:  "Closes #{issue_number}",
		},
		{
			Name:            "bugfix",
			Description:     "Template for bug fixes",
			SubjectTemplate: "fix {issue_description}",
			BodyTemplate:    "This fixes an issue where {problem_description}\n\nRoot cause: {root_cause}",
			FooterTemplate:  "Fixes #{issue_number}",
		},
		{
			Name:            "refactor",
			Description:     "Template for code refactoring",
			SubjectTemplate: "refactor {component_name}",
			BodyTemplate:    "This refactors {component_name} to improve {goal}\n\nChanges:\n- {change_1}\n- {change_2}",
		},
	}
}

func (m *Manager) seedDefaults() error {
	for _, t := range defaultTemplates() {
		if err := m.Add(t); err != nil {
			return err
		}
	}
	return nil
}
