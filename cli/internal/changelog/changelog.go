// Package changelog edits a Markdown changelog as an ordered line list.
// Entries are inserted under the first "## " section header (the active,
// most-recent section); releases promote the Unreleased section. Every
// change rewrites the whole file from memory, so a failed operation never
// leaves a half-written document. Single-writer use is assumed: there is no
// locking, and a concurrent writer can lose updates.
package changelog

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"commitkit/cli/internal/erruser"
)

// ErrNoChangelog indicates the changelog file does not exist. Returned by
// UpdateVersion, which never creates the file.
var ErrNoChangelog = errors.New("changelog file does not exist")

// typeLabels maps commit types to their changelog section label. Built once
// at package init; unknown types pass through as their own label.
var typeLabels = map[string]string{
	"feat":     "Added",
	"fix":      "Fixed",
	"perf":     "Performance",
	"refactor": "Changed",
	"docs":     "Documentation",
	"test":     "Tests",
	"build":    "Build",
	"ci":       "CI",
	"chore":    "Maintenance",
	"style":    "Style",
	"revert":   "Reverted",
}

// LabelFor returns the changelog label for a commit type. Unrecognized
// types are returned unchanged.
func LabelFor(typ string) string {
	if label, ok := typeLabels[typ]; ok {
		return label
	}
	return typ
}

// Manager edits the changelog at Path. Project names the project in the
// header of a freshly created file. Version, when non-empty, labels new
// section headers instead of "Unreleased".
type Manager struct {
	Path    string
	Project string
	Version string
}

// New returns a Manager for the changelog at path.
func New(path, project string) *Manager {
	return &Manager{Path: path, Project: project}
}

// WithVersion sets the version used for new section headers and returns m.
func (m *Manager) WithVersion(version string) *Manager {
	m.Version = version
	return m
}

// AddEntry formats an entry for the given commit fields and inserts it at
// the top of the active section. If the file does not exist it is created
// with the standard header first. If no "## " section header exists, one is
// appended (using Version, or "Unreleased", dated today) before the entry.
func (m *Manager) AddEntry(typ, scope, subject, body string) error {
	if _, err := os.Stat(m.Path); err != nil {
		if !os.IsNotExist(err) {
			return erruser.New("Could not access changelog file.", err)
		}
		if err := m.create(); err != nil {
			return err
		}
	}
	data, err := os.ReadFile(m.Path)
	if err != nil {
		return erruser.New("Could not read changelog file.", err)
	}
	lines := strings.Split(string(data), "\n")

	entry := formatEntry(typ, scope, subject, body)

	headerIdx := -1
	for i, line := range lines {
		if strings.HasPrefix(line, "## ") {
			headerIdx = i
			break
		}
	}
	if headerIdx >= 0 {
		// Blank separator then the entry, directly below the active header.
		tail := append([]string{"", entry}, lines[headerIdx+1:]...)
		lines = append(lines[:headerIdx+1], tail...)
	} else {
		version := m.Version
		if version == "" {
			version = "Unreleased"
		}
		lines = append(lines, fmt.Sprintf("## %s (%s)", version, today()), "", entry)
	}
	return m.write(lines)
}

// UpdateVersion promotes the Unreleased section: the first line starting
// with "## Unreleased" becomes a dated header for newVersion, and a fresh
// "## Unreleased" header (followed by a blank line) is inserted above it, so
// existing entries now belong to the released version. When no Unreleased
// header exists the file is rewritten unchanged. Returns ErrNoChangelog if
// the file does not exist.
func (m *Manager) UpdateVersion(newVersion string) error {
	data, err := os.ReadFile(m.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%s: %w", m.Path, ErrNoChangelog)
		}
		return erruser.New("Could not read changelog file.", err)
	}
	lines := strings.Split(string(data), "\n")
	for i, line := range lines {
		if strings.HasPrefix(line, "## Unreleased") {
			lines[i] = fmt.Sprintf("## %s (%s)", newVersion, today())
			tail := append([]string{"## Unreleased", ""}, lines[i:]...)
			lines = append(lines[:i], tail...)
			break
		}
	}
	return m.write(lines)
}

// formatEntry renders "- **<Label>**[ (<scope>)]: <subject>" plus one
// indented sub-bullet per non-blank body line.
func formatEntry(typ, scope, subject, body string) string {
	var b strings.Builder
	b.WriteString("- **")
	b.WriteString(LabelFor(typ))
	b.WriteString("**")
	if scope != "" {
		b.WriteString(" (")
		b.WriteString(scope)
		b.WriteString(")")
	}
	b.WriteString(": ")
	b.WriteString(subject)
	if body != "" {
		for _, line := range strings.Split(body, "\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			b.WriteString("\n  - ")
			b.WriteString(line)
		}
	}
	return b.String()
}

// create writes a fresh changelog containing only the standard header.
func (m *Manager) create() error {
	header := fmt.Sprintf(`# Changelog

All notable changes to %s will be documented in this file.

The format is based on [Keep a Changelog](https://keepachangelog.com/en/1.0.0/),
and this project adheres to [Semantic Versioning](https://semver.org/spec/v2.0.0.html).

`, m.Project)
	if err := os.WriteFile(m.Path, []byte(header), 0o644); err != nil {
		return erruser.New("Could not create changelog file.", err)
	}
	return nil
}

func (m *Manager) write(lines []string) error {
	if err := os.WriteFile(m.Path, []byte(strings.Join(lines, "\n")), 0o644); err != nil {
		return erruser.New("Could not write changelog file.", err)
	}
	return nil
}

func today() string {
	return time.Now().Format("2006-01-02")
}
