// Package hooks installs and removes the git hooks that route commit
// messages through commitkit: prepare-commit-msg rewrites the proposed
// message, commit-msg rejects messages that fail validation.
package hooks

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"commitkit/cli/internal/erruser"
)

// ErrNotARepo indicates no .git directory was found walking up from the
// starting directory.
var ErrNotARepo = errors.New("not inside a git repository")

// Hook names managed by this package.
const (
	PrepareCommitMsg = "prepare-commit-msg"
	CommitMsg        = "commit-msg"
)

const prepareCommitMsgScript = `#!/bin/sh
# Installed by commitkit. Rewrites the proposed commit message into
# conventional commit form before the editor opens.
COMMIT_MSG_FILE="$1"
COMMIT_SOURCE="$2"

# Leave merge, squash, and amend messages alone.
case "$COMMIT_SOURCE" in
merge|squash|commit) exit 0 ;;
esac

ORIG_MSG=$(cat "$COMMIT_MSG_FILE")
commitkit prepare-msg "$ORIG_MSG" > "$COMMIT_MSG_FILE"
`

const commitMsgScript = `#!/bin/sh
# Installed by commitkit. Rejects commit messages that are not valid
# conventional commits.
commitkit validate "$1"
`

// Manager installs hooks into the repository at RepoRoot.
type Manager struct {
	RepoRoot string
}

// NewManager returns a Manager for the repository at repoRoot.
func NewManager(repoRoot string) *Manager {
	return &Manager{RepoRoot: repoRoot}
}

// HooksDir returns the hooks directory for the repository.
func (m *Manager) HooksDir() string {
	return filepath.Join(m.RepoRoot, ".git", "hooks")
}

// InstallPrepareCommitMsg writes the prepare-commit-msg hook, overwriting
// any existing hook of that name.
func (m *Manager) InstallPrepareCommitMsg() error {
	return m.install(PrepareCommitMsg, prepareCommitMsgScript)
}

// InstallCommitMsg writes the commit-msg hook, overwriting any existing
// hook of that name.
func (m *Manager) InstallCommitMsg() error {
	return m.install(CommitMsg, commitMsgScript)
}

func (m *Manager) install(name, script string) error {
	dir := m.HooksDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return erruser.New("Could not create the git hooks directory.", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		return erruser.New("Could not write the "+name+" hook.", err)
	}
	// WriteFile only applies the mode on create; an overwritten hook keeps
	// its old permissions, so set them explicitly.
	if err := os.Chmod(path, 0o755); err != nil {
		return erruser.New("Could not mark the "+name+" hook executable.", err)
	}
	return nil
}

// Remove deletes the named hook, but only if commitkit installed it. A hook
// written by something else is left in place and reported as an error.
// Removing a hook that does not exist is a no-op.
func (m *Manager) Remove(name string) error {
	path := filepath.Join(m.HooksDir(), name)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return erruser.New("Could not read the "+name+" hook.", err)
	}
	if !installedByCommitkit(string(data)) {
		return erruser.New("The "+name+" hook was not installed by commitkit; remove it manually.", nil)
	}
	if err := os.Remove(path); err != nil {
		return erruser.New("Could not remove the "+name+" hook.", err)
	}
	return nil
}

// IsInstalled reports whether the named hook exists and was installed by
// commitkit.
func (m *Manager) IsInstalled(name string) bool {
	data, err := os.ReadFile(filepath.Join(m.HooksDir(), name))
	if err != nil {
		return false
	}
	return installedByCommitkit(string(data))
}

func installedByCommitkit(script string) bool {
	return strings.Contains(script, "Installed by commitkit")
}

// FindRepoRoot walks up from start looking for a .git entry and returns the
// directory containing it. Returns ErrNotARepo when the filesystem root is
// reached without finding one.
func FindRepoRoot(start string) (string, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrNotARepo
		}
		dir = parent
	}
}
