// Package git wraps the git binary for repository discovery, staged-change
// checks, and committing. Uses exec git for compatibility.
package git

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"commitkit/cli/internal/erruser"
)

// RepoRoot returns the absolute path of the git repository root containing dir.
// Runs "git rev-parse --show-toplevel" with Dir=dir. Returns error if dir is
// not inside a git repository.
func RepoRoot(dir string) (string, error) {
	cmd := exec.Command("git", "rev-parse", "--show-toplevel")
	cmd.Dir = dir
	cmd.Env = minimalEnv()
	out, err := cmd.Output()
	if err != nil {
		return "", erruser.New("This directory is not inside a Git repository.", err)
	}
	root := strings.TrimSpace(string(out))
	return filepath.Abs(root)
}

// IsRepo reports whether dir is inside a git repository.
func IsRepo(dir string) bool {
	_, err := RepoRoot(dir)
	return err == nil
}

// HasStagedChanges reports whether the index at repoRoot differs from HEAD.
// Runs "git diff --cached --quiet"; exit code 1 means staged changes exist.
func HasStagedChanges(repoRoot string) (bool, error) {
	cmd := exec.Command("git", "diff", "--cached", "--quiet")
	cmd.Dir = repoRoot
	cmd.Env = minimalEnv()
	err := cmd.Run()
	if err == nil {
		return false, nil
	}
	if exitErr, ok := err.(*exec.ExitError); ok && exitErr.ExitCode() == 1 {
		return true, nil
	}
	return false, erruser.New("Could not check staged changes.", err)
}

// Commit records the staged changes with the given message. When signOff is
// true the commit carries a Signed-off-by trailer. The message is passed via
// -m so multi-paragraph messages survive intact. Runs with the full caller
// environment so user git config (author identity, hooks, GPG) applies.
func Commit(repoRoot, message string, signOff bool) error {
	args := []string{"commit", "-m", message}
	if signOff {
		args = append(args, "--signoff")
	}
	cmd := exec.Command("git", args...)
	cmd.Dir = repoRoot
	out, err := cmd.CombinedOutput()
	if err != nil {
		return erruser.New("git commit failed: "+strings.TrimSpace(string(out)), err)
	}
	return nil
}

// LastCommitMessage returns the full message of the commit at HEAD, trimmed.
func LastCommitMessage(repoRoot string) (string, error) {
	cmd := exec.Command("git", "log", "-1", "--format=%B", "HEAD")
	cmd.Dir = repoRoot
	cmd.Env = minimalEnv()
	out, err := cmd.Output()
	if err != nil {
		return "", erruser.New("Could not read the last commit message.", err)
	}
	return strings.TrimSpace(string(out)), nil
}

func minimalEnv() []string {
	env := []string{
		"PATH=" + os.Getenv("PATH"),
		"GIT_TERMINAL_PROMPT=0",
		"GIT_PAGER=cat", // prevent pager; subprocess output is captured
	}
	if home := os.Getenv("HOME"); home != "" {
		env = append(env, "HOME="+home)
	} else if runtime.GOOS == "windows" {
		if profile := os.Getenv("USERPROFILE"); profile != "" {
			env = append(env, "HOME="+profile)
		}
	}
	return env
}
