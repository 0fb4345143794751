package hooks

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// fakeRepo creates a directory with an empty .git subdirectory. The hooks
// package never runs git, so a real repository is not needed.
func fakeRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, ".git"), 0o755); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestInstall_writesExecutableHooks(t *testing.T) {
	t.Parallel()
	repo := fakeRepo(t)
	m := NewManager(repo)
	if err := m.InstallPrepareCommitMsg(); err != nil {
		t.Fatalf("InstallPrepareCommitMsg: %v", err)
	}
	if err := m.InstallCommitMsg(); err != nil {
		t.Fatalf("InstallCommitMsg: %v", err)
	}
	for name, want := range map[string]string{
		PrepareCommitMsg: "commitkit prepare-msg",
		CommitMsg:        "commitkit validate",
	} {
		path := filepath.Join(m.HooksDir(), name)
		info, err := os.Stat(path)
		if err != nil {
			t.Fatalf("hook %s not written: %v", name, err)
		}
		if info.Mode().Perm()&0o111 == 0 {
			t.Errorf("hook %s is not executable: %v", name, info.Mode())
		}
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		script := string(data)
		if !strings.HasPrefix(script, "#!/bin/sh\n") {
			t.Errorf("hook %s missing shebang:\n%s", name, script)
		}
		if !strings.Contains(script, want) {
			t.Errorf("hook %s missing %q:\n%s", name, want, script)
		}
		if !m.IsInstalled(name) {
			t.Errorf("IsInstalled(%s) = false after install", name)
		}
	}
}

func TestInstall_overwritesForeignHook(t *testing.T) {
	t.Parallel()
	repo := fakeRepo(t)
	m := NewManager(repo)
	if err := os.MkdirAll(m.HooksDir(), 0o755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(m.HooksDir(), CommitMsg)
	if err := os.WriteFile(path, []byte("#!/bin/sh\nexit 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := m.InstallCommitMsg(); err != nil {
		t.Fatalf("InstallCommitMsg: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm()&0o111 == 0 {
		t.Error("overwritten hook should be executable")
	}
	if !m.IsInstalled(CommitMsg) {
		t.Error("hook not replaced")
	}
}

func TestRemove(t *testing.T) {
	t.Parallel()
	repo := fakeRepo(t)
	m := NewManager(repo)
	if err := m.InstallCommitMsg(); err != nil {
		t.Fatal(err)
	}
	if err := m.Remove(CommitMsg); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if m.IsInstalled(CommitMsg) {
		t.Error("hook still installed after Remove")
	}
	// Removing again is a no-op.
	if err := m.Remove(CommitMsg); err != nil {
		t.Errorf("Remove of missing hook: %v", err)
	}
}

func TestRemove_refusesForeignHook(t *testing.T) {
	t.Parallel()
	repo := fakeRepo(t)
	m := NewManager(repo)
	if err := os.MkdirAll(m.HooksDir(), 0o755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(m.HooksDir(), PrepareCommitMsg)
	if err := os.WriteFile(path, []byte("#!/bin/sh\necho mine\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := m.Remove(PrepareCommitMsg); err == nil {
		t.Error("Remove should refuse a hook it did not install")
	}
	if _, err := os.Stat(path); err != nil {
		t.Error("foreign hook should be left in place")
	}
}

func TestFindRepoRoot(t *testing.T) {
	t.Parallel()
	repo := fakeRepo(t)
	nested := filepath.Join(repo, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	got, err := FindRepoRoot(nested)
	if err != nil {
		t.Fatalf("FindRepoRoot: %v", err)
	}
	if got != repo {
		t.Errorf("FindRepoRoot = %q, want %q", got, repo)
	}
	if _, err := FindRepoRoot(t.TempDir()); !errors.Is(err, ErrNotARepo) {
		t.Errorf("FindRepoRoot outside a repo = %v, want ErrNotARepo", err)
	}
}
