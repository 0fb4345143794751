package git

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

func initRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	run(t, dir, "git", "init")
	run(t, dir, "git", "config", "user.email", "test@commitkit.local")
	run(t, dir, "git", "config", "user.name", "Test")
	writeFile(t, dir, "f1.txt", "a\n")
	run(t, dir, "git", "add", "f1.txt")
	run(t, dir, "git", "commit", "-m", "chore: initial commit")
	return dir
}

func run(t *testing.T, dir, name string, args ...string) {
	t.Helper()
	cmd := exec.Command(name, args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("%s %v: %v\n%s", name, args, err, out)
	}
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestRepoRoot_fromSubdir(t *testing.T) {
	t.Parallel()
	repo := initRepo(t)
	subdir := filepath.Join(repo, "sub", "dir")
	if err := os.MkdirAll(subdir, 0755); err != nil {
		t.Fatal(err)
	}
	got, err := RepoRoot(subdir)
	if err != nil {
		t.Fatalf("RepoRoot: %v", err)
	}
	absRepo, err := filepath.Abs(repo)
	if err != nil {
		t.Fatal(err)
	}
	if got != absRepo {
		t.Errorf("RepoRoot(subdir) = %q, want %q", got, absRepo)
	}
}

func TestRepoRoot_notARepo(t *testing.T) {
	t.Parallel()
	if _, err := RepoRoot(t.TempDir()); err == nil {
		t.Fatal("RepoRoot(non-repo): expected error")
	}
}

func TestIsRepo(t *testing.T) {
	t.Parallel()
	if !IsRepo(initRepo(t)) {
		t.Error("IsRepo(repo) = false")
	}
	if IsRepo(t.TempDir()) {
		t.Error("IsRepo(non-repo) = true")
	}
}

func TestHasStagedChanges(t *testing.T) {
	t.Parallel()
	repo := initRepo(t)
	ok, err := HasStagedChanges(repo)
	if err != nil {
		t.Fatalf("HasStagedChanges: %v", err)
	}
	if ok {
		t.Error("clean repo reports staged changes")
	}
	// Unstaged file does not count.
	writeFile(t, repo, "f2.txt", "b\n")
	ok, err = HasStagedChanges(repo)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("unstaged file should not count as staged")
	}
	run(t, repo, "git", "add", "f2.txt")
	ok, err = HasStagedChanges(repo)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Error("staged file not detected")
	}
}

func TestCommit_andLastCommitMessage(t *testing.T) {
	t.Parallel()
	repo := initRepo(t)
	writeFile(t, repo, "feature.txt", "x\n")
	run(t, repo, "git", "add", "feature.txt")
	msg := "feat(core): add retry support\n\nRetries transient failures up to three times."
	if err := Commit(repo, msg, false); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	got, err := LastCommitMessage(repo)
	if err != nil {
		t.Fatalf("LastCommitMessage: %v", err)
	}
	if got != msg {
		t.Errorf("LastCommitMessage = %q, want %q", got, msg)
	}
}

func TestCommit_signOff(t *testing.T) {
	t.Parallel()
	repo := initRepo(t)
	writeFile(t, repo, "fix.txt", "y\n")
	run(t, repo, "git", "add", "fix.txt")
	if err := Commit(repo, "fix: resolve crash on startup", true); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	got, err := LastCommitMessage(repo)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(got, "Signed-off-by: Test <test@commitkit.local>") {
		t.Errorf("missing sign-off trailer:\n%s", got)
	}
}

func TestCommit_nothingStagedFails(t *testing.T) {
	t.Parallel()
	repo := initRepo(t)
	if err := Commit(repo, "chore: nothing to commit", false); err == nil {
		t.Error("Commit with empty index should fail")
	}
}
