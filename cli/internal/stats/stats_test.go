package stats

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// seedRepo creates a repository and commits each message in order, all
// authored by the given name at the given time.
func seedRepo(t *testing.T, commits []seedCommit) string {
	t.Helper()
	dir := t.TempDir()
	repo, err := gogit.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("PlainInit: %v", err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		t.Fatal(err)
	}
	for i, c := range commits {
		name := fmt.Sprintf("file%d.txt", i)
		if err := os.WriteFile(filepath.Join(dir, name), []byte(c.message), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := wt.Add(name); err != nil {
			t.Fatalf("Add: %v", err)
		}
		sig := &object.Signature{Name: c.author, Email: c.author + "@test.local", When: c.when}
		if _, err := wt.Commit(c.message, &gogit.CommitOptions{Author: sig, Committer: sig}); err != nil {
			t.Fatalf("Commit: %v", err)
		}
	}
	return dir
}

type seedCommit struct {
	message string
	author  string
	when    time.Time
}

func TestAnalyze_counts(t *testing.T) {
	t.Parallel()
	now := time.Now()
	dir := seedRepo(t, []seedCommit{
		{"feat(core): add retry support", "Alice", now.Add(-3 * time.Hour)},
		{"fix(core): resolve crash on startup\n\nlong body here", "Alice", now.Add(-2 * time.Hour)},
		{"feat(ui): add dark mode", "Bob", now.Add(-1 * time.Hour)},
		{"merge branch main into develop", "Bob", now},
	})
	st, err := NewAnalyzer(dir).Analyze(0)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if st.TotalCommits != 4 {
		t.Errorf("TotalCommits = %d, want 4", st.TotalCommits)
	}
	if st.Conventional != 3 {
		t.Errorf("Conventional = %d, want 3", st.Conventional)
	}
	if st.TypeCounts["feat"] != 2 || st.TypeCounts["fix"] != 1 {
		t.Errorf("TypeCounts = %v", st.TypeCounts)
	}
	if st.ScopeCounts["core"] != 2 || st.ScopeCounts["ui"] != 1 {
		t.Errorf("ScopeCounts = %v", st.ScopeCounts)
	}
	if st.Contributors["Alice"] != 2 || st.Contributors["Bob"] != 2 {
		t.Errorf("Contributors = %v", st.Contributors)
	}
	if st.CommitsByDate[now.Format("2006-01-02")] == 0 {
		t.Errorf("CommitsByDate = %v, expected entries for today", st.CommitsByDate)
	}
}

func TestAnalyze_windowFiltersOldCommits(t *testing.T) {
	t.Parallel()
	now := time.Now()
	dir := seedRepo(t, []seedCommit{
		{"feat: old work", "Alice", now.AddDate(0, 0, -30)},
		{"fix: recent work", "Alice", now.Add(-time.Hour)},
	})
	st, err := NewAnalyzer(dir).Analyze(7)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if st.TotalCommits != 1 {
		t.Errorf("TotalCommits = %d, want 1", st.TotalCommits)
	}
	if st.TypeCounts["feat"] != 0 || st.TypeCounts["fix"] != 1 {
		t.Errorf("TypeCounts = %v", st.TypeCounts)
	}
}

func TestAnalyze_notARepo(t *testing.T) {
	t.Parallel()
	if _, err := NewAnalyzer(t.TempDir()).Analyze(0); err == nil {
		t.Error("Analyze outside a repository should fail")
	}
}

func TestAnalyze_emptyRepo(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	if _, err := gogit.PlainInit(dir, false); err != nil {
		t.Fatal(err)
	}
	if _, err := NewAnalyzer(dir).Analyze(0); err == nil {
		t.Error("Analyze on a repository with no commits should fail")
	}
}

func TestSummary(t *testing.T) {
	t.Parallel()
	now := time.Now()
	dir := seedRepo(t, []seedCommit{
		{"feat(core): add retry support", "Alice", now.Add(-2 * time.Hour)},
		{"feat(ui): add dark mode", "Alice", now.Add(-1 * time.Hour)},
		{"fix: resolve crash on startup", "Bob", now},
	})
	out, err := NewAnalyzer(dir).Summary(0)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	for _, want := range []string{
		"Total commits:        3",
		"Conventional commits: 3 (100%)",
		"By type:",
		"feat", "fix",
		"Top scopes:",
		"Top contributors:",
		"Alice", "Bob",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Summary missing %q:\n%s", want, out)
		}
	}
	// feat (2) sorts above fix (1).
	if strings.Index(out, "feat") > strings.Index(out, "fix") {
		t.Errorf("type ordering wrong:\n%s", out)
	}
}

func TestSortCounts_deterministicTieBreak(t *testing.T) {
	t.Parallel()
	got := sortCounts(map[string]int{"b": 2, "a": 2, "c": 5}, 0)
	want := []countEntry{{"c", 5}, {"a", 2}, {"b", 2}}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sortCounts[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
	if top := sortCounts(map[string]int{"a": 1, "b": 2, "c": 3}, 2); len(top) != 2 {
		t.Errorf("top truncation failed: %v", top)
	}
}
