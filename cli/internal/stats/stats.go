// Package stats analyzes commit history and reports how well it follows
// conventional commit form: counts by type, by scope, by contributor, and
// by day. History is read in-process with go-git, so no git binary is
// needed.
package stats

import (
	"fmt"
	"sort"
	"strings"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"

	"commitkit/cli/internal/erruser"
	"commitkit/cli/internal/validate"
)

// Stats aggregates commit history counts. Commits whose first line is not a
// conventional commit header count toward TotalCommits and Contributors but
// not TypeCounts or ScopeCounts; Conventional tracks how many parsed.
type Stats struct {
	TotalCommits int
	Conventional int
	TypeCounts   map[string]int
	ScopeCounts  map[string]int
	Contributors map[string]int
	// CommitsByDate counts commits per calendar day, keyed "2006-01-02".
	CommitsByDate map[string]int
}

// Analyzer reads history from the repository at RepoPath.
type Analyzer struct {
	RepoPath string
}

// NewAnalyzer returns an Analyzer for the repository at repoPath.
func NewAnalyzer(repoPath string) *Analyzer {
	return &Analyzer{RepoPath: repoPath}
}

// Analyze walks the log from HEAD and aggregates counts. When days > 0 only
// commits authored within the last `days` days are included.
func (a *Analyzer) Analyze(days int) (*Stats, error) {
	repo, err := gogit.PlainOpen(a.RepoPath)
	if err != nil {
		return nil, erruser.New("Could not open the Git repository.", err)
	}
	head, err := repo.Head()
	if err != nil {
		return nil, erruser.New("Could not resolve HEAD; does the repository have any commits?", err)
	}
	opts := &gogit.LogOptions{From: head.Hash()}
	if days > 0 {
		since := time.Now().AddDate(0, 0, -days)
		opts.Since = &since
	}
	iter, err := repo.Log(opts)
	if err != nil {
		return nil, erruser.New("Could not read the commit log.", err)
	}
	defer iter.Close()

	st := &Stats{
		TypeCounts:    make(map[string]int),
		ScopeCounts:   make(map[string]int),
		Contributors:  make(map[string]int),
		CommitsByDate: make(map[string]int),
	}
	err = iter.ForEach(func(c *object.Commit) error {
		st.TotalCommits++
		st.Contributors[c.Author.Name]++
		st.CommitsByDate[c.Author.When.Format("2006-01-02")]++

		firstLine, _, _ := strings.Cut(c.Message, "\n")
		firstLine = strings.TrimSuffix(firstLine, "\r")
		if typ, scope, _, ok := validate.Parse(firstLine); ok {
			st.Conventional++
			st.TypeCounts[typ]++
			if scope != "" {
				st.ScopeCounts[scope]++
			}
		}
		return nil
	})
	if err != nil {
		return nil, erruser.New("Could not iterate the commit log.", err)
	}
	return st, nil
}

// Summary renders a readable report of the stats for the given window.
func (a *Analyzer) Summary(days int) (string, error) {
	st, err := a.Analyze(days)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	if days > 0 {
		fmt.Fprintf(&b, "Commit statistics (last %d days)\n\n", days)
	} else {
		b.WriteString("Commit statistics (all history)\n\n")
	}
	fmt.Fprintf(&b, "Total commits:        %d\n", st.TotalCommits)
	if st.TotalCommits > 0 {
		pct := float64(st.Conventional) / float64(st.TotalCommits) * 100
		fmt.Fprintf(&b, "Conventional commits: %d (%.0f%%)\n", st.Conventional, pct)
	}

	if len(st.TypeCounts) > 0 {
		b.WriteString("\nBy type:\n")
		for _, kv := range sortCounts(st.TypeCounts, 0) {
			pct := float64(kv.n) / float64(st.TotalCommits) * 100
			fmt.Fprintf(&b, "  %-10s %4d  (%.0f%%)\n", kv.key, kv.n, pct)
		}
	}
	if len(st.ScopeCounts) > 0 {
		b.WriteString("\nTop scopes:\n")
		for _, kv := range sortCounts(st.ScopeCounts, 5) {
			fmt.Fprintf(&b, "  %-10s %4d\n", kv.key, kv.n)
		}
	}
	if len(st.Contributors) > 0 {
		b.WriteString("\nTop contributors:\n")
		for _, kv := range sortCounts(st.Contributors, 5) {
			fmt.Fprintf(&b, "  %-20s %4d\n", kv.key, kv.n)
		}
	}
	return b.String(), nil
}

type countEntry struct {
	key string
	n   int
}

// sortCounts orders entries by count descending, then key ascending so
// output is deterministic; top > 0 truncates the list.
func sortCounts(m map[string]int, top int) []countEntry {
	out := make([]countEntry, 0, len(m))
	for k, n := range m {
		out = append(out, countEntry{k, n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].n != out[j].n {
			return out[i].n > out[j].n
		}
		return out[i].key < out[j].key
	})
	if top > 0 && len(out) > top {
		out = out[:top]
	}
	return out
}
