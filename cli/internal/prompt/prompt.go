// Package prompt implements the interactive questions the commit command
// asks: pick a type, pick a scope, then type the subject, body, and footer.
// All I/O goes through injected reader/writer so tests can script a session.
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"

	"commitkit/cli/internal/config"
)

// ErrAborted indicates the user ended the session (EOF on a required answer).
var ErrAborted = errors.New("prompt aborted")

// Prompter asks the questions needed to assemble a commit message.
type Prompter interface {
	// SelectPrefix presents the commit types and returns the chosen one.
	SelectPrefix(prefixes []config.Prefix) (config.Prefix, error)
	// SelectScope presents the configured scopes plus "none" and "other";
	// it returns "" for none and the typed value for other.
	SelectScope(scopes []string) (string, error)
	// Subject reads a non-empty subject line of at most max bytes, re-asking
	// until the input qualifies.
	Subject(max int) (string, error)
	// Body reads body lines until a blank line or EOF.
	Body() (string, error)
	// Footer reads an optional single footer line.
	Footer() (string, error)
	// Custom reads one free-form answer for the given label (used for
	// template placeholders).
	Custom(label string) (string, error)
}

// Terminal is a Prompter over a reader/writer pair, normally stdin/stdout.
type Terminal struct {
	in  *bufio.Scanner
	out io.Writer

	menu   *color.Color
	ask    *color.Color
	faint  *color.Color
	errfmt *color.Color
}

// NewTerminal returns a Terminal reading answers from in and writing
// questions to out.
func NewTerminal(in io.Reader, out io.Writer) *Terminal {
	return &Terminal{
		in:     bufio.NewScanner(in),
		out:    out,
		menu:   color.New(color.FgCyan),
		ask:    color.New(color.Bold),
		faint:  color.New(color.Faint),
		errfmt: color.New(color.FgRed),
	}
}

// SelectPrefix prints a numbered menu of commit types and reads a choice.
func (t *Terminal) SelectPrefix(prefixes []config.Prefix) (config.Prefix, error) {
	if len(prefixes) == 0 {
		return config.Prefix{}, errors.New("no commit types configured")
	}
	t.ask.Fprintln(t.out, "Select the type of change:")
	for i, p := range prefixes {
		t.menu.Fprintf(t.out, "  %2d) %-8s", i+1, p.Title)
		t.faint.Fprintf(t.out, " %s\n", p.Description)
	}
	idx, err := t.choose(len(prefixes))
	if err != nil {
		return config.Prefix{}, err
	}
	return prefixes[idx], nil
}

// SelectScope prints the scope menu. Entry 1 is always "none"; the last
// entry is "other" and prompts for a free-form scope.
func (t *Terminal) SelectScope(scopes []string) (string, error) {
	t.ask.Fprintln(t.out, "Select the scope of the change:")
	t.menu.Fprintf(t.out, "  %2d) %s\n", 1, "none")
	for i, s := range scopes {
		t.menu.Fprintf(t.out, "  %2d) %s\n", i+2, s)
	}
	other := len(scopes) + 2
	t.menu.Fprintf(t.out, "  %2d) %s\n", other, "other")
	idx, err := t.choose(other)
	if err != nil {
		return "", err
	}
	switch {
	case idx == 0:
		return "", nil
	case idx == other-1:
		return t.line("Scope: ")
	default:
		return scopes[idx-1], nil
	}
}

// Subject reads the subject line, re-asking while it is empty or longer
// than max bytes.
func (t *Terminal) Subject(max int) (string, error) {
	for {
		s, err := t.line("Subject (imperative, no trailing period): ")
		if err != nil {
			return "", err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			t.errfmt.Fprintln(t.out, "Subject must not be empty.")
			continue
		}
		if max > 0 && len(s) > max {
			t.errfmt.Fprintf(t.out, "Subject is %d bytes; limit is %d.\n", len(s), max)
			continue
		}
		return s, nil
	}
}

// Body reads lines until a blank line or EOF. EOF here is not an error:
// an absent body is valid.
func (t *Terminal) Body() (string, error) {
	t.ask.Fprintln(t.out, "Body (optional, end with a blank line):")
	var lines []string
	for t.in.Scan() {
		line := t.in.Text()
		if strings.TrimSpace(line) == "" {
			break
		}
		lines = append(lines, line)
	}
	if err := t.in.Err(); err != nil {
		return "", err
	}
	return strings.Join(lines, "\n"), nil
}

// Footer reads an optional footer line; EOF yields an empty footer.
func (t *Terminal) Footer() (string, error) {
	t.ask.Fprint(t.out, "Footer (optional, e.g. \"Closes #123\"): ")
	if !t.in.Scan() {
		if err := t.in.Err(); err != nil {
			return "", err
		}
		return "", nil
	}
	return strings.TrimSpace(t.in.Text()), nil
}

// Custom asks one free-form question labeled by a placeholder name.
func (t *Terminal) Custom(label string) (string, error) {
	return t.line(label + ": ")
}

// line prints a prompt and reads one line; EOF means the user quit.
func (t *Terminal) line(prompt string) (string, error) {
	t.ask.Fprint(t.out, prompt)
	if !t.in.Scan() {
		if err := t.in.Err(); err != nil {
			return "", err
		}
		return "", ErrAborted
	}
	return strings.TrimSpace(t.in.Text()), nil
}

// choose reads a 1-based menu selection, re-asking on bad input, and
// returns the 0-based index.
func (t *Terminal) choose(n int) (int, error) {
	for {
		answer, err := t.line(fmt.Sprintf("Choice [1-%d]: ", n))
		if err != nil {
			return 0, err
		}
		idx, err := strconv.Atoi(answer)
		if err != nil || idx < 1 || idx > n {
			t.errfmt.Fprintf(t.out, "Enter a number between 1 and %d.\n", n)
			continue
		}
		return idx - 1, nil
	}
}
