// Package validate parses commit messages against the conventional-commit
// grammar and checks them against configured constraints.
//
// Grammar (first line only): type[(scope)]: subject, where type is one or
// more word characters and scope is one or more word characters or hyphens.
package validate

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
)

// headerRegexp is the conventional-commit first-line grammar.
var headerRegexp = regexp.MustCompile(`^(\w+)(\(([\w-]+)\))?: (.+)$`)

// Validation outcomes. Checks run in this order and the first failure wins;
// match with errors.Is so callers can give targeted guidance per kind.
var (
	ErrInvalidFormat   = errors.New("message does not match type[(scope)]: subject")
	ErrInvalidType     = errors.New("commit type is not an allowed type")
	ErrInvalidScope    = errors.New("scope is required but missing")
	ErrSubjectTooShort = errors.New("subject is too short")
	ErrSubjectTooLong  = errors.New("subject is too long")
)

// Rules holds the constraints applied after the grammar parse.
// Subject lengths are counted in bytes.
type Rules struct {
	MinSubjectLen int
	MaxSubjectLen int
	AllowedTypes  []string
	RequireScope  bool
}

// Parse applies the header grammar to a single line and returns its parts.
// scope is empty when the parenthesized group is absent. ok is false when
// the line does not match the grammar at all.
func Parse(line string) (typ, scope, subject string, ok bool) {
	m := headerRegexp.FindStringSubmatch(line)
	if m == nil {
		return "", "", "", false
	}
	return m[1], m[3], m[4], true
}

// Validate checks the first line of message against rules. Checks short-
// circuit in order: grammar, type membership, scope presence, minimum
// subject length, maximum subject length. Returns nil on success.
func Validate(message string, rules Rules) error {
	line := message
	if idx := strings.IndexByte(line, '\n'); idx >= 0 {
		line = line[:idx]
	}
	line = strings.TrimSuffix(line, "\r")
	typ, scope, subject, ok := Parse(line)
	if !ok {
		return ErrInvalidFormat
	}
	allowed := false
	for _, t := range rules.AllowedTypes {
		if t == typ {
			allowed = true
			break
		}
	}
	if !allowed {
		return fmt.Errorf("type %q: %w", typ, ErrInvalidType)
	}
	if rules.RequireScope && scope == "" {
		return ErrInvalidScope
	}
	if len(subject) < rules.MinSubjectLen {
		return fmt.Errorf("subject is %d bytes, minimum %d: %w", len(subject), rules.MinSubjectLen, ErrSubjectTooShort)
	}
	if len(subject) > rules.MaxSubjectLen {
		return fmt.Errorf("subject is %d bytes, maximum %d: %w", len(subject), rules.MaxSubjectLen, ErrSubjectTooLong)
	}
	return nil
}

// ValidateFile reads the commit message at path and validates it. A file
// that cannot be read is reported as ErrInvalidFormat (the message cannot be
// parsed), with the read error preserved as the cause for Details.
func ValidateFile(path string, rules Rules) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: read %s: %w", ErrInvalidFormat, path, err)
	}
	return Validate(string(data), rules)
}
