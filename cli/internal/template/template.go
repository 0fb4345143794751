// Package template provides named commit message templates with flat
// {placeholder} substitution, and a directory-backed manager that loads and
// persists them. Substitution is literal: no conditionals, no nesting, no
// recursive expansion.
package template

import (
	"regexp"
	"strings"
)

// Template is a reusable commit message skeleton. SubjectTemplate is
// required; BodyTemplate and FooterTemplate are optional (empty = absent).
// Placeholders use the form {identifier} in any of the three fields; the
// same identifier reused across fields is collected once.
type Template struct {
	Name            string `toml:"name" yaml:"name"`
	Description     string `toml:"description" yaml:"description"`
	SubjectTemplate string `toml:"subject_template" yaml:"subject_template"`
	BodyTemplate    string `toml:"body_template,omitempty" yaml:"body_template,omitempty"`
	FooterTemplate  string `toml:"footer_template,omitempty" yaml:"footer_template,omitempty"`
}

// placeholderRegexp matches one {identifier} occurrence.
var placeholderRegexp = regexp.MustCompile(`\{([^{}]+)\}`)

// headerPrefixRegexp matches a type[(scope)]: prefix on a filled subject.
var headerPrefixRegexp = regexp.MustCompile(`^(\w+)(?:\(([\w-]+)\))?:`)

// FillString replaces every {name} occurrence in s with values[name].
// Placeholders with no mapped value are left unchanged. Replacement is done
// in a single pass, so the result is independent of map iteration order and
// values containing braces are never re-expanded.
func FillString(s string, values map[string]string) string {
	return placeholderRegexp.ReplaceAllStringFunc(s, func(m string) string {
		name := m[1 : len(m)-1]
		if v, ok := values[name]; ok {
			return v
		}
		return m
	})
}

// Fill produces the filled subject, body, and footer strings for t.
func Fill(t Template, values map[string]string) (subject, body, footer string) {
	subject = FillString(t.SubjectTemplate, values)
	if t.BodyTemplate != "" {
		body = FillString(t.BodyTemplate, values)
	}
	if t.FooterTemplate != "" {
		footer = FillString(t.FooterTemplate, values)
	}
	return subject, body, footer
}

// Placeholders returns the distinct placeholder names across the subject,
// body, and footer templates, in first-seen order. The CLI prompts for each
// exactly once.
func Placeholders(t Template) []string {
	var names []string
	seen := make(map[string]struct{})
	for _, field := range []string{t.SubjectTemplate, t.BodyTemplate, t.FooterTemplate} {
		for _, m := range placeholderRegexp.FindAllStringSubmatch(field, -1) {
			name := m[1]
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			names = append(names, name)
		}
	}
	return names
}

// DeriveHeader determines the commit type and scope for a filled subject.
// If the subject starts with a type[(scope)]: prefix, that type and scope
// are extracted and stripped, leaving the clean subject text. Otherwise the
// type defaults to the first allowed type, the scope is empty, and the
// subject is returned unmodified.
func DeriveHeader(subject string, allowedTypes []string) (typ, scope, clean string) {
	if m := headerPrefixRegexp.FindStringSubmatch(subject); m != nil {
		clean = strings.TrimSpace(subject[len(m[0]):])
		return m[1], m[2], clean
	}
	if len(allowedTypes) > 0 {
		typ = allowedTypes[0]
	}
	return typ, "", subject
}
