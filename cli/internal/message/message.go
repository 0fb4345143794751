// Package message assembles conventional commit messages from typed fields
// and applies optional per-type emoji decoration.
package message

import "strings"

// typeEmojis maps commit types to a display symbol. Built once at package
// init and never mutated; a lookup miss means "no decoration", not an error.
var typeEmojis = map[string]string{
	"feat":     "✨",
	"fix":      "🐛",
	"docs":     "📚",
	"style":    "💎",
	"refactor": "♻️",
	"perf":     "🚀",
	"test":     "🧪",
	"build":    "🏗️",
	"ci":       "👷",
	"chore":    "🧹",
	"revert":   "⏪",
}

// EmojiFor returns the emoji mapped for a commit type and whether one exists.
func EmojiFor(typ string) (string, bool) {
	e, ok := typeEmojis[typ]
	return e, ok
}

// Build assembles a commit message from its components:
//
//	type(scope): subject
//
//	body
//
//	footer
//
// Scope is omitted (with its parentheses) when empty. Body is appended
// verbatim after a blank line. Footer is separated from the body by a blank
// line unless the body already ends with a newline, in which case a single
// newline suffices. Build does not validate; an empty subject yields a
// header ending in ": " and is rejected only by the validate package.
func Build(typ, scope, subject, body, footer string) string {
	var b strings.Builder
	b.WriteString(typ)
	if scope != "" {
		b.WriteString("(")
		b.WriteString(scope)
		b.WriteString(")")
	}
	b.WriteString(": ")
	b.WriteString(subject)
	if body != "" {
		b.WriteString("\n\n")
		b.WriteString(body)
	}
	if footer != "" {
		if body != "" && strings.HasSuffix(body, "\n") {
			b.WriteString("\n")
		} else {
			b.WriteString("\n\n")
		}
		b.WriteString(footer)
	}
	return b.String()
}

// BuildWithEmoji assembles the message and, when useEmoji is true, decorates
// it with the emoji mapped for typ.
func BuildWithEmoji(typ, scope, subject, body, footer string, useEmoji bool) string {
	return ApplyEmoji(typ, Build(typ, scope, subject, body, footer), useEmoji)
}

// ApplyEmoji inserts the emoji mapped for typ immediately after the first
// ":" in message, with a single space on each side. The operation is purely
// syntactic: only the first colon counts, so colons later in the subject or
// body are untouched. Returns message unchanged when decoration is disabled,
// typ has no mapped emoji, or message contains no colon.
func ApplyEmoji(typ, message string, useEmoji bool) string {
	if !useEmoji {
		return message
	}
	emoji, ok := typeEmojis[typ]
	if !ok {
		return message
	}
	idx := strings.Index(message, ":")
	if idx < 0 {
		return message
	}
	head := message[:idx+1]
	tail := strings.TrimPrefix(message[idx+1:], " ")
	return head + " " + emoji + " " + tail
}
