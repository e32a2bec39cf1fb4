// Package htmlsanitize cleans staff-entered text before it is stored.
package htmlsanitize

import (
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	notesOnce   sync.Once
	notesPolicy *bluemonday.Policy
	strict      = bluemonday.StrictPolicy()
)

// policy allows the small set of formatting tags used in candidate notes.
func policy() *bluemonday.Policy {
	notesOnce.Do(func() {
		p := bluemonday.NewPolicy()
		p.AllowElements("p", "br", "strong", "em", "u", "ul", "ol", "li", "blockquote")
		p.AllowStandardURLs()
		p.AllowAttrs("href").OnElements("a")
		p.RequireNoFollowOnLinks(true)
		notesPolicy = p
	})
	return notesPolicy
}

// Sanitize keeps basic formatting and drops everything else
// (scripts, iframes, event handlers, javascript: links).
func Sanitize(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(policy().Sanitize(s))
}

// PlainText strips every tag.
func PlainText(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(strict.Sanitize(s))
}

// IsPlainText reports whether s has no tag-like content.
func IsPlainText(s string) bool {
	return !strings.ContainsAny(s, "<>")
}
