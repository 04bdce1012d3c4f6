// Package sanitize normalises user supplied strings before they are stored.
//
// Three levels exist and callers must pick the one matching the field:
// PlainText for identifiers and short labels, RichText for user authored
// prose, and CodeLiteral for source code that is displayed verbatim.
package sanitize

import (
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	richPolicy   = newRichTextPolicy()
	strictPolicy = bluemonday.StrictPolicy()

	codeClass = regexp.MustCompile(`^language-[A-Za-z0-9+#_-]{1,32}$`)
)

func newRichTextPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements(
		"p", "br", "strong", "em", "u",
		"h1", "h2", "h3", "h4", "h5", "h6",
		"ul", "ol", "li",
		"code", "pre", "blockquote",
	)
	p.AllowAttrs("href", "title").OnElements("a")
	p.AllowURLSchemes("http", "https", "mailto")
	p.RequireParseableURLs(true)
	p.RequireNoFollowOnLinks(true)
	p.AllowAttrs("class").Matching(codeClass).OnElements("code", "pre")
	return p
}

// PlainText strips every tag, escapes what remains and collapses whitespace runs.
func PlainText(s string) string {
	if s == "" {
		return ""
	}
	return strings.Join(strings.Fields(strictPolicy.Sanitize(s)), " ")
}

// RichText keeps the allow-listed formatting subset and drops everything else,
// including event handler attributes and non http/https/mailto links.
func RichText(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(richPolicy.Sanitize(s))
}

// CodeLiteral entity-escapes the whole string. Every other byte, including
// newlines and tabs, is preserved so html.UnescapeString restores the input.
func CodeLiteral(s string) string {
	return html.EscapeString(s)
}

// Tags trims and plain-text sanitizes each tag, drops empties and duplicates
// (first occurrence wins), truncates to maxLen runes and keeps at most maxTags.
func Tags(tags []string, maxTags, maxLen int) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, raw := range tags {
		tag := PlainText(raw)
		if maxLen > 0 {
			tag = truncate(tag, maxLen)
		}
		if tag == "" {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
		if maxTags > 0 && len(out) == maxTags {
			break
		}
	}
	return out
}

// truncate cuts s to maxLen runes without splitting a character reference.
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	cut := string(runes[:maxLen])
	if amp := strings.LastIndexByte(cut, '&'); amp >= 0 && !strings.Contains(cut[amp:], ";") {
		cut = cut[:amp]
	}
	return strings.TrimSpace(cut)
}
