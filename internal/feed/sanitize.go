package feed

import (
	"regexp"
	"strings"
)

// MaxDescriptionLen bounds sanitized descriptions produced by adapters that
// scrape markup.
const MaxDescriptionLen = 500

var (
	tagPattern        = regexp.MustCompile(`<[^>]*>`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// htmlEntities covers the entities that show up in job-board markup often
// enough to matter. Anything rarer survives as-is.
var htmlEntities = strings.NewReplacer(
	"&amp;", "&",
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&#39;", "'",
	"&nbsp;", " ",
)

// SanitizeDescription strips HTML tags, decodes common entities, collapses
// whitespace, and truncates to MaxDescriptionLen.
func SanitizeDescription(raw string) string {
	text := tagPattern.ReplaceAllString(raw, " ")
	text = htmlEntities.Replace(text)
	text = whitespacePattern.ReplaceAllString(text, " ")
	text = strings.TrimSpace(text)
	return Clip(text, MaxDescriptionLen)
}

// Clip truncates s to at most max runes, backing up to the previous word
// boundary when one is close, and appends an ellipsis marker.
func Clip(s string, max int) string {
	if max <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	cut := string(runes[:max])
	if idx := strings.LastIndexByte(cut, ' '); idx > max*3/4 {
		cut = cut[:idx]
	}
	return strings.TrimSpace(cut) + "..."
}
