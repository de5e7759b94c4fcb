package engine

import (
	"regexp"
	"strings"

	"github.com/anatolykoptev/go-kit/strutil"
)

var (
	htmlTagRe    = regexp.MustCompile(`<[^>]*>`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// captionEntities is the fixed entity set caption payloads use.
var captionEntities = strings.NewReplacer(
	"&amp;", "&",
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&#34;", `"`,
	"&#39;", "'",
	"&apos;", "'",
	"&nbsp;", " ",
	"&#160;", " ",
	"\u00a0", " ",
)

// NormalizeText decodes caption entities, strips tags, collapses whitespace and trims.
// Entities are decoded until none remain (upstream double-escapes some tracks), which keeps
// the function idempotent. Empty input yields empty output.
func NormalizeText(s string) string {
	if s == "" {
		return ""
	}
	for {
		next := captionEntities.Replace(s)
		if next == s {
			break
		}
		s = next
	}
	s = htmlTagRe.ReplaceAllString(s, " ")
	s = whitespaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// TruncateRunes caps s at limit runes, appending suffix if truncated.
// Pass suffix="" for no suffix. Safe for UTF-8 (Cyrillic, CJK, emoji).
func TruncateRunes(s string, limit int, suffix string) string {
	return strutil.TruncateWith(s, limit, suffix)
}
