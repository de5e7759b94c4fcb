package engine

import (
	"strings"

	"golang.org/x/text/language"
)

// DefaultLanguagePriority orders broad global languages by general YouTube usage.
var DefaultLanguagePriority = []string{
	"en", "es", "pt", "hi", "ar", "fr", "ru", "id", "de",
	"ja", "ko", "tr", "it", "zh", "vi", "pl", "nl",
}

// NormalizeLanguage cleans a caller language hint into BCP 47 shape
// ("EN" -> "en", "pt_br" -> "pt-BR", "zh-hans" -> "zh-Hans"). The caller's own subtags are
// kept: legacy codes such as "iw" are how YouTube labels tracks and must not become "he".
// Hints that do not parse are lowercased and passed through; empty stays empty.
func NormalizeLanguage(hint string) string {
	hint = strings.ToLower(strings.ReplaceAll(strings.TrimSpace(hint), "_", "-"))
	if hint == "" {
		return ""
	}
	if _, err := language.Parse(hint); err != nil {
		return hint
	}
	parts := strings.Split(hint, "-")
	for i := 1; i < len(parts); i++ {
		switch p := parts[i]; {
		case len(p) == 4 && isAlpha(p):
			parts[i] = strings.ToUpper(p[:1]) + p[1:]
		case len(p) == 2 && isAlpha(p):
			parts[i] = strings.ToUpper(p)
		}
	}
	return strings.Join(parts, "-")
}

func isAlpha(s string) bool {
	for _, r := range s {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return true
}

// LanguageMatches reports whether a track language code falls under want,
// by case-insensitive prefix: "en" matches "en", "en-US" and "en-GB".
func LanguageMatches(code, want string) bool {
	if want == "" {
		return false
	}
	return strings.HasPrefix(strings.ToLower(code), strings.ToLower(want))
}
