package security

import (
	"html"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

// MaxSkillLength bounds a skill label in runes.
const MaxSkillLength = 100

var htmlPolicy = bluemonday.StrictPolicy()

// SanitizeString trims whitespace, drops null bytes and caps the input at
// 1000 bytes without splitting a rune.
func SanitizeString(input string) string {
	input = strings.TrimSpace(input)
	input = strings.ReplaceAll(input, "\x00", "")

	if len(input) > 1000 {
		input = input[:1000]
		for !utf8.ValidString(input) {
			input = input[:len(input)-1]
		}
	}

	return input
}

// SanitizeHTML removes all HTML tags
func SanitizeHTML(input string) string {
	return htmlPolicy.Sanitize(input)
}

// SanitizeSkill normalises a free-text skill label. Markup is stripped
// (entities are unescaped again), control characters are dropped and inner
// whitespace is collapsed. The result may
// be empty, which callers treat as invalid.
func SanitizeSkill(input string) string {
	cleaned := html.UnescapeString(SanitizeHTML(SanitizeString(input)))
	cleaned = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, cleaned)
	return strings.Join(strings.Fields(cleaned), " ")
}

// ValidateSkill reports whether a sanitised label is usable.
func ValidateSkill(skill string) bool {
	n := utf8.RuneCountInString(skill)
	return n > 0 && n <= MaxSkillLength
}
