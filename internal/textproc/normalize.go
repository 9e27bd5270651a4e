// Package textproc normalizes raw tweet text before vectorization. The same
// normalization runs at training and at serving time, so the two must never
// diverge.
package textproc

import (
	"regexp"
	"strings"
)

var (
	urlPattern     = regexp.MustCompile(`(?i)\b(?:https?://|www\.)\S+`)
	mentionPattern = regexp.MustCompile(`[@#]\w+`)
)

// Normalize lowercases text, strips URLs, @mentions and #hashtags, and
// collapses runs of whitespace into single spaces.
func Normalize(text string) string {
	text = strings.ToLower(text)
	text = urlPattern.ReplaceAllString(text, "")
	text = mentionPattern.ReplaceAllString(text, "")
	return strings.Join(strings.Fields(text), " ")
}

// Tokenize splits normalized text into lowercase word tokens. Punctuation is
// treated as a separator, single characters are kept (emoticon remnants carry
// signal in tweets).
func Tokenize(text string) []string {
	normalized := Normalize(text)
	if normalized == "" {
		return nil
	}
	return strings.FieldsFunc(normalized, func(r rune) bool {
		return !isWordRune(r)
	})
}

func isWordRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z':
		return true
	case r >= '0' && r <= '9':
		return true
	case r == '\'':
		// keep contractions together: don't, can't
		return true
	default:
		return false
	}
}
