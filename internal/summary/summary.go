package summary

import (
	"strings"
	"unicode/utf8"
)

// DefaultLimit is the summary length in runes when none is configured.
const DefaultLimit = 1000

// Summarize joins whole sentences of paragraphs, in order, while the result
// stays within limit runes. A first sentence longer than limit is cut at the
// last word boundary that fits.
func Summarize(paragraphs []string, limit int) string {
	if limit <= 0 {
		limit = DefaultLimit
	}

	var sb strings.Builder
	n := 0
	for _, p := range paragraphs {
		for _, sent := range splitSentences(collapse(p)) {
			if sent == "" {
				continue
			}
			sep := 0
			if n > 0 {
				sep = 1
			}
			l := utf8.RuneCountInString(sent)
			if n+sep+l > limit {
				if n == 0 {
					return cut(sent, limit)
				}
				return sb.String()
			}
			if sep > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(sent)
			n += sep + l
		}
	}
	return sb.String()
}

// collapse squeezes every run of whitespace into one space.
func collapse(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// splitSentences does basic sentence splitting.
func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	for i, r := range text {
		current.WriteRune(r)
		if (r == '.' || r == '!' || r == '?') && i+1 < len(text) && text[i+1] == ' ' {
			sentences = append(sentences, strings.TrimSpace(current.String()))
			current.Reset()
		}
	}
	if current.Len() > 0 {
		sentences = append(sentences, strings.TrimSpace(current.String()))
	}

	return sentences
}

// cut shortens s to at most limit runes, preferring a word boundary.
func cut(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	head := runes[:limit]
	for i := len(head) - 1; i > 0; i-- {
		if head[i] == ' ' {
			return strings.TrimSpace(string(head[:i]))
		}
	}
	return string(head)
}
