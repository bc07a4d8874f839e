package corpus

import (
	"strings"
	"unicode"
)

// tokenDelimiters defines characters that separate tokens in URLs, headers,
// and response bodies. Dynamic values (session ids, tokens) are almost always
// bounded by these.
const tokenDelimiters = "/?&=.,;:\"'<>(){}[]|\\ \t\r\n"

// Tokenize splits a string into searchable tokens: lowercased, split on
// delimiters, tokens shorter than minLen dropped.
func Tokenize(s string, minLen int) []string {
	if minLen < 1 {
		minLen = 1
	}
	s = strings.ToLower(s)

	tokens := strings.FieldsFunc(s, func(r rune) bool {
		return strings.ContainsRune(tokenDelimiters, r) || unicode.IsSpace(r)
	})

	result := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if len(t) >= minLen {
			result = append(result, t)
		}
	}
	return result
}
