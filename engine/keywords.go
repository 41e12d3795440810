package engine

import "strings"

// maxKeywordTokens bounds how many leading query tokens feed the keyword fallback.
const maxKeywordTokens = 3

// keywordTokens returns the first lowercase whitespace tokens of text with
// surrounding punctuation trimmed. A word that is only punctuation still counts
// toward the limit but yields no token.
func keywordTokens(text string) []string {
	words := strings.Fields(strings.ToLower(text))
	if len(words) > maxKeywordTokens {
		words = words[:maxKeywordTokens]
	}

	tokens := make([]string, 0, len(words))
	for _, word := range words {
		if cleaned := strings.Trim(word, ".,!?;:'\"-()[]{}"); cleaned != "" {
			tokens = append(tokens, cleaned)
		}
	}
	return tokens
}

// matchesAnyToken reports whether keywords contains any token as a substring.
func matchesAnyToken(keywords string, tokens []string) bool {
	keywords = strings.ToLower(keywords)
	for _, token := range tokens {
		if strings.Contains(keywords, token) {
			return true
		}
	}
	return false
}
