// internal/analysis/extract.go
package analysis

import (
	"errors"
	"strings"
)

// ErrNoJSON means the model text has no {...} span at all.
var ErrNoJSON = errors.New("response did not contain JSON")

// quoteChars are stripped from both ends of a model answer before looking for JSON.
const quoteChars = "`'\""

// ExtractJSON pulls the JSON object out of a free-form model answer. The answer
// is trimmed, quote-like characters are stripped from both ends, and the span
// from the first '{' to the last '}' is returned. When the model emits several
// objects the span covers all of them and will not parse.
func ExtractJSON(text string) (string, error) {
	cleaned := strings.Trim(strings.TrimSpace(text), quoteChars)

	start := strings.Index(cleaned, "{")
	if start == -1 {
		return "", ErrNoJSON
	}
	end := strings.LastIndex(cleaned, "}")
	if end == -1 || end < start {
		return "", ErrNoJSON
	}
	return cleaned[start : end+1], nil
}

// topLevelObjects counts the balanced top-level {...} groups in span, ignoring
// braces inside JSON strings.
func topLevelObjects(span string) int {
	count, depth := 0, 0
	inString, escaped := false, false
	for _, r := range span {
		switch {
		case escaped:
			escaped = false
		case inString && r == '\\':
			escaped = true
		case r == '"':
			inString = !inString
		case inString:
		case r == '{':
			if depth == 0 {
				count++
			}
			depth++
		case r == '}':
			if depth > 0 {
				depth--
			}
		}
	}
	return count
}
