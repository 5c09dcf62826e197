package formatting

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrParseFailed is returned when content cannot be parsed as JSON directly,
// from a markdown code fence, or from a JSON value embedded in prose.
var ErrParseFailed = errors.New("failed to parse response")

var jsonBlockRegex = regexp.MustCompile(`(?s)` + "```" + `(?:json)?\s*\n?(.*?)\n?` + "```")

// Parse attempts to unmarshal content as JSON into T.
// If direct parsing fails, it extracts JSON from a markdown code fence and
// retries; failing that, it scans for the first balanced JSON object or array
// embedded in surrounding prose (models sometimes wrap JSON in explanation
// despite instructions). Returns ErrParseFailed when every attempt fails.
func Parse[T any](content string) (T, error) {
	var result T
	content = strings.TrimSpace(content)

	if err := json.Unmarshal([]byte(content), &result); err == nil {
		return result, nil
	}

	matches := jsonBlockRegex.FindStringSubmatch(content)
	if len(matches) >= 2 {
		cleaned := strings.TrimSpace(matches[1])
		if err := json.Unmarshal([]byte(cleaned), &result); err == nil {
			return result, nil
		}
	}

	for _, candidate := range embeddedValues(content) {
		if err := json.Unmarshal([]byte(candidate), &result); err == nil {
			return result, nil
		}
	}

	return result, fmt.Errorf("%w: %s", ErrParseFailed, content)
}

// embeddedValues returns balanced {...} or [...] substrings of content in
// order of appearance. Brace depth is tracked outside string literals so
// punctuation inside quoted values does not terminate a candidate early.
func embeddedValues(content string) []string {
	var candidates []string

	for start := 0; start < len(content); start++ {
		open := content[start]
		if open != '{' && open != '[' {
			continue
		}

		if end, ok := balancedEnd(content, start); ok {
			candidates = append(candidates, content[start:end+1])
			start = end
		}
	}

	return candidates
}

func balancedEnd(content string, start int) (int, bool) {
	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(content); i++ {
		c := content[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{', '[':
			depth++
		case '}', ']':
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}

	return 0, false
}
