package refine

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var (
	fencePattern    = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*\\n?(.*?)\\s*```$")
	fragmentPattern = regexp.MustCompile(`(?s)\{.*?\}`)
	bareKeyPattern  = regexp.MustCompile(`([{,]\s*)([a-zA-Z_][a-zA-Z0-9_]*)\s*:`)
	bareValPattern  = regexp.MustCompile(`:\s*([^",{\[\]}\s][^",}\[\]]*?)\s*([,}])`)
)

// suggestionFields are tried in order.
var suggestionFields = []string{"spacedText", "spaced_text", "text"}

// parseSuggestion extracts the suggested text from an oracle reply.
func parseSuggestion(content string) (string, error) {
	content = stripFences(strings.TrimSpace(content))

	if s, ok := suggestionFrom(content); ok {
		return s, nil
	}

	fragment := fragmentPattern.FindString(content)
	if fragment == "" {
		return "", fmt.Errorf("%w: no JSON object in reply", ErrMalformed)
	}
	if s, ok := suggestionFrom(fragment); ok {
		return s, nil
	}
	if s, ok := suggestionFrom(repairJSON(fragment)); ok {
		return s, nil
	}
	return "", fmt.Errorf("%w: unparseable reply %q", ErrMalformed, truncate(content, 80))
}

func stripFences(s string) string {
	if m := fencePattern.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1])
	}
	return s
}

// repairJSON fixes the usual near-JSON mistakes: single quotes, bare keys and
// bare string values.
func repairJSON(s string) string {
	s = strings.ReplaceAll(s, "'", `"`)
	s = bareKeyPattern.ReplaceAllString(s, `$1"$2":`)
	s = bareValPattern.ReplaceAllString(s, `: "$1"$2`)
	return s
}

func suggestionFrom(s string) (string, bool) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(s), &obj); err != nil {
		return "", false
	}
	for _, field := range suggestionFields {
		if v, ok := obj[field].(string); ok && v != "" {
			return v, true
		}
	}
	return "", false
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
