package redact

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const placeholder = "[REDACTED]"

// DefaultLimit caps error bodies kept by Body.
const DefaultLimit = 512

var secretPatterns = []*regexp.Regexp{
	// key = value style assignments, JSON or form encoded
	regexp.MustCompile(`(?i)(api[_-]?key|apikey|api[_-]?secret|access[_-]?token)("?\s*[:=]\s*"?)([A-Za-z0-9/+=_.-]{16,})`),
	regexp.MustCompile(`(?i)Bearer\s+[A-Za-z0-9._~+/=-]{16,}`),
	// JWTs
	regexp.MustCompile(`eyJ[A-Za-z0-9_-]{10,}\.eyJ[A-Za-z0-9_-]{10,}\.[A-Za-z0-9_-]{10,}`),
	// OpenAI style keys, including project keys
	regexp.MustCompile(`sk-(proj-)?[A-Za-z0-9_-]{20,}`),
}

// Secrets replaces credential-shaped substrings of text with [REDACTED].
// For assignments only the value is replaced so the key name stays readable.
func Secrets(text string) string {
	for i, pat := range secretPatterns {
		if i == 0 {
			text = pat.ReplaceAllString(text, "${1}${2}"+placeholder)
			continue
		}
		text = pat.ReplaceAllString(text, placeholder)
	}
	return text
}

// Known replaces every occurrence of the given literal secrets. Secrets
// shorter than eight bytes are ignored.
func Known(text string, secrets ...string) string {
	for _, s := range secrets {
		if len(s) < 8 {
			continue
		}
		text = strings.ReplaceAll(text, s, placeholder)
	}
	return text
}

// Body prepares a response body for inclusion in an error: known secrets
// and credential patterns are scrubbed, whitespace is collapsed and the
// result is cut to limit bytes on a rune boundary.
func Body(body []byte, limit int, known ...string) string {
	text := Known(string(body), known...)
	text = Secrets(text)
	text = strings.Join(strings.Fields(text), " ")
	if limit <= 0 || len(text) <= limit {
		return text
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut] + "..."
}
