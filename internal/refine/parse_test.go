package refine

import (
	"errors"
	"testing"
)

func TestParseSuggestion(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"strict", `{"spacedText": "MEET ME AT NOON"}`, "MEET ME AT NOON"},
		{"snake case field", `{"spaced_text": "MEET ME"}`, "MEET ME"},
		{"text field", `{"text": "MEET ME"}`, "MEET ME"},
		{"field order", `{"text": "B", "spacedText": "A"}`, "A"},
		{"fenced", "```json\n{\"spacedText\": \"HELLO THERE\"}\n```", "HELLO THERE"},
		{"bare fence", "```\n{\"spacedText\": \"HELLO\"}\n```", "HELLO"},
		{"surrounding prose", `Sure! Here it is: {"spacedText": "WE ARE FOUND"} Hope that helps.`, "WE ARE FOUND"},
		{"single quotes", `{'spacedText': 'ATTACK AT DAWN'}`, "ATTACK AT DAWN"},
		{"unquoted key", `{spacedText: "RETREAT"}`, "RETREAT"},
		{"unquoted key and value", `{spacedText: HOLD THE LINE}`, "HOLD THE LINE"},
		{"apostrophe survives strict parse", `{"spacedText": "DON'T MOVE"}`, "DON'T MOVE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseSuggestion(tt.content)
			if err != nil {
				t.Fatalf("parseSuggestion error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseSuggestion_Malformed(t *testing.T) {
	for _, content := range []string{
		"",
		"I cannot help with that.",
		`{"other": "field"}`,
		`{"spacedText": ""}`,
		`{"spacedText": [1, 2]`,
	} {
		_, err := parseSuggestion(content)
		if !errors.Is(err, ErrMalformed) {
			t.Errorf("parseSuggestion(%q) error = %v, want ErrMalformed", content, err)
		}
	}
}

func TestRepairJSON(t *testing.T) {
	got := repairJSON(`{spacedText: HELLO WORLD, note: 'x'}`)
	want := `{"spacedText": "HELLO WORLD", "note": "x"}`
	if got != want {
		t.Errorf("repairJSON = %q, want %q", got, want)
	}
}

func TestSimilarity(t *testing.T) {
	tests := []struct {
		a, b string
		want float64
	}{
		{"HELLOWORLD", "Hello, world!", 1},
		{"ABCDEFGHIJ", "ABCDEFGHIX", 0.9},
		{"ABCDEFGHIJ", "ABCDEFGHXX", 0.8},
		{"ABCD", "ABCDEF", 4.0 / 6.0},
		{"", "", 1},
		{"A", "", 0},
		{"...", "ABC", 0},
		{"R2D2", "r2 d2", 1},
	}
	for _, tt := range tests {
		if got := Similarity(tt.a, tt.b); got != tt.want {
			t.Errorf("Similarity(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}
