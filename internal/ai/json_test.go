package ai

import "testing"

func TestCleanResponse(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain json untouched", `{"a":1}`, `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"surrounding whitespace", "  \n{\"a\":1}\n  ", `{"a":1}`},
		{"array fence", "```json\n[{\"a\":1}]\n```", `[{"a":1}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanResponse(tt.input); got != tt.expected {
				t.Errorf("CleanResponse(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

// Stripping fences twice must yield the same result as stripping once.
func TestCleanResponseIdempotent(t *testing.T) {
	inputs := []string{
		"```json\n{\"title\":\"Cafe\"}\n```",
		"```\n[1,2]\n```",
		`{"title":"Cafe"}`,
	}
	for _, in := range inputs {
		once := CleanResponse(in)
		twice := CleanResponse(once)
		if once != twice {
			t.Errorf("CleanResponse not idempotent for %q: %q vs %q", in, once, twice)
		}
	}
}

func TestExtractFirstJSON(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
		ok       bool
	}{
		{"object with prose", `Here you go: {"a": {"b": 2}} hope it helps`, `{"a": {"b": 2}}`, true},
		{"array with prose", `Result: [{"a":1},{"a":2}] done`, `[{"a":1},{"a":2}]`, true},
		{"braces inside strings", `{"a": "}{"}`, `{"a": "}{"}`, true},
		{"escaped quotes", `{"a": "say \"hi\""}`, `{"a": "say \"hi\""}`, true},
		{"no json", `nothing here`, ``, false},
		{"unbalanced", `{"a": 1`, ``, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := extractFirstJSON(tt.input)
			if ok != tt.ok || got != tt.expected {
				t.Errorf("extractFirstJSON(%q) = (%q, %v), want (%q, %v)", tt.input, got, ok, tt.expected, tt.ok)
			}
		})
	}
}
