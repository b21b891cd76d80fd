package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanJSONBlock(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"json code block", "```json\n{\"key\": \"value\"}\n```", `{"key": "value"}`},
		{"generic code block", "```\n{\"key\": \"value\"}\n```", `{"key": "value"}`},
		{"code block with language", "```javascript\n{\"key\": \"value\"}\n```", `{"key": "value"}`},
		{"plain JSON", `{"key": "value"}`, `{"key": "value"}`},
		{"preamble before object", "As requested, here is the JSON:\n{\"title\": \"Cover letter\"}", `{"title": "Cover letter"}`},
		{"preamble before array", "Here are the items:\n[\"item1\", \"item2\"]", `["item1", "item2"]`},
		{"trailing chatter", "{\"key\": \"value\"}\n\nLet me know if you need anything else!", `{"key": "value"}`},
		{"escaped quotes", "Result: {\"message\": \"He said \\\"hello\\\"\"}", `{"message": "He said \"hello\""}`},
		{"braces inside strings", `Output: {"body": "Dear {team}, thanks"}`, `{"body": "Dear {team}, thanks"}`},
		{"deeply nested", "Here: {\"a\": {\"b\": {\"c\": {\"d\": \"deep\"}}}}", `{"a": {"b": {"c": {"d": "deep"}}}}`},
		{"unbalanced falls back to text", `{"key": "value"`, `{"key": "value"`},
		{"no json at all", "I cannot help with that.", "I cannot help with that."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CleanJSONBlock(tt.input))
		})
	}
}

func TestExtractBalanced(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		object string
		array  string
	}{
		{"object", `{"items": [1, 2]} tail`, `{"items": [1, 2]}`, ""},
		{"array", `[{"id": 1}, {"id": 2}] tail`, "", `[{"id": 1}, {"id": 2}]`},
		{"empty", "", "", ""},
		{"not json", "text", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.object, extractJSONObject(tt.input))
			assert.Equal(t, tt.array, extractJSONArray(tt.input))
		})
	}
}
