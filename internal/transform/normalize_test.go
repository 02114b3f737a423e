package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "empty string",
			input:    "",
			expected: "",
		},
		{
			name:     "lowercases plain text",
			input:    "Hello World",
			expected: "hello world",
		},
		{
			name:     "strips http urls",
			input:    "check https://example.com/page now",
			expected: "check now",
		},
		{
			name:     "strips www urls",
			input:    "visit www.example.com today",
			expected: "visit today",
		},
		{
			name:     "strips markdown links",
			input:    "see [docs](page.html) here",
			expected: "see here",
		},
		{
			name:     "strips special characters but keeps punctuation",
			input:    "Great product 🎉 5/5 stars!!",
			expected: "great product 55 stars!!",
		},
		{
			name:     "collapses whitespace runs",
			input:    "a \n\t  b",
			expected: "a b",
		},
		{
			name:     "keeps unicode word characters",
			input:    "Größe   matters",
			expected: "größe matters",
		},
		{
			name:     "trims leading and trailing space",
			input:    "  padded  ",
			expected: "padded",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CleanText(tt.input)
			assert.Equal(t, tt.expected, got)

			// Cleaning is idempotent
			assert.Equal(t, got, CleanText(got))
		})
	}
}
