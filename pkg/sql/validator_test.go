package sql

import (
	"testing"

	"github.com/askdb-io/askdb-engine/pkg/apperrors"
)

func TestValidateAndNormalize_ValidQueries(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "simple select without semicolon",
			input:    "SELECT 1",
			expected: "SELECT 1",
		},
		{
			name:     "trailing semicolon stripped",
			input:    "SELECT * FROM products;",
			expected: "SELECT * FROM products",
		},
		{
			name:     "trailing semicolon with whitespace",
			input:    "SELECT * FROM products ;  ",
			expected: "SELECT * FROM products",
		},
		{
			name:     "semicolon inside single quoted string",
			input:    "SELECT * FROM products WHERE name = 'a;b'",
			expected: "SELECT * FROM products WHERE name = 'a;b'",
		},
		{
			name:     "semicolon inside double quoted identifier",
			input:    `SELECT * FROM "weird;table"`,
			expected: `SELECT * FROM "weird;table"`,
		},
		{
			name:     "SQL standard escaped quote",
			input:    "SELECT * FROM products WHERE name = 'O''Brien';",
			expected: "SELECT * FROM products WHERE name = 'O''Brien'",
		},
		{
			name:     "multi-line query",
			input:    "SELECT name\nFROM products\nWHERE price > 10;",
			expected: "SELECT name\nFROM products\nWHERE price > 10",
		},
		{
			name:     "empty string",
			input:    "",
			expected: "",
		},
		{
			name:     "whitespace only",
			input:    "   ",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ValidateAndNormalize(tt.input)
			if result.Error != nil {
				t.Fatalf("unexpected error: %v", result.Error)
			}
			if result.NormalizedSQL != tt.expected {
				t.Errorf("got %q, want %q", result.NormalizedSQL, tt.expected)
			}
		})
	}
}

func TestValidateAndNormalize_MultipleStatements(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{
			name:  "two selects",
			input: "SELECT 1; SELECT 2",
		},
		{
			name:  "select then drop",
			input: "SELECT * FROM products; DROP TABLE products",
		},
		{
			name:  "trailing statement after semicolon and terminator",
			input: "SELECT 1; DELETE FROM sales;",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ValidateAndNormalize(tt.input)
			if result.Error != apperrors.ErrMultipleStatements {
				t.Errorf("got error %v, want ErrMultipleStatements", result.Error)
			}
		})
	}
}
