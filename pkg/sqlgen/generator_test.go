package sqlgen

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/askdb-io/askdb-engine/pkg/llm"
)

func TestExtractStatement(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     string
		wantKind ErrorKind
	}{
		{
			name:     "bare statement",
			response: "SELECT * FROM customers;",
			want:     "SELECT * FROM customers;",
		},
		{
			name:     "no trailing semicolon",
			response: "SELECT name FROM products",
			want:     "SELECT name FROM products",
		},
		{
			name:     "sql code fence",
			response: "```sql\nSELECT id FROM sales;\n```",
			want:     "SELECT id FROM sales;",
		},
		{
			name:     "anonymous code fence",
			response: "```\nSELECT id FROM sales\n```",
			want:     "SELECT id FROM sales",
		},
		{
			name:     "lead-in prose",
			response: "Here is the query you asked for:\n\nSELECT region FROM sales;",
			want:     "SELECT region FROM sales;",
		},
		{
			name:     "trailing prose discarded",
			response: "SELECT region FROM sales; This groups rows by region.",
			want:     "SELECT region FROM sales;",
		},
		{
			name:     "cte statement",
			response: "WITH t AS (SELECT 1) SELECT * FROM t;",
			want:     "WITH t AS (SELECT 1) SELECT * FROM t;",
		},
		{
			name:     "semicolon inside string literal",
			response: "SELECT * FROM products WHERE name = 'a;b';",
			want:     "SELECT * FROM products WHERE name = 'a;b';",
		},
		{
			name:     "empty output",
			response: "   ",
			wantKind: ErrEmptyResponse,
		},
		{
			name:     "prose only",
			response: "I cannot answer that question.",
			wantKind: ErrEmptyResponse,
		},
		{
			name:     "second statement rejected",
			response: "SELECT 1; DROP TABLE products;",
			wantKind: ErrEmptyResponse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, genErr := ExtractStatement(tt.response)
			if tt.wantKind != "" {
				require.NotNil(t, genErr)
				assert.Equal(t, tt.wantKind, genErr.Kind)
				return
			}
			require.Nil(t, genErr)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGeneratorGenerate(t *testing.T) {
	mock := llm.NewMockClient()
	mock.GenerateResponseFunc = func(_ context.Context, _, _ string, temperature float64) (string, error) {
		assert.Zero(t, temperature)
		return "```sql\nSELECT * FROM customers;\n```", nil
	}

	g := New(mock, "SQLite", zap.NewNop())
	got, err := g.Generate(context.Background(), "show all customers", "Table: customers")
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM customers;", got)
	assert.Equal(t, 1, mock.GenerateResponseCalls)
	assert.Contains(t, mock.LastPrompt, "show all customers")
	assert.Contains(t, mock.LastPrompt, "Table: customers")
	assert.Contains(t, mock.LastSystemMessage, "SQLite")
}

func TestGeneratorClassifiesClientErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantKind ErrorKind
	}{
		{
			name:     "timeout",
			err:      &llm.Error{Type: llm.ErrorTypeTimeout, Message: "deadline exceeded"},
			wantKind: ErrTimeout,
		},
		{
			name:     "empty choices",
			err:      &llm.Error{Type: llm.ErrorTypeEmpty, Message: "no choices"},
			wantKind: ErrEmptyResponse,
		},
		{
			name:     "auth failure",
			err:      &llm.Error{Type: llm.ErrorTypeAuth, Message: "bad key"},
			wantKind: ErrModelUnavailable,
		},
		{
			name:     "plain error",
			err:      errors.New("connection refused"),
			wantKind: ErrModelUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := llm.NewMockClient()
			mock.GenerateResponseFunc = func(context.Context, string, string, float64) (string, error) {
				return "", tt.err
			}

			g := New(mock, "SQLite", zap.NewNop())
			_, err := g.Generate(context.Background(), "q", "schema")
			var genErr *GenerationError
			require.ErrorAs(t, err, &genErr)
			assert.Equal(t, tt.wantKind, genErr.Kind)
		})
	}
}

func TestGeneratorRejectsEmptyModelOutput(t *testing.T) {
	mock := llm.NewMockClient()

	g := New(mock, "PostgreSQL", zap.NewNop())
	_, err := g.Generate(context.Background(), "q", "schema")
	var genErr *GenerationError
	require.ErrorAs(t, err, &genErr)
	assert.Equal(t, ErrEmptyResponse, genErr.Kind)
}
