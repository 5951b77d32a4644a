// Package llm provides clients for the language-model backends the SQL
// generator calls: any OpenAI-compatible endpoint and Anthropic.
package llm

import (
	"context"
)

// Client defines the single operation the engine needs from a language
// model. Use this interface for dependency injection to enable mocking in
// tests.
type Client interface {
	// GenerateResponse generates a chat completion response.
	GenerateResponse(ctx context.Context, prompt string, systemMessage string, temperature float64) (string, error)

	// GetModel returns the configured model name.
	GetModel() string

	// GetEndpoint returns the configured endpoint.
	GetEndpoint() string
}

// Ensure implementations satisfy Client at compile time.
var (
	_ Client = (*OpenAIClient)(nil)
	_ Client = (*AnthropicClient)(nil)
	_ Client = (*MockClient)(nil)
)
