package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/askdb-io/askdb-engine/pkg/config"
)

func TestNewClient_OpenAI(t *testing.T) {
	client, err := NewClient(&config.LLMConfig{
		Provider: "openai",
		Model:    "gpt-4-turbo",
	}, zap.NewNop())
	require.NoError(t, err)

	_, ok := client.(*OpenAIClient)
	assert.True(t, ok)
	assert.Equal(t, "gpt-4-turbo", client.GetModel())
}

func TestNewClient_Anthropic(t *testing.T) {
	client, err := NewClient(&config.LLMConfig{
		Provider: "anthropic",
		Model:    "claude-sonnet-4-20250514",
		APIKey:   "sk-ant-test",
	}, zap.NewNop())
	require.NoError(t, err)

	_, ok := client.(*AnthropicClient)
	assert.True(t, ok)
}

func TestNewClient_UnknownProvider(t *testing.T) {
	_, err := NewClient(&config.LLMConfig{Provider: "palm", Model: "m"}, zap.NewNop())
	assert.Error(t, err)
}

func TestNewOpenAIClient_RequiresModel(t *testing.T) {
	_, err := NewOpenAIClient(&Config{}, zap.NewNop())
	assert.Error(t, err)
}

func TestNewAnthropicClient_RequiresKey(t *testing.T) {
	_, err := NewAnthropicClient(&Config{Model: "claude-sonnet-4-20250514"}, zap.NewNop())
	assert.Error(t, err)
}
