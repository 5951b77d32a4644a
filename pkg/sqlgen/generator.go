// Package sqlgen turns a natural-language question into a candidate SQL
// statement via a single constrained language-model call.
package sqlgen

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/askdb-io/askdb-engine/pkg/llm"
	"github.com/askdb-io/askdb-engine/pkg/logging"
	"github.com/askdb-io/askdb-engine/pkg/prompts"
)

// ErrorKind classifies a generation failure.
type ErrorKind string

const (
	ErrEmptyResponse    ErrorKind = "empty_response"
	ErrModelUnavailable ErrorKind = "model_unavailable"
	ErrTimeout          ErrorKind = "timeout"
)

// GenerationError is a classified failure of one generation attempt.
type GenerationError struct {
	Kind   ErrorKind
	Detail string
	Cause  error
}

func (e *GenerationError) Error() string {
	if e.Detail == "" {
		return string(e.Kind)
	}
	return string(e.Kind) + ": " + e.Detail
}

func (e *GenerationError) Unwrap() error {
	return e.Cause
}

// Generator produces SQL from questions. One outbound LLM call per
// invocation; retry policy, if any, belongs to the caller.
type Generator struct {
	client  llm.Client
	dialect string
	logger  *zap.Logger
}

// New creates a generator for the given SQL dialect (e.g. "SQLite",
// "PostgreSQL").
func New(client llm.Client, dialect string, logger *zap.Logger) *Generator {
	return &Generator{
		client:  client,
		dialect: dialect,
		logger:  logger.Named("sqlgen"),
	}
}

// Generate asks the model for exactly one SQL statement grounded in the
// schema context and post-processes the response: code fences and
// surrounding prose are stripped, the output is trimmed to the first
// statement, and empty or multi-statement output is rejected.
func (g *Generator) Generate(ctx context.Context, question, schemaContext string) (string, error) {
	prompt := prompts.BuildGenerateSQLPrompt(question, schemaContext)
	system := prompts.GenerateSQLSystemMessage(g.dialect)

	response, err := g.client.GenerateResponse(ctx, prompt, system, 0)
	if err != nil {
		return "", classifyLLMError(err)
	}

	statement, genErr := ExtractStatement(response)
	if genErr != nil {
		g.logger.Warn("rejected model output",
			zap.String("kind", string(genErr.Kind)),
			zap.String("detail", genErr.Detail))
		return "", genErr
	}

	g.logger.Info("generated SQL",
		zap.String("question", question),
		zap.String("sql", logging.SanitizeQuery(statement)))
	return statement, nil
}

func classifyLLMError(err error) *GenerationError {
	var llmErr *llm.Error
	if errors.As(err, &llmErr) {
		switch llmErr.Type {
		case llm.ErrorTypeTimeout:
			return &GenerationError{Kind: ErrTimeout, Detail: llmErr.Message, Cause: err}
		case llm.ErrorTypeEmpty:
			return &GenerationError{Kind: ErrEmptyResponse, Detail: llmErr.Message, Cause: err}
		}
	}
	return &GenerationError{Kind: ErrModelUnavailable, Detail: err.Error(), Cause: err}
}

var (
	fencedBlock  = regexp.MustCompile("(?s)```(?:sql|SQL)?\\s*\\n?(.*?)```")
	sqlStart     = regexp.MustCompile(`(?is)\b(select|with)\b`)
	statementish = regexp.MustCompile(`(?i)^\s*(select|with|insert|update|delete|create|drop|alter)\b`)
)

// ExtractStatement pulls a single SQL statement out of raw model output.
func ExtractStatement(response string) (string, *GenerationError) {
	text := strings.TrimSpace(response)
	if text == "" {
		return "", &GenerationError{Kind: ErrEmptyResponse, Detail: "model returned empty output"}
	}

	// Prefer a fenced code block when present.
	if m := fencedBlock.FindStringSubmatch(text); m != nil {
		text = strings.TrimSpace(m[1])
	}

	// Drop any lead-in prose before the statement.
	loc := sqlStart.FindStringIndex(text)
	if loc == nil {
		return "", &GenerationError{Kind: ErrEmptyResponse, Detail: "no SQL statement in output"}
	}
	text = text[loc[0]:]

	// Trim to the first ;-terminated statement; trailing prose is
	// discarded, a trailing second statement is rejected.
	head, tail := splitFirstStatement(text)
	if statementish.MatchString(tail) {
		return "", &GenerationError{Kind: ErrEmptyResponse, Detail: "model returned multiple statements"}
	}

	head = strings.TrimSpace(head)
	if head == "" || head == ";" {
		return "", &GenerationError{Kind: ErrEmptyResponse, Detail: "model returned empty output"}
	}
	return head, nil
}

// splitFirstStatement cuts at the first semicolon outside string literals,
// keeping the semicolon with the head.
func splitFirstStatement(text string) (head, tail string) {
	inSingle := false
	inDouble := false
	for i, r := range text {
		switch r {
		case '\'':
			if !inDouble {
				inSingle = !inSingle
			}
		case '"':
			if !inSingle {
				inDouble = !inDouble
			}
		case ';':
			if !inSingle && !inDouble {
				return text[:i+1], text[i+1:]
			}
		}
	}
	return text, ""
}
