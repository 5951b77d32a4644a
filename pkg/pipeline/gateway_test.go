package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/askdb-io/askdb-engine/pkg/adapters/datasource"
)

type stubQueryExecutor struct {
	result *datasource.QueryExecutionResult
	err    error

	lastSQL     string
	lastLimit   int
	hadDeadline bool
}

func (s *stubQueryExecutor) Query(ctx context.Context, sqlQuery string, limit int) (*datasource.QueryExecutionResult, error) {
	s.lastSQL = sqlQuery
	s.lastLimit = limit
	_, s.hadDeadline = ctx.Deadline()
	return s.result, s.err
}

func (s *stubQueryExecutor) QueryWithParams(ctx context.Context, sqlQuery string, _ []any, limit int) (*datasource.QueryExecutionResult, error) {
	return s.Query(ctx, sqlQuery, limit)
}

func (s *stubQueryExecutor) ValidateQuery(context.Context, string) error {
	return nil
}

func (s *stubQueryExecutor) QuoteIdentifier(name string) string {
	return name
}

func TestGatewayExecute(t *testing.T) {
	stub := &stubQueryExecutor{
		result: &datasource.QueryExecutionResult{
			Columns:  []string{"name"},
			Rows:     [][]any{{"Laptop"}},
			RowCount: 1,
		},
	}
	g := NewExecutionGateway(stub, 500, 5*time.Second, zap.NewNop())

	result, err := g.Execute(context.Background(), "SELECT name FROM products")
	require.NoError(t, err)
	assert.Equal(t, []string{"name"}, result.Columns)
	assert.Equal(t, [][]any{{"Laptop"}}, result.Rows)

	assert.Equal(t, "SELECT name FROM products", stub.lastSQL)
	assert.Equal(t, 500, stub.lastLimit)
	assert.True(t, stub.hadDeadline)
}

func TestGatewayExecuteError(t *testing.T) {
	stub := &stubQueryExecutor{err: errors.New("no such table")}
	g := NewExecutionGateway(stub, 500, 5*time.Second, zap.NewNop())

	_, err := g.Execute(context.Background(), "SELECT * FROM missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no such table")
}
