package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/askdb-io/askdb-engine/pkg/adapters/datasource"
	"github.com/askdb-io/askdb-engine/pkg/logging"
	"github.com/askdb-io/askdb-engine/pkg/models"
)

// ExecutionGateway runs optimized statements against a datasource with a
// per-call timeout and row bound.
type ExecutionGateway struct {
	executor datasource.QueryExecutor
	rowLimit int
	timeout  time.Duration
	logger   *zap.Logger
}

// NewExecutionGateway creates a gateway. rowLimit follows the
// datasource.QueryExecutor clamping contract.
func NewExecutionGateway(executor datasource.QueryExecutor, rowLimit int, timeout time.Duration, logger *zap.Logger) *ExecutionGateway {
	return &ExecutionGateway{
		executor: executor,
		rowLimit: rowLimit,
		timeout:  timeout,
		logger:   logger.Named("gateway"),
	}
}

// Execute runs one SELECT statement and returns its rows.
func (g *ExecutionGateway) Execute(ctx context.Context, sqlQuery string) (*models.ResultSet, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	start := time.Now()
	result, err := g.executor.Query(ctx, sqlQuery, g.rowLimit)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}

	g.logger.Debug("query executed",
		zap.String("sql", logging.SanitizeQuery(sqlQuery)),
		zap.Int("rows", result.RowCount),
		zap.Duration("duration", time.Since(start)))

	return &models.ResultSet{
		Columns: result.Columns,
		Rows:    result.Rows,
	}, nil
}

var _ Executor = (*ExecutionGateway)(nil)
