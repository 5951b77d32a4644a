package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/askdb-io/askdb-engine/pkg/adapters/datasource"
	"github.com/askdb-io/askdb-engine/pkg/logging"
	sqlutil "github.com/askdb-io/askdb-engine/pkg/sql"
)

// QueryToolDeps contains dependencies for the query_database tool.
type QueryToolDeps struct {
	Executor datasource.QueryExecutor
	RowLimit int
	Logger   *zap.Logger
}

type queryResponse struct {
	Columns  []string `json:"columns"`
	Rows     [][]any  `json:"rows"`
	RowCount int      `json:"row_count"`
}

// RegisterQueryTool registers query_database, the raw SQL escape hatch.
// Statements are bounded by the executor's row limit and parameter values
// are screened for injection patterns before they reach the database.
func RegisterQueryTool(s *server.MCPServer, deps *QueryToolDeps) {
	tool := mcp.NewTool(
		"query_database",
		mcp.WithDescription(
			"Execute a SQL SELECT statement against the database and return results. "+
				"Use $1, $2, ... placeholders with the params array for values that come from user input.",
		),
		mcp.WithString(
			"query",
			mcp.Required(),
			mcp.Description("The SQL query to execute"),
		),
		mcp.WithArray(
			"params",
			mcp.Description("Optional positional parameter values for $1, $2, ... placeholders"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, newQueryHandler(deps))
}

func newQueryHandler(deps *QueryToolDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, err := req.RequireString("query")
		if err != nil {
			return nil, err
		}

		validation := sqlutil.ValidateAndNormalize(query)
		if validation.Error != nil {
			return NewErrorResult("invalid_query", validation.Error.Error()), nil
		}
		if validation.NormalizedSQL == "" {
			return NewErrorResult("invalid_parameters", "parameter 'query' cannot be empty"), nil
		}

		params := getOptionalArray(req, "params")
		if hits := sqlutil.CheckAllParameters(params); len(hits) > 0 {
			first := hits[0]
			deps.Logger.Warn("rejected query parameter",
				zap.Int("index", first.Index),
				zap.String("fingerprint", first.Fingerprint))
			return NewErrorResultWithDetails(
				"injection_detected",
				fmt.Sprintf("parameter %d looks like a SQL injection attempt", first.Index+1),
				map[string]any{"fingerprint": first.Fingerprint},
			), nil
		}

		result, err := deps.Executor.QueryWithParams(ctx, validation.NormalizedSQL, params, deps.RowLimit)
		if err != nil {
			return NewErrorResult("query_failed", logging.SanitizeError(err)), nil
		}

		deps.Logger.Debug("query executed",
			zap.String("sql", logging.SanitizeQuery(validation.NormalizedSQL)),
			zap.Int("rows", result.RowCount))

		return jsonResult(queryResponse{
			Columns:  result.Columns,
			Rows:     result.Rows,
			RowCount: result.RowCount,
		}), nil
	}
}
