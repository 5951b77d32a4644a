package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/askdb-io/askdb-engine/pkg/models"
)

// QuestionRunner runs the full question-to-result pipeline.
type QuestionRunner interface {
	Run(ctx context.Context, question string) *models.RunContext
}

// AskToolDeps contains dependencies for the ask_question tool.
type AskToolDeps struct {
	Runner QuestionRunner
	Logger *zap.Logger
}

// askResponse is the successful tool payload: the full run record.
type askResponse struct {
	RunID        string                 `json:"run_id"`
	Question     string                 `json:"question"`
	RawSQL       string                 `json:"raw_sql"`
	OptimizedSQL string                 `json:"optimized_sql"`
	Analysis     *models.AnalysisReport `json:"analysis"`
	Result       *models.ResultSet      `json:"result"`
}

// RegisterAskTool registers ask_question, the natural-language entry point.
func RegisterAskTool(s *server.MCPServer, deps *AskToolDeps) {
	tool := mcp.NewTool(
		"ask_question",
		mcp.WithDescription(
			"Answer a natural-language question about the connected database. "+
				"Generates SQL from the live schema, rewrites it for safety and cost, executes it, "+
				"and returns both the rows and the SQL that produced them.",
		),
		mcp.WithString(
			"question",
			mcp.Required(),
			mcp.Description("The question to answer (e.g., 'What are the total sales by region?')"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(false),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, newAskHandler(deps))
}

func newAskHandler(deps *AskToolDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		question, err := req.RequireString("question")
		if err != nil {
			return nil, err
		}
		question = trimString(question)
		if question == "" {
			return NewErrorResult("invalid_parameters", "parameter 'question' cannot be empty"), nil
		}

		rc := deps.Runner.Run(ctx, question)
		if rc.Failed() {
			deps.Logger.Debug("question run failed",
				zap.String("run_id", rc.RunID.String()),
				zap.String("stage", string(rc.StageError.Kind)))
			details := map[string]any{
				"run_id":        rc.RunID.String(),
				"raw_sql":       rc.RawSQL,
				"optimized_sql": rc.OptimizedSQL,
			}
			if rc.Analysis != nil {
				details["applied_rules"] = rc.Analysis.AppliedRules
				details["warnings"] = rc.Analysis.Warnings
			}
			return NewErrorResultWithDetails(
				string(rc.StageError.Kind),
				rc.StageError.Detail,
				details,
			), nil
		}

		return jsonResult(askResponse{
			RunID:        rc.RunID.String(),
			Question:     rc.Question,
			RawSQL:       rc.RawSQL,
			OptimizedSQL: rc.OptimizedSQL,
			Analysis:     rc.Analysis,
			Result:       rc.Result,
		}), nil
	}
}
