package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/askdb-io/askdb-engine/pkg/models"
	"github.com/askdb-io/askdb-engine/pkg/schema"
)

// SchemaDescriber supplies the live schema snapshot.
type SchemaDescriber interface {
	Describe(ctx context.Context) (*models.SchemaDescription, error)
}

// SchemaToolDeps contains dependencies for the schema tools.
type SchemaToolDeps struct {
	Provider SchemaDescriber
	Logger   *zap.Logger
}

// RegisterSchemaTools registers get_schema and list_tables.
func RegisterSchemaTools(s *server.MCPServer, deps *SchemaToolDeps) {
	registerGetSchemaTool(s, deps)
	registerListTablesTool(s, deps)
}

func registerGetSchemaTool(s *server.MCPServer, deps *SchemaToolDeps) {
	tool := mcp.NewTool(
		"get_schema",
		mcp.WithDescription(
			"Get the database schema: all tables with their columns, types, "+
				"nullability and primary keys, plus a rendered text form suitable as prompt context.",
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, newGetSchemaHandler(deps))
}

func newGetSchemaHandler(deps *SchemaToolDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		desc, err := deps.Provider.Describe(ctx)
		if err != nil {
			return NewErrorResult("schema_unavailable", err.Error()), nil
		}

		return jsonResult(struct {
			Tables   []models.TableInfo `json:"tables"`
			Rendered string             `json:"rendered"`
		}{
			Tables:   desc.Tables,
			Rendered: schema.Render(desc),
		}), nil
	}
}

func registerListTablesTool(s *server.MCPServer, deps *SchemaToolDeps) {
	tool := mcp.NewTool(
		"list_tables",
		mcp.WithDescription("List all tables in the database."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, newListTablesHandler(deps))
}

func newListTablesHandler(deps *SchemaToolDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		desc, err := deps.Provider.Describe(ctx)
		if err != nil {
			return NewErrorResult("schema_unavailable", err.Error()), nil
		}

		names := make([]string, 0, len(desc.Tables))
		for _, table := range desc.Tables {
			names = append(names, table.Name)
		}
		return jsonResult(struct {
			Tables []string `json:"tables"`
		}{Tables: names}), nil
	}
}
