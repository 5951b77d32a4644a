package tools

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/askdb-io/askdb-engine/pkg/models"
)

type stubDescriber struct {
	desc  *models.SchemaDescription
	err   error
	calls int
}

func (s *stubDescriber) Describe(context.Context) (*models.SchemaDescription, error) {
	s.calls++
	return s.desc, s.err
}

func storeSchema() *models.SchemaDescription {
	return &models.SchemaDescription{
		Tables: []models.TableInfo{
			{
				Name:   "products",
				Entity: "product",
				Columns: []models.ColumnInfo{
					{Name: "product_id", DataType: "INTEGER", IsPrimaryKey: true},
					{Name: "name", DataType: "TEXT", IsNullable: true},
					{Name: "price", DataType: "REAL", IsNullable: true},
				},
			},
			{
				Name:   "sales",
				Entity: "sale",
				Columns: []models.ColumnInfo{
					{Name: "sale_id", DataType: "INTEGER", IsPrimaryKey: true},
					{Name: "product_id", DataType: "INTEGER", IsNullable: true},
				},
			},
		},
	}
}

func TestGetSchemaTool(t *testing.T) {
	describer := &stubDescriber{desc: storeSchema()}
	handler := newGetSchemaHandler(&SchemaToolDeps{Provider: describer, Logger: zap.NewNop()})

	result, err := handler(context.Background(), mcp.CallToolRequest{})
	require.NoError(t, err)
	assert.False(t, result.IsError)

	var resp struct {
		Tables   []models.TableInfo `json:"tables"`
		Rendered string             `json:"rendered"`
	}
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &resp))

	require.Len(t, resp.Tables, 2)
	assert.Equal(t, "products", resp.Tables[0].Name)
	assert.Len(t, resp.Tables[0].Columns, 3)
	assert.True(t, resp.Tables[0].Columns[0].IsPrimaryKey)

	assert.Contains(t, resp.Rendered, "Table: products")
	assert.Contains(t, resp.Rendered, "product_id (INTEGER)")
	assert.Contains(t, resp.Rendered, "Table: sales")
}

func TestGetSchemaToolUnavailable(t *testing.T) {
	describer := &stubDescriber{err: errors.New("connection refused")}
	handler := newGetSchemaHandler(&SchemaToolDeps{Provider: describer, Logger: zap.NewNop()})

	result, err := handler(context.Background(), mcp.CallToolRequest{})
	require.NoError(t, err)
	assert.True(t, result.IsError)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &resp))
	assert.Equal(t, "schema_unavailable", resp.Code)
}

func TestListTablesTool(t *testing.T) {
	describer := &stubDescriber{desc: storeSchema()}
	handler := newListTablesHandler(&SchemaToolDeps{Provider: describer, Logger: zap.NewNop()})

	result, err := handler(context.Background(), mcp.CallToolRequest{})
	require.NoError(t, err)
	assert.False(t, result.IsError)

	var resp struct {
		Tables []string `json:"tables"`
	}
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &resp))
	assert.Equal(t, []string{"products", "sales"}, resp.Tables)
}

func TestListTablesToolUnavailable(t *testing.T) {
	describer := &stubDescriber{err: errors.New("connection refused")}
	handler := newListTablesHandler(&SchemaToolDeps{Provider: describer, Logger: zap.NewNop()})

	result, err := handler(context.Background(), mcp.CallToolRequest{})
	require.NoError(t, err)
	assert.True(t, result.IsError)
}
