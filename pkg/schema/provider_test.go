package schema

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/askdb-io/askdb-engine/pkg/adapters/datasource"
	"github.com/askdb-io/askdb-engine/pkg/apperrors"
	"github.com/askdb-io/askdb-engine/pkg/models"
)

type fakeExtractor struct {
	tables    []datasource.Table
	columns   map[string][]datasource.Column
	tablesErr error
}

func (f *fakeExtractor) GetTables(context.Context) ([]datasource.Table, error) {
	return f.tables, f.tablesErr
}

func (f *fakeExtractor) GetColumns(_ context.Context, table string) ([]datasource.Column, error) {
	cols, ok := f.columns[table]
	if !ok {
		return nil, errors.New("no such table")
	}
	return cols, nil
}

func TestDescribe(t *testing.T) {
	extractor := &fakeExtractor{
		tables: []datasource.Table{{Name: "products"}, {Name: "sales"}},
		columns: map[string][]datasource.Column{
			"products": {
				{Name: "product_id", DataType: "INTEGER", IsPrimary: true},
				{Name: "name", DataType: "TEXT"},
			},
			"sales": {
				{Name: "sale_id", DataType: "INTEGER", IsPrimary: true},
				{Name: "quantity", DataType: "INTEGER", IsNullable: true},
			},
		},
	}

	p := NewProvider(extractor, zap.NewNop())
	desc, err := p.Describe(context.Background())
	require.NoError(t, err)

	require.Len(t, desc.Tables, 2)
	assert.Equal(t, "products", desc.Tables[0].Name)
	assert.Equal(t, "product", desc.Tables[0].Entity)
	assert.Equal(t, "sale", desc.Tables[1].Entity)
	require.Len(t, desc.Tables[0].Columns, 2)
	assert.True(t, desc.Tables[0].Columns[0].IsPrimaryKey)
	assert.True(t, desc.Tables[1].Columns[1].IsNullable)
}

func TestDescribeEmptySchema(t *testing.T) {
	p := NewProvider(&fakeExtractor{}, zap.NewNop())
	_, err := p.Describe(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrEmptySchema)
}

func TestDescribeExtractorFailure(t *testing.T) {
	p := NewProvider(&fakeExtractor{tablesErr: errors.New("connection reset")}, zap.NewNop())
	_, err := p.Describe(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, apperrors.ErrEmptySchema)
}

func TestRender(t *testing.T) {
	schema := &models.SchemaDescription{
		Tables: []models.TableInfo{
			{
				Name: "products",
				Columns: []models.ColumnInfo{
					{Name: "product_id", DataType: "INTEGER", IsPrimaryKey: true},
					{Name: "name", DataType: "TEXT"},
					{Name: "category", DataType: "TEXT", IsNullable: true},
				},
			},
			{
				Name: "sales",
				Columns: []models.ColumnInfo{
					{Name: "sale_id", DataType: "INTEGER", IsPrimaryKey: true},
				},
			},
		},
	}

	want := `Table: products
  - product_id (INTEGER) NOT NULL PRIMARY KEY
  - name (TEXT) NOT NULL
  - category (TEXT)

Table: sales
  - sale_id (INTEGER) NOT NULL PRIMARY KEY
`
	assert.Equal(t, want, Render(schema))
}
