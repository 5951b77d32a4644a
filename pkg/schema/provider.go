// Package schema turns raw datasource metadata into the schema description
// the pipeline and prompts consume.
package schema

import (
	"context"
	"fmt"
	"strings"

	"github.com/jinzhu/inflection"
	"go.uber.org/zap"

	"github.com/askdb-io/askdb-engine/pkg/adapters/datasource"
	"github.com/askdb-io/askdb-engine/pkg/apperrors"
	"github.com/askdb-io/askdb-engine/pkg/models"
)

// Provider reads the live schema through a datasource extractor.
type Provider struct {
	extractor datasource.SchemaExtractor
	logger    *zap.Logger
}

// NewProvider creates a schema provider.
func NewProvider(extractor datasource.SchemaExtractor, logger *zap.Logger) *Provider {
	return &Provider{
		extractor: extractor,
		logger:    logger.Named("schema"),
	}
}

// Describe reads tables and columns from the datasource. A database with
// no user tables is an error: nothing can be asked of it.
func (p *Provider) Describe(ctx context.Context) (*models.SchemaDescription, error) {
	tables, err := p.extractor.GetTables(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	if len(tables) == 0 {
		return nil, apperrors.ErrEmptySchema
	}

	desc := &models.SchemaDescription{
		Tables: make([]models.TableInfo, 0, len(tables)),
	}
	for _, table := range tables {
		columns, err := p.extractor.GetColumns(ctx, table.Name)
		if err != nil {
			return nil, fmt.Errorf("columns for %s: %w", table.Name, err)
		}

		info := models.TableInfo{
			Name:    table.Name,
			Entity:  inflection.Singular(table.Name),
			Columns: make([]models.ColumnInfo, 0, len(columns)),
		}
		for _, col := range columns {
			info.Columns = append(info.Columns, models.ColumnInfo{
				Name:         col.Name,
				DataType:     col.DataType,
				IsNullable:   col.IsNullable,
				IsPrimaryKey: col.IsPrimary,
			})
		}
		desc.Tables = append(desc.Tables, info)
	}

	p.logger.Debug("schema described", zap.Int("tables", len(desc.Tables)))
	return desc, nil
}

// Render formats a schema description as prompt context, one block per
// table:
//
//	Table: products
//	  - product_id (INTEGER) NOT NULL PRIMARY KEY
//	  - name (TEXT) NOT NULL
func Render(schema *models.SchemaDescription) string {
	var b strings.Builder
	for i, table := range schema.Tables {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "Table: %s\n", table.Name)
		for _, col := range table.Columns {
			fmt.Fprintf(&b, "  - %s (%s)", col.Name, col.DataType)
			if !col.IsNullable {
				b.WriteString(" NOT NULL")
			}
			if col.IsPrimaryKey {
				b.WriteString(" PRIMARY KEY")
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}
