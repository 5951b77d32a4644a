// Package postgres provides the PostgreSQL datasource adapter.
package postgres

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/askdb-io/askdb-engine/pkg/adapters/datasource"
	"github.com/askdb-io/askdb-engine/pkg/config"
)

// Adapter provides PostgreSQL connectivity over a pgx pool.
type Adapter struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// buildConnectionString builds a PostgreSQL URL with proper escaping.
// User-provided fields must be URL-escaped to handle special characters in
// passwords (e.g. @, /, #, ?) that would otherwise break URL parsing.
func buildConnectionString(cfg *config.DatasourceConfig) string {
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "require"
	}
	return fmt.Sprintf(
		"postgresql://%s:%s@%s:%d/%s?sslmode=%s",
		url.QueryEscape(cfg.User),
		url.QueryEscape(cfg.Password),
		cfg.Host,
		cfg.Port,
		url.QueryEscape(cfg.Database),
		sslMode,
	)
}

// NewAdapter creates a PostgreSQL adapter with its own connection pool.
func NewAdapter(ctx context.Context, cfg *config.DatasourceConfig, logger *zap.Logger) (*Adapter, error) {
	pool, err := pgxpool.New(ctx, buildConnectionString(cfg))
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	return &Adapter{
		pool:   pool,
		logger: logger.Named("postgres"),
	}, nil
}

func (a *Adapter) Ping(ctx context.Context) error {
	return a.pool.Ping(ctx)
}

func (a *Adapter) Dialect() string {
	return "PostgreSQL"
}

func (a *Adapter) Close() error {
	a.pool.Close()
	return nil
}

// GetTables lists base tables in the public schema.
func (a *Adapter) GetTables(ctx context.Context) ([]datasource.Table, error) {
	rows, err := a.pool.Query(ctx, `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = 'public'
		  AND table_type = 'BASE TABLE'
		  AND table_name != 'schema_migrations'
		ORDER BY table_name`)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()

	var tables []datasource.Table
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan table name: %w", err)
		}
		tables = append(tables, datasource.Table{Name: name})
	}
	return tables, rows.Err()
}

// GetColumns reads column metadata from information_schema, joining the
// key-usage view to mark primary key columns.
func (a *Adapter) GetColumns(ctx context.Context, table string) ([]datasource.Column, error) {
	rows, err := a.pool.Query(ctx, `
		SELECT
			c.column_name,
			c.data_type,
			c.is_nullable = 'YES',
			EXISTS (
				SELECT 1
				FROM information_schema.table_constraints tc
				JOIN information_schema.key_column_usage kcu
				  ON tc.constraint_name = kcu.constraint_name
				 AND tc.table_schema = kcu.table_schema
				WHERE tc.constraint_type = 'PRIMARY KEY'
				  AND tc.table_schema = 'public'
				  AND tc.table_name = c.table_name
				  AND kcu.column_name = c.column_name
			)
		FROM information_schema.columns c
		WHERE c.table_schema = 'public' AND c.table_name = $1
		ORDER BY c.ordinal_position`, table)
	if err != nil {
		return nil, fmt.Errorf("columns for %s: %w", table, err)
	}
	defer rows.Close()

	var columns []datasource.Column
	for rows.Next() {
		var col datasource.Column
		if err := rows.Scan(&col.Name, &col.DataType, &col.IsNullable, &col.IsPrimary); err != nil {
			return nil, fmt.Errorf("scan column info: %w", err)
		}
		columns = append(columns, col)
	}
	return columns, rows.Err()
}

// Query runs a SELECT statement wrapped with a row limit.
func (a *Adapter) Query(ctx context.Context, sqlQuery string, limit int) (*datasource.QueryExecutionResult, error) {
	return a.QueryWithParams(ctx, sqlQuery, nil, limit)
}

// QueryWithParams runs a parameterized SELECT with bounded results. pgx
// handles $1-style placeholders natively.
func (a *Adapter) QueryWithParams(ctx context.Context, sqlQuery string, params []any, limit int) (*datasource.QueryExecutionResult, error) {
	wrapped := fmt.Sprintf("SELECT * FROM (%s) AS _limited LIMIT %d",
		stripTrailingSemicolon(sqlQuery), datasource.ClampLimit(limit))

	rows, err := a.pool.Query(ctx, wrapped, params...)
	if err != nil {
		return nil, fmt.Errorf("execute query: %w", err)
	}
	defer rows.Close()

	fieldDescs := rows.FieldDescriptions()
	result := &datasource.QueryExecutionResult{
		Columns: make([]string, len(fieldDescs)),
		Rows:    [][]any{},
	}
	for i, fd := range fieldDescs {
		result.Columns[i] = string(fd.Name)
	}

	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("read row values: %w", err)
		}
		result.Rows = append(result.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	result.RowCount = len(result.Rows)
	return result, nil
}

// ValidateQuery uses EXPLAIN to validate without executing.
func (a *Adapter) ValidateQuery(ctx context.Context, sqlQuery string) error {
	_, err := a.pool.Exec(ctx, "EXPLAIN "+stripTrailingSemicolon(sqlQuery))
	if err != nil {
		return fmt.Errorf("invalid SQL: %w", err)
	}
	return nil
}

// QuoteIdentifier quotes a name using PostgreSQL's double-quote syntax.
func (a *Adapter) QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func stripTrailingSemicolon(sqlQuery string) string {
	return strings.TrimSuffix(strings.TrimSpace(sqlQuery), ";")
}

var _ datasource.Adapter = (*Adapter)(nil)
