// Package mssql provides the SQL Server datasource adapter.
package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	_ "github.com/microsoft/go-mssqldb"
	"go.uber.org/zap"

	"github.com/askdb-io/askdb-engine/pkg/adapters/datasource"
	"github.com/askdb-io/askdb-engine/pkg/config"
)

// Adapter provides SQL Server connectivity.
type Adapter struct {
	db     *sql.DB
	logger *zap.Logger
}

func buildConnectionString(cfg *config.DatasourceConfig) string {
	query := url.Values{}
	query.Set("database", cfg.Database)
	if cfg.SSLMode == "disable" {
		query.Set("encrypt", "disable")
	}

	u := &url.URL{
		Scheme:   "sqlserver",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		RawQuery: query.Encode(),
	}
	return u.String()
}

// NewAdapter creates a SQL Server adapter.
func NewAdapter(cfg *config.DatasourceConfig, logger *zap.Logger) (*Adapter, error) {
	db, err := sql.Open("sqlserver", buildConnectionString(cfg))
	if err != nil {
		return nil, fmt.Errorf("connect to sqlserver: %w", err)
	}
	return &Adapter{
		db:     db,
		logger: logger.Named("mssql"),
	}, nil
}

func (a *Adapter) Ping(ctx context.Context) error {
	return a.db.PingContext(ctx)
}

func (a *Adapter) Dialect() string {
	return "SQL Server"
}

func (a *Adapter) Close() error {
	return a.db.Close()
}

// GetTables lists base tables in the dbo schema.
func (a *Adapter) GetTables(ctx context.Context) ([]datasource.Table, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = 'dbo'
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

// GetColumns reads column metadata from information_schema.
func (a *Adapter) GetColumns(ctx context.Context, table string) ([]datasource.Column, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT
			c.column_name,
			c.data_type,
			CASE WHEN c.is_nullable = 'YES' THEN 1 ELSE 0 END,
			CASE WHEN EXISTS (
				SELECT 1
				FROM information_schema.table_constraints tc
				JOIN information_schema.key_column_usage kcu
				  ON tc.constraint_name = kcu.constraint_name
				 AND tc.table_schema = kcu.table_schema
				WHERE tc.constraint_type = 'PRIMARY KEY'
				  AND tc.table_schema = 'dbo'
				  AND tc.table_name = c.table_name
				  AND kcu.column_name = c.column_name
			) THEN 1 ELSE 0 END
		FROM information_schema.columns c
		WHERE c.table_schema = 'dbo' AND c.table_name = @p1
		ORDER BY c.ordinal_position`, table)
	if err != nil {
		return nil, fmt.Errorf("columns for %s: %w", table, err)
	}
	defer rows.Close()

	var columns []datasource.Column
	for rows.Next() {
		var (
			col            datasource.Column
			nullable, isPK int
		)
		if err := rows.Scan(&col.Name, &col.DataType, &nullable, &isPK); err != nil {
			return nil, fmt.Errorf("scan column info: %w", err)
		}
		col.IsNullable = nullable == 1
		col.IsPrimary = isPK == 1
		columns = append(columns, col)
	}
	return columns, rows.Err()
}

// Query runs a SELECT statement wrapped with a row limit.
func (a *Adapter) Query(ctx context.Context, sqlQuery string, limit int) (*datasource.QueryExecutionResult, error) {
	return a.QueryWithParams(ctx, sqlQuery, nil, limit)
}

// QueryWithParams runs a parameterized SELECT with bounded results.
// Callers use $1-style placeholders; they are rewritten to @p1 form for
// the sqlserver driver.
func (a *Adapter) QueryWithParams(ctx context.Context, sqlQuery string, params []any, limit int) (*datasource.QueryExecutionResult, error) {
	wrapped := fmt.Sprintf("SELECT TOP (%d) * FROM (%s) AS _limited",
		datasource.ClampLimit(limit), stripTrailingSemicolon(sqlQuery))

	rows, err := a.db.QueryContext(ctx, convertPlaceholders(wrapped), params...)
	if err != nil {
		return nil, fmt.Errorf("execute query: %w", err)
	}
	defer rows.Close()

	return collectRows(rows)
}

// ValidateQuery prepares the statement without executing it.
func (a *Adapter) ValidateQuery(ctx context.Context, sqlQuery string) error {
	stmt, err := a.db.PrepareContext(ctx, stripTrailingSemicolon(sqlQuery))
	if err != nil {
		return fmt.Errorf("invalid SQL: %w", err)
	}
	return stmt.Close()
}

// QuoteIdentifier quotes a name using SQL Server's bracket syntax.
func (a *Adapter) QuoteIdentifier(name string) string {
	return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
}

var placeholderPattern = regexp.MustCompile(`\$(\d+)`)

// convertPlaceholders rewrites $1, $2, ... to @p1, @p2, ...
func convertPlaceholders(query string) string {
	return placeholderPattern.ReplaceAllString(query, "@p$1")
}

func stripTrailingSemicolon(sqlQuery string) string {
	return strings.TrimSuffix(strings.TrimSpace(sqlQuery), ";")
}

func collectRows(rows *sql.Rows) (*datasource.QueryExecutionResult, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read column names: %w", err)
	}

	result := &datasource.QueryExecutionResult{
		Columns: columns,
		Rows:    [][]any{},
	}

	for rows.Next() {
		values := make([]any, len(columns))
		dests := make([]any, len(columns))
		for i := range values {
			dests[i] = &values[i]
		}
		if err := rows.Scan(dests...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		result.Rows = append(result.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	result.RowCount = len(result.Rows)
	return result, nil
}

var _ datasource.Adapter = (*Adapter)(nil)
