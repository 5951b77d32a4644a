// Package sqlite is the file-backed default datasource adapter.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/askdb-io/askdb-engine/pkg/adapters/datasource"
)

// Adapter provides SQLite connectivity over a single database file.
type Adapter struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewAdapter opens the SQLite database at path. The file is created on
// first write if it does not exist.
func NewAdapter(path string, logger *zap.Logger) (*Adapter, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database %q: %w", path, err)
	}
	// The sqlite3 driver is not safe for concurrent writes over multiple
	// connections to the same file.
	db.SetMaxOpenConns(1)

	return &Adapter{
		db:     db,
		logger: logger.Named("sqlite"),
	}, nil
}

// DB exposes the underlying handle for provisioning and tests.
func (a *Adapter) DB() *sql.DB {
	return a.db
}

func (a *Adapter) Ping(ctx context.Context) error {
	return a.db.PingContext(ctx)
}

func (a *Adapter) Dialect() string {
	return "SQLite"
}

func (a *Adapter) Close() error {
	return a.db.Close()
}

// GetTables lists user tables from sqlite_master, skipping SQLite
// internals and migration bookkeeping.
func (a *Adapter) GetTables(ctx context.Context) ([]datasource.Table, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT name FROM sqlite_master
		WHERE type = 'table'
		  AND name NOT LIKE 'sqlite_%'
		  AND name != 'schema_migrations'
		ORDER BY name`)
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

// GetColumns reads column metadata via PRAGMA table_info.
func (a *Adapter) GetColumns(ctx context.Context, table string) ([]datasource.Column, error) {
	query := fmt.Sprintf("PRAGMA table_info(%s)", a.QuoteIdentifier(table))
	rows, err := a.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("table_info for %s: %w", table, err)
	}
	defer rows.Close()

	var columns []datasource.Column
	for rows.Next() {
		var (
			cid          int
			name, dtype  string
			notNull, pk  int
			defaultValue sql.NullString
		)
		if err := rows.Scan(&cid, &name, &dtype, &notNull, &defaultValue, &pk); err != nil {
			return nil, fmt.Errorf("scan column info: %w", err)
		}
		columns = append(columns, datasource.Column{
			Name:       name,
			DataType:   dtype,
			IsNullable: notNull == 0,
			IsPrimary:  pk > 0,
		})
	}
	return columns, rows.Err()
}

// Query runs a SELECT statement wrapped with a row limit.
func (a *Adapter) Query(ctx context.Context, sqlQuery string, limit int) (*datasource.QueryExecutionResult, error) {
	return a.QueryWithParams(ctx, sqlQuery, nil, limit)
}

// QueryWithParams runs a parameterized SELECT with bounded results. SQLite
// accepts $1-style placeholders natively.
func (a *Adapter) QueryWithParams(ctx context.Context, sqlQuery string, params []any, limit int) (*datasource.QueryExecutionResult, error) {
	wrapped := fmt.Sprintf("SELECT * FROM (%s) AS _limited LIMIT %d",
		stripTrailingSemicolon(sqlQuery), datasource.ClampLimit(limit))

	rows, err := a.db.QueryContext(ctx, wrapped, params...)
	if err != nil {
		return nil, fmt.Errorf("execute query: %w", err)
	}
	defer rows.Close()

	return collectRows(rows)
}

// ValidateQuery prepares the statement without executing it.
func (a *Adapter) ValidateQuery(ctx context.Context, sqlQuery string) error {
	stmt, err := a.db.PrepareContext(ctx, sqlQuery)
	if err != nil {
		return fmt.Errorf("invalid SQL: %w", err)
	}
	return stmt.Close()
}

// QuoteIdentifier quotes a name using SQLite's double-quote syntax.
func (a *Adapter) QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
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
		for i, v := range values {
			// sqlite hands TEXT back as []byte through database/sql
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		result.Rows = append(result.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	result.RowCount = len(result.Rows)
	return result, nil
}

// Ensure Adapter satisfies the datasource contract at compile time.
var _ datasource.Adapter = (*Adapter)(nil)
