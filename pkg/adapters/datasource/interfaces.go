package datasource

import "context"

// MaxQueryLimit is the hard cap on rows returned by Query methods.
// This protects against unbounded queries that could exhaust memory.
const MaxQueryLimit = 1000

// Table represents a user table in the connected database.
type Table struct {
	Name string `json:"name"`
}

// Column represents a database column.
type Column struct {
	Name       string `json:"name"`
	DataType   string `json:"data_type"`
	IsNullable bool   `json:"is_nullable"`
	IsPrimary  bool   `json:"is_primary"`
}

// QueryExecutionResult holds the results from executing a query. Row values
// are positional, matching Columns.
type QueryExecutionResult struct {
	Columns  []string `json:"columns"`
	Rows     [][]any  `json:"rows"`
	RowCount int      `json:"row_count"`
}

// SchemaExtractor extracts database schema information.
type SchemaExtractor interface {
	// GetTables returns all user tables, excluding system and bookkeeping
	// tables.
	GetTables(ctx context.Context) ([]Table, error)

	// GetColumns returns columns for a specific table.
	GetColumns(ctx context.Context, table string) ([]Column, error)
}

// QueryExecutor executes SQL against a datasource. All query paths are
// bounded: the statement is wrapped with a dialect-specific limit so
// results can never run away.
//
// Limit behavior for Query and QueryWithParams:
//   - limit <= 0: uses MaxQueryLimit
//   - limit > MaxQueryLimit: capped to MaxQueryLimit
//   - otherwise: uses the specified limit
type QueryExecutor interface {
	// Query runs a SELECT statement and returns bounded results.
	Query(ctx context.Context, sqlQuery string, limit int) (*QueryExecutionResult, error)

	// QueryWithParams runs a parameterized SELECT with bounded results.
	// The SQL uses $1, $2, ... placeholders; adapters translate to their
	// native placeholder style where needed.
	QueryWithParams(ctx context.Context, sqlQuery string, params []any, limit int) (*QueryExecutionResult, error)

	// ValidateQuery checks that a statement is syntactically valid without
	// executing it.
	ValidateQuery(ctx context.Context, sqlQuery string) error

	// QuoteIdentifier safely quotes a table or column name using the
	// dialect's quoting style.
	QuoteIdentifier(name string) string
}

// Adapter is one open datasource connection. Each adapter owns its
// connection and must be closed when done.
type Adapter interface {
	SchemaExtractor
	QueryExecutor

	// Ping verifies the datasource is reachable.
	Ping(ctx context.Context) error

	// Dialect returns the human-readable SQL dialect name, e.g. "SQLite".
	Dialect() string

	// Close releases the connection.
	Close() error
}

// ClampLimit normalizes a requested row limit per the QueryExecutor
// contract.
func ClampLimit(limit int) int {
	if limit <= 0 || limit > MaxQueryLimit {
		return MaxQueryLimit
	}
	return limit
}
