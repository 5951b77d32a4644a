package sqlopt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/askdb-io/askdb-engine/pkg/apperrors"
	"github.com/askdb-io/askdb-engine/pkg/models"
)

func salesSchema() *models.SchemaDescription {
	return &models.SchemaDescription{
		Tables: []models.TableInfo{
			{
				Name:   "customers",
				Entity: "customer",
				Columns: []models.ColumnInfo{
					{Name: "id", DataType: "INTEGER", IsPrimaryKey: true},
					{Name: "name", DataType: "TEXT"},
					{Name: "email", DataType: "TEXT"},
				},
			},
			{
				Name:   "products",
				Entity: "product",
				Columns: []models.ColumnInfo{
					{Name: "product_id", DataType: "INTEGER", IsPrimaryKey: true},
					{Name: "name", DataType: "TEXT"},
					{Name: "category", DataType: "TEXT"},
					{Name: "price", DataType: "REAL"},
				},
			},
			{
				Name:   "sales",
				Entity: "sale",
				Columns: []models.ColumnInfo{
					{Name: "sale_id", DataType: "INTEGER", IsPrimaryKey: true},
					{Name: "product_id", DataType: "INTEGER"},
					{Name: "quantity", DataType: "INTEGER"},
					{Name: "region", DataType: "TEXT"},
				},
			},
		},
	}
}

func newTestOptimizer() *Optimizer {
	return New(1000, "SQLite", zap.NewNop())
}

func TestOptimizeExpandsStarAndAppendsLimit(t *testing.T) {
	o := newTestOptimizer()

	optimized, report, err := o.Optimize("SELECT * FROM customers;", salesSchema())
	require.NoError(t, err)

	assert.Equal(t, "SELECT id, name, email FROM customers LIMIT 1000;", optimized)
	assert.Equal(t, []models.RuleName{models.RuleExplicitColumns, models.RuleLimitSafety}, report.AppliedRules)
	assert.Equal(t, models.CostLow, report.EstimatedCostClass)
	require.Len(t, report.Warnings, 1)
	assert.Contains(t, report.Warnings[0], "LIMIT 1000")
}

func TestOptimizeMinimalStatementIsUntouched(t *testing.T) {
	o := newTestOptimizer()
	input := "SELECT id, name FROM customers WHERE id = 42 LIMIT 10"

	optimized, report, err := o.Optimize(input, salesSchema())
	require.NoError(t, err)

	assert.Equal(t, input, optimized)
	assert.Empty(t, report.AppliedRules)
	assert.Empty(t, report.Warnings)
	assert.NotNil(t, report.AppliedRules)
	assert.NotNil(t, report.Warnings)
}

func TestOptimizeIsIdempotent(t *testing.T) {
	o := newTestOptimizer()
	schema := salesSchema()

	inputs := []string{
		"SELECT * FROM customers;",
		"SELECT * FROM products p, sales s WHERE p.product_id = s.product_id AND p.category = 'Electronics'",
		"SELECT name FROM products ORDER BY price, price",
		"(SELECT name FROM products LIMIT 5)",
	}

	for _, input := range inputs {
		first, _, err := o.Optimize(input, schema)
		require.NoError(t, err, input)

		second, report, err := o.Optimize(first, schema)
		require.NoError(t, err, input)
		assert.Equal(t, first, second, "second pass changed %q", input)
		assert.Empty(t, report.AppliedRules, "second pass applied rules to %q", input)
	}
}

func TestOptimizeAggregateSkipsLimit(t *testing.T) {
	o := newTestOptimizer()

	tests := []string{
		"SELECT COUNT(*) FROM sales",
		"SELECT SUM(quantity) FROM sales",
		"SELECT region, SUM(quantity) FROM sales GROUP BY region",
	}
	for _, input := range tests {
		optimized, report, err := o.Optimize(input, salesSchema())
		require.NoError(t, err, input)
		assert.Equal(t, input, optimized, input)
		assert.NotContains(t, report.AppliedRules, models.RuleLimitSafety, input)
	}
}

func TestOptimizeSQLServerDialectSkipsLimit(t *testing.T) {
	// T-SQL has no LIMIT clause; the SQL Server executor bounds rows with
	// its TOP wrapping instead, so the statement must stay LIMIT-free.
	o := New(1000, "SQL Server", zap.NewNop())

	optimized, report, err := o.Optimize("SELECT * FROM customers;", salesSchema())
	require.NoError(t, err)

	assert.Equal(t, "SELECT id, name, email FROM customers;", optimized)
	assert.Equal(t, []models.RuleName{models.RuleExplicitColumns}, report.AppliedRules)
	assert.NotContains(t, optimized, "LIMIT")
}

func TestOptimizeReordersJoinConjuncts(t *testing.T) {
	o := newTestOptimizer()
	input := "SELECT name FROM products p, sales s WHERE p.product_id = s.product_id AND p.category = 'Electronics' LIMIT 50"

	optimized, report, err := o.Optimize(input, salesSchema())
	require.NoError(t, err)

	assert.Equal(t,
		"SELECT name FROM products p, sales s WHERE p.category = 'Electronics' AND p.product_id = s.product_id LIMIT 50",
		optimized)
	assert.Equal(t, []models.RuleName{models.RuleJoinOrder}, report.AppliedRules)
}

func TestOptimizeReorderKeepsBetweenIntact(t *testing.T) {
	o := newTestOptimizer()
	input := "SELECT p.name FROM products p, sales s WHERE p.product_id = s.product_id AND p.price BETWEEN 1 AND 10 LIMIT 5"

	optimized, report, err := o.Optimize(input, salesSchema())
	require.NoError(t, err)

	assert.Equal(t,
		"SELECT p.name FROM products p, sales s WHERE p.price BETWEEN 1 AND 10 AND p.product_id = s.product_id LIMIT 5",
		optimized)
	assert.Equal(t, []models.RuleName{models.RuleJoinOrder}, report.AppliedRules)

	// a BETWEEN spanning both tables leaves nothing to move ahead of it
	input = "SELECT p.name FROM products p, sales s WHERE p.price BETWEEN s.quantity AND 10 AND p.product_id = s.product_id LIMIT 5"
	optimized, report, err = o.Optimize(input, salesSchema())
	require.NoError(t, err)
	assert.Equal(t, input, optimized)
	assert.NotContains(t, report.AppliedRules, models.RuleJoinOrder)
}

func TestOptimizeJoinOrderDeclines(t *testing.T) {
	o := newTestOptimizer()
	schema := salesSchema()

	tests := []struct {
		name  string
		input string
	}{
		{
			name:  "outer join",
			input: "SELECT name FROM products p LEFT JOIN sales s ON p.product_id = s.product_id WHERE p.product_id = s.product_id AND p.category = 'X' LIMIT 5",
		},
		{
			name:  "disjunction",
			input: "SELECT name FROM products p, sales s WHERE p.product_id = s.product_id OR p.category = 'X' LIMIT 5",
		},
		{
			name:  "volatile function",
			input: "SELECT name FROM products p, sales s WHERE RANDOM() < 1 AND p.product_id = s.product_id LIMIT 5",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			optimized, report, err := o.Optimize(tt.input, schema)
			require.NoError(t, err)
			assert.Equal(t, tt.input, optimized)
			assert.NotContains(t, report.AppliedRules, models.RuleJoinOrder)
		})
	}
}

func TestOptimizeIndexHintWarnings(t *testing.T) {
	o := newTestOptimizer()
	input := "SELECT name FROM products WHERE category = 'Books' LIMIT 5"

	optimized, report, err := o.Optimize(input, salesSchema())
	require.NoError(t, err)

	assert.Equal(t, input, optimized)
	assert.Empty(t, report.AppliedRules)
	require.Len(t, report.Warnings, 1)
	assert.Equal(t, "column products.category filtered without index", report.Warnings[0])
}

func TestOptimizePrimaryKeyFilterDrawsNoWarning(t *testing.T) {
	o := newTestOptimizer()
	input := "SELECT name FROM products WHERE product_id = 7 LIMIT 5"

	_, report, err := o.Optimize(input, salesSchema())
	require.NoError(t, err)
	assert.Empty(t, report.Warnings)
}

func TestOptimizeRedundantClauses(t *testing.T) {
	o := newTestOptimizer()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "duplicate order by entry",
			input: "SELECT name FROM products ORDER BY price, price LIMIT 5",
			want:  "SELECT name FROM products ORDER BY price LIMIT 5",
		},
		{
			name:  "asc is the default direction",
			input: "SELECT name FROM products ORDER BY price ASC, price LIMIT 5",
			want:  "SELECT name FROM products ORDER BY price ASC LIMIT 5",
		},
		{
			name:  "wrapping parentheses",
			input: "(SELECT name FROM products LIMIT 5)",
			want:  "SELECT name FROM products LIMIT 5",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			optimized, report, err := o.Optimize(tt.input, salesSchema())
			require.NoError(t, err)
			assert.Equal(t, tt.want, optimized)
			assert.Contains(t, report.AppliedRules, models.RuleRedundantClause)
		})
	}
}

func TestOptimizeExplicitColumnsDeclines(t *testing.T) {
	o := newTestOptimizer()
	schema := salesSchema()

	tests := []struct {
		name  string
		input string
	}{
		{name: "unknown table", input: "SELECT * FROM warehouses LIMIT 5"},
		{name: "subquery source", input: "SELECT * FROM (SELECT name FROM products) t LIMIT 5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			optimized, report, err := o.Optimize(tt.input, schema)
			require.NoError(t, err)
			assert.Equal(t, tt.input, optimized)
			assert.NotContains(t, report.AppliedRules, models.RuleExplicitColumns)
		})
	}
}

func TestOptimizeQualifiesColumnsForMultipleTables(t *testing.T) {
	o := newTestOptimizer()
	input := "SELECT * FROM products p, sales s LIMIT 5"

	optimized, report, err := o.Optimize(input, salesSchema())
	require.NoError(t, err)

	assert.Equal(t,
		"SELECT p.product_id, p.name, p.category, p.price, s.sale_id, s.product_id, s.quantity, s.region FROM products p, sales s LIMIT 5",
		optimized)
	assert.Equal(t, []models.RuleName{models.RuleExplicitColumns}, report.AppliedRules)
}

func TestOptimizeOpaqueStatements(t *testing.T) {
	o := newTestOptimizer()
	schema := salesSchema()

	tests := []string{
		"WITH top AS (SELECT product_id FROM sales) SELECT * FROM top",
		"SELECT product_id FROM products UNION SELECT product_id FROM sales",
	}
	for _, input := range tests {
		optimized, report, err := o.Optimize(input, schema)
		require.NoError(t, err, input)
		assert.Equal(t, input, optimized, input)
		assert.Empty(t, report.AppliedRules, input)
	}
}

func TestOptimizeUnparseableInput(t *testing.T) {
	o := newTestOptimizer()
	schema := salesSchema()

	tests := []string{
		"DELETE FROM products",
		"not sql at all",
		"",
		"SELECT 'unterminated FROM products",
	}
	for _, input := range tests {
		_, _, err := o.Optimize(input, schema)
		assert.ErrorIs(t, err, apperrors.ErrUnparseable, "input %q", input)
	}
}

func TestOptimizeEmptySchemaDisablesSchemaRules(t *testing.T) {
	o := newTestOptimizer()
	empty := &models.SchemaDescription{}

	optimized, report, err := o.Optimize("SELECT * FROM customers", empty)
	require.NoError(t, err)

	// limit safety still fires; the star expansion cannot
	assert.Equal(t, "SELECT * FROM customers LIMIT 1000", optimized)
	assert.Equal(t, []models.RuleName{models.RuleLimitSafety}, report.AppliedRules)
}

func TestEstimateCostClasses(t *testing.T) {
	o := newTestOptimizer()
	schema := salesSchema()

	tests := []struct {
		name  string
		input string
		want  models.CostClass
	}{
		{
			name:  "single table",
			input: "SELECT name FROM products LIMIT 5",
			want:  models.CostLow,
		},
		{
			name:  "one join",
			input: "SELECT s.region FROM sales s JOIN products p ON s.product_id = p.product_id LIMIT 5",
			want:  models.CostLow,
		},
		{
			name:  "two joins",
			input: "SELECT s.region FROM sales s JOIN products p ON s.product_id = p.product_id JOIN customers c ON c.id = s.sale_id LIMIT 5",
			want:  models.CostMedium,
		},
		{
			name:  "join plus subquery",
			input: "SELECT s.region FROM sales s JOIN products p ON s.product_id = p.product_id WHERE s.quantity > (SELECT AVG(quantity) FROM sales) LIMIT 5",
			want:  models.CostMedium,
		},
		{
			name:  "many joins and subqueries",
			input: "SELECT s.region FROM sales s JOIN products p ON s.product_id = p.product_id JOIN customers c ON c.id = s.sale_id WHERE s.quantity > (SELECT AVG(quantity) FROM sales) AND p.price > (SELECT AVG(price) FROM products) LIMIT 5",
			want:  models.CostHigh,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, report, err := o.Optimize(tt.input, schema)
			require.NoError(t, err)
			assert.Equal(t, tt.want, report.EstimatedCostClass)
		})
	}
}
