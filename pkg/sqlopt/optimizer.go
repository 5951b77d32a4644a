// Package sqlopt rewrites and analyzes generated SQL statements.
//
// The optimizer runs a fixed, ordered sequence of independent rules over a
// token-level decomposition of the statement. Rules either rewrite the
// statement, emit a warning, or do nothing; a rule that cannot act safely
// degrades to a no-op. Only input that fails to parse as a SELECT-family
// statement is a hard error.
package sqlopt

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/askdb-io/askdb-engine/pkg/apperrors"
	"github.com/askdb-io/askdb-engine/pkg/models"
)

// Optimizer applies the rewrite rules with a configured row cap.
type Optimizer struct {
	rowLimit int
	dialect  string
	logger   *zap.Logger
}

// New creates an optimizer. rowLimit is the cap the limit-safety rule
// appends to unbounded SELECT statements; dialect is the target database
// dialect as reported by the datasource adapter.
func New(rowLimit int, dialect string, logger *zap.Logger) *Optimizer {
	return &Optimizer{
		rowLimit: rowLimit,
		dialect:  dialect,
		logger:   logger.Named("optimizer"),
	}
}

// namedRule pairs a rule with its reported name.
type namedRule struct {
	name models.RuleName
	fn   rule
}

// rules in execution order: safety/no-op rules before the
// semantics-changing limit-safety rule, so the aggregation check sees the
// cleaned statement.
func (o *Optimizer) rules() []namedRule {
	rules := []namedRule{
		{models.RuleExplicitColumns, explicitColumnsRule},
		{models.RuleIndexHint, indexHintRule},
		{models.RuleJoinOrder, joinOrderRule},
		{models.RuleRedundantClause, redundantClauseRule},
	}
	// SQL Server has no LIMIT clause; there the executor's TOP wrapping
	// bounds result size and the statement is left alone.
	if o.dialect != "SQL Server" {
		rules = append(rules, namedRule{models.RuleLimitSafety, limitSafetyRule})
	}
	return rules
}

// Optimize rewrites sqlText and reports what it found. When no rule
// rewrites the statement the input comes back verbatim with an empty
// AppliedRules list; that is success, not failure.
func (o *Optimizer) Optimize(sqlText string, schema *models.SchemaDescription) (string, *models.AnalysisReport, error) {
	tokens, err := Lex(sqlText)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", apperrors.ErrUnparseable, err)
	}

	stmt, err := Parse(tokens)
	if err != nil {
		return "", nil, err
	}

	report := &models.AnalysisReport{
		AppliedRules: []models.RuleName{},
		Warnings:     []string{},
	}

	for _, r := range o.rules() {
		result := o.runRule(r, stmt, schema)
		if result.applied {
			report.AppliedRules = append(report.AppliedRules, r.name)
		}
		report.Warnings = append(report.Warnings, result.warnings...)
	}

	report.EstimatedCostClass = estimateCost(stmt, tokens)

	if len(report.AppliedRules) == 0 {
		return sqlText, report, nil
	}

	optimized := stmt.Render()
	o.logger.Debug("statement rewritten",
		zap.Int("rules_applied", len(report.AppliedRules)),
		zap.String("cost_class", string(report.EstimatedCostClass)))
	return optimized, report, nil
}

// runRule isolates one rule: a rule that panics on an odd statement shape
// degrades to a no-op instead of failing the optimization.
func (o *Optimizer) runRule(r namedRule, stmt *Statement, schema *models.SchemaDescription) (result ruleResult) {
	defer func() {
		if rec := recover(); rec != nil {
			o.logger.Warn("rule skipped",
				zap.String("rule", string(r.name)),
				zap.Any("panic", rec))
			result = ruleResult{}
		}
	}()
	return r.fn(stmt, schema, o.rowLimit)
}

// estimateCost derives the coarse cost class from clause counts:
// joins + subqueries, 0-1 low, 2-3 medium, 4+ high.
func estimateCost(stmt *Statement, tokens []Token) models.CostClass {
	joins := 0
	selects := 0
	for _, t := range tokens {
		if t.Type != TokenWord {
			continue
		}
		switch t.Upper {
		case "JOIN":
			joins++
		case "SELECT":
			selects++
		}
	}

	// comma-style joins in the FROM clause count as joins too
	depth := 0
	for _, t := range stmt.From {
		switch {
		case t.Is("("):
			depth++
		case t.Is(")"):
			depth--
		case depth == 0 && t.Is(","):
			joins++
		}
	}

	subqueries := selects - 1
	if subqueries < 0 {
		subqueries = 0
	}

	switch total := joins + subqueries; {
	case total <= 1:
		return models.CostLow
	case total <= 3:
		return models.CostMedium
	default:
		return models.CostHigh
	}
}
