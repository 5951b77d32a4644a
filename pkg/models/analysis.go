package models

// RuleName identifies one optimizer rewrite/detector rule.
type RuleName string

const (
	RuleRedundantClause RuleName = "RedundantClause"
	RuleExplicitColumns RuleName = "ExplicitColumns"
	RuleIndexHint       RuleName = "IndexHint"
	RuleJoinOrder       RuleName = "JoinOrder"
	RuleLimitSafety     RuleName = "LimitSafety"
)

// CostClass is a coarse cost estimate derived from clause counts.
type CostClass string

const (
	CostLow    CostClass = "low"
	CostMedium CostClass = "medium"
	CostHigh   CostClass = "high"
)

// AnalysisReport summarizes what the optimizer did to one statement.
// AppliedRules lists rules that rewrote the statement, in execution order.
// Warnings are soft findings and never fail the run.
type AnalysisReport struct {
	AppliedRules       []RuleName `json:"applied_rules"`
	Warnings           []string   `json:"warnings"`
	EstimatedCostClass CostClass  `json:"estimated_cost_class"`
}
