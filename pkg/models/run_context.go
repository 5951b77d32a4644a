package models

import (
	"github.com/google/uuid"
)

// StageErrorKind classifies which pipeline stage failed and why.
type StageErrorKind string

const (
	StageErrorSchemaUnavailable  StageErrorKind = "schema_unavailable"
	StageErrorGenerationFailed   StageErrorKind = "generation_failed"
	StageErrorOptimizationFailed StageErrorKind = "optimization_failed"
	StageErrorExecutionFailed    StageErrorKind = "execution_failed"
)

// StageError records the first stage failure of a pipeline run.
// Once set, no later stage runs.
type StageError struct {
	Kind   StageErrorKind `json:"kind"`
	Detail string         `json:"detail,omitempty"`
}

func (e *StageError) Error() string {
	if e.Detail == "" {
		return string(e.Kind)
	}
	return string(e.Kind) + ": " + e.Detail
}

// ResultSet holds rows returned by the execution gateway. Column and row
// order follow the database's result order.
type ResultSet struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// RunContext is the single-writer record threaded through one pipeline run.
// Pointer fields are nil until the stage that populates them has succeeded,
// so "which fields exist after a short-circuit" is visible in the type.
type RunContext struct {
	RunID    uuid.UUID `json:"run_id"`
	Question string    `json:"question"`

	// Set by FetchSchema.
	Schema *SchemaDescription `json:"schema,omitempty"`

	// Set by Generate.
	RawSQL string `json:"raw_sql,omitempty"`

	// Set by Optimize. OptimizedSQL is always derived from RawSQL; when no
	// rule fires it equals RawSQL and Analysis.AppliedRules is empty.
	OptimizedSQL string          `json:"optimized_sql,omitempty"`
	Analysis     *AnalysisReport `json:"analysis,omitempty"`

	// Set by Execute.
	Result *ResultSet `json:"result,omitempty"`

	// Set by the first failing stage; later stages never run.
	StageError *StageError `json:"stage_error,omitempty"`
}

// Failed reports whether the run short-circuited.
func (rc *RunContext) Failed() bool {
	return rc.StageError != nil
}
