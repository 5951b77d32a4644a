// Package pipeline orchestrates one question-to-result run: fetch schema,
// generate SQL, optimize it, execute it.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/askdb-io/askdb-engine/pkg/logging"
	"github.com/askdb-io/askdb-engine/pkg/models"
	"github.com/askdb-io/askdb-engine/pkg/schema"
)

// SchemaProvider supplies the schema snapshot a run works against.
type SchemaProvider interface {
	Describe(ctx context.Context) (*models.SchemaDescription, error)
}

// Generator produces a candidate SQL statement for a question.
type Generator interface {
	Generate(ctx context.Context, question, schemaContext string) (string, error)
}

// Optimizer rewrites and analyzes a generated statement.
type Optimizer interface {
	Optimize(sqlText string, schema *models.SchemaDescription) (string, *models.AnalysisReport, error)
}

// Executor runs the final statement and returns its rows.
type Executor interface {
	Execute(ctx context.Context, sqlQuery string) (*models.ResultSet, error)
}

// Pipeline wires the four stages together.
type Pipeline struct {
	schema    SchemaProvider
	generator Generator
	optimizer Optimizer
	executor  Executor
	logger    *zap.Logger
}

// New creates a pipeline.
func New(provider SchemaProvider, generator Generator, optimizer Optimizer, executor Executor, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		schema:    provider,
		generator: generator,
		optimizer: optimizer,
		executor:  executor,
		logger:    logger.Named("pipeline"),
	}
}

// Run executes the full pipeline for one question. It always returns a
// RunContext and never returns an error or panics: the first stage failure
// is recorded as StageError and later stages are skipped, leaving every
// field the earlier stages produced intact.
func (p *Pipeline) Run(ctx context.Context, question string) (rc *models.RunContext) {
	rc = &models.RunContext{
		RunID:    uuid.New(),
		Question: question,
	}
	logger := p.logger.With(zap.String("run_id", rc.RunID.String()))
	logger.Info("run started", zap.String("question", question))
	start := time.Now()

	stage := models.StageErrorSchemaUnavailable
	defer func() {
		if rec := recover(); rec != nil {
			rc.StageError = &models.StageError{
				Kind:   stage,
				Detail: fmt.Sprintf("internal error: %v", rec),
			}
			logger.Error("run panicked", zap.String("stage", string(stage)), zap.Any("panic", rec))
		}
	}()

	desc, err := p.schema.Describe(ctx)
	if err != nil {
		return p.fail(rc, logger, models.StageErrorSchemaUnavailable, err)
	}
	rc.Schema = desc

	stage = models.StageErrorGenerationFailed
	rawSQL, err := p.generator.Generate(ctx, question, schema.Render(desc))
	if err != nil {
		return p.fail(rc, logger, models.StageErrorGenerationFailed, err)
	}
	rc.RawSQL = rawSQL

	stage = models.StageErrorOptimizationFailed
	optimized, report, err := p.optimizer.Optimize(rawSQL, desc)
	if err != nil {
		return p.fail(rc, logger, models.StageErrorOptimizationFailed, err)
	}
	rc.OptimizedSQL = optimized
	rc.Analysis = report

	stage = models.StageErrorExecutionFailed
	result, err := p.executor.Execute(ctx, optimized)
	if err != nil {
		return p.fail(rc, logger, models.StageErrorExecutionFailed, err)
	}
	rc.Result = result

	logger.Info("run completed",
		zap.String("sql", logging.SanitizeQuery(optimized)),
		zap.Int("rules_applied", len(report.AppliedRules)),
		zap.Int("rows", len(result.Rows)),
		zap.Duration("duration", time.Since(start)))
	return rc
}

func (p *Pipeline) fail(rc *models.RunContext, logger *zap.Logger, kind models.StageErrorKind, err error) *models.RunContext {
	rc.StageError = &models.StageError{
		Kind:   kind,
		Detail: logging.SanitizeError(err),
	}
	logger.Warn("run short-circuited",
		zap.String("stage", string(kind)),
		zap.String("detail", rc.StageError.Detail))
	return rc
}
