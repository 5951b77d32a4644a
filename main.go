package main

import (
	"context"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/askdb-io/askdb-engine/pkg/adapters/datasource"
	_ "github.com/askdb-io/askdb-engine/pkg/adapters/datasource/mssql"
	_ "github.com/askdb-io/askdb-engine/pkg/adapters/datasource/postgres"
	"github.com/askdb-io/askdb-engine/pkg/adapters/datasource/sqlite"
	"github.com/askdb-io/askdb-engine/pkg/config"
	"github.com/askdb-io/askdb-engine/pkg/llm"
	"github.com/askdb-io/askdb-engine/pkg/logging"
	enginemcp "github.com/askdb-io/askdb-engine/pkg/mcp"
	"github.com/askdb-io/askdb-engine/pkg/mcp/tools"
	"github.com/askdb-io/askdb-engine/pkg/pipeline"
	"github.com/askdb-io/askdb-engine/pkg/provision"
	"github.com/askdb-io/askdb-engine/pkg/retry"
	"github.com/askdb-io/askdb-engine/pkg/schema"
	"github.com/askdb-io/askdb-engine/pkg/sqlgen"
	"github.com/askdb-io/askdb-engine/pkg/sqlopt"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	logger.Info("starting askdb-engine",
		zap.String("version", cfg.Version),
		zap.String("env", cfg.Env),
		zap.String("datasource", cfg.Datasource.Type),
		zap.String("llm_provider", cfg.LLM.Provider),
		zap.String("llm_model", cfg.LLM.Model))

	ctx := context.Background()

	adapter, err := retry.DoWithResult(ctx, retry.DefaultConfig(), func() (datasource.Adapter, error) {
		return datasource.Open(ctx, &cfg.Datasource, logger)
	})
	if err != nil {
		logger.Fatal("failed to open datasource", zap.Error(err))
	}
	defer adapter.Close() //nolint:errcheck

	// The sqlite datasource is self-provisioning: migrations and seed
	// data bring a fresh file to a queryable state.
	if sa, ok := adapter.(*sqlite.Adapter); ok {
		if err := provision.Setup(ctx, sa.DB(), logger); err != nil {
			logger.Fatal("failed to provision database", zap.Error(err))
		}
	}

	llmClient, err := llm.NewClient(&cfg.LLM, logger)
	if err != nil {
		logger.Fatal("failed to create LLM client", zap.Error(err))
	}

	provider := schema.NewProvider(adapter, logger)
	generator := sqlgen.New(llmClient, adapter.Dialect(), logger)
	optimizer := sqlopt.New(cfg.Pipeline.DefaultRowLimit, adapter.Dialect(), logger)
	gateway := pipeline.NewExecutionGateway(
		adapter,
		cfg.Pipeline.DefaultRowLimit,
		time.Duration(cfg.Pipeline.QueryTimeoutSeconds)*time.Second,
		logger,
	)
	runner := pipeline.New(provider, generator, optimizer, gateway, logger)

	srv := enginemcp.NewServer("askdb-engine", cfg.Version, logger)
	tools.RegisterAskTool(srv.MCP(), &tools.AskToolDeps{
		Runner: runner,
		Logger: logger.Named("tools.ask"),
	})
	tools.RegisterQueryTool(srv.MCP(), &tools.QueryToolDeps{
		Executor: adapter,
		RowLimit: cfg.Pipeline.DefaultRowLimit,
		Logger:   logger.Named("tools.query"),
	})
	tools.RegisterSchemaTools(srv.MCP(), &tools.SchemaToolDeps{
		Provider: provider,
		Logger:   logger.Named("tools.schema"),
	})

	if err := srv.ServeStdio(); err != nil {
		logger.Fatal("server terminated", zap.Error(err))
	}
}
