package sqlite

import (
	"context"

	"go.uber.org/zap"

	"github.com/askdb-io/askdb-engine/pkg/adapters/datasource"
	"github.com/askdb-io/askdb-engine/pkg/config"
)

func init() {
	datasource.Register(datasource.Registration{
		Type:        "sqlite",
		DisplayName: "SQLite",
		Factory: func(_ context.Context, cfg *config.DatasourceConfig, logger *zap.Logger) (datasource.Adapter, error) {
			return NewAdapter(cfg.SQLitePath, logger)
		},
	})
}
