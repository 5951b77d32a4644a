//go:build postgres || all_adapters

package postgres

import (
	"context"

	"go.uber.org/zap"

	"github.com/askdb-io/askdb-engine/pkg/adapters/datasource"
	"github.com/askdb-io/askdb-engine/pkg/config"
)

func init() {
	datasource.Register(datasource.Registration{
		Type:        "postgres",
		DisplayName: "PostgreSQL",
		Factory: func(ctx context.Context, cfg *config.DatasourceConfig, logger *zap.Logger) (datasource.Adapter, error) {
			return NewAdapter(ctx, cfg, logger)
		},
	})
}
