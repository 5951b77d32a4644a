//go:build sqlserver || all_adapters

package mssql

import (
	"context"

	"go.uber.org/zap"

	"github.com/askdb-io/askdb-engine/pkg/adapters/datasource"
	"github.com/askdb-io/askdb-engine/pkg/config"
)

func init() {
	datasource.Register(datasource.Registration{
		Type:        "sqlserver",
		DisplayName: "Microsoft SQL Server",
		Factory: func(_ context.Context, cfg *config.DatasourceConfig, logger *zap.Logger) (datasource.Adapter, error) {
			return NewAdapter(cfg, logger)
		},
	})
}
