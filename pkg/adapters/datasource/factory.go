package datasource

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/askdb-io/askdb-engine/pkg/config"
)

// Open creates and pings an adapter for the configured datasource type.
func Open(ctx context.Context, cfg *config.DatasourceConfig, logger *zap.Logger) (Adapter, error) {
	factory := GetFactory(cfg.Type)
	if factory == nil {
		return nil, fmt.Errorf("unsupported datasource type %q (compiled in: %s)",
			cfg.Type, strings.Join(RegisteredTypes(), ", "))
	}

	adapter, err := factory(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("open %s datasource: %w", cfg.Type, err)
	}

	if err := adapter.Ping(ctx); err != nil {
		_ = adapter.Close()
		return nil, fmt.Errorf("ping %s datasource: %w", cfg.Type, err)
	}
	return adapter, nil
}
