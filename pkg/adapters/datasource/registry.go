package datasource

import (
	"context"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/askdb-io/askdb-engine/pkg/config"
)

// Registration describes one compiled-in adapter.
type Registration struct {
	Type        string // "sqlite", "postgres", "sqlserver"
	DisplayName string // "SQLite", "PostgreSQL", ...
	Factory     func(ctx context.Context, cfg *config.DatasourceConfig, logger *zap.Logger) (Adapter, error)
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Registration)
)

// Register is called by each adapter's init() function.
// Thread-safe for concurrent init() calls.
func Register(reg Registration) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[reg.Type] = reg
}

// GetFactory returns the factory for a datasource type, or nil when the
// type is not compiled in.
func GetFactory(dsType string) func(ctx context.Context, cfg *config.DatasourceConfig, logger *zap.Logger) (Adapter, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	if reg, ok := registry[dsType]; ok {
		return reg.Factory
	}
	return nil
}

// IsRegistered checks whether an adapter type is available.
func IsRegistered(dsType string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := registry[dsType]
	return ok
}

// RegisteredTypes returns the compiled-in adapter type names, sorted.
func RegisteredTypes() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	types := make([]string, 0, len(registry))
	for t := range registry {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}
