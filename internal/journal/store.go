// File: internal/journal/store.go
package journal

import (
	"strings"

	"github.com/yieldforge/yieldforge/internal/config"
	"github.com/yieldforge/yieldforge/pkg/utils"
)

// Store is the durable key-value text store the journal persists its mirror
// into. Implementations must treat values as opaque text.
type Store interface {
	Connect() error
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Remove(key string) error
	Close() error
}

// NewStore creates a journal store based on configuration
func NewStore(cfg *config.JournalConfig) (Store, error) {
	switch strings.ToLower(cfg.StoreType) {
	case "file":
		return NewFileStore(cfg.ConnectionString), nil
	case "sqlite":
		return NewSQLiteStore(cfg), nil
	case "postgres", "postgresql":
		return NewPostgresStore(cfg), nil
	default:
		return nil, utils.NewAppError(utils.ErrCodeConfiguration,
			"Unsupported journal store type", cfg.StoreType)
	}
}

// ValidateStoreConfig validates journal store configuration
func ValidateStoreConfig(cfg *config.JournalConfig) error {
	if cfg.StoreType == "" {
		return utils.NewAppError(utils.ErrCodeConfiguration, "Journal store type is required", "")
	}
	if cfg.ConnectionString == "" {
		return utils.NewAppError(utils.ErrCodeConfiguration, "Journal connection string is required", "")
	}

	supported := map[string]bool{"file": true, "sqlite": true, "postgres": true, "postgresql": true}
	if !supported[strings.ToLower(cfg.StoreType)] {
		return utils.NewAppError(utils.ErrCodeConfiguration,
			"Unsupported journal store type", "Supported types: file, sqlite, postgres")
	}
	return nil
}
