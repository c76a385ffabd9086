package database

import (
	"fmt"

	"giftnest/internal/config"
)

// NewStoreFromConfig creates a store based on the database config type.
// Memory stores get the schema applied immediately; file-backed stores
// are migrated by the caller.
func NewStoreFromConfig(cfg config.DatabaseConfig) (*SQLiteStore, error) {
	switch cfg.Type {
	case "sqlite":
		if cfg.Path == "" {
			return nil, fmt.Errorf("path required for sqlite database")
		}
		return NewSQLiteStore(cfg.Path)
	case "memory":
		store, err := NewSQLiteStore(":memory:")
		if err != nil {
			return nil, err
		}
		if _, err := store.DB().Exec(Schema); err != nil {
			store.Close()
			return nil, fmt.Errorf("applying schema: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown database type: %s", cfg.Type)
	}
}
