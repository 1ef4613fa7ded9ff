package config

import (
	"context"
	"fmt"

	"taskbank/app/store"
)

// OpenStore connects the configured task store.
func OpenStore(ctx context.Context, cfg StoreConfig) (store.Store, error) {
	switch cfg.Driver {
	case DriverNeo4j:
		driver, err := InitNeo4j(cfg.Neo4j)
		if err != nil {
			return nil, fmt.Errorf("config: neo4j driver: %w", err)
		}
		if err := driver.VerifyConnectivity(ctx); err != nil {
			driver.Close(ctx)
			return nil, fmt.Errorf("config: neo4j connectivity: %w", err)
		}
		s := store.NewNeo4jStore(driver, cfg.Neo4j.Database)
		if err := s.EnsureSchema(ctx); err != nil {
			s.Close(ctx)
			return nil, err
		}
		return s, nil
	case DriverSQLite:
		return store.NewSQLiteStore(cfg.SQLite.Path)
	case DriverMemory:
		return store.NewMemoryStore(), nil
	}
	return nil, fmt.Errorf("config: unknown store driver %q", cfg.Driver)
}
