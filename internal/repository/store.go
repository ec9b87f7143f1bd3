package repository

import (
	"context"
	"fmt"
	"log"

	"wanderlust/internal/config"
	"wanderlust/internal/db"
)

// Open connects the backend selected by cfg.StoreDriver and prepares its
// schema or indexes.
func Open(ctx context.Context, cfg *config.Config) (*Store, error) {
	switch cfg.StoreDriver {
	case config.DriverMongo:
		client, err := db.NewMongoClient(ctx, cfg.MongoURI)
		if err != nil {
			return nil, err
		}
		store, err := NewMongoStore(client.Database(cfg.MongoDB), cfg.MongoTransactions)
		if err != nil {
			_ = client.Disconnect(ctx)
			return nil, err
		}
		if err := EnsureMongoIndexes(ctx, client.Database(cfg.MongoDB)); err != nil {
			_ = client.Disconnect(ctx)
			return nil, err
		}
		store.close = client.Disconnect
		if !cfg.MongoTransactions {
			log.Println("[store] mongo transactions disabled, multi-document writes run sequentially")
		}
		return store, nil

	case config.DriverPostgres:
		pg, err := db.NewPostgresDB(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := EnsurePostgresSchema(ctx, pg); err != nil {
			pg.Close()
			return nil, err
		}
		store := NewPostgresStore(pg)
		store.close = func(context.Context) error { return pg.Close() }
		return store, nil

	case config.DriverMemory:
		return NewMemoryStore(), nil
	}
	return nil, fmt.Errorf("repository: unknown store driver %q", cfg.StoreDriver)
}
