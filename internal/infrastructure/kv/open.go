package kv

import (
	"context"
	"fmt"

	"github.com/loanportal/portal-client/internal/core/ports"
	"github.com/loanportal/portal-client/internal/infrastructure/config"
	mongodb "github.com/loanportal/portal-client/internal/infrastructure/db/mongo"
	redisdb "github.com/loanportal/portal-client/internal/infrastructure/db/redis"
)

// Open builds the backend selected by cfg.Storage.Backend, wrapped in a
// SealedStore when a vault key is configured. The returned close function
// releases any connection and is never nil.
func Open(ctx context.Context, cfg *config.Config) (ports.KeyValueStore, func() error, error) {
	var (
		store   ports.KeyValueStore
		closeFn = func() error { return nil }
	)

	switch cfg.Storage.Backend {
	case config.StorageMemory:
		store = NewMemoryStore()

	case config.StorageFile:
		path := cfg.Storage.File
		if path == "" {
			p, err := DefaultFilePath()
			if err != nil {
				return nil, nil, err
			}
			path = p
		}
		store = NewFileStore(path)

	case config.StorageRedis:
		client, err := redisdb.Connect(ctx, redisConfig(cfg))
		if err != nil {
			return nil, nil, err
		}
		store = NewRedisStore(client, cfg.Redis.Prefix)
		closeFn = client.Close

	case config.StorageMongo:
		db, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return nil, nil, err
		}
		store = NewMongoStore(db)
		closeFn = func() error { return mongodb.Disconnect(db) }

	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}

	if cfg.Storage.VaultKey != "" {
		sealed, err := NewSealedStore(store, cfg.Storage.VaultKey)
		if err != nil {
			_ = closeFn()
			return nil, nil, err
		}
		store = sealed
	}
	return store, closeFn, nil
}

func redisConfig(cfg *config.Config) redisdb.Config {
	return redisdb.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}
}
