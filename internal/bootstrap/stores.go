package bootstrap

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pom-bolt/pombolt-backend/config"
	"github.com/pom-bolt/pombolt-backend/internal/storage"
)

// Stores holds every backing store the process constructed at startup. All
// components receive these by injection; there is no global lookup.
type Stores struct {
	// Remote is the fallback-wrapped primary store used by the API.
	Remote *storage.Fallback
	// Memory is the process-scoped fallback map shared by Remote.
	Memory *storage.MemoryStore
	// Redis is the cache-tier store.
	Redis *storage.RedisStore
	// Postgres is the durable relational tier; nil when DB_DSN is unset.
	Postgres *storage.PostgresStore
}

// OpenStores builds the storage stack. Redis connectivity is probed but a
// failed probe is not fatal: the fallback wrapper degrades to the memory
// store on the first failing operation.
func OpenStores(ctx context.Context, cfg *config.Config) (*Stores, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Printf("[warn] operation=bootstrap message=redis unreachable at startup, operations will degrade to memory error=%v", err)
	}

	stores := &Stores{
		Memory: storage.NewMemoryStore(),
		Redis:  storage.NewRedisStore(client),
	}
	stores.Remote = storage.NewFallback(stores.Redis, stores.Memory)

	if cfg.Database.DSN != "" {
		pg, err := storage.OpenPostgres(ctx, cfg.Database.DSN)
		if err != nil {
			return nil, err
		}
		stores.Postgres = pg
	}

	return stores, nil
}

// Close releases store connections.
func (s *Stores) Close() {
	if s.Redis != nil {
		s.Redis.Close()
	}
	if s.Postgres != nil {
		s.Postgres.Close()
	}
}
