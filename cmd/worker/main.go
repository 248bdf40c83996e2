package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"

	"github.com/pom-bolt/pombolt-backend/config"
	"github.com/pom-bolt/pombolt-backend/internal/bootstrap"
	"github.com/pom-bolt/pombolt-backend/internal/projects/repository"
	"github.com/pom-bolt/pombolt-backend/internal/projects/service"
	syncsvc "github.com/pom-bolt/pombolt-backend/internal/sync"
)

// The worker periodically reconciles the redis cache tier against the durable
// postgres tier. Overlapping ticks are a no-op: the sync service's in-flight
// flag rejects the second batch.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if cfg.Database.DSN == "" {
		log.Fatal("DB_DSN is required for the sync worker")
	}

	ctx := context.Background()
	stores, err := bootstrap.OpenStores(ctx, cfg)
	if err != nil {
		log.Fatalf("open stores: %v", err)
	}
	defer stores.Close()

	cacheTier := service.NewProjectService(repository.NewProjectRepository(stores.Redis))
	durableTier := service.NewProjectService(repository.NewProjectRepository(stores.Postgres))
	sync := syncsvc.NewService(durableTier)

	runSync := func() {
		result, err := sync.SyncFromStore(ctx, cacheTier)
		if errors.Is(err, syncsvc.ErrSyncInFlight) {
			log.Println("[info] operation=sync message=previous batch still running, skipping tick")
			return
		}
		if err != nil {
			log.Printf("[error] operation=sync error=%v", err)
			return
		}
		// Pulled projects flow back into the cache tier so both sides
		// converge.
		for i := range result.Pulled {
			if err := cacheTier.Save(ctx, &result.Pulled[i]); err != nil {
				log.Printf("[warn] operation=sync project_id=%s message=pull-back failed error=%v", result.Pulled[i].ID, err)
			}
		}
	}

	c := cron.New()
	if _, err := c.AddFunc(fmt.Sprintf("@every %s", cfg.Sync.Interval), runSync); err != nil {
		log.Fatalf("schedule sync: %v", err)
	}

	log.Printf("sync worker started (every %s)", cfg.Sync.Interval)
	c.Start()
	runSync()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	<-c.Stop().Done()
	log.Println("sync worker stopped")
}
