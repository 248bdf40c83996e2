package main

import (
	"context"
	"log"

	"github.com/pom-bolt/pombolt-backend/config"
	"github.com/pom-bolt/pombolt-backend/internal/bootstrap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	stores, err := bootstrap.OpenStores(context.Background(), cfg)
	if err != nil {
		log.Fatalf("open stores: %v", err)
	}
	defer stores.Close()

	r := bootstrap.BuildRouter(bootstrap.RouterDeps{
		ServiceName: "pombolt-backend",
		Cfg:         cfg,
		Store:       stores.Remote,
	})

	log.Printf("listening on :%s", cfg.Server.Port)
	if err := r.Run(":" + cfg.Server.Port); err != nil {
		log.Fatalf("server: %v", err)
	}
}
