package main

import (
	"context"
	"log"

	"voice-ordering-be/internal/bootstrap"
	"voice-ordering-be/internal/config"
	"voice-ordering-be/internal/server"
	"voice-ordering-be/internal/tracer"
	"voice-ordering-be/pkg/database"
)

func main() {
	shutdownTracer := tracer.InitTracer()
	defer shutdownTracer(context.Background())

	// 1. Load Configuration
	cfg := config.Load()

	// 2. Initialize Database
	gormDB, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Panicf("Unable to connect to GORM DB: %v", err)
	}

	// 3. Bootstrap Dependencies (Container)
	container := bootstrap.NewContainer(gormDB, cfg)

	// 4. Queue embeddings for any items that still lack one
	go func() {
		if err := container.IndexerService.ReindexMissing(context.Background(), container.PublisherService); err != nil {
			log.Printf("Background: Reindex error: %v", err)
		}
	}()

	// 5. Initialize and run Server
	srv := server.New(cfg, container)
	log.Fatal(srv.Run())
}
