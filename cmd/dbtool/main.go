package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"transport-request-service/internal/adapters/repositories"
	"transport-request-service/internal/config"
	"transport-request-service/internal/platform/db"
	"transport-request-service/internal/platform/obs"
)

// dbtool applies migrations and optionally seeds demo data.
func main() {
	seed := flag.Bool("seed", true, "seed demo data after migrating")
	flag.Parse()

	foundDotEnv := config.LoadDotEnv()

	logger, err := obs.NewLogger(config.Get("LOG_LEVEL", "info"))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()

	if !foundDotEnv {
		logger.Info("no .env file found (using environment variables)")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	pg, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("open database", zap.Error(err))
	}
	defer pg.Close()

	logger.Info("migrating database schema")
	if err := repositories.Migrate(pg); err != nil {
		logger.Fatal("schema migration failed", zap.Error(err))
	}
	logger.Info("schema ready")

	if !*seed {
		return
	}

	logger.Info("seeding database", zap.String("seed_path", cfg.SeedPath))
	if err := repositories.SeedFromJSON(context.Background(), pg, cfg.SeedPath); err != nil {
		logger.Fatal("seeding failed", zap.Error(err))
	}
	logger.Info("seeding complete")
}
