package main

import (
	"flag"
	"log"

	"go.uber.org/zap"

	"github.com/noah-isme/siapptn-tryout-api/pkg/config"
	"github.com/noah-isme/siapptn-tryout-api/pkg/database"
	"github.com/noah-isme/siapptn-tryout-api/pkg/logger"
)

func main() {
	down := flag.Int("down", 0, "number of migrations to roll back instead of applying pending ones")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if *down > 0 {
		if err := database.Rollback(cfg.Database, *down, logr); err != nil {
			logr.Fatal("rollback failed", zap.Error(err))
		}
		return
	}
	if err := database.Migrate(cfg.Database, logr); err != nil {
		logr.Fatal("migration failed", zap.Error(err))
	}
}
