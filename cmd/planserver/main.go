// Package main provides the planning service binary that serves the
// allocation engine over gRPC with per-account preferences in PostgreSQL.
package main

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"log"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/cory-johannsen/stashplan/internal/config"
	"github.com/cory-johannsen/stashplan/internal/observability"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("loading .env: %v", err)
	}

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer func() { _ = observability.Sync(logger) }()

	logger.Info("starting planning server",
		zap.String("grpc_addr", cfg.Server.Addr()),
		zap.String("database", cfg.Database.Host),
	)

	a, cleanup, err := initializeApp(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("initializing planning server", zap.Error(err))
	}
	defer cleanup()

	logger.Info("planning server initialized",
		zap.Duration("startup", time.Since(start)),
		zap.Int("cache_size", cfg.Planner.CacheSize),
	)

	if err := a.run(ctx); err != nil {
		logger.Error("server error", zap.Error(err))
	}
}
