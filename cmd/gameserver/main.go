// Package main provides the skill server binary: it loads skill content,
// connects to PostgreSQL and serves the skill service over gRPC.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/skillcast/internal/config"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	a, cleanup, err := initializeApp(ctx, cfg)
	if err != nil {
		log.Fatalf("initializing server: %v", err)
	}
	defer cleanup()

	a.logger.Info("skill server initialized",
		zap.Duration("startup", time.Since(start)),
		zap.String("grpc_addr", cfg.GameServer.Addr()),
		zap.Int("skills", a.defs.Len()),
	)

	if err := a.lifecycle.Run(ctx); err != nil {
		a.logger.Error("server error", zap.Error(err))
		cleanup()
		log.Fatal(err)
	}
}
