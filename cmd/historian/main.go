// cmd/historian/main.go drains the action queue into PostgreSQL.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"

	"github.com/bstee615/go-sushi/internal/cache"
	"github.com/bstee615/go-sushi/internal/config"
	"github.com/bstee615/go-sushi/internal/database"
	"github.com/bstee615/go-sushi/internal/historian"
)

func main() {
	configPath := flag.String("config", os.Getenv("SUSHI_CONFIG"), "path to a YAML config file")
	flag.Parse()

	logger := logrus.New()
	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("config: %v", err)
	}
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	}
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = "localhost:6379"
	}
	if cfg.Database.URL == "" {
		logger.Fatal("DATABASE_URL is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cache.ConnectRedis(cfg.Redis.Addr, cfg.Redis.DB); err != nil {
		logger.Fatalf("redis: %v", err)
	}
	defer cache.Rdb.Close()

	if err := database.ConnectDB(ctx, cfg.Database.URL); err != nil {
		logger.Fatalf("database: %v", err)
	}
	defer database.DB.Close()
	if err := database.EnsureSchema(ctx, database.DB); err != nil {
		logger.Fatalf("schema: %v", err)
	}

	svc := historian.NewService(cache.Rdb, &database.ActionWriter{Pool: database.DB}, historian.Options{
		Queue:         cfg.Redis.Queue,
		BatchSize:     cfg.Historian.BatchSize,
		FlushInterval: cfg.Historian.FlushIntervalDuration(),
		Inactivity:    cfg.Historian.InactivityDuration(),
	}, logger)

	if err := svc.Run(ctx); err != nil {
		logger.Errorf("historian stopped: %v", err)
		os.Exit(1)
	}
}
