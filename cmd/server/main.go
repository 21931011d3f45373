// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"

	"github.com/bstee615/go-sushi/internal/auth"
	"github.com/bstee615/go-sushi/internal/cache"
	"github.com/bstee615/go-sushi/internal/config"
	"github.com/bstee615/go-sushi/internal/handlers"
)

func main() {
	configPath := flag.String("config", os.Getenv("SUSHI_CONFIG"), "path to a YAML config file")
	flag.Parse()

	logger := logrus.New()
	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("config: %v", err)
	}
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logger.Fatalf("config: %v", err)
	}
	logger.SetLevel(level)
	// Sessions log through the package-level logger.
	logrus.SetLevel(level)

	ttl, err := auth.ParseTokenExpireTime(cfg.Auth.TokenExpire)
	if err != nil {
		logger.Fatalf("auth: %v", err)
	}
	if cfg.Auth.PrivateKeyPath != "" {
		err = auth.InitFromPath(cfg.Auth.PrivateKeyPath, cfg.Auth.PublicKeyPath, ttl)
	} else {
		logger.Warn("no signing key configured; tokens will not survive a restart")
		err = auth.Init(ttl)
	}
	if err != nil {
		logger.Fatalf("auth: %v", err)
	}

	if cfg.Redis.Addr != "" {
		cache.QueueName = cfg.Redis.Queue
		if err := cache.ConnectRedis(cfg.Redis.Addr, cfg.Redis.DB); err != nil {
			logger.Warnf("action log disabled: %v", err)
		} else {
			logger.Infof("publishing actions to %s on %s", cfg.Redis.Queue, cfg.Redis.Addr)
			defer cache.Rdb.Close()
		}
	}

	gs := handlers.NewGameServer(cfg.Game, logger)
	gs.AllowedOrigins = cfg.Server.AllowedOrigins
	gs.SendBuffer = cfg.Server.SendBuffer

	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           gs.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Infof("Running on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("server exited: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	gs.Shutdown()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("shutdown: %v", err)
	}
}
