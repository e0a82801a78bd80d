package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"reelsmith/internal/config"
	"reelsmith/internal/daemon"
	"reelsmith/internal/library"
	"reelsmith/internal/logging"
	"reelsmith/internal/notifications"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load("")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	store, err := library.Open(cfg)
	if err != nil {
		logger.Error("open render library", logging.Error(err))
		return
	}

	registry, err := buildRegistry(cfg, logger)
	if err != nil {
		logger.Error("build stage registry", logging.Error(err))
		_ = store.Close()
		return
	}

	d, err := daemon.New(cfg, store, registry, notifications.NewService(cfg), logger)
	if err != nil {
		logger.Error("create daemon", logging.Error(err))
		_ = store.Close()
		return
	}
	defer d.Close()

	if err := d.Start(ctx); err != nil {
		logger.Error("daemon start", logging.Error(err))
		return
	}

	<-ctx.Done()
	logger.Info("reelsmithd shutting down")
}
