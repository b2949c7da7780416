package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"clipchimp/internal/config"
	"clipchimp/internal/events"
	"clipchimp/internal/library"
	"clipchimp/internal/logging"
	"clipchimp/internal/server"
	"clipchimp/internal/worker"
)

var version = "dev"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load(os.Getenv("CLIPCHIMP_CONFIG"))
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	applyEnvOverrides(cfg)

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	logger = logging.WithComponent(logger, "clipchimpd")

	store, err := library.Open(cfg)
	if err != nil {
		logger.Error("open library store", logging.Error(err))
		os.Exit(1)
	}
	defer store.Close()

	// Roll interrupted videos back one stage so the worker reruns them.
	if reset, err := store.ResetStuckProcessing(ctx); err != nil {
		logger.Warn("reset stuck videos", logging.Error(err))
	} else if reset > 0 {
		logger.Info("reset stuck videos", logging.Int64("count", reset))
	}

	hub := events.NewHub(0)
	defer hub.Close()

	stages := buildStages(cfg, hub, logger)
	manager, err := worker.NewManager(store, hub, logger, worker.Options{
		PollInterval:       time.Duration(cfg.Workflow.PollInterval) * time.Second,
		ErrorRetryInterval: time.Duration(cfg.Workflow.ErrorRetryInterval) * time.Second,
	}, stages)
	if err != nil {
		logger.Error("create worker", logging.Error(err))
		os.Exit(1)
	}
	if err := manager.Start(ctx); err != nil {
		logger.Error("start worker", logging.Error(err))
		os.Exit(1)
	}
	defer manager.Stop()

	srv, err := server.New(server.Options{
		Host:    cfg.Server.Host,
		Port:    cfg.Server.BasePort,
		Version: version,
	}, store, hub, manager, logger)
	if err != nil {
		logger.Error("create api server", logging.Error(err))
		os.Exit(1)
	}
	if err := srv.Start(ctx); err != nil {
		logger.Error("start api server", logging.Error(err))
		os.Exit(1)
	}
	defer srv.Stop()

	<-ctx.Done()
	logger.Info("clipchimpd shutting down")
}

// applyEnvOverrides lets the supervisor dictate where the companion binds.
func applyEnvOverrides(cfg *config.Config) {
	if host := os.Getenv("CLIPCHIMP_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if portStr := os.Getenv("CLIPCHIMP_PORT"); portStr != "" {
		if port, err := strconv.Atoi(portStr); err == nil && port > 0 && port <= 65535 {
			cfg.Server.BasePort = port
		}
	}
}
