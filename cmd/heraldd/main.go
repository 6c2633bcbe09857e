// Package main is the entry point for the heraldd playback consumer.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/herald-notify/herald/internal/audio"
	"github.com/herald-notify/herald/internal/audit"
	"github.com/herald-notify/herald/internal/config"
	"github.com/herald-notify/herald/internal/provider"
	"github.com/herald-notify/herald/internal/queue"
)

var (
	// Build-time variables
	version = "dev"
)

func main() {
	verbose := flag.Bool("verbose", false, "Enable verbose logging")
	configPath := flag.String("config", "", "Path to config file (default: ~/.config/herald/config.toml)")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		println("heraldd version", version)
		os.Exit(0)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	level := audit.ParseLevel(cfg.Log.Level)
	if *verbose {
		level = slog.LevelDebug
	}
	logger, closeLog := audit.NewLogger(level, config.EventLogPath())
	slog.SetDefault(logger)
	defer closeLog()

	if err := config.EnsureStateDir(); err != nil {
		logger.Error("failed to create state directory", "error", err)
		os.Exit(1)
	}

	// Exactly one consumer per spool. Losing the race to another
	// heraldd is the normal outcome of concurrent producer spawns,
	// not an error worth a nonzero exit.
	lock, err := queue.AcquireLock(config.LockPath())
	if err != nil {
		if errors.Is(err, queue.ErrLockHeld) {
			logger.Debug("consumer already running, exiting")
			return
		}
		logger.Error("failed to acquire consumer lock", "error", err)
		os.Exit(1)
	}
	defer func() { _ = lock.Release() }()

	logger.Info("starting heraldd", "version", version, "pid", os.Getpid())

	spool, err := queue.NewSpool(config.QueuePath(), logger)
	if err != nil {
		logger.Error("failed to open spool", "error", err)
		os.Exit(1)
	}

	player := audio.NewPlayer(logger)
	defer player.Close()

	registry, err := provider.NewRegistry(cfg, player)
	if err != nil {
		logger.Error("failed to build provider chain", "error", err)
		os.Exit(1)
	}

	available := make([]string, 0, len(registry.All()))
	for _, p := range registry.Available() {
		available = append(available, p.Name())
	}
	logger.Info("provider chain ready",
		"configured", len(registry.All()), "available", available)

	chain := provider.NewChain(registry, cfg.ProviderTimeout(), logger)
	consumer := queue.NewConsumer(spool, chain, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received signal, shutting down", "signal", sig)
		cancel()
	}()

	if err := consumer.Run(ctx); err != nil {
		logger.Error("consumer failed", "error", err)
		os.Exit(1)
	}

	logger.Info("heraldd stopped")
}
