package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"studiosim/internal/config"
	"studiosim/internal/store"
	"studiosim/internal/worker"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadWorkerFromEnv()
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	st, err := store.Open(ctx, cfg.Store.Options())
	if err != nil {
		logger.Error("open store failed", "kind", cfg.Store.Kind, "err", err)
		os.Exit(1)
	}
	defer st.Close()

	autoplay := worker.NewAutoplay(st, cfg.Game.Seed, logger)

	if cfg.RunOnce {
		n, err := autoplay.RunOnce(ctx)
		if err != nil {
			logger.Error("autoplay pass failed", "advanced", n, "err", err)
			os.Exit(1)
		}
		logger.Info("worker run-once completed", "advanced", n)
		return
	}

	ticker := time.NewTicker(cfg.TickEvery)
	defer ticker.Stop()

	logger.Info("worker started", "tick_every", cfg.TickEvery.String(), "store", cfg.Store.Kind)
	for {
		select {
		case <-ctx.Done():
			logger.Info("worker shutdown")
			return
		case <-ticker.C:
			n, err := autoplay.RunOnce(ctx)
			if err != nil {
				logger.Error("autoplay pass failed", "advanced", n, "err", err)
				continue
			}
			logger.Info("autoplay pass complete", "advanced", n)
		}
	}
}
