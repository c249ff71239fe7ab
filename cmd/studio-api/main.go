package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"studiosim/internal/api"
	"studiosim/internal/config"
	"studiosim/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadAPIFromEnv()
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	balance, err := cfg.Game.Balance()
	if err != nil {
		logger.Error("load balance failed", "err", err)
		os.Exit(1)
	}
	sink, err := store.Open(ctx, cfg.Store.Options())
	if err != nil {
		logger.Error("open store failed", "kind", cfg.Store.Kind, "err", err)
		os.Exit(1)
	}
	defer sink.Close()

	server := api.New(cfg, logger, sink, balance)
	go server.RunFeed(ctx)

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	logger.Info("studio api listening", "addr", cfg.Addr, "store", cfg.Store.Kind)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server failed", "err", err)
		os.Exit(1)
	}
}
