// Package main runs the LTV calculator HTTP and gRPC services.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/xtding233/ltv-backend/internal/config"
	"github.com/xtding233/ltv-backend/internal/server"
)

func main() {
	path := flag.String("config", "", "config file (yaml, toml or json)")
	flag.Parse()

	cfg, err := config.Load(*path)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger, closeLog := config.SetupLogger(cfg.LogFile, config.ParseLevel(cfg.LogLevel))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = server.Run(ctx, cfg, logger)
	stop()
	_ = closeLog()
	if err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
