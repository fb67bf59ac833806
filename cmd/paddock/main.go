package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/paddock-hq/paddock-news/internal/app"
	"github.com/paddock-hq/paddock-news/internal/config"
	"github.com/paddock-hq/paddock-news/internal/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "paddock-news start failed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.Init(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Close()

	logger.InfoObj("paddock-news starting", "config", cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	panel, err := app.New(ctx, cfg, log)
	if err != nil {
		logger.ErrorObj("failed to initialize news panel", "error", err.Error())
		return err
	}

	if err := panel.Run(ctx); err != nil {
		return fmt.Errorf("news panel run: %w", err)
	}
	return nil
}
