// Package main is the entry point for the curation API server.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"econ-curator/internal/app"
	"econ-curator/internal/config"
	"econ-curator/internal/server"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	if err := config.LoadDotEnv(".env"); err != nil {
		return err
	}
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return err
	}

	var handler slog.Handler
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.IsProduction() {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	logger := slog.New(handler)
	for _, warning := range cfg.Warnings {
		logger.Warn(warning)
	}

	a, err := app.New(cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close() //nolint:errcheck

	return server.Run(context.Background(), a)
}
