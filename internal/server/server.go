// Package server runs the HTTP API with graceful shutdown, shared by the
// server binary and the CLI serve command.
package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"econ-curator/internal/app"
)

const shutdownGrace = 10 * time.Second

// Run serves the API until the context is cancelled or a termination
// signal arrives. The refresh scheduler runs for the server's lifetime.
func Run(ctx context.Context, a *app.App) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a.Scheduler.Start()
	defer a.Scheduler.Stop()

	srv := &http.Server{
		Addr:              a.Cfg.ListenAddr,
		Handler:           a.Handler.Router(a.Cfg.CORSAllowedOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info("http api listening", "addr", a.Cfg.ListenAddr, "env", a.Cfg.Env)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.Logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return nil
}
