package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"yapisite/internal/platform/config"
	"yapisite/internal/platform/httpserver"
	"yapisite/internal/platform/logger"
	"yapisite/internal/platform/tracing"
)

// main loads configuration, wires the site and runs the HTTP server until
// SIGINT or SIGTERM. Wiring lives in wiring.go.
func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogFormat, cfg.LogLevel)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

func run(ctx context.Context, cfg config.Server, log *slog.Logger) error {
	shutdownTracing, err := tracing.Setup(ctx, cfg.Tracing)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			log.Warn("tracing shutdown failed", "error", err)
		}
	}()

	app, err := buildApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer app.Close()

	srv := httpserver.New(cfg.Addr, app.Handler)
	return httpserver.Run(ctx, srv, cfg.ShutdownTimeout, log)
}
