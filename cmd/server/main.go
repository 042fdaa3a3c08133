// Command server runs the notekeep HTTP API.
//
// Configuration comes from the environment (and an optional .env file); see
// internal/config for the variables. SIGINT or SIGTERM triggers a graceful
// shutdown.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/sakif/notekeep/internal/config"
	"github.com/sakif/notekeep/internal/logger"
	"github.com/sakif/notekeep/internal/server"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, err := logger.New(os.Stdout, cfg.Log.Level, cfg.Log.Pretty)
	if err != nil {
		return err
	}
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv, err := server.New(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	// Start blocks until ctx is cancelled by a signal.
	return srv.Start(ctx)
}
