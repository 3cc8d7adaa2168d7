// Command gigsnapd runs the background media-analysis daemon: it polls the
// library for pending uploads and drives each through metadata extraction,
// vision analysis, and concert matching.
package main

import (
	"context"
	"log"
	"os/signal"
	"path/filepath"
	"syscall"

	"gigsnap/internal/config"
	"gigsnap/internal/daemon"
	"gigsnap/internal/library"
	"gigsnap/internal/logging"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load("")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := logging.New(logging.Options{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		OutputPaths: []string{"stdout", filepath.Join(cfg.Paths.LogDir, "gigsnapd.log")},
	})
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	store, err := library.Open(cfg.DatabasePath())
	if err != nil {
		logger.Error("open library store", logging.Error(err))
		return
	}
	defer store.Close()

	d, err := daemon.New(ctx, cfg, store, logger)
	if err != nil {
		logger.Error("create daemon", logging.Error(err))
		return
	}
	if err := d.Start(ctx); err != nil {
		logger.Error("start daemon", logging.Error(err))
		return
	}

	<-ctx.Done()
	logger.Info("gigsnapd shutting down")
	d.Stop()
}
