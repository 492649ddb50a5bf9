// Command autolibd runs the audiobook ingestion daemon.
package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"path/filepath"
	"syscall"

	"autolib/internal/config"
	"autolib/internal/daemon"
	"autolib/internal/history"
	"autolib/internal/librarian"
	"autolib/internal/logging"
	"autolib/internal/workqueue"
)

func main() {
	configPath := flag.String("config", "", "configuration file path")
	dryRun := flag.Bool("dry-run", false, "log organization actions without touching the library")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if *dryRun {
		cfg.DryRun = true
	}
	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatalf("prepare directories: %v", err)
	}

	logger, err := logging.New(logging.Options{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		OutputPaths: []string{"stdout", filepath.Join(cfg.Paths.LogDir, "autolibd.log")},
	})
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	store, err := history.Open(cfg)
	if err != nil {
		logger.Error("open history store", logging.Error(err))
		return
	}

	queue := workqueue.NewManager(store, logger)
	lib, err := librarian.New(cfg, logger, librarian.Deps{Store: store, Queue: queue})
	if err != nil {
		logger.Error("create librarian", logging.Error(err))
		return
	}

	d, err := daemon.New(cfg, logger, store, lib)
	if err != nil {
		logger.Error("create daemon", logging.Error(err))
		return
	}
	defer d.Close()

	if err := d.Start(ctx); err != nil {
		logger.Error("start daemon", logging.Error(err))
		return
	}

	<-ctx.Done()
	logger.Info("autolibd shutting down")
}
