// The videos server receives daily video lists on POST /dailyvids, records
// them in videos.json, and downloads pending entries one at a time.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/term"

	"videos-midjourney/config"
	"videos-midjourney/fetch"
	"videos-midjourney/logging"
	"videos-midjourney/server"
	"videos-midjourney/store"
	"videos-midjourney/tui"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	// The monitor owns the terminal, so console logging stays off while
	// it is available.
	useMonitor := cfg.Monitor && term.IsTerminal(int(os.Stdout.Fd()))

	logger, closeLogs, err := logging.New(cfg.LogDir, !useMonitor)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error setting up logging: %v\n", err)
		os.Exit(1)
	}
	defer closeLogs()

	if err := logging.CompressOld(cfg.LogDir); err != nil {
		logger.Warn("could not compress old logs", zap.Error(err))
	}

	st, err := store.Open(cfg.VideosFile)
	if err != nil {
		logger.Error("could not open videos database", zap.String("path", cfg.VideosFile), zap.Error(err))
		closeLogs()
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fetcher := fetch.New(st, cfg, logger)

	handler := server.NewHandler(ctx, st, fetcher, logger)
	manager := server.NewManager(handler, cfg.ListenAddr, logger)
	if err := manager.Start(); err != nil {
		logger.Error("could not start HTTP server", zap.String("addr", cfg.ListenAddr), zap.Error(err))
		closeLogs()
		os.Exit(1)
	}
	logger.Info("listening", zap.String("addr", manager.Addr()))

	// Anything left pending by a previous run is picked up immediately.
	fetcher.Trigger(ctx)

	if useMonitor {
		if err := tui.Run(st, fetcher.Events()); err != nil {
			logger.Error("monitor error", zap.Error(err))
		}
		// Closing the monitor drops back to headless operation.
	}

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-manager.Err():
		logger.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := manager.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", zap.Error(err))
	}
}
