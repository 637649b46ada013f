package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dgallion1/stepdoc/internal/api"
	"github.com/dgallion1/stepdoc/internal/config"
	"github.com/dgallion1/stepdoc/internal/parser"
	"github.com/dgallion1/stepdoc/internal/pipeline"
)

func main() {
	cfg := config.Load()
	log := newLogger(cfg.LogLevel, cfg.LogFormat)

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	project, err := cfg.Project()
	if err != nil {
		log.Error("invalid project", "file", cfg.ProjectFile, "error", err)
		os.Exit(1)
	}
	parser.PDFFallback = cfg.PDFFallbackPdftotext

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	orch := pipeline.NewOrchestrator(cfg, project, log)

	// Initial build so the API has a site to serve.
	b := orch.BuildNow(ctx, "startup")
	snap := b.Snapshot()
	log.Info("initial build finished",
		"build_id", snap.ID,
		"status", snap.Status,
		"modules", snap.Progress.ModulesFound,
		"pages", snap.Progress.PagesWritten,
		"errors", len(snap.Progress.Errors),
	)
	if cfg.BuildOnly {
		if snap.Status == pipeline.StatusFailed || snap.Status == pipeline.StatusPartial {
			os.Exit(1)
		}
		return
	}

	orch.Start(ctx)

	srv := api.NewServer(orch, log, cfg, project.OutputDir)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		// Stop accepting build triggers before the queue closes.
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		orch.Stop()
	}()

	log.Info("starting stepdoc", "port", cfg.Port, "output_dir", project.OutputDir)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}

func newLogger(level, format string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if format == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}
