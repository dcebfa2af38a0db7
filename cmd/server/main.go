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

	"github.com/dgallion1/reportforge/internal/api"
	"github.com/dgallion1/reportforge/internal/config"
	"github.com/dgallion1/reportforge/internal/layout"
	"github.com/dgallion1/reportforge/internal/pipeline"
	"github.com/dgallion1/reportforge/internal/store"
)

func main() {
	cfg := config.Load()
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel(cfg.LogLevel)}))

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		log.Error("create output dir", "dir", cfg.OutputDir, "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Pick the artifact backend. Remote and bundle-directory sources are
	// fetch-only, so the artifact admin endpoints stay disabled for them.
	var (
		src   store.Source
		admin api.ArtifactAdmin
	)
	switch cfg.Store {
	case config.StoreSQLite:
		db, err := store.OpenSQLite(cfg.DBPath)
		if err != nil {
			log.Error("open artifact db", "path", cfg.DBPath, "error", err)
			os.Exit(1)
		}
		defer db.Close()
		src, admin = db, db
		log.Info("using sqlite artifact store", "path", cfg.DBPath)
	case config.StoreDir:
		dir, err := store.OpenDir(cfg.ArtifactDir)
		if err != nil {
			log.Error("open artifact bundle", "dir", cfg.ArtifactDir, "error", err)
			os.Exit(1)
		}
		src = dir
		log.Info("using artifact bundle directory", "dir", cfg.ArtifactDir)
	case config.StoreRemote:
		remote := store.NewRemote(cfg.AssetURL, cfg.AssetToken, cfg.AssetTimeout)
		defer remote.Close()
		src = remote
		log.Info("using remote artifact source", "url", cfg.AssetURL)
	default:
		mem := store.NewMemory()
		src, admin = mem, mem
		log.Info("using in-memory artifact store")
	}

	layouts, err := layout.LoadDir(cfg.LayoutDir)
	if err != nil {
		log.Error("load layouts", "dir", cfg.LayoutDir, "error", err)
		os.Exit(1)
	}
	if len(layouts) > 0 {
		log.Info("loaded layouts", "dir", cfg.LayoutDir, "count", len(layouts))
	}

	// Initialize pipeline.
	orch := pipeline.NewOrchestrator(cfg, src, log)
	orch.Start(ctx)

	// Initialize HTTP server.
	srv := api.NewServer(orch, admin, layouts, log, cfg)

	httpServer := &http.Server{
		Addr:         cfg.Addr,
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

		orch.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	log.Info("starting reportforge", "addr", cfg.Addr, "store", cfg.Store)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}

func logLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
