package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"github.com/deylin/studio/internal/api"
	"github.com/deylin/studio/internal/auth"
	"github.com/deylin/studio/internal/config"
	"github.com/deylin/studio/internal/engine"
	"github.com/deylin/studio/internal/manip"
	mw "github.com/deylin/studio/internal/middleware"
	"github.com/deylin/studio/internal/raster"
	"github.com/deylin/studio/internal/session"
	"github.com/deylin/studio/internal/snapshotstore"
	"github.com/deylin/studio/internal/style"
)

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})))

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	level, _ := cfg.Level()
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})))

	aspect, err := engine.ParseAspect(cfg.ExportAspect)
	if err != nil {
		slog.Error("parse aspect", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	resolver := style.NewResolver()
	if cfg.StyleTables != "" {
		// Bad entries are skipped; the built-in tables stay usable.
		if err := resolver.LoadFile(cfg.StyleTables); err != nil {
			slog.Warn("style tables loaded with errors", "path", cfg.StyleTables, "error", err)
		}
	}

	store, err := snapshotstore.Open(ctx, cfg.SnapshotDSN, cfg.SnapshotKeep)
	if err != nil {
		slog.Error("open snapshot store", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	rasterizer := raster.New()
	sessions := session.NewManager(session.Options{
		Store: store,
		NewEngine: func() *engine.Engine {
			return engine.New(engine.Options{
				Aspect:       aspect,
				HistoryLimit: cfg.HistoryLimit,
				Manip:        manip.Options{Window: cfg.CoalesceWindow, Clamp: cfg.DragClamp},
				Resolver:     resolver,
				Export: engine.ExportOptions{
					Rasterizer: rasterizer,
					Settle:     cfg.ExportSettle,
					PixelRatio: cfg.ExportPixelRatio,
				},
			})
		},
		IdleTimeout: cfg.IdleTimeout,
	})

	scheduler, err := sessions.Schedule(ctx, cfg.AutosaveSchedule, cfg.SweepSchedule)
	if err != nil {
		slog.Error("schedule autosave", "error", err)
		os.Exit(1)
	}
	scheduler.Start()

	origins := mw.SplitOrigins(cfg.AllowedOrigins)
	handler := api.NewHandler(api.Options{
		Sessions:       sessions,
		Auth:           auth.NewService(cfg.SessionSecret, auth.DefaultTTL),
		Resolver:       resolver,
		MaxUploadBytes: cfg.MaxUploadBytes,
		OriginPatterns: originHosts(origins),
	})

	r := mux.NewRouter()

	// Global middleware
	r.Use(mw.Recovery)
	r.Use(mw.Logger)
	r.Use(mw.CORS(origins))

	handler.Register(r)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down server")
		<-scheduler.Stop().Done()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		srv.Shutdown(shutdownCtx)

		slog.Info("saving all sessions...")
		if err := sessions.Close(shutdownCtx); err != nil {
			slog.Error("final save", "error", err)
		}
		cancel()
	}()

	slog.Info("server starting", "addr", addr, "aspect", aspect, "snapshots", redactDSN(cfg.SnapshotDSN))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
	<-ctx.Done()
}

// originHosts turns allowed origins into websocket origin patterns.
func originHosts(origins []string) []string {
	out := make([]string, 0, len(origins))
	for _, o := range origins {
		if u, err := url.Parse(o); err == nil && u.Host != "" {
			out = append(out, u.Host)
			continue
		}
		out = append(out, o)
	}
	return out
}

func redactDSN(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil || u.User == nil {
		return dsn
	}
	return u.Redacted()
}
