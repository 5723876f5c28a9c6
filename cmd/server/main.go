package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/p-n-ai/pai-predict/internal/catalog"
	"github.com/p-n-ai/pai-predict/internal/documents"
	"github.com/p-n-ai/pai-predict/internal/platform/cache"
	"github.com/p-n-ai/pai-predict/internal/platform/config"
	"github.com/p-n-ai/pai-predict/internal/platform/database"
	"github.com/p-n-ai/pai-predict/internal/progress"
	"github.com/p-n-ai/pai-predict/internal/selection"
	"github.com/p-n-ai/pai-predict/internal/web"
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(newLogger(os.Stdout, cfg.Log))

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	// Graceful shutdown on SIGTERM/SIGINT.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		return err
	}

	var checkers []web.Checker

	var rdb *cache.Cache
	if cfg.NeedsRedis() {
		rdb, err = cache.Open(ctx, cfg.Cache.URL, cache.Options{})
		if err != nil {
			return fmt.Errorf("connecting to cache: %w", err)
		}
		defer rdb.Close()
		checkers = append(checkers, rdb)
	}

	var db *database.DB
	if cfg.NeedsDatabase() {
		db, err = database.Open(ctx, cfg.Database.URL, database.Options{
			MaxConns: cfg.Database.MaxConns,
			MinConns: cfg.Database.MinConns,
		})
		if err != nil {
			return fmt.Errorf("connecting to database: %w", err)
		}
		defer db.Close()
		stats := db.Stats()
		slog.Info("database connected", "max_conns", stats.Max, "open_conns", stats.Total)
		checkers = append(checkers, db)
	}

	source, err := newDocumentSource(ctx, cfg, cat, db, rdb)
	if err != nil {
		return err
	}

	srv, err := web.New(web.Config{
		Catalog:  cat,
		Store:    newSessionStore(cfg, rdb),
		Source:   source,
		Progress: progress.New(cfg.Progress.Interval, cfg.Progress.MaxStep, cfg.Progress.Settle),
		Checkers: checkers,
	})
	if err != nil {
		return err
	}

	httpSrv := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Handler:      srv.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting",
			"addr", httpSrv.Addr,
			"documents", cfg.Documents.Backend,
			"sessions", cfg.Session.Backend,
			"cache", cfg.Cache.Enabled,
		)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
	return nil
}

// newLogger builds the process logger from the log settings.
func newLogger(w io.Writer, cfg config.LogConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// newDocumentSource picks the configured document backend and puts the Redis
// cache in front of it when enabled.
func newDocumentSource(ctx context.Context, cfg *config.Config, cat *catalog.Catalog, db *database.DB, rdb *cache.Cache) (documents.Source, error) {
	var src documents.Source
	switch cfg.Documents.Backend {
	case "http":
		src = documents.NewHTTPSource(cfg.Documents.BaseURL)
	case "postgres":
		if db == nil {
			return nil, fmt.Errorf("postgres document backend needs a database")
		}
		pg := documents.NewPostgresSource(db.Pool)
		if err := pg.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		if cfg.Documents.SeedPath != "" {
			if err := pg.Seed(ctx, documents.NewDirSourceFromPath(cfg.Documents.SeedPath), cat.Documents()); err != nil {
				return nil, fmt.Errorf("seeding documents: %w", err)
			}
		}
		src = pg
	default:
		src = documents.NewDirSourceFromPath(cfg.Documents.Path)
	}

	if cfg.Cache.Enabled && rdb != nil {
		src = documents.NewCachedSource(src, rdb.Client, cfg.Cache.TTL)
	}
	return src, nil
}

// newSessionStore keeps sessions in Redis when configured, in memory otherwise.
func newSessionStore(cfg *config.Config, rdb *cache.Cache) selection.Store {
	if cfg.Session.Backend == "redis" && rdb != nil {
		return selection.NewRedisStore(rdb.Client, cfg.Session.TTL)
	}
	return selection.NewMemoryStore(cfg.Session.TTL)
}
