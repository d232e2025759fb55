package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/hradmin/internal/apiclient"
	"github.com/JonMunkholm/hradmin/internal/config"
	"github.com/JonMunkholm/hradmin/internal/core"
	_ "github.com/JonMunkholm/hradmin/internal/core/resources" // Register all resources
	"github.com/JonMunkholm/hradmin/internal/export"
	"github.com/JonMunkholm/hradmin/internal/logging"
	"github.com/JonMunkholm/hradmin/internal/session"
	"github.com/JonMunkholm/hradmin/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logging based on config
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"session_store", cfg.Session.Store,
		"export_max_concurrent", cfg.Export.MaxConcurrent,
		"rate_limit_enabled", cfg.Rate.Enabled,
	)

	ctx := context.Background()
	store, err := openStore(ctx, cfg.Session)
	if err != nil {
		slog.Error("failed to open session store", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	if u, err := url.Parse(cfg.API.BaseURL); err == nil {
		slog.Info("using HR API", "host", u.Host)
	}

	service := core.NewService(apiclient.New(cfg.API.BaseURL, cfg.API.Timeout), core.ServiceConfig{
		MaxExportRows:      cfg.Export.MaxRows,
		ExportPageSize:     cfg.Export.PageSize,
		OrgEndpoint:        cfg.API.OrgEndpoint,
		AttendanceEndpoint: cfg.API.AttendanceEndpoint,
	})

	// Log registered resources
	slog.Info("resources registered",
		"count", core.Count(),
		"groups", len(core.Groups()),
	)
	for _, group := range core.Groups() {
		slog.Debug("resource group", "group", group, "resources", len(core.ByGroup(group)))
	}

	sessions := session.NewManager(store, session.Options{
		CookieName: cfg.Session.CookieName,
		TTL:        cfg.Session.TTL,
		Secure:     cfg.Session.CookieSecure,
	})
	exports := export.NewLimiter(cfg.Export.MaxConcurrent, cfg.Export.MaxWaitTime)
	server := web.NewServer(service, sessions, exports, cfg)

	// Cancellable context for background jobs
	jobCtx, cancelJobs := context.WithCancel(context.Background())
	go session.RunSweeper(jobCtx, store, cfg.Session.SweepInterval)

	// Graceful shutdown
	done := make(chan struct{})
	go func() {
		defer close(done)
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")
		cancelJobs()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if active := exports.Active(); active > 0 {
			slog.Info("waiting for exports to complete", "active", active)
			if err := exports.WaitForDrain(shutdownCtx); err != nil {
				slog.Warn("exports did not complete in time", "error", err)
			}
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	slog.Info("server starting", "addr", cfg.Server.Addr())
	if err := server.Start(jobCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server stopped", "error", err)
		cancelJobs()
		store.Close()
		os.Exit(1)
	}
	<-done
	slog.Info("server stopped")
}

// openStore returns the configured session store.
func openStore(ctx context.Context, cfg config.SessionConfig) (session.Store, error) {
	switch cfg.Store {
	case config.StorePostgres:
		store, err := session.OpenPostgresStore(ctx, cfg.DatabaseURL, int32(cfg.MaxConns), int32(cfg.MinConns))
		if err != nil {
			return nil, err
		}
		slog.Info("session store ready", "backend", "postgres")
		return store, nil
	case config.StoreSQLite:
		store, err := session.OpenSQLiteStore(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		slog.Info("session store ready", "backend", "sqlite", "path", cfg.SQLitePath)
		return store, nil
	case config.StoreMemory, "":
		slog.Info("session store ready", "backend", "memory")
		return session.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown session store %q", cfg.Store)
	}
}
