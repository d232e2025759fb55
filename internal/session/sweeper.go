package session

// sweeper.go purges expired session values in the background.
//
// Expired values are already invisible to Get; the sweeper only reclaims
// storage. It logs failures and keeps running.

import (
	"context"
	"log/slog"
	"time"
)

// RunSweeper purges expired values immediately, then every interval, until
// ctx is cancelled.
func RunSweeper(ctx context.Context, store Store, interval time.Duration) {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	slog.Info("session sweeper started", "interval", interval.String())

	sweep(ctx, store)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("session sweeper stopped")
			return
		case <-ticker.C:
			sweep(ctx, store)
		}
	}
}

func sweep(ctx context.Context, store Store) {
	start := time.Now()
	n, err := store.PurgeExpired(ctx)
	if err != nil {
		slog.Error("session purge failed", "error", err)
		return
	}
	slog.Debug("purged expired session values",
		"values_purged", n,
		"duration_ms", time.Since(start).Milliseconds(),
	)
}
