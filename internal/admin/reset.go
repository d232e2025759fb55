// Package admin provides maintenance operations on locally stored session
// state.
package admin

import (
	"context"
	"fmt"
	"time"

	"github.com/JonMunkholm/hradmin/internal/session"
)

// ResetTimeout is the maximum duration for reset operations.
const ResetTimeout = 30 * time.Second

// Reset clears session data from a store.
type Reset struct {
	Store session.Store
}

type resetFn func(ctx context.Context) error

// Result reports what a reset removed.
type Result struct {
	Cleared []string // Session namespaces wiped
	Purged  int64    // Expired entries removed from other sessions
}

// Sessions wipes the named session namespaces, then purges expired entries
// across the whole store. This is destructive: tokens, themes and queued
// notifications of the named sessions are lost.
func (r *Reset) Sessions(ctx context.Context, ids ...string) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, ResetTimeout)
	defer cancel()

	var res Result
	resets := make([]resetFn, 0, len(ids)+1)
	for _, id := range ids {
		resets = append(resets, func(ctx context.Context) error {
			if err := r.Store.Clear(ctx, id); err != nil {
				return fmt.Errorf("clear session %s: %w", id, err)
			}
			res.Cleared = append(res.Cleared, id)
			return nil
		})
	}
	resets = append(resets, func(ctx context.Context) error {
		n, err := r.Store.PurgeExpired(ctx)
		if err != nil {
			return fmt.Errorf("purge expired sessions: %w", err)
		}
		res.Purged = n
		return nil
	})

	return res, r.runResets(ctx, resets)
}

func (r *Reset) runResets(ctx context.Context, resets []resetFn) error {
	for _, reset := range resets {
		if err := reset(ctx); err != nil {
			return err
		}
	}
	return nil
}
