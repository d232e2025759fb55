// Package session holds per-browser (and per-CLI-user) UI state: the API auth
// token, the colour theme and queued toast notifications.
//
// State lives behind the Store interface so handlers and components never touch
// ambient global storage. Values are namespaced by session ID.
package session

import (
	"context"
	"errors"
	"time"
)

// ErrNoSession is returned when a request carries no session.
var ErrNoSession = errors.New("session not found")

// Store is a namespaced key-value store with optional expiry.
//
// A ttl of zero means the value never expires.
type Store interface {
	Get(ctx context.Context, ns, key string) (string, bool, error)
	Set(ctx context.Context, ns, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, ns, key string) error
	Clear(ctx context.Context, ns string) error
	PurgeExpired(ctx context.Context) (int64, error)
	Close() error
}

// expiresAt converts a ttl into an absolute deadline. Zero means none.
func expiresAt(now time.Time, ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return now.Add(ttl)
}
