package session

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

// exerciseStore runs the behaviour every Store must share.
func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	if _, ok, err := s.Get(ctx, "a", "k"); err != nil || ok {
		t.Fatalf("Get on empty store = ok %v err %v, want miss", ok, err)
	}

	if err := s.Set(ctx, "a", "k", "v1", 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := s.Set(ctx, "a", "k", "v2", 0); err != nil {
		t.Fatalf("Set overwrite: %v", err)
	}
	if err := s.Set(ctx, "b", "k", "other", 0); err != nil {
		t.Fatalf("Set other ns: %v", err)
	}

	v, ok, err := s.Get(ctx, "a", "k")
	if err != nil || !ok || v != "v2" {
		t.Errorf("Get = %q ok %v err %v, want v2", v, ok, err)
	}

	if err := s.Delete(ctx, "a", "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok, _ := s.Get(ctx, "a", "k"); ok {
		t.Error("Get after Delete still found value")
	}
	if v, ok, _ := s.Get(ctx, "b", "k"); !ok || v != "other" {
		t.Errorf("Delete leaked across namespaces: %q ok %v", v, ok)
	}

	s.Set(ctx, "c", "x", "1", 0)
	s.Set(ctx, "c", "y", "2", 0)
	if err := s.Clear(ctx, "c"); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if _, ok, _ := s.Get(ctx, "c", "x"); ok {
		t.Error("Get after Clear still found value")
	}
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestMemoryStore_Expiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	s := NewMemoryStore()
	s.now = func() time.Time { return now }

	s.Set(ctx, "ns", "short", "v", time.Minute)
	s.Set(ctx, "ns", "forever", "v", 0)

	if _, ok, _ := s.Get(ctx, "ns", "short"); !ok {
		t.Fatal("value expired early")
	}

	now = now.Add(2 * time.Minute)
	if _, ok, _ := s.Get(ctx, "ns", "short"); ok {
		t.Error("expired value still visible")
	}

	n, err := s.PurgeExpired(ctx)
	if err != nil {
		t.Fatalf("PurgeExpired: %v", err)
	}
	if n != 1 {
		t.Errorf("PurgeExpired = %d, want 1", n)
	}
	if _, ok, _ := s.Get(ctx, "ns", "forever"); !ok {
		t.Error("value without ttl was purged")
	}
}

func TestSQLiteStore(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "session.db")
	s, err := OpenSQLiteStore(ctx, path)
	if err != nil {
		t.Fatalf("OpenSQLiteStore: %v", err)
	}
	defer s.Close()

	exerciseStore(t, s)
}

func TestSQLiteStore_ExpiryAndReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.db")
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	s, err := OpenSQLiteStore(ctx, path)
	if err != nil {
		t.Fatalf("OpenSQLiteStore: %v", err)
	}
	s.now = func() time.Time { return now }
	s.Set(ctx, "cli", "short", "v", time.Minute)
	s.Set(ctx, "cli", KeyToken, "tok", 0)

	now = now.Add(time.Hour)
	if _, ok, _ := s.Get(ctx, "cli", "short"); ok {
		t.Error("expired value still visible")
	}
	if n, err := s.PurgeExpired(ctx); err != nil || n != 1 {
		t.Errorf("PurgeExpired = %d, %v; want 1, nil", n, err)
	}
	s.Close()

	s, err = OpenSQLiteStore(ctx, path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	if v, ok, _ := s.Get(ctx, "cli", KeyToken); !ok || v != "tok" {
		t.Errorf("token after reopen = %q ok %v, want tok", v, ok)
	}
}

func TestRunSweeper_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		RunSweeper(ctx, NewMemoryStore(), time.Hour)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("RunSweeper did not stop after cancel")
	}
}
