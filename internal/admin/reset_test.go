package admin

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/JonMunkholm/hradmin/internal/session"
)

func TestResetSessions(t *testing.T) {
	ctx := context.Background()
	store := session.NewMemoryStore()

	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatal(err)
		}
	}
	must(store.Set(ctx, "hrctl", session.KeyToken, "tok", time.Hour))
	must(store.Set(ctx, "hrctl", session.KeyTheme, "dark", time.Hour))
	must(store.Set(ctx, "browser", session.KeyToken, "other", time.Hour))
	must(store.Set(ctx, "stale", session.KeyToken, "old", time.Nanosecond))
	time.Sleep(2 * time.Millisecond)

	r := &Reset{Store: store}
	res, err := r.Sessions(ctx, "hrctl")
	if err != nil {
		t.Fatalf("Sessions: %v", err)
	}

	want := Result{Cleared: []string{"hrctl"}, Purged: 1}
	if diff := cmp.Diff(want, res); diff != "" {
		t.Errorf("result (-want +got):\n%s", diff)
	}

	if _, ok, _ := store.Get(ctx, "hrctl", session.KeyTheme); ok {
		t.Error("cleared session still has a theme")
	}
	if v, ok, _ := store.Get(ctx, "browser", session.KeyToken); !ok || v != "other" {
		t.Errorf("other session token = %q, %v", v, ok)
	}
}

type failingStore struct {
	*session.MemoryStore
	purged bool
}

func (f *failingStore) Clear(context.Context, string) error {
	return errors.New("disk full")
}

func (f *failingStore) PurgeExpired(ctx context.Context) (int64, error) {
	f.purged = true
	return f.MemoryStore.PurgeExpired(ctx)
}

func TestResetSessions_StopsOnError(t *testing.T) {
	store := &failingStore{MemoryStore: session.NewMemoryStore()}
	r := &Reset{Store: store}

	_, err := r.Sessions(context.Background(), "hrctl")
	if err == nil || err.Error() != "clear session hrctl: disk full" {
		t.Errorf("err = %v", err)
	}
	if store.purged {
		t.Error("purge ran after a failed clear")
	}
}
