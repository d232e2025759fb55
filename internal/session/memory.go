package session

import (
	"context"
	"sync"
	"time"
)

type memEntry struct {
	value   string
	expires time.Time
}

func (e memEntry) expired(now time.Time) bool {
	return !e.expires.IsZero() && !now.Before(e.expires)
}

// MemoryStore is an in-process Store. State is lost on restart.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]map[string]memEntry
	now  func() time.Time
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[string]map[string]memEntry),
		now:  time.Now,
	}
}

func (m *MemoryStore) Get(_ context.Context, ns, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.data[ns][key]
	if !ok || e.expired(m.now()) {
		return "", false, nil
	}
	return e.value, true, nil
}

func (m *MemoryStore) Set(_ context.Context, ns, key, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	bucket, ok := m.data[ns]
	if !ok {
		bucket = make(map[string]memEntry)
		m.data[ns] = bucket
	}
	bucket[key] = memEntry{value: value, expires: expiresAt(m.now(), ttl)}
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, ns, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if bucket, ok := m.data[ns]; ok {
		delete(bucket, key)
		if len(bucket) == 0 {
			delete(m.data, ns)
		}
	}
	return nil
}

func (m *MemoryStore) Clear(_ context.Context, ns string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, ns)
	return nil
}

func (m *MemoryStore) PurgeExpired(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	var n int64
	for ns, bucket := range m.data {
		for key, e := range bucket {
			if e.expired(now) {
				delete(bucket, key)
				n++
			}
		}
		if len(bucket) == 0 {
			delete(m.data, ns)
		}
	}
	return n, nil
}

func (m *MemoryStore) Close() error { return nil }
