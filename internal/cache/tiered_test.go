package cache

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
)

// mockStore lets tests fail individual store operations.
type mockStore struct {
	GetFunc  func(ctx context.Context, key string) ([]byte, error)
	SetFunc  func(ctx context.Context, key string, value []byte, ttl time.Duration) error
	DelFunc  func(ctx context.Context, keys ...string) error
	PingFunc func(ctx context.Context) error
}

func (m *mockStore) Get(ctx context.Context, key string) ([]byte, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, key)
	}
	return nil, nil
}

func (m *mockStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if m.SetFunc != nil {
		return m.SetFunc(ctx, key, value, ttl)
	}
	return nil
}

func (m *mockStore) Del(ctx context.Context, keys ...string) error {
	if m.DelFunc != nil {
		return m.DelFunc(ctx, keys...)
	}
	return nil
}

func (m *mockStore) Ping(ctx context.Context) error {
	if m.PingFunc != nil {
		return m.PingFunc(ctx)
	}
	return nil
}

func newTestCache(store Store) *TieredCache {
	return NewTiered(store, DefaultRules(), 5*time.Minute, time.Hour, zap.NewNop().Sugar())
}

func TestTieredCacheFreshHitSkipsUpstream(t *testing.T) {
	store := NewMemoryStore()
	tc := newTestCache(store)
	ctx := context.Background()

	calls := 0
	fetch := func(context.Context) ([]byte, error) {
		calls++
		return []byte(`{"n":1}`), nil
	}

	if _, err := tc.Fetch(ctx, "matches/2024/TEST", fetch); err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	got, err := tc.Fetch(ctx, "matches/2024/TEST", fetch)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if string(got) != `{"n":1}` {
		t.Errorf("Fetch() = %s, want cached payload", got)
	}
	if calls != 1 {
		t.Errorf("upstream called %d times, want 1 (fresh hit must not refetch)", calls)
	}
}

func TestTieredCacheStaleFallback(t *testing.T) {
	store := NewMemoryStore()
	tc := newTestCache(store)
	ctx := context.Background()

	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	tc.now = func() time.Time { return now }

	ok := func(context.Context) ([]byte, error) { return []byte(`{"n":1}`), nil }
	fail := func(context.Context) ([]byte, error) { return nil, errors.New("upstream down") }

	if _, err := tc.Fetch(ctx, "matches/2024/TEST", ok); err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	// Past the 2m fresh window but inside the 1h stale window.
	now = now.Add(10 * time.Minute)
	got, err := tc.Fetch(ctx, "matches/2024/TEST", fail)
	if err != nil {
		t.Fatalf("Fetch() error = %v, want stale fallback", err)
	}
	if string(got) != `{"n":1}` {
		t.Errorf("Fetch() = %s, want stale payload", got)
	}

	// A successful refetch re-primes the entry; within the fresh window
	// after that, the failing fetch must never run.
	if _, err := tc.Fetch(ctx, "matches/2024/TEST", ok); err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	now = now.Add(30 * time.Second)
	if _, err := tc.Fetch(ctx, "matches/2024/TEST", fail); err != nil {
		t.Errorf("Fetch() error = %v, want fresh hit", err)
	}
}

func TestTieredCacheStaleWindowExpires(t *testing.T) {
	store := NewMemoryStore()
	tc := newTestCache(store)
	ctx := context.Background()

	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	tc.now = func() time.Time { return now }
	store.now = func() time.Time { return now }

	if _, err := tc.Fetch(ctx, "matches/2024/TEST", func(context.Context) ([]byte, error) {
		return []byte(`{"n":1}`), nil
	}); err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	// Beyond the stale horizon the failure must propagate.
	now = now.Add(2 * time.Hour)
	wantErr := errors.New("upstream down")
	_, err := tc.Fetch(ctx, "matches/2024/TEST", func(context.Context) ([]byte, error) {
		return nil, wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Errorf("Fetch() error = %v, want wrapped upstream error", err)
	}
}

func TestTieredCacheMissFailurePropagates(t *testing.T) {
	tc := newTestCache(NewMemoryStore())
	wantErr := errors.New("upstream down")

	_, err := tc.Fetch(context.Background(), "events/2024", func(context.Context) ([]byte, error) {
		return nil, wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Errorf("Fetch() error = %v, want wrapped upstream error", err)
	}
}

func TestTieredCacheStoreFailuresAreAdvisory(t *testing.T) {
	broken := &mockStore{
		GetFunc: func(context.Context, string) ([]byte, error) {
			return nil, errors.New("store down")
		},
		SetFunc: func(context.Context, string, []byte, time.Duration) error {
			return errors.New("store down")
		},
	}
	tc := newTestCache(broken)

	calls := 0
	fetch := func(context.Context) ([]byte, error) {
		calls++
		return []byte(`ok`), nil
	}

	for i := 0; i < 2; i++ {
		got, err := tc.Fetch(context.Background(), "teams/2024/TEST/page/1", fetch)
		if err != nil {
			t.Fatalf("Fetch() error = %v, store failures must not surface", err)
		}
		if string(got) != "ok" {
			t.Errorf("Fetch() = %s, want live payload", got)
		}
	}
	if calls != 2 {
		t.Errorf("upstream called %d times, want 2 (broken store degrades to always-fetch)", calls)
	}
}

func TestTieredCacheCorruptEntryIsMiss(t *testing.T) {
	store := NewMemoryStore()
	tc := newTestCache(store)
	ctx := context.Background()

	if err := store.Set(ctx, "events/2024", []byte(`not json`), time.Hour); err != nil {
		t.Fatal(err)
	}

	got, err := tc.Fetch(ctx, "events/2024", func(context.Context) ([]byte, error) {
		return []byte(`[]`), nil
	})
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if string(got) != "[]" {
		t.Errorf("Fetch() = %s, want live payload after corrupt entry", got)
	}
}

func TestTieredCacheWritesEnvelopeWithStaleTTL(t *testing.T) {
	var gotKey string
	var gotTTL time.Duration
	var gotVal []byte
	store := &mockStore{
		SetFunc: func(_ context.Context, key string, value []byte, ttl time.Duration) error {
			gotKey, gotVal, gotTTL = key, value, ttl
			return nil
		},
	}
	tc := newTestCache(store)

	if _, err := tc.Fetch(context.Background(), "schedule/2024/TEST/qual", func(context.Context) ([]byte, error) {
		return []byte(`{"schedule":[]}`), nil
	}); err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	if gotKey != "schedule/2024/TEST/qual" {
		t.Errorf("stored key = %q", gotKey)
	}
	if gotTTL != 2*time.Hour {
		t.Errorf("store ttl = %v, want the 2h stale horizon for schedule/", gotTTL)
	}
	var e entry
	if err := json.Unmarshal(gotVal, &e); err != nil {
		t.Fatalf("stored value is not an envelope: %v", err)
	}
	if string(e.Data) != `{"schedule":[]}` || e.CachedAt == 0 {
		t.Errorf("envelope = %+v, want payload and cachedAt", e)
	}
}

func TestTieredCacheRuleSelection(t *testing.T) {
	tc := NewTiered(NewMemoryStore(), []Rule{
		{Prefix: "matches/", Fresh: time.Minute, Stale: time.Hour},
		{Prefix: "matches/2024/SPECIAL", Fresh: 10 * time.Second, Stale: time.Minute},
	}, 5*time.Minute, 2*time.Hour, zap.NewNop().Sugar())

	tests := []struct {
		name      string
		key       string
		wantFresh time.Duration
		wantStale time.Duration
	}{
		{name: "longest prefix wins", key: "matches/2024/SPECIAL", wantFresh: 10 * time.Second, wantStale: time.Minute},
		{name: "shorter prefix for other events", key: "matches/2024/OTHER", wantFresh: time.Minute, wantStale: time.Hour},
		{name: "no rule falls back to defaults", key: "awards/2024", wantFresh: 5 * time.Minute, wantStale: 2 * time.Hour},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fresh, stale := tc.ttls(tt.key)
			if fresh != tt.wantFresh || stale != tt.wantStale {
				t.Errorf("ttls(%q) = %v/%v, want %v/%v", tt.key, fresh, stale, tt.wantFresh, tt.wantStale)
			}
		})
	}
}
