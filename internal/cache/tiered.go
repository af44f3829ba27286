package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// Prometheus metrics
var (
	cacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ftc_cache_hits_total",
		Help: "Cache reads served from a fresh entry",
	}, []string{"class"})

	cacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ftc_cache_misses_total",
		Help: "Cache reads that required an upstream fetch",
	}, []string{"class"})

	cacheStaleFallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ftc_cache_stale_fallbacks_total",
		Help: "Upstream failures answered with a stale cache entry",
	}, []string{"class"})
)

// Rule binds an endpoint-key prefix to a fresh/stale TTL pair. The rule
// with the longest matching prefix wins.
type Rule struct {
	Prefix string
	Fresh  time.Duration
	Stale  time.Duration
}

// DefaultRules covers the FTC Events API endpoint classes. Event and
// team lists move slowly; schedules, match results and scores churn
// during competition days.
func DefaultRules() []Rule {
	return []Rule{
		{Prefix: "events", Fresh: time.Hour, Stale: 24 * time.Hour},
		{Prefix: "teams", Fresh: time.Hour, Stale: 24 * time.Hour},
		{Prefix: "schedule/", Fresh: 5 * time.Minute, Stale: 2 * time.Hour},
		{Prefix: "matches/", Fresh: 2 * time.Minute, Stale: time.Hour},
		{Prefix: "scores/", Fresh: 2 * time.Minute, Stale: time.Hour},
		{Prefix: "rankings/", Fresh: 5 * time.Minute, Stale: time.Hour},
	}
}

// entry is the stored envelope. CachedAt is unix milliseconds so age
// checks survive JSON round-trips without timezone concerns.
type entry struct {
	Data     json.RawMessage `json:"data"`
	CachedAt int64           `json:"cachedAt"`
}

// TieredCache serves reads from a fresh window without touching
// upstream, and falls back to entries inside a wider stale window when
// upstream is down. Store failures are advisory: a broken store
// degrades to always-fetch, it never fails a request.
type TieredCache struct {
	store Store
	rules []Rule
	fresh time.Duration // defaults for keys with no matching rule
	stale time.Duration
	log   *zap.SugaredLogger
	now   func() time.Time
}

func NewTiered(store Store, rules []Rule, defaultFresh, defaultStale time.Duration, log *zap.SugaredLogger) *TieredCache {
	if defaultFresh <= 0 {
		defaultFresh = 5 * time.Minute
	}
	if defaultStale < defaultFresh {
		defaultStale = time.Hour
	}
	return &TieredCache{
		store: store,
		rules: rules,
		fresh: defaultFresh,
		stale: defaultStale,
		log:   log,
		now:   time.Now,
	}
}

// Fetch returns the cached payload for key while it is fresh, otherwise
// calls fetch and caches the result. When fetch fails and an entry
// exists inside the stale window, the stale payload is served instead
// of the error.
func (t *TieredCache) Fetch(ctx context.Context, key string, fetch func(context.Context) ([]byte, error)) ([]byte, error) {
	fresh, stale := t.ttls(key)
	class := classOf(key)

	cached, cachedAt := t.read(ctx, key)
	now := t.now()

	if cached != nil && now.Sub(cachedAt) < fresh {
		cacheHits.WithLabelValues(class).Inc()
		return cached, nil
	}
	cacheMisses.WithLabelValues(class).Inc()

	data, err := fetch(ctx)
	if err == nil {
		t.write(ctx, key, data, now, stale)
		return data, nil
	}

	// Presence inside the stale window is what matters here, not
	// freshness: anything newer than the stale horizon beats an error.
	if cached != nil {
		if age := now.Sub(cachedAt); age < stale {
			cacheStaleFallbacks.WithLabelValues(class).Inc()
			t.log.Warnw("serving stale cache after upstream failure",
				"key", key,
				"age", age.Round(time.Second).String(),
				"error", err)
			return cached, nil
		}
	}

	return nil, fmt.Errorf("fetch %s: %w", key, err)
}

// Invalidate drops keys, best effort.
func (t *TieredCache) Invalidate(ctx context.Context, keys ...string) {
	if err := t.store.Del(ctx, keys...); err != nil {
		t.log.Debugw("cache invalidate failed", "keys", keys, "error", err)
	}
}

func (t *TieredCache) read(ctx context.Context, key string) ([]byte, time.Time) {
	raw, err := t.store.Get(ctx, key)
	if err != nil {
		t.log.Debugw("cache read failed", "key", key, "error", err)
		return nil, time.Time{}
	}
	if raw == nil {
		return nil, time.Time{}
	}
	var e entry
	if err := json.Unmarshal(raw, &e); err != nil || e.Data == nil {
		// Corrupt entries count as misses.
		t.log.Debugw("cache entry corrupt", "key", key, "error", err)
		return nil, time.Time{}
	}
	return e.Data, time.UnixMilli(e.CachedAt)
}

func (t *TieredCache) write(ctx context.Context, key string, data []byte, now time.Time, stale time.Duration) {
	raw, err := json.Marshal(entry{Data: data, CachedAt: now.UnixMilli()})
	if err != nil {
		t.log.Debugw("cache encode failed", "key", key, "error", err)
		return
	}
	// The store expiry is the stale horizon; freshness is judged from
	// CachedAt on read.
	if err := t.store.Set(ctx, key, raw, stale); err != nil {
		t.log.Debugw("cache write failed", "key", key, "error", err)
	}
}

func (t *TieredCache) ttls(key string) (time.Duration, time.Duration) {
	fresh, stale := t.fresh, t.stale
	best := -1
	for _, r := range t.rules {
		if len(r.Prefix) > best && strings.HasPrefix(key, r.Prefix) {
			best = len(r.Prefix)
			fresh, stale = r.Fresh, r.Stale
		}
	}
	return fresh, stale
}

func classOf(key string) string {
	if i := strings.IndexByte(key, '/'); i > 0 {
		return key[:i]
	}
	return key
}
