package knowledge

import (
	"context"
	"strconv"
	"time"

	"github.com/avion00/medicare-backend/pkg/cache"
)

// EntryStore is the persistence surface used by handlers and the chat resolver.
type EntryStore interface {
	Create(ctx context.Context, userID int64, websiteURL, summary string) (Entry, error)
	Get(ctx context.Context, userID, websiteID int64) (Entry, error)
	List(ctx context.Context, userID int64) ([]Entry, error)
}

// CachedStore serves Get from a TTL cache. Entries never change after
// creation, so only lookups are cached and nothing needs invalidating.
type CachedStore struct {
	EntryStore
	cache *cache.Cache[Entry]
}

func NewCachedStore(store EntryStore, ttl time.Duration, maxEntries int) *CachedStore {
	return &CachedStore{
		EntryStore: store,
		cache: cache.New[Entry](cache.Options{TTL: ttl, MaxEntries: maxEntries}, cache.MetricsHooks{
			OnHit:   func() { cacheEventsTotal.WithLabelValues("hit").Inc() },
			OnMiss:  func() { cacheEventsTotal.WithLabelValues("miss").Inc() },
			OnStore: func() { cacheEventsTotal.WithLabelValues("store").Inc() },
			OnError: func() { cacheEventsTotal.WithLabelValues("error").Inc() },
		}),
	}
}

func cacheKey(userID, websiteID int64) string {
	return strconv.FormatInt(userID, 10) + ":" + strconv.FormatInt(websiteID, 10)
}

// Get returns the owner-scoped entry. Lookup failures, ErrNotFound included,
// are not cached.
func (s *CachedStore) Get(ctx context.Context, userID, websiteID int64) (Entry, error) {
	return s.cache.Get(ctx, cacheKey(userID, websiteID), func(ctx context.Context, _ string) (Entry, error) {
		return s.EntryStore.Get(ctx, userID, websiteID)
	})
}
