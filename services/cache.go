package services

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"

	"github.com/tripdeals/deals-backend/models"
	"github.com/tripdeals/deals-backend/storage"
)

// DefaultCacheTTL is how long a cached search result stays valid.
const DefaultCacheTTL = 30 * time.Minute

type cacheEntry struct {
	Listings  []models.Listing `json:"listings"`
	CreatedAt time.Time        `json:"created_at"`
}

// SearchCache keeps recent search results in memory with a durable tier in
// the store so results survive restarts. Expiry is checked on read against
// the entry's own creation time.
type SearchCache struct {
	ttl    time.Duration
	memory *gocache.Cache
	store  *storage.Store
	now    func() time.Time
}

// NewSearchCache builds a cache with the given TTL (DefaultCacheTTL when
// zero) and preloads any still-fresh entries from the store. A store load
// failure degrades to memory-only.
func NewSearchCache(ctx context.Context, ttl time.Duration, store *storage.Store) *SearchCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	c := &SearchCache{
		ttl:    ttl,
		memory: gocache.New(gocache.NoExpiration, 0),
		store:  store,
		now:    time.Now,
	}

	if store != nil {
		cutoff := c.now().Add(-ttl)
		entries, err := store.LoadCacheEntries(ctx, cutoff)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"component": "SearchCache",
				"error":     err.Error(),
			}).Warn("Could not load cache from store, starting empty")
		} else {
			loaded := 0
			for _, row := range entries {
				var entry cacheEntry
				if err := json.Unmarshal(row.Value, &entry); err != nil {
					continue
				}
				c.memory.Set(row.Key, entry, gocache.NoExpiration)
				loaded++
			}
			if loaded > 0 {
				logrus.WithFields(logrus.Fields{
					"component": "SearchCache",
					"entries":   loaded,
				}).Info("Restored cache entries from store")
			}
		}
	}

	return c
}

// MakeKey derives a deterministic cache key from the source name and the
// query parameters. Parameter order does not matter.
func MakeKey(source string, params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(source)
	for _, k := range keys {
		fmt.Fprintf(&b, "|%s=%s", k, params[k])
	}

	sum := md5.Sum([]byte(b.String()))
	return hex.EncodeToString(sum[:])[:16]
}

// Get returns the cached listings for the key, or ok=false when missing or
// expired. Expired entries are evicted from both tiers on the way out.
func (c *SearchCache) Get(ctx context.Context, key string) ([]models.Listing, bool) {
	raw, found := c.memory.Get(key)
	if !found {
		return nil, false
	}
	entry, ok := raw.(cacheEntry)
	if !ok {
		c.memory.Delete(key)
		return nil, false
	}

	if c.now().Sub(entry.CreatedAt) > c.ttl {
		c.memory.Delete(key)
		if c.store != nil {
			if err := c.store.DeleteCacheEntry(ctx, key); err != nil {
				logrus.WithFields(logrus.Fields{
					"component": "SearchCache",
					"key":       key,
					"error":     err.Error(),
				}).Warn("Could not evict expired cache entry from store")
			}
		}
		return nil, false
	}

	// Callers may annotate the returned listings, so hand out a copy
	// rather than the stored slice.
	listings := make([]models.Listing, len(entry.Listings))
	copy(listings, entry.Listings)
	return listings, true
}

// Set stores listings under the key in both tiers.
func (c *SearchCache) Set(ctx context.Context, key string, listings []models.Listing) {
	entry := cacheEntry{Listings: listings, CreatedAt: c.now()}
	c.memory.Set(key, entry, gocache.NoExpiration)

	if c.store != nil {
		payload, err := json.Marshal(entry)
		if err == nil {
			err = c.store.UpsertCacheEntry(ctx, key, payload, entry.CreatedAt)
		}
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"component": "SearchCache",
				"key":       key,
				"error":     err.Error(),
			}).Warn("Could not persist cache entry")
		}
	}
}

// Clear drops every entry from both tiers.
func (c *SearchCache) Clear(ctx context.Context) {
	c.memory.Flush()
	if c.store != nil {
		if err := c.store.ClearCache(ctx); err != nil {
			logrus.WithFields(logrus.Fields{
				"component": "SearchCache",
				"error":     err.Error(),
			}).Warn("Could not clear durable cache tier")
		}
	}
	logrus.WithField("component", "SearchCache").Info("Cache cleared")
}

// Len returns the number of entries currently held in memory, including
// any not yet lazily evicted.
func (c *SearchCache) Len() int {
	return c.memory.ItemCount()
}

// Sweep removes expired entries from both tiers. Used by the maintenance
// job; normal reads evict lazily.
func (c *SearchCache) Sweep(ctx context.Context) int {
	removed := 0
	for key, item := range c.memory.Items() {
		entry, ok := item.Object.(cacheEntry)
		if !ok || c.now().Sub(entry.CreatedAt) > c.ttl {
			c.memory.Delete(key)
			if c.store != nil {
				_ = c.store.DeleteCacheEntry(ctx, key)
			}
			removed++
		}
	}
	return removed
}
