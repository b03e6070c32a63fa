package weather

import (
	"bytes"
	"compress/zlib"
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"time"

	"backend-ridetrack/internal/db"

	"go.uber.org/zap"
)

// The whole cache persists as one compressed blob under a single key. Every
// mutation rewrites the full map; caches hold a few dozen entries at most,
// so the O(n) write is fine.
const cacheBlobKey = "weather:cache"

type cacheEntry struct {
	Reading  Reading   `json:"reading"`
	StoredAt time.Time `json:"stored_at"`
}

// Cache is a geo-bucketed weather cache with two freshness tiers. Entries
// within the fresh window are served without refetching; entries within the
// stale window are usable only as a degraded fallback; older entries are
// evicted on access.
type Cache struct {
	mu       sync.Mutex
	entries  map[string]cacheEntry
	blobs    db.BlobStore
	freshTTL time.Duration
	staleTTL time.Duration
	logger   *zap.SugaredLogger
	now      func() time.Time
	loaded   bool
}

type Stats struct {
	Entries       int     `json:"entries"`
	Fresh         int     `json:"fresh"`
	Stale         int     `json:"stale"`
	AverageAgeSec float64 `json:"average_age_sec"`
	OldestAgeSec  float64 `json:"oldest_age_sec"`
	NewestAgeSec  float64 `json:"newest_age_sec"`
}

func NewCache(blobs db.BlobStore, freshTTL, staleTTL time.Duration, logger *zap.SugaredLogger) *Cache {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Cache{
		entries:  map[string]cacheEntry{},
		blobs:    blobs,
		freshTTL: freshTTL,
		staleTTL: staleTTL,
		logger:   logger,
		now:      time.Now,
	}
}

// Init loads the persisted blob into memory. Calling it again is a no-op.
// A missing or unreadable blob starts an empty cache rather than failing.
func (c *Cache) Init(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.loaded {
		return nil
	}
	c.loaded = true

	if c.blobs == nil {
		return nil
	}
	blob, err := c.blobs.Get(ctx, cacheBlobKey)
	if errors.Is(err, db.ErrNotFound) {
		return nil
	}
	if err != nil {
		c.logger.Warnw("failed to load weather cache blob", "error", err)
		return nil
	}

	raw, err := inflate(blob)
	if err != nil {
		c.logger.Warnw("failed to decompress weather cache blob", "error", err)
		return nil
	}
	if err := json.Unmarshal(raw, &c.entries); err != nil {
		c.logger.Warnw("failed to parse weather cache blob", "error", err)
		c.entries = map[string]cacheEntry{}
	}
	return nil
}

// Get returns an entry younger than the staleness window. Older entries are
// evicted and the eviction persisted.
func (c *Cache) Get(ctx context.Context, key string) (Reading, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return Reading{}, false
	}
	if c.now().Sub(entry.StoredAt) > c.staleTTL {
		delete(c.entries, key)
		c.persistLocked(ctx)
		return Reading{}, false
	}
	return entry.Reading, true
}

// GetFresh returns an entry only within the freshness window; anything
// older signals that a refetch is needed.
func (c *Cache) GetFresh(ctx context.Context, key string) (Reading, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return Reading{}, false
	}
	if c.now().Sub(entry.StoredAt) > c.freshTTL {
		return Reading{}, false
	}
	return entry.Reading, true
}

// Has reports whether the key is cached at all, regardless of age.
func (c *Cache) Has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[key]
	return ok
}

// Put inserts or overwrites an entry and persists the whole cache.
func (c *Cache) Put(ctx context.Context, key string, r Reading) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = cacheEntry{Reading: r, StoredAt: c.now()}
	c.persistLocked(ctx)
}

// Stats reports entry counts and ages for diagnostics.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := Stats{Entries: len(c.entries)}
	if stats.Entries == 0 {
		return stats
	}

	now := c.now()
	var total float64
	first := true
	for _, entry := range c.entries {
		age := now.Sub(entry.StoredAt).Seconds()
		total += age
		if first || age > stats.OldestAgeSec {
			stats.OldestAgeSec = age
		}
		if first || age < stats.NewestAgeSec {
			stats.NewestAgeSec = age
		}
		first = false
		if age <= c.freshTTL.Seconds() {
			stats.Fresh++
		} else {
			stats.Stale++
		}
	}
	stats.AverageAgeSec = total / float64(stats.Entries)
	return stats
}

// persistLocked serializes and compresses the whole map. Failures are
// logged; the in-memory cache stays authoritative.
func (c *Cache) persistLocked(ctx context.Context) {
	if c.blobs == nil {
		return
	}
	raw, err := json.Marshal(c.entries)
	if err != nil {
		c.logger.Warnw("failed to serialize weather cache", "error", err)
		return
	}
	if err := c.blobs.Set(ctx, cacheBlobKey, deflate(raw)); err != nil {
		c.logger.Warnw("failed to persist weather cache", "error", err)
	}
}

func deflate(raw []byte) []byte {
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	_, _ = w.Write(raw)
	_ = w.Close()
	return buf.Bytes()
}

func inflate(blob []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(blob))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}
