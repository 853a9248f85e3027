package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/theoremus-urban-solutions/transight/feed"
	"github.com/theoremus-urban-solutions/transight/geo"
	"github.com/theoremus-urban-solutions/transight/metrics"
	"github.com/theoremus-urban-solutions/transight/tracking"
)

// Fetcher retrieves the live vehicle set for a bounding box.
type Fetcher interface {
	FetchVehicles(ctx context.Context, bbox geo.BBox) ([]feed.VehicleRecord, error)
}

// entry is one immutable cached snapshot. Entries are replaced wholesale on
// refresh, never mutated, so readers can hold them without locking.
type entry struct {
	records   map[string]feed.VehicleRecord
	fetchedAt time.Time
}

// VehicleCache caches the latest vehicle set per query area with a TTL.
// Concurrent refreshes of the same area collapse into a single upstream
// fetch. Every successful refresh appends to the trail store.
type VehicleCache struct {
	fetcher Fetcher
	trails  *tracking.TrailStore
	ttl     time.Duration
	log     *zap.SugaredLogger

	mu      sync.RWMutex
	entries map[string]*entry
	group   singleflight.Group

	now func() time.Time
}

// NewVehicleCache builds a cache over the given fetcher. Trail updates go to
// trails on every successful refresh.
func NewVehicleCache(fetcher Fetcher, trails *tracking.TrailStore, ttl time.Duration, log *zap.SugaredLogger) *VehicleCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &VehicleCache{
		fetcher: fetcher,
		trails:  trails,
		ttl:     ttl,
		log:     log,
		entries: make(map[string]*entry),
		now:     time.Now,
	}
}

// bboxKey quantizes the box to ~11m precision so equivalent queries share
// one cache entry.
func bboxKey(b geo.BBox) string {
	return fmt.Sprintf("%.4f,%.4f,%.4f,%.4f", b.MinLon, b.MinLat, b.MaxLon, b.MaxLat)
}

// Get returns the vehicle set for a bounding box, refreshing from the feed
// when the cached snapshot is missing or older than the TTL. On refresh
// failure the previous snapshot is returned regardless of age; with no
// previous snapshot the result is an empty map. Get never returns an error
// to its caller.
func (c *VehicleCache) Get(ctx context.Context, bbox geo.BBox) map[string]feed.VehicleRecord {
	key := bboxKey(bbox)

	c.mu.RLock()
	cached := c.entries[key]
	c.mu.RUnlock()

	if cached != nil && c.now().Sub(cached.fetchedAt) < c.ttl {
		metrics.CacheLookups.WithLabelValues("hit").Inc()
		return cached.records
	}

	v, _, _ := c.group.Do(key, func() (any, error) {
		return c.refresh(ctx, key, bbox, cached), nil
	})
	return v.(map[string]feed.VehicleRecord)
}

func (c *VehicleCache) refresh(ctx context.Context, key string, bbox geo.BBox, prev *entry) map[string]feed.VehicleRecord {
	// Another caller may have refreshed while we waited on the flight group.
	c.mu.RLock()
	cur := c.entries[key]
	c.mu.RUnlock()
	if cur != nil && cur != prev && c.now().Sub(cur.fetchedAt) < c.ttl {
		metrics.CacheLookups.WithLabelValues("hit").Inc()
		return cur.records
	}

	records, err := c.fetcher.FetchVehicles(ctx, bbox)
	if err != nil {
		c.observeFailure(err)
		if cur != nil {
			metrics.CacheLookups.WithLabelValues("stale").Inc()
			return cur.records
		}
		metrics.CacheLookups.WithLabelValues("miss").Inc()
		return map[string]feed.VehicleRecord{}
	}

	byID := make(map[string]feed.VehicleRecord, len(records))
	for _, rec := range records {
		byID[rec.VehicleID] = rec
		c.trails.Append(rec.VehicleID, rec.Latitude, rec.Longitude, rec.ObservedAt)
	}

	c.mu.Lock()
	c.entries[key] = &entry{records: byID, fetchedAt: c.now()}
	c.mu.Unlock()

	metrics.FeedFetches.WithLabelValues("ok").Inc()
	metrics.CacheLookups.WithLabelValues("miss").Inc()
	metrics.VehiclesTracked.Set(float64(len(byID)))
	return byID
}

func (c *VehicleCache) observeFailure(err error) {
	var formatErr *feed.FormatError
	if errors.As(err, &formatErr) {
		metrics.FeedFetches.WithLabelValues("format_error").Inc()
	} else {
		metrics.FeedFetches.WithLabelValues("transport_error").Inc()
	}
	c.log.Warnw("feed refresh failed, serving last good snapshot", "error", err)
}

// LastFetched reports the newest snapshot timestamp across all cached areas,
// zero when the cache is cold. Used by the health endpoint.
func (c *VehicleCache) LastFetched() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var latest time.Time
	for _, e := range c.entries {
		if e.fetchedAt.After(latest) {
			latest = e.fetchedAt
		}
	}
	return latest
}
