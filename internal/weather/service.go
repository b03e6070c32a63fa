package weather

import (
	"context"

	"go.uber.org/zap"
)

// Fetcher retrieves a live reading for a coordinate.
type Fetcher interface {
	Fetch(ctx context.Context, lat, lon float64) (Reading, error)
}

// commonLocations are preloaded so first lookups around popular riding
// areas hit the cache.
var commonLocations = []Location{
	{Name: "Tokyo", Latitude: 35.6762, Longitude: 139.6503},
	{Name: "Osaka", Latitude: 34.6937, Longitude: 135.5023},
	{Name: "Kyoto", Latitude: 35.0116, Longitude: 135.7681},
	{Name: "Sapporo", Latitude: 43.0618, Longitude: 141.3545},
	{Name: "Okinawa", Latitude: 26.2124, Longitude: 127.6809},
}

type Service struct {
	cache     *Cache
	fetcher   Fetcher
	logger    *zap.SugaredLogger
	locations []Location
}

func NewService(cache *Cache, fetcher Fetcher, logger *zap.SugaredLogger) *Service {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Service{
		cache:     cache,
		fetcher:   fetcher,
		logger:    logger,
		locations: commonLocations,
	}
}

func (s *Service) Init(ctx context.Context) error {
	return s.cache.Init(ctx)
}

// Lookup serves a reading for a coordinate. A fresh cache entry short
// circuits the provider; on a provider failure a stale entry is served
// instead and only when neither exists does the error propagate.
func (s *Service) Lookup(ctx context.Context, lat, lon float64) (Reading, error) {
	key := BucketKey(lat, lon)

	if reading, ok := s.cache.GetFresh(ctx, key); ok {
		return reading, nil
	}

	reading, err := s.fetcher.Fetch(ctx, lat, lon)
	if err == nil {
		s.cache.Put(ctx, key, reading)
		return reading, nil
	}

	if stale, ok := s.cache.Get(ctx, key); ok {
		s.logger.Warnw("serving stale weather after provider failure",
			"key", key, "error", err)
		return stale, nil
	}
	return Reading{}, err
}

// Preload warms the cache for the common locations, skipping buckets that
// are already cached. Individual failures are logged and skipped.
func (s *Service) Preload(ctx context.Context) int {
	warmed := 0
	for _, loc := range s.locations {
		key := BucketKey(loc.Latitude, loc.Longitude)
		if s.cache.Has(key) {
			continue
		}
		reading, err := s.fetcher.Fetch(ctx, loc.Latitude, loc.Longitude)
		if err != nil {
			s.logger.Warnw("failed to preload weather", "location", loc.Name, "error", err)
			continue
		}
		s.cache.Put(ctx, key, reading)
		warmed++
	}
	return warmed
}

func (s *Service) Stats() Stats {
	return s.cache.Stats()
}
