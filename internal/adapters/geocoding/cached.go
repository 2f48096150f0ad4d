package geocoding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"

	"github.com/samirrijal/placeshare/internal/core/domain"
	"github.com/samirrijal/placeshare/internal/core/ports"
	"github.com/samirrijal/placeshare/internal/pkg/metrics"
)

// Cached memoizes successful lookups of another Geocoder. Failures are not cached.
type Cached struct {
	next       ports.Geocoder
	cache      ports.CacheService
	ttlSeconds int
}

func NewCached(next ports.Geocoder, cache ports.CacheService, ttlSeconds int) *Cached {
	return &Cached{next: next, cache: cache, ttlSeconds: ttlSeconds}
}

func (c *Cached) Geocode(ctx context.Context, address string) (domain.GeoPoint, error) {
	key := cacheKey(address)

	if data, err := c.cache.Get(ctx, key); err == nil {
		var p domain.GeoPoint
		if json.Unmarshal(data, &p) == nil {
			metrics.CacheHits.WithLabelValues("geocode").Inc()
			return p, nil
		}
	}
	metrics.CacheMisses.WithLabelValues("geocode").Inc()

	p, err := c.next.Geocode(ctx, address)
	if err != nil {
		return domain.GeoPoint{}, err
	}
	if data, err := json.Marshal(p); err == nil {
		_ = c.cache.Set(ctx, key, data, c.ttlSeconds)
	}
	return p, nil
}

// cacheKey normalizes case and whitespace so trivially different spellings share an entry.
func cacheKey(address string) string {
	norm := strings.Join(strings.Fields(strings.ToLower(address)), " ")
	sum := sha256.Sum256([]byte(norm))
	return "geocode:" + hex.EncodeToString(sum[:12])
}
