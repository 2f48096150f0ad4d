package ports

import (
	"context"

	"github.com/samirrijal/placeshare/internal/core/domain"
)

// Geocoder resolves a postal address to coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (domain.GeoPoint, error)
}

// EventPublisher publishes domain events to a message broker.
type EventPublisher interface {
	PublishPlaceEvent(ctx context.Context, event *domain.PlaceEvent) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}

// VersionedCache is a CacheService whose entries carry a write generation.
// A fill taken against an older generation is dropped, so a read that
// overlaps a committed write cannot cache the pre-write value.
type VersionedCache interface {
	CacheService
	// Version returns key's current generation, 0 if it was never bumped.
	Version(ctx context.Context, key string) (int64, error)
	// Invalidate bumps key's generation and drops its cached value.
	Invalidate(ctx context.Context, key string) error
	// SetIfVersion stores value only while key's generation equals version.
	SetIfVersion(ctx context.Context, key string, version int64, value []byte, ttlSeconds int) (bool, error)
}
