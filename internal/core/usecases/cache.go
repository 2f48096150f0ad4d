package usecases

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/samirrijal/placeshare/internal/core/ports"
	"github.com/samirrijal/placeshare/internal/pkg/metrics"
)

const (
	placeCacheTTL      = 600 // 10 min for a single place
	userPlacesCacheTTL = 300
)

func placeKey(id string) string      { return "places:id:" + id }
func userPlacesKey(uid string) string { return "places:user:" + uid }

// readCache decodes a cached value into dst. op labels the hit/miss counters.
func readCache(ctx context.Context, cache ports.VersionedCache, op, key string, dst any) bool {
	if cache == nil {
		return false
	}
	data, err := cache.Get(ctx, key)
	if err != nil {
		metrics.CacheMisses.WithLabelValues(op).Inc()
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		metrics.CacheMisses.WithLabelValues(op).Inc()
		return false
	}
	metrics.CacheHits.WithLabelValues(op).Inc()
	return true
}

// fillTicket is taken before a store read and redeemed after it.
// ok is false when the generation could not be read; the fill is then skipped.
type fillTicket struct {
	key     string
	version int64
	ok      bool
}

func beginFill(ctx context.Context, cache ports.VersionedCache, key string) fillTicket {
	if cache == nil {
		return fillTicket{}
	}
	v, err := cache.Version(ctx, key)
	if err != nil {
		return fillTicket{}
	}
	return fillTicket{key: key, version: v, ok: true}
}

// writeCache stores v unless the key was invalidated after t was taken.
func writeCache(ctx context.Context, cache ports.VersionedCache, t fillTicket, v any, ttlSeconds int) {
	if cache == nil || !t.ok {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	stored, err := cache.SetIfVersion(ctx, t.key, t.version, data, ttlSeconds)
	if err == nil && !stored {
		slog.DebugContext(ctx, "cache fill skipped, key changed during read", "key", t.key)
	}
}

// evict runs after commit. It bumps each key's generation so in-flight
// reads that started before the write cannot refill it.
func evict(ctx context.Context, cache ports.VersionedCache, keys ...string) {
	if cache == nil {
		return
	}
	for _, k := range keys {
		if err := cache.Invalidate(ctx, k); err != nil {
			slog.WarnContext(ctx, "cache invalidate failed", "key", k, "error", err)
		}
	}
}
