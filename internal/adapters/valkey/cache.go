package valkey

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/samirrijal/placeshare/internal/core/ports"
)

// ErrMiss is returned by Get when the key does not exist.
var ErrMiss = errors.New("cache miss")

// versionTTL outlives every cached value so a generation cannot reset
// while a fill that read it is still in flight.
const versionTTL = 24 * 60 * 60

// setIfVersion writes KEYS[2] only when KEYS[1] still holds ARGV[1].
// A missing generation key counts as 0.
var setIfVersion = valkey.NewLuaScript(`
local v = redis.call('GET', KEYS[1]) or '0'
if v ~= ARGV[1] then
  return 0
end
if tonumber(ARGV[3]) > 0 then
  redis.call('SET', KEYS[2], ARGV[2], 'EX', ARGV[3])
else
  redis.call('SET', KEYS[2], ARGV[2])
end
return 1
`)

// Cache implements ports.CacheService using Valkey (Redis-compatible).
// Keys are namespaced with prefix so several services can share one instance.
type Cache struct {
	client valkey.Client
	prefix string
}

// New creates a new Valkey cache client.
func New(addr, prefix string) (*Cache, error) {
	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress: []string{addr},
	})
	if err != nil {
		return nil, fmt.Errorf("valkey connect: %w", err)
	}
	return &Cache{client: client, prefix: prefix}, nil
}

// Get retrieves a value by key.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := c.client.Do(ctx, c.client.B().Get().Key(c.prefix+key).Build()).AsBytes()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return nil, ErrMiss
		}
		return nil, err
	}
	return b, nil
}

// Set stores a value with a TTL in seconds. A non-positive TTL stores without expiry.
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	if ttlSeconds <= 0 {
		return c.client.Do(ctx, c.client.B().Set().Key(c.prefix+key).Value(valkey.BinaryString(value)).Build()).Error()
	}
	cmd := c.client.Do(ctx,
		c.client.B().Set().Key(c.prefix+key).Value(valkey.BinaryString(value)).Ex(time.Duration(ttlSeconds)*time.Second).Build(),
	)
	return cmd.Error()
}

// Delete removes a key.
func (c *Cache) Delete(ctx context.Context, key string) error {
	return c.client.Do(ctx, c.client.B().Del().Key(c.prefix+key).Build()).Error()
}

func (c *Cache) versionKey(key string) string {
	return c.prefix + key + ":ver"
}

// Version returns the write generation of key.
func (c *Cache) Version(ctx context.Context, key string) (int64, error) {
	v, err := c.client.Do(ctx, c.client.B().Get().Key(c.versionKey(key)).Build()).AsInt64()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return 0, nil
		}
		return 0, err
	}
	return v, nil
}

// Invalidate bumps the generation of key before deleting its value, so a
// concurrent SetIfVersion against the old generation is refused.
func (c *Cache) Invalidate(ctx context.Context, key string) error {
	ver := c.versionKey(key)
	results := c.client.DoMulti(ctx,
		c.client.B().Incr().Key(ver).Build(),
		c.client.B().Expire().Key(ver).Seconds(versionTTL).Build(),
		c.client.B().Del().Key(c.prefix+key).Build(),
	)
	for _, r := range results {
		if err := r.Error(); err != nil {
			return fmt.Errorf("invalidate %s: %w", key, err)
		}
	}
	return nil
}

// SetIfVersion stores value when key's generation still equals version.
func (c *Cache) SetIfVersion(ctx context.Context, key string, version int64, value []byte, ttlSeconds int) (bool, error) {
	n, err := setIfVersion.Exec(ctx, c.client,
		[]string{c.versionKey(key), c.prefix + key},
		[]string{strconv.FormatInt(version, 10), valkey.BinaryString(value), strconv.Itoa(ttlSeconds)},
	).AsInt64()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// Ping checks connectivity.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Do(ctx, c.client.B().Ping().Build()).Error()
}

// Close releases the client.
func (c *Cache) Close() {
	c.client.Close()
}

var _ ports.VersionedCache = (*Cache)(nil)
