package settings

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"posnotif/internal/domain"
)

const cacheKeyPrefix = "posnotif:delivery-settings:"

// cacheClient is the subset of redis.Cmdable the cache needs.
type cacheClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// Cached is a read-through redis cache over the raw settings rows. Rows are
// cached unmerged, so dropping the platform key reaches every store scope.
// Redis errors fall through to Next.
type Cached struct {
	Redis cacheClient
	Next  Backend
	TTL   time.Duration
}

type cachedRow struct {
	Settings domain.DeliverySettings `json:"settings"`
	Found    bool                    `json:"found"`
}

func (c *Cached) PlatformDeliverySettings(ctx context.Context) (domain.DeliverySettings, bool, error) {
	return c.read(ctx, domain.ScopePlatform, func(ctx context.Context) (domain.DeliverySettings, bool, error) {
		return c.Next.PlatformDeliverySettings(ctx)
	})
}

func (c *Cached) StoreDeliverySettings(ctx context.Context, storeID string) (domain.DeliverySettings, bool, error) {
	return c.read(ctx, storeID, func(ctx context.Context) (domain.DeliverySettings, bool, error) {
		return c.Next.StoreDeliverySettings(ctx, storeID)
	})
}

type loadFunc func(ctx context.Context) (domain.DeliverySettings, bool, error)

func (c *Cached) read(ctx context.Context, scope string, load loadFunc) (domain.DeliverySettings, bool, error) {
	key := cacheKey(scope)
	raw, err := c.Redis.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var row cachedRow
		if jerr := json.Unmarshal(raw, &row); jerr == nil {
			return row.Settings, row.Found, nil
		}
	case !errors.Is(err, redis.Nil):
		slog.Warn("settings cache read failed", "err", err, "scope", scope)
	}

	s, found, err := load(ctx)
	if err != nil {
		return domain.DeliverySettings{}, false, err
	}
	ttl := c.TTL
	if ttl <= 0 {
		ttl = time.Minute
	}
	if b, jerr := json.Marshal(cachedRow{Settings: s, Found: found}); jerr == nil {
		if werr := c.Redis.Set(ctx, key, b, ttl).Err(); werr != nil {
			slog.Warn("settings cache write failed", "err", werr, "scope", scope)
		}
	}
	return s, found, nil
}

// Invalidate drops the cached row for scope after settings change.
func (c *Cached) Invalidate(ctx context.Context, scope string) error {
	return c.Redis.Del(ctx, cacheKey(scope)).Err()
}

func cacheKey(scope string) string {
	if scope == "" || scope == domain.ScopePlatform {
		return cacheKeyPrefix + domain.ScopePlatform
	}
	return cacheKeyPrefix + "store:" + scope
}

type Backend interface {
	PlatformStore
	StoreOverrides
}

// Build wires the standard provider chain. When rdb is nil there is no cache
// and the returned *Cached is nil.
func Build(b Backend, rdb *redis.Client, ttl time.Duration) (Provider, *Cached) {
	var c *Cached
	src := b
	if rdb != nil {
		c = &Cached{Redis: rdb, Next: b, TTL: ttl}
		src = c
	}
	return chain(src), c
}

func chain(src Backend) *Resolver {
	platform := &Platform{Store: src}
	return &Resolver{
		Platform: platform,
		Store:    &PerStore{Store: src, Base: platform},
	}
}

// NewRedis returns nil when addr is empty.
func NewRedis(addr, password string, db int) *redis.Client {
	if addr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
}
