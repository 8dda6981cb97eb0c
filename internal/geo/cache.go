package geo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/inhahackathon/foodmarket/config"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	defaultCacheTTL = 24 * time.Hour
	cacheKeyPrefix  = "geo:address:"
)

// ErrCacheMiss is returned by Cache.Get when the key is absent.
var ErrCacheMiss = errors.New("cache miss")

type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// RedisCache stores geocoding results in Redis.
type RedisCache struct {
	rdb *redis.Client
}

func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

func NewRedisCache(rdb *redis.Client) *RedisCache {
	return &RedisCache{rdb: rdb}
}

func (c *RedisCache) Get(ctx context.Context, key string) (string, error) {
	value, err := c.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrCacheMiss
	}
	return value, err
}

func (c *RedisCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return c.rdb.Set(ctx, key, value, ttl).Err()
}

// CachedGeocoder memoizes another Geocoder. Cache failures are logged and the
// wrapped geocoder is used instead.
type CachedGeocoder struct {
	next   Geocoder
	cache  Cache
	ttl    time.Duration
	logger logrus.FieldLogger
}

func NewCachedGeocoder(next Geocoder, cache Cache, ttl time.Duration, logger logrus.FieldLogger) *CachedGeocoder {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &CachedGeocoder{next: next, cache: cache, ttl: ttl, logger: logger}
}

func (g *CachedGeocoder) Address(ctx context.Context, latitude, longitude float64) (string, error) {
	key := cacheKey(latitude, longitude)

	address, err := g.cache.Get(ctx, key)
	if err == nil {
		return address, nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		g.logger.WithError(err).WithField("key", key).Warn("geocode cache read failed")
	}

	address, err = g.next.Address(ctx, latitude, longitude)
	if err != nil {
		return "", err
	}

	if err := g.cache.Set(ctx, key, address, g.ttl); err != nil {
		g.logger.WithError(err).WithField("key", key).Warn("geocode cache write failed")
	}
	return address, nil
}

func cacheKey(latitude, longitude float64) string {
	return fmt.Sprintf("%s%.5f,%.5f", cacheKeyPrefix, latitude, longitude)
}

var _ Geocoder = (*CachedGeocoder)(nil)
