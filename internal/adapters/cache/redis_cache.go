package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"transport-request-service/internal/domain"
	"transport-request-service/internal/platform/obs"
	"transport-request-service/internal/ports"
)

// RedisDistanceCache shares routing results between service instances.
// Entries expire after TTL so road-network changes eventually show up.
type RedisDistanceCache struct {
	Client *redis.Client
	TTL    time.Duration
	Prefix string
}

func NewRedisDistanceCache(client *redis.Client, ttl time.Duration) *RedisDistanceCache {
	return &RedisDistanceCache{Client: client, TTL: ttl, Prefix: "transport:distance:"}
}

func (c *RedisDistanceCache) key(origin, destination string) string {
	return c.Prefix + origin + "|" + destination
}

func (c *RedisDistanceCache) GetMany(
	ctx context.Context,
	origin string,
	destinations []string,
) (_ map[string]ports.DistanceResult, err error) {
	defer obs.Time(ctx, "distance.cache.redis.GetMany")(&err)

	if c.Client == nil {
		return nil, errors.New("distance cache: redis client is nil")
	}
	if origin == "" {
		return nil, errors.New("get distance cache: origin must not be empty")
	}

	uniq := uniqueKeys(destinations)
	if len(uniq) == 0 {
		return map[string]ports.DistanceResult{}, nil
	}

	keys := make([]string, 0, len(uniq))
	for _, d := range uniq {
		keys = append(keys, c.key(origin, d))
	}

	vals, err := c.Client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("get distance cache: mget: %w", err)
	}

	out := make(map[string]ports.DistanceResult, len(uniq))
	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			continue
		}
		var r ports.DistanceResult
		if err := json.Unmarshal([]byte(s), &r); err != nil {
			// A corrupt entry is a miss; the next PutMany overwrites it.
			continue
		}
		out[uniq[i]] = r
	}

	return out, nil
}

func (c *RedisDistanceCache) PutMany(
	ctx context.Context,
	origin string,
	results map[string]ports.DistanceResult,
) error {
	if c.Client == nil {
		return errors.New("distance cache: redis client is nil")
	}
	if origin == "" {
		return errors.New("insert distance cache: origin must not be empty")
	}
	if len(results) == 0 {
		return nil
	}

	pipe := c.Client.TxPipeline()
	for dest, r := range results {
		if dest == "" {
			return errors.New("insert distance cache: empty destination key")
		}
		b, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("insert distance cache dest=%q: %w", dest, err)
		}
		pipe.Set(ctx, c.key(origin, dest), b, c.TTL)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("insert distance cache: exec pipeline: %w", err)
	}
	return nil
}

// RedisGeocodeCache stores coordinates without expiry.
type RedisGeocodeCache struct {
	Client *redis.Client
	Prefix string
}

func NewRedisGeocodeCache(client *redis.Client) *RedisGeocodeCache {
	return &RedisGeocodeCache{Client: client, Prefix: "transport:geocode:"}
}

func (c *RedisGeocodeCache) GetMany(
	ctx context.Context,
	addresses []string,
) (_ map[string]domain.Coordinates, err error) {
	defer obs.Time(ctx, "geocode.cache.redis.GetMany")(&err)

	if c.Client == nil {
		return nil, errors.New("geocode cache: redis client is nil")
	}

	uniq := uniqueKeys(addresses)
	if len(uniq) == 0 {
		return map[string]domain.Coordinates{}, nil
	}

	keys := make([]string, 0, len(uniq))
	for _, a := range uniq {
		keys = append(keys, c.Prefix+a)
	}

	vals, err := c.Client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("get geocode cache: mget: %w", err)
	}

	out := make(map[string]domain.Coordinates, len(uniq))
	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			continue
		}
		var coord domain.Coordinates
		if err := json.Unmarshal([]byte(s), &coord); err != nil {
			continue
		}
		out[uniq[i]] = coord
	}
	return out, nil
}

func (c *RedisGeocodeCache) PutMany(ctx context.Context, results map[string]domain.Coordinates) error {
	if c.Client == nil {
		return errors.New("geocode cache: redis client is nil")
	}
	if len(results) == 0 {
		return nil
	}

	pipe := c.Client.TxPipeline()
	for addr, coord := range results {
		if addr == "" {
			return errors.New("insert geocode cache: empty address key")
		}
		b, err := json.Marshal(coord)
		if err != nil {
			return fmt.Errorf("insert geocode cache addr=%q: %w", addr, err)
		}
		pipe.Set(ctx, c.Prefix+addr, b, 0)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("insert geocode cache: exec pipeline: %w", err)
	}
	return nil
}
