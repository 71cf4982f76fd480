package sheets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"risklo/internal/domain"
)

// Cache stores opaque values with a TTL.
type Cache interface {
	// Get returns the value and whether it was found.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

const (
	keyPrefix    = "risklo:sheets:"
	namesKey     = keyPrefix + "names"
	rowKeyPrefix = keyPrefix + "rows:"
)

// CachedProvider serves sheet names and rows from a Cache, falling back to
// the wrapped Provider on a miss. Cache failures are logged and bypassed.
type CachedProvider struct {
	next   Provider
	cache  Cache
	ttl    time.Duration
	logger zerolog.Logger
}

var _ Provider = (*CachedProvider)(nil)

// NewCachedProvider wraps next with cache.
func NewCachedProvider(next Provider, cache Cache, ttl time.Duration, logger zerolog.Logger) *CachedProvider {
	return &CachedProvider{
		next:   next,
		cache:  cache,
		ttl:    ttl,
		logger: logger.With().Str("component", "sheet_cache").Logger(),
	}
}

// SheetNames returns cached names or fetches them.
func (p *CachedProvider) SheetNames(ctx context.Context) ([]string, error) {
	var names []string
	if p.lookup(ctx, namesKey, &names) {
		return names, nil
	}

	names, err := p.next.SheetNames(ctx)
	if err != nil {
		return nil, err
	}
	p.store(ctx, namesKey, names)
	return names, nil
}

// Rows returns cached rows or fetches them. Missing sheets are not cached.
func (p *CachedProvider) Rows(ctx context.Context, name string) ([]domain.SheetRow, error) {
	key := rowKeyPrefix + name

	var rows []domain.SheetRow
	if p.lookup(ctx, key, &rows) {
		return rows, nil
	}

	rows, err := p.next.Rows(ctx, name)
	if err != nil {
		return nil, err
	}
	p.store(ctx, key, rows)
	return rows, nil
}

func (p *CachedProvider) lookup(ctx context.Context, key string, out any) bool {
	data, ok, err := p.cache.Get(ctx, key)
	if err != nil {
		p.logger.Warn().Err(err).Str("key", key).Msg("cache get failed")
		return false
	}
	if !ok {
		return false
	}
	if err := json.Unmarshal(data, out); err != nil {
		p.logger.Warn().Err(err).Str("key", key).Msg("cache entry corrupt")
		return false
	}
	return true
}

func (p *CachedProvider) store(ctx context.Context, key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		p.logger.Warn().Err(err).Str("key", key).Msg("cache encode failed")
		return
	}
	if err := p.cache.Set(ctx, key, data, p.ttl); err != nil {
		p.logger.Warn().Err(err).Str("key", key).Msg("cache set failed")
	}
}

// RedisCache implements Cache on Redis.
type RedisCache struct {
	client *redis.Client
}

var _ Cache = (*RedisCache)(nil)

// NewRedisCache connects to Redis and pings it.
func NewRedisCache(ctx context.Context, addr, password string, db int) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &RedisCache{client: client}, nil
}

// Get returns the value for key.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// Set stores value for ttl.
func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.client.Set(ctx, key, value, ttl).Err()
}

// Close closes the client.
func (c *RedisCache) Close() error {
	return c.client.Close()
}
