package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/turtacn/foldcore/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/foldcore/pkg/errors"
	"github.com/turtacn/foldcore/pkg/types/fold"
	"golang.org/x/sync/singleflight"
)

var ErrCacheMiss = errors.New(errors.ErrCodeNotFound, "cache miss")

// FoldCache stores fold results keyed by library fingerprint and sequence:
//
//	<prefix><fingerprint>:<sequence>
//
// A fingerprint identifies one (library, energy model, weighting) triple, so
// results from a different configuration are never served.
type FoldCache struct {
	client *Client
	logger logging.Logger
	prefix string
	ttl    time.Duration
	jitter bool
	group  singleflight.Group
}

type CacheOption func(*FoldCache)

func WithPrefix(prefix string) CacheOption {
	return func(c *FoldCache) { c.prefix = prefix }
}

// WithTTL sets the entry lifetime; zero keeps entries forever.
func WithTTL(ttl time.Duration) CacheOption {
	return func(c *FoldCache) { c.ttl = ttl }
}

// WithoutJitter disables the ±10% TTL spread.
func WithoutJitter() CacheOption {
	return func(c *FoldCache) { c.jitter = false }
}

func NewFoldCache(client *Client, log logging.Logger, opts ...CacheOption) *FoldCache {
	if log == nil {
		log = logging.NewNopLogger()
	}
	c := &FoldCache{
		client: client,
		logger: log,
		prefix: "foldcore:",
		ttl:    24 * time.Hour,
		jitter: true,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *FoldCache) key(fingerprint, sequence string) string {
	return c.prefix + fingerprint + ":" + sequence
}

func (c *FoldCache) expiry() time.Duration {
	if c.ttl <= 0 || !c.jitter {
		return c.ttl
	}
	spread := float64(c.ttl) * 0.1 * (rand.Float64()*2 - 1)
	return c.ttl + time.Duration(spread)
}

// Get returns the cached result or ErrCacheMiss.
func (c *FoldCache) Get(ctx context.Context, fingerprint, sequence string) (*fold.FoldResponse, error) {
	data, err := c.client.Get(ctx, c.key(fingerprint, sequence)).Bytes()
	if err == redis.Nil {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeCacheError, "failed to get from cache")
	}
	var resp fold.FoldResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to decode cached fold")
	}
	return &resp, nil
}

// Set stores resp under its sequence. Error responses are not cached.
func (c *FoldCache) Set(ctx context.Context, fingerprint string, resp *fold.FoldResponse) error {
	if resp == nil || resp.Error != nil {
		return nil
	}
	stored := *resp
	stored.Cached = false
	data, err := json.Marshal(stored)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode fold")
	}
	if err := c.client.Set(ctx, c.key(fingerprint, resp.Sequence), data, c.expiry()).Err(); err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "failed to set cache")
	}
	return nil
}

// GetOrCompute returns the cached result for sequence, or runs compute once
// per key across concurrent callers and caches its result. Cache failures
// are logged and fall through to compute.
func (c *FoldCache) GetOrCompute(ctx context.Context, fingerprint, sequence string, compute func(context.Context) (*fold.FoldResponse, error)) (*fold.FoldResponse, bool, error) {
	resp, err := c.Get(ctx, fingerprint, sequence)
	if err == nil {
		resp.Cached = true
		return resp, true, nil
	}
	if !errors.IsCode(err, errors.ErrCodeNotFound) {
		c.logger.Warn("fold cache read failed", logging.String("sequence", sequence), logging.Err(err))
	}

	v, err, _ := c.group.Do(c.key(fingerprint, sequence), func() (interface{}, error) {
		computed, err := compute(ctx)
		if err != nil {
			return nil, err
		}
		if err := c.Set(ctx, fingerprint, computed); err != nil {
			c.logger.Warn("fold cache write failed", logging.String("sequence", sequence), logging.Err(err))
		}
		return computed, nil
	})
	if err != nil {
		return nil, false, err
	}
	out := *v.(*fold.FoldResponse)
	return &out, false, nil
}

// Invalidate deletes every entry of fingerprint and returns the count removed.
func (c *FoldCache) Invalidate(ctx context.Context, fingerprint string) (int64, error) {
	var (
		cursor  uint64
		removed int64
	)
	pattern := c.prefix + fingerprint + ":*"
	for {
		keys, next, err := c.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return removed, errors.Wrap(err, errors.ErrCodeCacheError, "failed to scan cache")
		}
		if len(keys) > 0 {
			n, err := c.client.Del(ctx, keys...).Result()
			if err != nil {
				return removed, errors.Wrap(err, errors.ErrCodeCacheError, "failed to delete cache keys")
			}
			removed += n
		}
		cursor = next
		if cursor == 0 {
			return removed, nil
		}
	}
}

func (c *FoldCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx)
}

//Personal.AI order the ending
