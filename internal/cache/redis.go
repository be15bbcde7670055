package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"todo-demo/internal/config"
	"todo-demo/internal/models"
	"todo-demo/pkg/logger"
)

const (
	listsKey        = "lists:all"
	itemsKeyPattern = "lists:*:items"
	genKey          = "lists:generation"
)

var (
	client *redis.Client
	once   sync.Once
)

// Client returns the global Redis client (initialized on first use). It returns
// nil when REDIS_URL is unset or Redis does not answer a ping.
func Client(ctx context.Context) *redis.Client {
	once.Do(func() {
		cfg := config.Get()
		if cfg.RedisURL == "" {
			logger.Info(ctx, "Cache disabled (no REDIS_URL)")
			return
		}
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Error(ctx, "Invalid REDIS_URL", "error", err, "url", cfg.RedisURL)
			return
		}
		opts.PoolSize = cfg.RedisPoolSize
		c := redis.NewClient(opts)
		if err := c.Ping(ctx).Err(); err != nil {
			logger.Error(ctx, "Redis ping failed", "error", err)
			_ = c.Close()
			return
		}
		client = c
		logger.Info(ctx, "Redis client initialized", "pool_size", cfg.RedisPoolSize)
	})
	return client
}

// Cache stores serialized list and item snapshots. A Cache over a nil client is
// valid and never hits.
type Cache struct {
	rdb *redis.Client
	ttl time.Duration
}

// New returns a cache over rdb with the given entry lifetime.
func New(rdb *redis.Client, ttl time.Duration) *Cache {
	return &Cache{rdb: rdb, ttl: ttl}
}

// ListsKey is the key of the GET /lists body.
func ListsKey() string {
	return listsKey
}

// ItemsKey is the key of the GET /lists/:id/items body.
func ItemsKey(listID int64) string {
	return fmt.Sprintf("lists:%d:items", listID)
}

// Enabled reports whether a Redis client is attached.
func (c *Cache) Enabled() bool {
	return c != nil && c.rdb != nil
}

// Get returns the cached bytes under key. Returns (nil, false) on miss or error.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool) {
	if !c.Enabled() {
		return nil, false
	}
	b, err := c.rdb.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		logger.Debug(ctx, "Redis get failed", "error", err, "key", key)
		return nil, false
	}
	return b, true
}

// Generation returns the invalidation counter. A snapshot read after it may be
// stored with SetIfCurrent. ok is false when nothing should be stored.
func (c *Cache) Generation(ctx context.Context) (gen int64, ok bool) {
	if !c.Enabled() {
		return 0, false
	}
	gen, err := c.rdb.Get(ctx, genKey).Int64()
	if err == redis.Nil {
		return 0, true
	}
	if err != nil {
		logger.Debug(ctx, "Redis generation read failed", "error", err)
		return 0, false
	}
	return gen, true
}

// storeIfCurrent sets KEYS[2] only while KEYS[1] still holds the generation the
// snapshot was taken under. ARGV: generation, body, ttl in ms (0 keeps it forever).
var storeIfCurrent = redis.NewScript(`
local current = redis.call('GET', KEYS[1]) or '0'
if current ~= ARGV[1] then
	return 0
end
if tonumber(ARGV[3]) > 0 then
	redis.call('SET', KEYS[2], ARGV[2], 'PX', ARGV[3])
else
	redis.call('SET', KEYS[2], ARGV[2])
end
return 1
`)

// SetIfCurrent stores b under key unless Invalidate ran since gen was read. It
// reports whether b was stored.
func (c *Cache) SetIfCurrent(ctx context.Context, key string, b []byte, gen int64) bool {
	if !c.Enabled() {
		return false
	}
	stored, err := storeIfCurrent.Run(ctx, c.rdb, []string{genKey, key}, gen, b, c.ttl.Milliseconds()).Int()
	if err != nil {
		logger.Debug(ctx, "Redis set failed", "error", err, "key", key)
		return false
	}
	if stored == 0 {
		logger.Debug(ctx, "Stale snapshot not cached", "key", key, "generation", gen)
	}
	return stored == 1
}

// Invalidate drops every entry the event may have made stale and bumps the
// generation, so snapshots read before the change are never stored.
func (c *Cache) Invalidate(ctx context.Context, ev models.ChangeEvent) {
	if !c.Enabled() {
		return
	}
	keys := []string{listsKey}
	dropAll := false
	switch {
	case ev.Kind == models.EventListCreated || ev.Kind == models.EventListUpdated:
		// titles only; item snapshots are unaffected
	case ev.ListID != 0:
		keys = append(keys, ItemsKey(ev.ListID))
	default:
		dropAll = true
	}
	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, genKey)
		pipe.Del(ctx, keys...)
		return nil
	})
	if err != nil {
		logger.Debug(ctx, "Redis invalidate failed", "error", err, "kind", ev.Kind)
	}
	if dropAll {
		c.dropItemSnapshots(ctx)
	}
}

// dropItemSnapshots is used when the owning list of a change is unknown.
func (c *Cache) dropItemSnapshots(ctx context.Context) {
	iter := c.rdb.Scan(ctx, 0, itemsKeyPattern, 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		logger.Debug(ctx, "Redis scan failed", "error", err)
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		logger.Debug(ctx, "Redis drop item snapshots failed", "error", err)
	}
}
