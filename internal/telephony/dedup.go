package telephony

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"vpbx-platform/pkg/utils"
)

const dedupKeyPrefix = "vpbx:webhook:"

// RedisDeduper shares delivery state across API replicas.
type RedisDeduper struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisDeduper(rdb *redis.Client, ttl time.Duration) *RedisDeduper {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &RedisDeduper{rdb: rdb, ttl: ttl}
}

func (d *RedisDeduper) FirstDelivery(ctx context.Context, key string) (bool, error) {
	return utils.SetOnce(ctx, d.rdb, dedupKeyPrefix+key, d.ttl)
}

func (d *RedisDeduper) Forget(ctx context.Context, key string) error {
	return utils.Release(ctx, d.rdb, dedupKeyPrefix+key)
}

// MemoryDeduper is a single-process Deduper for local runs and tests.
type MemoryDeduper struct {
	mu   sync.Mutex
	ttl  time.Duration
	seen map[string]time.Time
	now  func() time.Time
}

func NewMemoryDeduper(ttl time.Duration) *MemoryDeduper {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &MemoryDeduper{ttl: ttl, seen: make(map[string]time.Time), now: time.Now}
}

func (d *MemoryDeduper) FirstDelivery(_ context.Context, key string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	for k, exp := range d.seen {
		if now.After(exp) {
			delete(d.seen, k)
		}
	}
	if _, ok := d.seen[key]; ok {
		return false, nil
	}
	d.seen[key] = now.Add(d.ttl)
	return true, nil
}

func (d *MemoryDeduper) Forget(_ context.Context, key string) error {
	d.mu.Lock()
	delete(d.seen, key)
	d.mu.Unlock()
	return nil
}
