package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// memoryCache is the in-process CacheService used when REDIS_URL is unset.
// Values are stored JSON-encoded so callers get copies, as with Redis.
type memoryCache struct {
	items *gocache.Cache
}

func NewMemoryCache() CacheService {
	return &memoryCache{items: gocache.New(gocache.NoExpiration, 10*time.Minute)}
}

func (m *memoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}
	if ttl <= 0 {
		ttl = gocache.NoExpiration
	}
	m.items.Set(key, data, ttl)
	return nil
}

func (m *memoryCache) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := m.items.Get(key)
	if !ok {
		return ErrCacheMiss
	}
	if err := json.Unmarshal(raw.([]byte), dest); err != nil {
		return fmt.Errorf("failed to unmarshal cache value: %w", err)
	}
	return nil
}

// DeletePattern removes keys matching a glob pattern (redis MATCH syntax subset)
func (m *memoryCache) DeletePattern(ctx context.Context, pattern string) error {
	for key := range m.items.Items() {
		matched, err := path.Match(pattern, key)
		if err != nil {
			return err
		}
		if matched {
			m.items.Delete(key)
		}
	}
	return nil
}
