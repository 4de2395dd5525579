package testutil

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"jeeforces/internal/services"
)

// Cache is a JSON round-tripping map cache. Entries never expire.
type Cache struct {
	mu      sync.Mutex
	entries map[string][]byte
	Gets    int
	Hits    int
}

var _ services.Cache = (*Cache)(nil)

func NewCache() *Cache {
	return &Cache{entries: map[string][]byte{}}
}

func (c *Cache) Get(_ context.Context, key string, dest interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Gets++
	data, ok := c.entries[key]
	if !ok {
		return services.ErrCacheMiss
	}
	c.Hits++
	return json.Unmarshal(data, dest)
}

func (c *Cache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = data
	return nil
}

func (c *Cache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range keys {
		delete(c.entries, key)
	}
	return nil
}

func (c *Cache) Has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[key]
	return ok
}
