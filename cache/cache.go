package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/allegro/bigcache/v3"
	"github.com/jinzhu/copier"
)

// Cache is a read-through cache, populate runs only on a miss.
type Cache interface {
	Get(target any, key string, populate func() (any, error)) error
	Delete(key string)
}

type defaultCache struct {
	internal *bigcache.BigCache
}

func New(ttl time.Duration) Cache {
	internal, _ := bigcache.New(context.Background(), bigcache.DefaultConfig(ttl))
	return &defaultCache{internal: internal}
}

func (c *defaultCache) Get(target any, key string, populate func() (any, error)) error {
	if value, err := c.internal.Get(key); err == nil {
		return json.Unmarshal(value, target)
	}
	data, err := populate()
	if err != nil {
		return err
	}
	if serialized, err := json.Marshal(data); err == nil {
		_ = c.internal.Set(key, serialized)
	}
	return copier.Copy(target, data)
}

func (c *defaultCache) Delete(key string) {
	_ = c.internal.Delete(key)
}
