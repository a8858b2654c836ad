package cache

import "time"

// CacheService layers a small in-process L1 over redis L2.
type CacheService interface {
	GetCache(key string) (interface{}, bool)
	SetCache(key string, value interface{}, expiration time.Duration) error
	DelCache(key string) error
	// GetOrLoad returns the cached value or runs loader once per key across
	// concurrent callers, caching the result.
	GetOrLoad(key string, expiration time.Duration, loader func() (interface{}, error)) (interface{}, error)
}
