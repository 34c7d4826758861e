// Package enrich 把召回结果补齐为可展示的完整条目：
// 经由外部元数据源（tmdb 包）拉取详情，带进程内 LRU 缓存与有界并发。
package enrich

import (
	"context"
	"encoding/json"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/cinerec/cinerec/core"
)

// DefaultCacheSize 是进程内缓存默认容量。
const DefaultCacheSize = 1024

// cacheEntry 区分命中与"确认不存在"两种缓存值；
// 负缓存避免对已知 404 的 id 反复打外部接口。
type cacheEntry struct {
	movie    *core.EnrichedMovie
	notFound bool
}

// Cache 是按影片 id 的 LRU 缓存，允许多 goroutine 并发读写。
type Cache struct {
	inner *lru.Cache[int64, cacheEntry]
}

// NewCache 创建容量为 size 的缓存；size<=0 使用 DefaultCacheSize。
func NewCache(size int) *Cache {
	if size <= 0 {
		size = DefaultCacheSize
	}
	inner, _ := lru.New[int64, cacheEntry](size)
	return &Cache{inner: inner}
}

// Get 返回缓存值。ok 为 true 时 movie 可能为 nil，表示负缓存命中。
func (c *Cache) Get(id int64) (movie *core.EnrichedMovie, ok bool) {
	entry, ok := c.inner.Get(id)
	if !ok {
		return nil, false
	}
	if entry.notFound {
		return nil, true
	}
	return entry.movie, true
}

// Put 写入正向缓存。
func (c *Cache) Put(id int64, movie *core.EnrichedMovie) {
	c.inner.Add(id, cacheEntry{movie: movie})
}

// PutNotFound 写入负缓存。
func (c *Cache) PutNotFound(id int64) {
	c.inner.Add(id, cacheEntry{notFound: true})
}

// Len 返回缓存当前条目数。
func (c *Cache) Len() int {
	return c.inner.Len()
}

// SharedCache 是跨进程共享的二级缓存，由 core.Store 支撑
// （部署多副本时可指向同一 Redis）。miss 时返回 core.ErrStoreNotFound。
type SharedCache struct {
	// Store 底层存储
	Store core.Store
	// KeyPrefix 键前缀，默认 "enrich:movie"
	KeyPrefix string
}

func (s *SharedCache) key(id int64) string {
	prefix := s.KeyPrefix
	if prefix == "" {
		prefix = "enrich:movie"
	}
	return fmt.Sprintf("%s:%d", prefix, id)
}

// Get 读取共享缓存中的元数据。
func (s *SharedCache) Get(ctx context.Context, id int64) (*core.EnrichedMovie, error) {
	raw, err := s.Store.Get(ctx, s.key(id))
	if err != nil {
		return nil, err
	}
	var movie core.EnrichedMovie
	if err := json.Unmarshal(raw, &movie); err != nil {
		return nil, fmt.Errorf("enrich: decode shared cache for %d: %w", id, err)
	}
	return &movie, nil
}

// Put 写入共享缓存，ttl 由调用方决定。
func (s *SharedCache) Put(ctx context.Context, id int64, movie *core.EnrichedMovie, ttlSeconds int) error {
	b, err := json.Marshal(movie)
	if err != nil {
		return fmt.Errorf("enrich: encode shared cache for %d: %w", id, err)
	}
	return s.Store.Set(ctx, s.key(id), b, ttlSeconds)
}
