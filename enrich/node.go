package enrich

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/cinerec/cinerec/core"
	"github.com/cinerec/cinerec/pipeline"
)

// Provider 是单部影片的元数据来源，tmdb.Client 是其主要实现。
type Provider interface {
	Details(ctx context.Context, id int64) (*core.EnrichedMovie, error)
}

// DefaultConcurrency 是单次批量补全的默认并发上限。
const DefaultConcurrency = 8

// Node 批量补全条目元数据：缓存命中直接用，miss 并发拉取，
// 失败写降级记录（Degraded=true，标题回退目录数据）且不影响其他条目。
// 输出顺序与输入一致。
type Node struct {
	// Provider 元数据来源
	Provider Provider
	// Cache 进程内缓存，nil 时不缓存
	Cache *Cache
	// Shared 可选的跨进程二级缓存
	Shared *SharedCache
	// SharedTTL 共享缓存写入 TTL（秒），默认 3600
	SharedTTL int
	// Concurrency 并发上限，默认 DefaultConcurrency
	Concurrency int
}

func (n *Node) Name() string { return "enrich" }

func (n *Node) Kind() pipeline.Kind { return pipeline.KindPostProcess }

// Process 补全 items 并原样保序返回。
func (n *Node) Process(ctx context.Context, rctx *core.RecommendContext, items []*core.Item) ([]*core.Item, error) {
	if len(items) == 0 {
		return items, nil
	}

	// miss 的条目按原下标记录，结果写回同一下标，保持输入顺序。
	type pending struct {
		index int
		id    int64
	}
	var misses []pending
	for i, item := range items {
		if item.Enriched != nil {
			continue
		}
		if n.Cache != nil {
			if movie, ok := n.Cache.Get(item.ID); ok {
				item.Enriched = n.orDegraded(item, movie)
				continue
			}
		}
		misses = append(misses, pending{index: i, id: item.ID})
	}
	if len(misses) == 0 {
		return items, nil
	}

	limit := n.Concurrency
	if limit <= 0 {
		limit = DefaultConcurrency
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	results := make([]*core.EnrichedMovie, len(misses))
	for i, p := range misses {
		i, p := i, p
		g.Go(func() error {
			results[i] = n.fetch(gctx, p.id)
			return nil
		})
	}
	// 每个 goroutine 都吞掉自身错误，Wait 只等待完成。
	_ = g.Wait()

	for i, p := range misses {
		item := items[p.index]
		item.Enriched = n.orDegraded(item, results[i])
	}
	return items, nil
}

// fetch 依次尝试共享缓存与 Provider；全部失败返回 nil，由调用方降级。
func (n *Node) fetch(ctx context.Context, id int64) *core.EnrichedMovie {
	if n.Shared != nil {
		if movie, err := n.Shared.Get(ctx, id); err == nil {
			if n.Cache != nil {
				n.Cache.Put(id, movie)
			}
			return movie
		}
	}
	if n.Provider == nil {
		return nil
	}
	movie, err := n.Provider.Details(ctx, id)
	if err != nil {
		if n.Cache != nil && isNotFoundError(err) {
			n.Cache.PutNotFound(id)
		}
		return nil
	}
	if n.Cache != nil {
		n.Cache.Put(id, movie)
	}
	if n.Shared != nil {
		ttl := n.SharedTTL
		if ttl <= 0 {
			ttl = 3600
		}
		_ = n.Shared.Put(ctx, id, movie, ttl)
	}
	return movie
}

// orDegraded 在元数据缺失时用目录数据构造降级记录。
func (n *Node) orDegraded(item *core.Item, movie *core.EnrichedMovie) *core.EnrichedMovie {
	if movie != nil {
		return movie
	}
	out := &core.EnrichedMovie{
		ID:       item.ID,
		Title:    item.Title(),
		Degraded: true,
	}
	if item.Movie != nil {
		out.VoteAverage = item.Movie.VoteAverage
		out.ReleaseDate = item.Movie.ReleaseDate
		out.Genres = append(out.Genres, item.Movie.Genres...)
	}
	return out
}

// isNotFoundError 识别"确认不存在"类错误，用于负缓存。
// 404 表示该 id 在外部源确实不存在，其他失败可能是瞬时的，不缓存。
func isNotFoundError(err error) bool {
	if core.IsNotFound(err) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "status 404")
}

// EnrichOne 补全单个条目，供非流水线调用方使用。
func (n *Node) EnrichOne(ctx context.Context, item *core.Item) *core.EnrichedMovie {
	if item.Enriched != nil {
		return item.Enriched
	}
	if n.Cache != nil {
		if movie, ok := n.Cache.Get(item.ID); ok {
			item.Enriched = n.orDegraded(item, movie)
			return item.Enriched
		}
	}
	item.Enriched = n.orDegraded(item, n.fetch(ctx, item.ID))
	return item.Enriched
}
