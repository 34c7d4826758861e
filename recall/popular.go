package recall

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/cinerec/cinerec/core"
	"github.com/cinerec/cinerec/pipeline"
	"github.com/cinerec/cinerec/pkg/utils"
)

// PopularRecall 是热门召回源，支持从 Store 读取热门影片列表。
//   - 如果 Store 实现了 core.KeyValueStore，优先使用 ZRange（有序集合，按人气分排序）
//   - 否则从普通 key 读取 JSON id 数组
//   - Store 不可用时，使用内存中的 IDs 作为 fallback
//
// PopularRecall 同时实现了 Source 和 Node 接口，可以直接在 Pipeline 中使用；
// 情绪召回的 "Popular" 回退也经由它。
type PopularRecall struct {
	Store  core.Store
	Key    string        // 存储 key，例如 "popular:movies"
	IDs    []int64       // fallback 内存列表
	Models CatalogSource // 可选：命中片库时带上片库行
}

func (r *PopularRecall) Name() string        { return "recall.popular" }
func (r *PopularRecall) Kind() pipeline.Kind { return pipeline.KindRecall }

// Process 实现 Node 接口，直接调用 Recall。
func (r *PopularRecall) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	return r.Recall(ctx, rctx)
}

// Recall 实现 Source 接口。
func (r *PopularRecall) Recall(
	ctx context.Context,
	_ *core.RecommendContext,
) ([]*core.Item, error) {
	var ids []int64

	if r.Store != nil && r.Key != "" {
		if kvStore, ok := r.Store.(core.KeyValueStore); ok {
			// 有序集合：ZRange 取人气 Top 100
			members, err := kvStore.ZRange(ctx, r.Key, 0, 99)
			if err == nil && len(members) > 0 {
				ids = make([]int64, 0, len(members))
				for _, m := range members {
					if id, err := strconv.ParseInt(m, 10, 64); err == nil {
						ids = append(ids, id)
					}
				}
			}
		} else {
			// 普通 key：读取 JSON 数组
			data, err := r.Store.Get(ctx, r.Key)
			if err == nil {
				var parsed []int64
				if json.Unmarshal(data, &parsed) == nil {
					ids = parsed
				}
			}
		}
	}

	// Fallback：使用内存 IDs
	if len(ids) == 0 {
		ids = r.IDs
	}

	out := make([]*core.Item, 0, len(ids))
	for _, id := range ids {
		it := core.NewItem(id)
		if r.Models != nil {
			it.Movie = r.Models.ByID(id)
		}
		it.PutLabel("recall_source", utils.Label{Value: "popular", Source: "recall"})
		out = append(out, it)
	}
	return out, nil
}
