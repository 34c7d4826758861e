package filter

import (
	"context"

	"github.com/cinerec/cinerec/core"
)

// Poster 是展示质量过滤器：剔除补全后仍没有海报的记录。
// 没有视觉素材的条目被视为不完整，不进入推荐货架——这不是错误，
// 只是展示层面的质量闸。必须放在 enrich 节点之后。
type Poster struct{}

func (f *Poster) Name() string { return "filter.poster" }

func (f *Poster) ShouldFilter(
	_ context.Context,
	_ *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil {
		return true, nil
	}
	return item.Enriched == nil || item.Enriched.PosterURL == "", nil
}
