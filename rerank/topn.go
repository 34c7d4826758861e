package rerank

import (
	"context"

	"github.com/cinerec/cinerec/core"
	"github.com/cinerec/cinerec/pipeline"
)

// TopN 是截断节点，在过滤/补全后把列表截到前 N 条。
// N <= 0 表示不截断。
type TopN struct {
	N int
}

func (n *TopN) Name() string {
	return "rerank.topn"
}

func (n *TopN) Kind() pipeline.Kind {
	return pipeline.KindReRank
}

func (n *TopN) Process(
	_ context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	limit := n.N
	if rctx != nil && rctx.N > 0 {
		limit = rctx.N
	}
	if limit <= 0 || len(items) <= limit {
		return items, nil
	}
	return items[:limit], nil
}
