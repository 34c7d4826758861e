package pipeline

import (
	"context"

	"github.com/cinerec/cinerec/core"
)

// Pipeline 把一条推荐列表的生产过程拆成可组合的 Node 链：
// Recall → Filter/Enrich → ReRank。个性化列表与分支列表各自是一条链。
type Pipeline struct {
	Nodes []Node
}

func (p *Pipeline) Run(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	cur := items
	for _, node := range p.Nodes {
		next, err := node.Process(ctx, rctx, cur)
		if err != nil {
			return nil, err
		}
		cur = next
	}
	return cur, nil
}
