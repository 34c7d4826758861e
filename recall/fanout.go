package recall

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/cinerec/cinerec/core"
	"github.com/cinerec/cinerec/pipeline"
	"github.com/cinerec/cinerec/pkg/utils"
)

// Fanout 是一个 Recall Node：并发执行多个召回源，并合并结果。
// 支持超时、限流、按优先级合并（优先级按 Sources 顺序）。
// 单个召回源失败或超时只丢弃自己的结果，不中断其他源。
type Fanout struct {
	Sources       []Source
	Dedup         bool
	Timeout       time.Duration // 每个召回源的超时时间
	MaxConcurrent int           // 最大并发数（0 表示无限制）
}

func (n *Fanout) Name() string        { return "recall.fanout" }
func (n *Fanout) Kind() pipeline.Kind { return pipeline.KindRecall }

func (n *Fanout) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	if len(n.Sources) == 0 {
		return nil, nil
	}

	// 各源的结果按源顺序归位，合并输出与完成顺序无关
	results := make([][]*core.Item, len(n.Sources))

	var sem chan struct{}
	if n.MaxConcurrent > 0 {
		sem = make(chan struct{}, n.MaxConcurrent)
	}

	eg, egCtx := errgroup.WithContext(ctx)
	for i, src := range n.Sources {
		i, src := i, src
		eg.Go(func() error {
			if sem != nil {
				sem <- struct{}{}
				defer func() { <-sem }()
			}

			recallCtx := egCtx
			if n.Timeout > 0 {
				var cancel context.CancelFunc
				recallCtx, cancel = context.WithTimeout(egCtx, n.Timeout)
				defer cancel()
			}

			items, err := src.Recall(recallCtx, rctx)
			if err != nil {
				// 超时或错误时返回空结果，不中断其他召回源
				return nil
			}
			for _, it := range items {
				it.PutLabel("recall_source", utils.Label{Value: src.Name(), Source: "recall"})
			}
			results[i] = items
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	out := make([]*core.Item, 0)
	seen := make(map[int64]*core.Item)
	for _, items := range results {
		for _, it := range items {
			if it == nil {
				continue
			}
			if !n.Dedup {
				out = append(out, it)
				continue
			}
			if old, ok := seen[it.ID]; ok {
				// 先出现的源优先级更高；后到的只合并 labels
				for k, v := range it.Labels {
					old.PutLabel(k, v)
				}
				continue
			}
			seen[it.ID] = it
			out = append(out, it)
		}
	}
	return out, nil
}
