package recall

import (
	"context"
	"math/rand"
	"sort"
	"strings"

	"github.com/cinerec/cinerec/core"
	"github.com/cinerec/cinerec/pipeline"
	"github.com/cinerec/cinerec/pkg/utils"
)

// SimilarRecall 是基于内容的召回源（Content-Based，i2i 方向）：
// 在预计算的物品相似度矩阵上做最近邻查找。
//
// 算法流程：
//  1. 标题大小写无关地命中标题索引，得到片库行号
//  2. 读取该行完整相似度向量（矩阵按需换页，不整块载入）
//  3. 全部行号按相似度降序排序，同分时按片库行号稳定升序
//  4. 剔除查询行自身（对角线自相似必然排第一），取前 n 行
//
// 标题未命中时按文档化契约降级为均匀随机抽样，不是错误：
// 调用方必须静默容忍非标题驱动的结果。
type SimilarRecall struct {
	Models SimilaritySource

	// TopK 是 Node 形态下的默认返回条数
	TopK int

	// Rand 可注入随机源（测试用）；nil 时使用全局随机源
	Rand *rand.Rand
}

func (r *SimilarRecall) Name() string        { return "recall.similar" }
func (r *SimilarRecall) Kind() pipeline.Kind { return pipeline.KindRecall }

// Process 实现 Node 接口，查询标题取自 rctx.Query。
func (r *SimilarRecall) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	return r.Recall(ctx, rctx)
}

// Recall 实现 Source 接口。
func (r *SimilarRecall) Recall(
	ctx context.Context,
	rctx *core.RecommendContext,
) ([]*core.Item, error) {
	if r.Models == nil || rctx == nil {
		return nil, nil
	}
	return r.RecommendSimilar(ctx, rctx.Query, effectiveN(rctx, r.TopK, 10))
}

// RecommendSimilar 返回与 title 最相似的 n 部影片。
// n < 0 钳到 0；n == 0 返回空列表，永远不是错误。
func (r *SimilarRecall) RecommendSimilar(_ context.Context, title string, n int) ([]*core.Item, error) {
	if n <= 0 {
		return nil, nil
	}

	row, ok := r.Models.RowIndexForTitle(strings.TrimSpace(title))
	if !ok {
		// 文档化回退：标题不在片库时均匀随机抽样
		return sampleRows(r.Models, n, r.Rand, "similar"), nil
	}

	sims, err := r.Models.SimilarityRow(row)
	if err != nil {
		return nil, err
	}

	order := make([]int, len(sims))
	for i := range order {
		order[i] = i
	}
	// 稳定排序保证同分时低行号在前
	sort.SliceStable(order, func(a, b int) bool {
		return sims[order[a]] > sims[order[b]]
	})

	out := make([]*core.Item, 0, n)
	for _, idx := range order {
		if idx == row {
			continue // 查询行自身永远不出现在结果里
		}
		it := core.NewMovieItem(r.Models.Movie(idx))
		it.Score = float64(sims[idx])
		it.PutLabel("recall_source", utils.Label{Value: "similar", Source: "recall"})
		out = append(out, it)
		if len(out) >= n {
			break
		}
	}
	return out, nil
}
