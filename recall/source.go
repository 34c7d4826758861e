package recall

import (
	"context"
	"math/rand"

	"github.com/cinerec/cinerec/core"
	"github.com/cinerec/cinerec/pkg/utils"
)

// Source 表示一个可复用的召回源（协同过滤/相似内容/情绪/热门/...）。
// 你可以把它理解为“可并发 fan-out 的策略单元”。
type Source interface {
	Name() string
	Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error)
}

// CatalogSource 是召回源对片库的最小依赖（接口定义在使用方，model.Store 实现）。
type CatalogSource interface {
	Len() int
	Movie(row int) *core.Movie
	ByID(id int64) *core.Movie
}

// SimilaritySource 在片库之上增加标题索引与相似度矩阵行读取。
type SimilaritySource interface {
	CatalogSource
	RowIndexForTitle(title string) (int, bool)
	SimilarityRow(i int) ([]float32, error)
}

// RatingSource 在片库之上增加评分预测能力。
type RatingSource interface {
	CatalogSource
	PredictRating(ctx context.Context, userID, itemID int64) (float64, error)
}

// EmotionSource 在片库之上增加情绪分类能力。
type EmotionSource interface {
	CatalogSource
	PredictEmotion(ctx context.Context, cleaned string) (string, error)
}

// sampleRows 从片库均匀随机抽取 n 个不重复的行（文档化的回退路径共用）。
// rng 为 nil 时使用全局随机源；n 大于片库时返回整个片库。
func sampleRows(src CatalogSource, n int, rng *rand.Rand, source string) []*core.Item {
	if n <= 0 || src.Len() == 0 {
		return nil
	}
	if n > src.Len() {
		n = src.Len()
	}
	var perm []int
	if rng != nil {
		perm = rng.Perm(src.Len())
	} else {
		perm = rand.Perm(src.Len())
	}
	out := make([]*core.Item, 0, n)
	for _, row := range perm[:n] {
		it := core.NewMovieItem(src.Movie(row))
		it.PutLabel("recall_source", utils.Label{Value: source, Source: "recall"})
		it.PutLabel("fallback", utils.Label{Value: "random_sample", Source: "recall"})
		out = append(out, it)
	}
	return out
}

// effectiveN 计算 Node 形态下的请求条数：请求里带了正数 N 用之，
// 否则退回 Node 配置的 TopK，再退回缺省值。
// 直接调用各召回源的方法形态时，n 的语义是精确的：负数钳到 0，
// 0 返回空列表而不是错误。
func effectiveN(rctx *core.RecommendContext, topK, fallback int) int {
	if rctx != nil && rctx.N > 0 {
		return rctx.N
	}
	if topK > 0 {
		return topK
	}
	return fallback
}
