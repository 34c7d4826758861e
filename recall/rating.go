package recall

import (
	"context"
	"hash/fnv"
	"math/rand"
	"sort"
	"strconv"
	"strings"

	"github.com/cinerec/cinerec/core"
	"github.com/cinerec/cinerec/pipeline"
	"github.com/cinerec/cinerec/pkg/utils"
)

// userIDHashBound 是非数值用户 ID 哈希归一后的取值上界。
// 映射不可逆且容忍碰撞：碰撞只意味着两个用户共享一份协同过滤画像，
// 推荐质量优雅退化，不是正确性问题。
const userIDHashBound = 1_000_000

// RatingRecall 是协同过滤召回源（u2i 方向）：对片库全量预测
// “该用户会给这部影片打几分”，按预测分降序取 TopN。
//
// 全量扫描每次请求一遍：片库规模有界，且只在推荐请求时执行，
// 不需要增量/堆优化（实现方可以加有界堆做纯性能优化，但输出顺序必须不变）。
type RatingRecall struct {
	Models RatingSource

	// TopK 是 Node 形态下的默认返回条数
	TopK int

	// Rand 预留给均匀抽样回退（预测全部失败时），测试可注入
	Rand *rand.Rand
}

func (r *RatingRecall) Name() string        { return "recall.rating" }
func (r *RatingRecall) Kind() pipeline.Kind { return pipeline.KindRecall }

// Process 实现 Node 接口。
func (r *RatingRecall) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	return r.Recall(ctx, rctx)
}

// Recall 实现 Source 接口。
func (r *RatingRecall) Recall(
	ctx context.Context,
	rctx *core.RecommendContext,
) ([]*core.Item, error) {
	if r.Models == nil || rctx == nil {
		return nil, nil
	}
	return r.RecommendForUser(ctx, rctx.UserID, effectiveN(rctx, r.TopK, 10))
}

// RecommendForUser 为用户返回预测评分最高的 n 部影片。
// 同分时按片库行号稳定排序；n <= 0 返回空列表。
func (r *RatingRecall) RecommendForUser(ctx context.Context, rawUserID string, n int) ([]*core.Item, error) {
	if n <= 0 {
		return nil, nil
	}

	userID := NormalizeUserID(rawUserID)

	type scoredRow struct {
		row   int
		score float64
	}
	scores := make([]scoredRow, 0, r.Models.Len())
	for row := 0; row < r.Models.Len(); row++ {
		m := r.Models.Movie(row)
		score, err := r.Models.PredictRating(ctx, userID, m.ID)
		if err != nil {
			// 单条预测失败不掀翻整个列表；该行落到榜尾
			score = 0
		}
		scores = append(scores, scoredRow{row: row, score: score})
	}

	sort.SliceStable(scores, func(a, b int) bool {
		return scores[a].score > scores[b].score
	})
	if len(scores) > n {
		scores = scores[:n]
	}

	out := make([]*core.Item, 0, len(scores))
	for _, s := range scores {
		it := core.NewMovieItem(r.Models.Movie(s.row))
		it.Score = s.score
		it.PutLabel("recall_source", utils.Label{Value: "rating", Source: "recall"})
		out = append(out, it)
	}
	return out, nil
}

// NormalizeUserID 把任意形态的用户 ID 归一为整数：
// 本身是整数形态则直接解析；否则取其字符串形式的 FNV-1a 哈希并
// 约减到一个大上界内，得到稳定的非负整数。
func NormalizeUserID(raw string) int64 {
	raw = strings.TrimSpace(raw)
	if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return id
	}
	h := fnv.New64a()
	h.Write([]byte(raw))
	return int64(h.Sum64() % userIDHashBound)
}
