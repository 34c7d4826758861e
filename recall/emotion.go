package recall

import (
	"context"
	"math/rand"
	"sort"

	"github.com/cinerec/cinerec/core"
	"github.com/cinerec/cinerec/pipeline"
	"github.com/cinerec/cinerec/pkg/text"
	"github.com/cinerec/cinerec/pkg/utils"
)

// EmotionGenres 是静态的情绪→候选类型映射表。
// 分类器的标签闭集就是这张表的 key 集合；未识别标签回退到 PopularGenre。
var EmotionGenres = map[string][]string{
	"joy":          {"Comedy", "Musical", "Family", "Animation"},
	"sadness":      {"Drama", "Romance", "Music"},
	"anger":        {"Action", "Thriller", "Crime", "War"},
	"anticipation": {"Adventure", "Sci-Fi", "Mystery", "Fantasy"},
	"surprise":     {"Thriller", "Mystery", "Fantasy", "Horror"},
	"disgust":      {"Horror", "Thriller", "Crime"},
	"fear":         {"Horror", "Mystery", "Thriller"},
	"trust":        {"Drama", "Romance", "Family", "History"},
}

// PopularGenre 是未识别情绪标签的默认候选集标记。
const PopularGenre = "Popular"

// GenresForEmotion 查映射表；未识别标签返回 {"Popular"}。
func GenresForEmotion(label string) []string {
	if genres, ok := EmotionGenres[label]; ok {
		return genres
	}
	return []string{PopularGenre}
}

// EmotionRecall 是情绪驱动的召回源：自由文本 → 情绪标签 → 候选类型 → 影片。
//
// 类型过滤是尽力而为的增强，不是硬约束：参考数据里 genres 字段不可靠，
// 过滤命中不足 n 部时回退为全片库均匀抽样。带用户类型偏好画像
// （rctx.Profile 的 "genre:<名称>" 权重，见 feast 包）时，
// 过滤池按偏好加权排序后取前 n，否则均匀抽样。
type EmotionRecall struct {
	Models EmotionSource

	// TopK 是 Node 形态下的默认返回条数
	TopK int

	// Popular 可选：未识别标签走 "Popular" 候选时优先从热门列表取
	Popular *PopularRecall

	// Rand 可注入随机源（测试用）
	Rand *rand.Rand
}

func (r *EmotionRecall) Name() string        { return "recall.emotion" }
func (r *EmotionRecall) Kind() pipeline.Kind { return pipeline.KindRecall }

// Process 实现 Node 接口，心情文本取自 rctx.MoodText，
// 检出的情绪标签写回请求级 Label "emotion"。
func (r *EmotionRecall) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	if r.Models == nil || rctx == nil {
		return nil, nil
	}
	label, items, err := r.DetectAndRecommend(ctx, rctx, rctx.MoodText, effectiveN(rctx, r.TopK, 10))
	if err != nil {
		return nil, err
	}
	rctx.PutLabel("emotion", utils.Label{Value: label, Source: "recall"})
	return items, nil
}

// Recall 实现 Source 接口。
func (r *EmotionRecall) Recall(
	ctx context.Context,
	rctx *core.RecommendContext,
) ([]*core.Item, error) {
	return r.Process(ctx, rctx, nil)
}

// Detect 清洗文本并分类，返回情绪标签与候选类型集。
// 分类器出错时按未识别标签处理（"Popular" 回退），不向上传播。
func (r *EmotionRecall) Detect(ctx context.Context, raw string) (string, []string) {
	cleaned := text.Clean(raw)
	label, err := r.Models.PredictEmotion(ctx, cleaned)
	if err != nil {
		return "", []string{PopularGenre}
	}
	return label, GenresForEmotion(label)
}

// DetectAndRecommend 返回检出的情绪标签与 n 部候选影片。
// n <= 0 返回空列表；任何降级路径仍然凑满 n 部（片库足够大时）。
func (r *EmotionRecall) DetectAndRecommend(
	ctx context.Context,
	rctx *core.RecommendContext,
	raw string,
	n int,
) (string, []*core.Item, error) {
	label, genres := r.Detect(ctx, raw)
	if n <= 0 {
		return label, nil, nil
	}

	// "Popular" 候选：优先热门列表，不足时均匀抽样补齐
	if len(genres) == 1 && genres[0] == PopularGenre {
		items := r.popularOrSample(ctx, rctx, n)
		return label, items, nil
	}

	pool := r.filterByGenres(genres)
	if len(pool) < n {
		// 类型过滤命中不足：回退为全片库均匀抽样
		return label, sampleRows(r.Models, n, r.Rand, "emotion"), nil
	}

	items := r.pickFromPool(rctx, pool, n)
	return label, items, nil
}

// filterByGenres 收集带任一候选类型标签的片库行。
func (r *EmotionRecall) filterByGenres(genres []string) []*core.Movie {
	var pool []*core.Movie
	for row := 0; row < r.Models.Len(); row++ {
		m := r.Models.Movie(row)
		for _, g := range genres {
			if m.HasGenre(g) {
				pool = append(pool, m)
				break
			}
		}
	}
	return pool
}

// pickFromPool 从过滤池中选 n 部：有类型偏好画像时按偏好加权排序取前 n，
// 否则均匀随机抽样。
func (r *EmotionRecall) pickFromPool(rctx *core.RecommendContext, pool []*core.Movie, n int) []*core.Item {
	weighted := false
	if rctx != nil && len(rctx.Profile) > 0 {
		for _, m := range pool {
			if genreAffinity(rctx.Profile, m) > 0 {
				weighted = true
				break
			}
		}
	}

	picked := pool
	if weighted {
		picked = make([]*core.Movie, len(pool))
		copy(picked, pool)
		sort.SliceStable(picked, func(a, b int) bool {
			return genreAffinity(rctx.Profile, picked[a]) > genreAffinity(rctx.Profile, picked[b])
		})
	} else {
		var perm []int
		if r.Rand != nil {
			perm = r.Rand.Perm(len(pool))
		} else {
			perm = rand.Perm(len(pool))
		}
		picked = make([]*core.Movie, 0, n)
		for _, i := range perm[:n] {
			picked = append(picked, pool[i])
		}
	}

	out := make([]*core.Item, 0, n)
	for _, m := range picked[:n] {
		it := core.NewMovieItem(m)
		it.PutLabel("recall_source", utils.Label{Value: "emotion", Source: "recall"})
		out = append(out, it)
	}
	return out
}

// popularOrSample 走热门列表回退，列表不可用或不足时均匀抽样补齐。
func (r *EmotionRecall) popularOrSample(ctx context.Context, rctx *core.RecommendContext, n int) []*core.Item {
	var out []*core.Item
	if r.Popular != nil {
		items, err := r.Popular.Recall(ctx, rctx)
		if err == nil {
			out = items
			if len(out) > n {
				out = out[:n]
			}
		}
	}
	if len(out) < n {
		seen := make(map[int64]struct{}, len(out))
		for _, it := range out {
			seen[it.ID] = struct{}{}
		}
		for _, it := range sampleRows(r.Models, n, r.Rand, "emotion") {
			if _, dup := seen[it.ID]; dup {
				continue
			}
			out = append(out, it)
			if len(out) >= n {
				break
			}
		}
	}
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// genreAffinity 取影片各类型在画像中的最大偏好权重。
func genreAffinity(profile map[string]float64, m *core.Movie) float64 {
	var best float64
	for _, g := range m.Genres {
		if w := profile["genre:"+g]; w > best {
			best = w
		}
	}
	return best
}
