// Package engine 把召回、过滤、补全组装为完整的推荐服务门面。
//
// 单次请求的状态机：
//
//	开始 → 个性化列表（协同过滤，固定 10 部）→ 分支选择（心情 / 相似 / 无）
//	    → 元数据补全 → 展示过滤 → 返回
//
// 所有请求级降级都在各组件内部吸收，Recommend 只会因工件加载失败报错。
package engine

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"

	"github.com/cinerec/cinerec/core"
	"github.com/cinerec/cinerec/enrich"
	"github.com/cinerec/cinerec/feast"
	"github.com/cinerec/cinerec/filter"
	"github.com/cinerec/cinerec/model"
	"github.com/cinerec/cinerec/recall"
)

const (
	// DefaultN 是未指定条数时的默认值
	DefaultN = 10

	// PersonalizedN 是个性化列表的固定条数
	PersonalizedN = 10

	// DefaultSuggestLimit 是标题联想的默认条数
	DefaultSuggestLimit = 10
)

// Request 是一次推荐请求。MoodText 与 Query 最多取其一生效，
// 心情优先；两者皆空时只返回个性化列表。
type Request struct {
	UserID   string
	MoodText string
	Query    string
	// N 主列表条数：负数按 0 处理，0 取 DefaultN
	N int
}

// Result 是一次推荐的完整结果。
type Result struct {
	// Personalized 个性化货架（协同过滤），与请求输入无关
	Personalized []*core.EnrichedMovie `json:"personalized"`

	// Main 分支结果：心情或相似推荐；无分支输入时为空
	Main []*core.EnrichedMovie `json:"main"`

	// Label 主列表的展示标题
	Label string `json:"label"`

	// Emotion 检出的情绪标签（仅心情分支，可能为空）
	Emotion string `json:"detected_emotion,omitempty"`
}

// Suggestion 是标题联想的单条结果。
type Suggestion struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

// Engine 是推荐引擎门面。零值不可用，用 New 构造。
type Engine struct {
	models *model.Store

	rating  *recall.RatingRecall
	similar *recall.SimilarRecall
	emotion *recall.EmotionRecall

	enricher *enrich.Node
	filters  []filter.Filter
	profiles *feast.Profiles
}

// Option 配置 Engine。
type Option func(*Engine)

// WithEnricher 设置元数据补全节点。不设置时所有条目都走降级记录，
// 会被海报过滤全部剔除，所以生产环境必配。
func WithEnricher(n *enrich.Node) Option {
	return func(e *Engine) { e.enricher = n }
}

// WithFilters 追加海报过滤之外的展示过滤器（如 filter.Seen）。
func WithFilters(filters ...filter.Filter) Option {
	return func(e *Engine) { e.filters = append(e.filters, filters...) }
}

// WithPopular 设置热门召回，供情绪分支的 "Popular" 回退使用。
func WithPopular(p *recall.PopularRecall) Option {
	return func(e *Engine) { e.emotion.Popular = p }
}

// WithProfiles 设置用户画像来源（类型偏好加权）。
func WithProfiles(p *feast.Profiles) Option {
	return func(e *Engine) { e.profiles = p }
}

// WithRand 注入随机源，让抽样回退可复现（测试用）。
// 注入的源会被加锁封装：引擎在并发请求间共享召回源，
// 而单个 rand.Rand 不是并发安全的。
func WithRand(r *rand.Rand) Option {
	return func(e *Engine) {
		lr := rand.New(&lockedSource{src: r})
		e.similar.Rand = lr
		e.rating.Rand = lr
		e.emotion.Rand = lr
	}
}

// lockedSource 与全局随机源的做法一致：用互斥锁保护底层 Source。
type lockedSource struct {
	mu  sync.Mutex
	src rand.Source64
}

func (s *lockedSource) Int63() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.src.Int63()
}

func (s *lockedSource) Uint64() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.src.Uint64()
}

func (s *lockedSource) Seed(seed int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.src.Seed(seed)
}

// New 构造引擎。models 的加载推迟到首次 Recommend（或调用方先行
// EnsureLoaded，把工件错误挡在启动阶段）。
func New(models *model.Store, opts ...Option) *Engine {
	e := &Engine{
		models:  models,
		rating:  &recall.RatingRecall{Models: models},
		similar: &recall.SimilarRecall{Models: models},
		emotion: &recall.EmotionRecall{Models: models},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Recommend 执行一次完整推荐。
func (e *Engine) Recommend(ctx context.Context, req *Request) (*Result, error) {
	if err := e.models.EnsureLoaded(ctx); err != nil {
		return nil, err
	}

	n := req.N
	if n < 0 {
		n = 0
	} else if n == 0 {
		n = DefaultN
	}

	rctx := &core.RecommendContext{
		UserID:   req.UserID,
		MoodText: req.MoodText,
		Query:    req.Query,
		N:        n,
	}
	if e.profiles != nil {
		rctx.Profile = e.profiles.GenreAffinity(ctx, req.UserID)
	}

	// 个性化货架永远计算，与分支输入无关。
	pItems, err := e.rating.RecommendForUser(ctx, req.UserID, PersonalizedN)
	if err != nil {
		return nil, err
	}
	personalized := e.finish(ctx, rctx, pItems)

	result := &Result{
		Personalized: personalized,
		Label:        "Only For You",
	}

	switch {
	case strings.TrimSpace(req.MoodText) != "":
		label, items, err := e.emotion.DetectAndRecommend(ctx, rctx, req.MoodText, n)
		if err != nil {
			return nil, err
		}
		result.Emotion = label
		result.Label = emotionLabel(label)
		result.Main = e.finish(ctx, rctx, items)
	case strings.TrimSpace(req.Query) != "":
		items, err := e.similar.RecommendSimilar(ctx, req.Query, n)
		if err != nil {
			return nil, err
		}
		result.Label = fmt.Sprintf("Similar to '%s'", req.Query)
		result.Main = e.finish(ctx, rctx, items)
	}
	return result, nil
}

// Suggest 对片库标题做大小写无关的子串联想，按片库顺序返回。
// limit <= 0 取 DefaultSuggestLimit。
func (e *Engine) Suggest(ctx context.Context, prefix string, limit int) ([]Suggestion, error) {
	if err := e.models.EnsureLoaded(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultSuggestLimit
	}
	matches := e.models.Catalog().Suggest(prefix, limit)
	out := make([]Suggestion, 0, len(matches))
	for _, m := range matches {
		out = append(out, Suggestion{ID: m.ID, Title: m.Title})
	}
	return out, nil
}

// finish 对召回结果做补全与展示过滤，产出排序不变的展示记录。
func (e *Engine) finish(ctx context.Context, rctx *core.RecommendContext, items []*core.Item) []*core.EnrichedMovie {
	if len(items) == 0 {
		return nil
	}

	if e.enricher != nil {
		items, _ = e.enricher.Process(ctx, rctx, items)
	} else {
		for _, it := range items {
			degradeInPlace(it)
		}
	}

	node := &filter.Node{Filters: append([]filter.Filter{&filter.Poster{}}, e.filters...)}
	items, _ = node.Process(ctx, rctx, items)

	out := make([]*core.EnrichedMovie, 0, len(items))
	for _, it := range items {
		if it.Enriched != nil {
			out = append(out, it.Enriched)
		}
	}
	return out
}

// degradeInPlace 无补全节点时直接用片库数据构造降级记录。
func degradeInPlace(it *core.Item) {
	if it.Enriched != nil {
		return
	}
	em := &core.EnrichedMovie{ID: it.ID, Title: it.Title(), Degraded: true}
	if it.Movie != nil {
		em.VoteAverage = it.Movie.VoteAverage
		em.ReleaseDate = it.Movie.ReleaseDate
		em.Genres = append(em.Genres, it.Movie.Genres...)
	}
	it.Enriched = em
}

// emotionLabel 把情绪标签转为展示标题，如 joy → "Joy Recommendations"。
// 标签为空（分类失败）时回退 "Popular Recommendations"。
func emotionLabel(label string) string {
	if label == "" {
		label = "popular"
	}
	return capitalize(label) + " Recommendations"
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
