package core

import "github.com/cinerec/cinerec/pkg/utils"

// Item 是推荐链路中的统一承载结构：片库行、分数、补全后的展示记录、标签。
// Labels 用于解释与策略驱动；Score 用于排序决策。
type Item struct {
	ID       int64
	Score    float64
	Movie    *Movie         // 片库行（召回阶段填充）
	Enriched *EnrichedMovie // 元数据补全结果（enrich 阶段填充）
	Labels   map[string]utils.Label
}

func NewItem(id int64) *Item {
	return &Item{
		ID:     id,
		Labels: make(map[string]utils.Label),
	}
}

// NewMovieItem 从片库行构建 Item，ID 取影片的 TMDB id。
func NewMovieItem(m *Movie) *Item {
	it := NewItem(m.ID)
	it.Movie = m
	return it
}

// PutLabel 写入 Label；若已存在同名 key，则按默认 Merge 规则累积。
func (it *Item) PutLabel(key string, lbl utils.Label) {
	if it.Labels == nil {
		it.Labels = make(map[string]utils.Label)
	}
	if old, ok := it.Labels[key]; ok {
		it.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	it.Labels[key] = lbl
}

// Title 返回展示标题：优先取补全记录，其次取片库行。
func (it *Item) Title() string {
	if it.Enriched != nil && it.Enriched.Title != "" {
		return it.Enriched.Title
	}
	if it.Movie != nil {
		return it.Movie.Title
	}
	return ""
}
