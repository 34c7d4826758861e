package rerank

import (
	"context"

	"github.com/cinerec/cinerec/core"
	"github.com/cinerec/cinerec/pipeline"
)

// Diversity 是一个简单的多样性 ReRank：限制单一类型在列表中的占比，
// 避免情绪分支召回十部清一色的恐怖片。保持原有相对顺序，
// 超配额的条目整体后移而不是丢弃。
//
// 类型取自片库行的首个 genre；无类型信息的条目不受配额限制。
type Diversity struct {
	// MaxPerGenre 单一类型允许的最大条数，<= 0 表示不限制
	MaxPerGenre int
}

func (n *Diversity) Name() string {
	return "rerank.diversity"
}

func (n *Diversity) Kind() pipeline.Kind {
	return pipeline.KindReRank
}

func (n *Diversity) Process(
	_ context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if n.MaxPerGenre <= 0 || len(items) == 0 {
		return items, nil
	}

	count := make(map[string]int, 16)
	kept := make([]*core.Item, 0, len(items))
	deferred := make([]*core.Item, 0)

	for _, it := range items {
		if it == nil {
			continue
		}
		genre := primaryGenre(it)
		if genre == "" {
			kept = append(kept, it)
			continue
		}
		if count[genre] >= n.MaxPerGenre {
			deferred = append(deferred, it)
			continue
		}
		count[genre]++
		kept = append(kept, it)
	}

	return append(kept, deferred...), nil
}

func primaryGenre(it *core.Item) string {
	if it.Movie != nil && len(it.Movie.Genres) > 0 {
		return it.Movie.Genres[0]
	}
	if it.Enriched != nil && len(it.Enriched.Genres) > 0 {
		return it.Enriched.Genres[0]
	}
	return ""
}
